/*
 * Copyright 2025 NetNynja Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package icmp measures device reachability with the system ping utility.
package icmp

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"time"

	"github.com/netnynja/netnynja/pkg/logger"
)

//go:generate mockgen -destination=mock_pinger.go -package=icmp github.com/netnynja/netnynja/pkg/icmp Pinger

// Result is the outcome of one ping run. LatencyMs is nil when no
// round-trip average could be parsed.
type Result struct {
	Reachable         bool
	LatencyMs         *float64
	PacketLossPercent float64
}

// Pinger measures ICMP reachability for a single host.
type Pinger interface {
	Ping(ctx context.Context, ip string) Result
}

const (
	defaultEchoCount   = 3
	defaultEchoTimeout = 2 * time.Second
)

var (
	// Linux iputils "rtt min/avg/max/mdev = 0.045/0.051/0.061/0.007 ms"
	// and BSD/macOS "round-trip min/avg/max/stddev = ...".
	rttRegex = regexp.MustCompile(`(?i)(?:rtt|round-trip)\s+min/avg/max.*?=\s*[\d.]+/([\d.]+)/`)

	// Windows "Average = 4ms".
	winAvgRegex = regexp.MustCompile(`(?i)Average\s*=\s*(\d+)ms`)

	lossRegex = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)%\s+(?:packet\s+)?loss`)
)

// SystemPinger shells out to the platform ping binary. A failed or
// unparseable run is reported as unreachable, never as an error; the
// collector treats ICMP loss as a measurement, not a fault.
type SystemPinger struct {
	count   int
	timeout time.Duration
	logger  logger.Logger
}

// NewSystemPinger returns a pinger sending count echoes with the given
// per-echo timeout. Zero values select 3 echoes and 2 s.
func NewSystemPinger(count int, timeout time.Duration, log logger.Logger) *SystemPinger {
	if count <= 0 {
		count = defaultEchoCount
	}

	if timeout <= 0 {
		timeout = defaultEchoTimeout
	}

	return &SystemPinger{
		count:   count,
		timeout: timeout,
		logger:  log,
	}
}

// Ping runs the system ping once and parses average latency and packet
// loss from its output.
func (p *SystemPinger) Ping(ctx context.Context, ip string) Result {
	// Budget for all echoes plus process startup.
	deadline := time.Duration(p.count)*p.timeout + 5*time.Second

	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	args := pingArgs(runtime.GOOS, p.count, p.timeout, ip)

	cmd := exec.CommandContext(runCtx, "ping", args...)

	output, err := cmd.Output()
	if err != nil {
		if runCtx.Err() == nil {
			// Non-zero exit: host did not answer.
			return unreachable()
		}

		p.logger.Debug().Str("ip", ip).Err(err).Msg("ping timed out")

		return unreachable()
	}

	return parsePingOutput(string(output))
}

func pingArgs(goos string, count int, timeout time.Duration, ip string) []string {
	if goos == "windows" {
		return []string{"-n", strconv.Itoa(count), "-w", fmt.Sprintf("%d", timeout.Milliseconds()), ip}
	}

	return []string{"-c", strconv.Itoa(count), "-W", fmt.Sprintf("%d", int(timeout.Seconds())), ip}
}

func parsePingOutput(output string) Result {
	result := Result{Reachable: true}

	if m := rttRegex.FindStringSubmatch(output); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			result.LatencyMs = &v
		}
	} else if m := winAvgRegex.FindStringSubmatch(output); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			result.LatencyMs = &v
		}
	}

	if m := lossRegex.FindStringSubmatch(output); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			result.PacketLossPercent = v
		}
	}

	return result
}

func unreachable() Result {
	return Result{Reachable: false, PacketLossPercent: 100}
}
