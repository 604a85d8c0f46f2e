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

// Package lifecycle manages service startup and shutdown.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/netnynja/netnynja/pkg/logger"
)

const defaultShutdownTimeout = 30 * time.Second

// Service is implemented by every long-running component. Start blocks
// until the service stops or ctx is canceled; Stop requests an orderly
// shutdown and waits for in-flight work within the ctx deadline.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// RunOptions configures Run.
type RunOptions struct {
	ServiceName     string
	Service         Service
	ShutdownTimeout time.Duration
}

// Run starts the service and blocks until SIGINT/SIGTERM or until the
// service exits on its own. The shutdown path always calls Stop so
// services can flush buffers before the process ends.
func Run(ctx context.Context, opts *RunOptions, log logger.Logger) error {
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("service", opts.ServiceName).Msg("Starting service")

	errCh := make(chan error, 1)

	go func() {
		errCh <- opts.Service.Start(sigCtx)
	}()

	var runErr error

	select {
	case <-sigCtx.Done():
		log.Info().Str("service", opts.ServiceName).Msg("Shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = fmt.Errorf("service %s failed: %w", opts.ServiceName, err)
		}
	}

	timeout := opts.ShutdownTimeout
	if timeout == 0 {
		timeout = defaultShutdownTimeout
	}

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := opts.Service.Stop(stopCtx); err != nil {
		log.Error().Err(err).Str("service", opts.ServiceName).Msg("Service stop reported an error")

		if runErr == nil {
			runErr = err
		}
	}

	if err := ShutdownLogger(); err != nil {
		log.Error().Err(err).Msg("Failed to flush log export")
	}

	log.Info().Str("service", opts.ServiceName).Msg("Service stopped")

	return runErr
}
