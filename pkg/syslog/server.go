package syslog

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/netnynja/netnynja/pkg/logger"
)

// readBufferSize comfortably holds the largest datagram senders emit in
// practice; RFC 5424 only guarantees 480 octets.
const readBufferSize = 64 * 1024

// Service is the syslog ingest service: a UDP listener, the batching
// collector behind it, and the retention janitor. It implements
// lifecycle.Service.
type Service struct {
	config    *Config
	collector *Collector
	janitor   *Janitor
	logger    logger.Logger

	mu        sync.Mutex
	addr      net.Addr
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewService wires the listener to collector. janitor may be nil to
// disable retention management.
func NewService(cfg *Config, collector *Collector, janitor *Janitor, log logger.Logger) *Service {
	return &Service{
		config:    cfg,
		collector: collector,
		janitor:   janitor,
		logger:    log,
		done:      make(chan struct{}),
	}
}

// Start binds the UDP socket and serves datagrams until Stop is called
// or ctx is canceled. Failing to bind is fatal.
func (s *Service) Start(ctx context.Context) error {
	addr := &net.UDPAddr{IP: net.ParseIP(s.config.ListenAddress), Port: s.config.UDPPort}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("bind syslog udp %s: %w", addr, err)
	}

	s.mu.Lock()
	s.addr = conn.LocalAddr()
	s.mu.Unlock()

	s.logger.Info().
		Str("addr", conn.LocalAddr().String()).
		Int("batch_size", s.config.BatchSize).
		Msg("Syslog listener started")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.wg.Add(2)

	go func() {
		defer s.wg.Done()
		s.collector.Run(runCtx)
	}()

	go func() {
		defer s.wg.Done()

		if s.janitor != nil {
			s.janitor.Run(runCtx)
		}
	}()

	go func() {
		select {
		case <-runCtx.Done():
		case <-s.done:
		}

		_ = conn.Close()
	}()

	s.readLoop(conn)

	return nil
}

// Stop shuts the listener down and waits for the final buffer flush
// within the ctx deadline.
func (s *Service) Stop(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.done) })

	waited := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LocalAddr reports the bound address once Start has bound the socket,
// nil before that.
func (s *Service) LocalAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addr
}

func (s *Service) readLoop(conn *net.UDPConn) {
	buf := make([]byte, readBufferSize)

	for {
		n, remote, err := conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}

			s.logger.Error().Err(err).Msg("Failed to read syslog datagram")

			continue
		}

		raw := strings.TrimSpace(strings.ToValidUTF8(string(buf[:n]), string(utf8.RuneError)))
		if raw == "" {
			continue
		}

		s.collector.Ingest(remote.IP.String(), raw)
	}
}
