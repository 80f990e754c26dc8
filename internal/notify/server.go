// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package notify

import (
	"log/slog"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/samber/oops"
)

// Error codes for broker setup.
const (
	CodeServer     = "NOTIFY_SERVER"
	CodeNotReady   = "NOTIFY_NOT_READY"
	CodeConnect    = "NOTIFY_CONNECT"
	CodeBadSubject = "NOTIFY_BAD_SUBJECT"
	CodeSubscribe  = "NOTIFY_SUBSCRIBE"
)

const defaultReadyFor = 10 * time.Second

// Server is an in-process NATS broker, used when no external broker is
// configured.
type Server struct {
	ns *server.Server

	startupTimeout time.Duration
	host           string
	port           int
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithStartTimeout sets how long Start waits for the broker.
func WithStartTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.startupTimeout = d }
}

// WithHost sets the listen host.
func WithHost(host string) ServerOption {
	return func(s *Server) { s.host = host }
}

// WithPort sets the listen port; server.RANDOM_PORT picks a free one.
func WithPort(port int) ServerOption {
	return func(s *Server) { s.port = port }
}

// NewServer configures a broker without starting it.
func NewServer(opts ...ServerOption) (*Server, error) {
	s := &Server{
		startupTimeout: defaultReadyFor,
		host:           "127.0.0.1",
		port:           server.DEFAULT_PORT,
	}
	for _, opt := range opts {
		opt(s)
	}

	ns, err := server.NewServer(&server.Options{
		Host:   s.host,
		Port:   s.port,
		NoSigs: true,
		NoLog:  true,
	})
	if err != nil {
		return nil, oops.Code(CodeServer).With("host", s.host).With("port", s.port).Wrap(err)
	}
	s.ns = ns
	return s, nil
}

// Start runs the broker and waits until it accepts connections.
func (s *Server) Start() error {
	s.ns.Start()
	if !s.ns.ReadyForConnections(s.startupTimeout) {
		s.ns.Shutdown()
		return oops.Code(CodeNotReady).With("timeout", s.startupTimeout.String()).Errorf("nats server not ready for connections")
	}
	slog.Info("nats server listening", "addr", s.ns.Addr().String())
	return nil
}

// ClientURL returns the URL clients connect to.
func (s *Server) ClientURL() string {
	return s.ns.ClientURL()
}

// Shutdown stops the broker and waits for it to exit.
func (s *Server) Shutdown() {
	s.ns.Shutdown()
	s.ns.WaitForShutdown()
}

// Connect dials a broker, reconnecting forever once connected.
func Connect(url string, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := nats.Connect(url,
		nats.Name("itemcore"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, oops.Code(CodeConnect).With("url", url).Wrap(err)
	}
	return nc, nil
}
