// Package jrpcserver wires a framer and a request pipeline into a
// blocking read/dispatch/write loop, with signal-driven shutdown. It is a
// convenience on top of pkg/framer and pkg/dispatch, not part of the core:
// the core exposes only "a byte reader, a byte writer, a dispatcher
// handle" (spec.md §4), and this package is one way to hold those
// together for a CLI.
package jrpcserver

import (
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/richard-senior/jrpc/internal/logger"
	"github.com/richard-senior/jrpc/pkg/dispatch"
	"github.com/richard-senior/jrpc/pkg/framer"
)

// Server drives one framer against one request pipeline until the stream
// ends, the pipeline signals EndStream, or the process receives an
// interrupt.
type Server struct {
	Framer   framer.Framer
	Pipeline *dispatch.RequestPipeline
}

// New builds a Server. Framer and Pipeline must both be non-nil.
func New(f framer.Framer, p *dispatch.RequestPipeline) *Server {
	return &Server{Framer: f, Pipeline: p}
}

// Start runs the read/dispatch/write loop in a goroutine and blocks until
// it exits or SIGINT/SIGTERM arrives, mirroring the teacher's
// signal-driven Start/ProcessRequests split.
func (s *Server) Start() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() { errChan <- s.run() }()

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		logger.Info("received signal: %v", sig)
		return nil
	}
}

// run is the blocking read/dispatch/write loop. A clean io.EOF from the
// framer ends the loop without error; a recoverable missing Content-Length
// skips that frame and reads the next one.
func (s *Server) run() error {
	for {
		frame, err := s.Framer.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, framer.ErrMissingContentLength) && !errors.Is(err, framer.ErrMissingContentLengthFatal) {
				continue
			}
			return err
		}

		reply, status, err := s.Pipeline.RunRequestString(frame)
		if err != nil {
			return err
		}
		if status.Wrote {
			if err := s.Framer.WriteFrame([]byte(reply)); err != nil {
				return err
			}
		}
		if status.EndStream {
			return nil
		}
	}
}
