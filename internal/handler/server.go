package handler

import (
	"errors"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/dreamware/shardkv/internal/wire"
)

// Server wraps a Handler with a client-facing TCP accept loop: one goroutine
// per accepted connection, length-prefixed wire framing, the same shape as
// internal/replica/Server but speaking the client-facing Request/
// ResponseMessage envelopes instead of the internode ones.
type Server struct {
	Handler      *Handler
	Logger       *zap.Logger
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	listener net.Listener
}

// Listen binds addr and returns a Server ready to Serve.
func Listen(addr string, h *Handler, logger *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Handler: h, Logger: logger, listener: ln}, nil
}

// Addr returns the server's bound address, useful when addr was ":0".
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	return s.listener.Close()
}

// Serve runs the accept loop until the listener is closed.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	for {
		payload, err := wire.ReadFrame(conn)
		if err != nil {
			s.Logger.Debug("client connection closed", zap.Error(err))
			return
		}

		req, err := wire.DecodeRequest(payload)
		if err != nil {
			s.Logger.Warn("failed to decode client request", zap.Error(err))
			return
		}

		resp := s.Handler.Serve(req)

		if err := wire.WriteFrame(conn, wire.EncodeResponse(resp)); err != nil {
			s.Logger.Debug("failed to write client response", zap.Error(err))
			return
		}
	}
}
