package replica

import (
	"errors"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/dreamware/shardkv/internal/wire"
)

// Server wraps a Replica with a TCP accept loop: one goroutine per accepted
// connection, a fixed read/write deadline per round trip, and
// length-prefixed wire framing - the same thread-per-connection shape the
// handler's server uses (see internal/handler/server.go), generalized from
// the node process's accept loop this was adapted from.
type Server struct {
	Replica      *Replica
	Logger       *zap.Logger
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	listener net.Listener
}

// DefaultTimeout is the per-round-trip socket deadline used when a Server
// is constructed without an explicit timeout, matching the 300ms default
// this system has always used for replica connections.
const DefaultTimeout = 300 * time.Millisecond

// Listen binds addr and returns a Server ready to Serve. Binding failure is
// fatal to the caller (matches spec.md §7: replica bind failure logs and
// exits, it is never retried).
func Listen(addr string, rep *Replica, logger *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Replica:      rep,
		Logger:       logger,
		ReadTimeout:  DefaultTimeout,
		WriteTimeout: DefaultTimeout,
		listener:     ln,
	}, nil
}

// Addr returns the server's bound address, useful when addr was ":0".
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	return s.listener.Close()
}

// Serve runs the accept loop until the listener is closed. Every accepted
// connection is handled in its own goroutine; Serve returns nil when the
// listener is closed deliberately (net.ErrClosed), and any other error
// otherwise.
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
		if s.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.ReadTimeout))
		}
		payload, err := wire.ReadFrame(conn)
		if err != nil {
			s.Logger.Debug("replica connection closed", zap.Error(err))
			return
		}

		req, err := wire.DecodeInternodeRequest(payload)
		if err != nil {
			s.Logger.Warn("failed to decode internode request", zap.Error(err))
			return
		}

		resp := s.Replica.Handle(req)

		if s.WriteTimeout > 0 {
			conn.SetWriteDeadline(time.Now().Add(s.WriteTimeout))
		}
		if err := wire.WriteFrame(conn, wire.EncodeInternodeResponse(resp)); err != nil {
			s.Logger.Debug("failed to write internode response", zap.Error(err))
			return
		}
	}
}
