package handler

import (
	"fmt"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dreamware/shardkv/internal/wire"
)

// internodeResult is one replica's outcome for a single fanned-out
// request. err is set for connection/timeout/decode failures; a
// wire.InternodeError response is NOT an err here - it's still a
// successful round trip that produced data, exactly as
// original_source/src/handler.rs treats it (an Ok(Error) future, not an
// Err future).
type internodeResult struct {
	resp wire.InternodeResponse
	err  error
}

// fanOut sends req to every address in replicas concurrently and returns
// one internodeResult per replica, in the same order as replicas. The
// slice is pre-sized and written by index rather than appended, so result
// order reflects replicas' order - not completion order - which matters
// for the Latest-read tie-break rule (see reconcileLatest).
func fanOut(replicas []string, req wire.InternodeRequest, timeout time.Duration) []internodeResult {
	results := make([]internodeResult, len(replicas))

	var g errgroup.Group
	for i, addr := range replicas {
		i, addr := i, addr
		g.Go(func() error {
			resp, err := sendInternode(addr, req, timeout)
			results[i] = internodeResult{resp: resp, err: err}
			return nil
		})
	}
	_ = g.Wait() // errors are carried per-result, not via the group's own error

	return results
}

// sendInternode opens a fresh connection to addr, writes req, and reads
// back the response - one connection per logical call, matching the
// client-per-request pattern this system has always used rather than
// pooling connections between handler and replica.
func sendInternode(addr string, req wire.InternodeRequest, timeout time.Duration) (wire.InternodeResponse, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return wire.InternodeResponse{}, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	conn.SetWriteDeadline(deadline)
	if err := wire.WriteFrame(conn, wire.EncodeInternodeRequest(req)); err != nil {
		return wire.InternodeResponse{}, fmt.Errorf("write to %s: %w", addr, err)
	}

	conn.SetReadDeadline(deadline)
	payload, err := wire.ReadFrame(conn)
	if err != nil {
		return wire.InternodeResponse{}, fmt.Errorf("read from %s: %w", addr, err)
	}

	resp, err := wire.DecodeInternodeResponse(payload)
	if err != nil {
		return wire.InternodeResponse{}, fmt.Errorf("decode response from %s: %w", addr, err)
	}
	return resp, nil
}
