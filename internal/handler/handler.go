package handler

import (
	"time"

	"go.uber.org/zap"

	"github.com/dreamware/shardkv/internal/clock"
	"github.com/dreamware/shardkv/internal/wire"
)

// Exact error strings returned to clients. These are pinned for
// compatibility with the system this was distilled from and must not be
// reworded (see SPEC_FULL.md §9).
const (
	errAllRepliesFailed  = "All the storage nodes replied with errors."
	errNotEnoughSucceded = "Not enough storage nodes succeeded to give a response"
	errQuorumWriteFailed = "Quorum write could not be accomplished."
)

// Handler is the stateless request front end. A Handler holds no
// per-client or mutable routing state; ShardTable is read-only after
// construction and Clock is the only source of nondeterminism, injected so
// tests can pin write ordering.
type Handler struct {
	ShardTable *ShardTable
	Clock      clock.Clock
	Logger     *zap.Logger
	Timeout    time.Duration
}

// New returns a Handler ready to serve requests. If clk is nil, clock.System
// is used. If logger is nil, a no-op logger is used.
func New(table *ShardTable, clk clock.Clock, logger *zap.Logger, timeout time.Duration) *Handler {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout == 0 {
		timeout = 300 * time.Millisecond
	}
	return &Handler{ShardTable: table, Clock: clk, Logger: logger, Timeout: timeout}
}

// Serve dispatches a single client Request to its Read/Write/Delete
// handling and returns the ResponseMessage to send back.
func (h *Handler) Serve(req wire.Request) wire.ResponseMessage {
	switch req.Op {
	case wire.OpRead:
		return h.handleRead(req.Key, req.Consistency)
	case wire.OpWrite:
		return h.handleWrite(req.Key, req.Content, req.Consistency)
	case wire.OpDelete:
		return h.handleDelete(req.Key, req.Consistency)
	default:
		return errResponse(req.Consistency, "unknown request operation")
	}
}

func (h *Handler) replicasFor(pkey []byte) ([]string, error) {
	return h.ShardTable.ReplicasForKey(pkey)
}

func (h *Handler) handleRead(key wire.Key, consistency wire.Consistency) wire.ResponseMessage {
	replicas, err := h.replicasFor(key.Pkey)
	if err != nil {
		return errResponse(consistency, err.Error())
	}

	results := fanOut(replicas, wire.InternodeRequest{Op: wire.InternodeRead, Key: key}, h.Timeout)

	switch consistency {
	case wire.ConsistencyOne:
		return h.reconcileOne(results, consistency)
	case wire.ConsistencyLatest:
		return h.reconcileLatest(results, consistency)
	default:
		return errResponse(consistency, "unknown consistency level")
	}
}

// reconcileOne returns the first successfully-decoded replica response,
// in replica order, without comparing it against the others. It runs only
// after fanOut has waited for every replica call to finish or time out, so
// it does not answer earlier than Latest does.
func (h *Handler) reconcileOne(results []internodeResult, consistency wire.Consistency) wire.ResponseMessage {
	for _, r := range results {
		if r.err != nil {
			h.Logger.Debug("replica call failed during One read", zap.Error(r.err))
			continue
		}
		return internodeToResponse(r.resp, consistency)
	}
	return errResponse(consistency, errAllRepliesFailed)
}

// reconcileLatest implements the Latest read level: every decodable
// response - including a Value{None} miss - counts toward the success
// quorum, but only responses carrying a timestamp (Live or Tombstone)
// participate in the max-timestamp reduction. On a tie, the LATER response
// in replica order wins (">=" replaces the running max), matching the
// fold this was distilled from; see SPEC_FULL.md §9 Q3.
func (h *Handler) reconcileLatest(results []internodeResult, consistency wire.Consistency) wire.ResponseMessage {
	responsesNeeded := len(results) / 2

	successCount := 0
	var maxTimestamp uint64
	var maxValue wire.Value
	haveValue := false

	for _, r := range results {
		if r.err != nil {
			h.Logger.Debug("replica call failed during Latest read", zap.Error(r.err))
			continue
		}
		successCount++

		if r.resp.Status != wire.InternodeValue {
			continue
		}
		if !r.resp.Value.HasTimestamp() {
			continue
		}
		if !haveValue || r.resp.Value.Timestamp >= maxTimestamp {
			maxTimestamp = r.resp.Value.Timestamp
			maxValue = r.resp.Value
			haveValue = true
		}
	}

	if successCount <= responsesNeeded {
		return errResponse(consistency, errNotEnoughSucceded)
	}
	if !haveValue {
		return wire.ResponseMessage{Status: wire.RespValue, Value: wire.Value{Kind: wire.ValueNone}, Consistency: consistency}
	}
	return wire.ResponseMessage{Status: wire.RespValue, Value: maxValue, Consistency: consistency}
}

func (h *Handler) handleWrite(key wire.Key, content []byte, consistency wire.Consistency) wire.ResponseMessage {
	value := wire.Value{Kind: wire.ValueLive, Content: content, Timestamp: h.Clock.NowMicros()}
	return h.write(key, value, consistency)
}

func (h *Handler) handleDelete(key wire.Key, consistency wire.Consistency) wire.ResponseMessage {
	value := wire.Value{Kind: wire.ValueTombstone, Timestamp: h.Clock.NowMicros()}
	return h.write(key, value, consistency)
}

// write fans Value out to every replica of key's shard and requires a
// strict majority of WriteAcks, regardless of the client's requested
// consistency - Write and Delete always need a write quorum; consistency
// is echoed on the response for the client's own bookkeeping only (see
// SPEC_FULL.md §9 Q2).
func (h *Handler) write(key wire.Key, value wire.Value, consistency wire.Consistency) wire.ResponseMessage {
	replicas, err := h.replicasFor(key.Pkey)
	if err != nil {
		return errResponse(consistency, err.Error())
	}

	req := wire.InternodeRequest{Op: wire.InternodeWrite, Key: key, Value: value}
	results := fanOut(replicas, req, h.Timeout)

	ackCount := 0
	for _, r := range results {
		if r.err != nil {
			h.Logger.Debug("replica call failed during write", zap.Error(r.err))
			continue
		}
		if r.resp.Status == wire.InternodeWriteAck {
			ackCount++
		}
	}

	quorum := len(replicas)/2 + 1
	if ackCount < quorum {
		h.Logger.Warn("write quorum not reached",
			zap.Int("acks", ackCount), zap.Int("quorum", quorum), zap.Int("replicas", len(replicas)))
		return errResponse(consistency, errQuorumWriteFailed)
	}
	return wire.ResponseMessage{Status: wire.RespWriteAck, Timestamp: value.Timestamp, Consistency: consistency}
}

func internodeToResponse(resp wire.InternodeResponse, consistency wire.Consistency) wire.ResponseMessage {
	switch resp.Status {
	case wire.InternodeValue:
		return wire.ResponseMessage{Status: wire.RespValue, Value: resp.Value, Consistency: consistency}
	case wire.InternodeWriteAck:
		return wire.ResponseMessage{Status: wire.RespWriteAck, Timestamp: resp.Timestamp, Consistency: consistency}
	case wire.InternodeError:
		return errResponse(consistency, resp.ErrorText)
	default:
		return errResponse(consistency, "unknown internode response status")
	}
}

func errResponse(consistency wire.Consistency, text string) wire.ResponseMessage {
	return wire.ResponseMessage{Status: wire.RespError, ErrorText: text, Consistency: consistency}
}
