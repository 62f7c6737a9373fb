package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ErrDecoding is wrapped into every decode failure so callers can recognize
// malformed input distinctly from connection errors (see internal/handler
// and internal/replica error taxonomies).
type ErrDecoding struct {
	Detail string
}

func (e *ErrDecoding) Error() string {
	return fmt.Sprintf("wire: decoding error: %s", e.Detail)
}

func decodingErrorf(format string, args ...any) error {
	return &ErrDecoding{Detail: fmt.Sprintf(format, args...)}
}

type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) byte(b byte)         { e.buf.WriteByte(b) }
func (e *encoder) uint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}
func (e *encoder) bytes(b []byte) {
	var lb [4]byte
	binary.BigEndian.PutUint32(lb[:], uint32(len(b)))
	e.buf.Write(lb[:])
	e.buf.Write(b)
}
func (e *encoder) key(k Key) {
	e.bytes(k.Dataset)
	e.bytes(k.Pkey)
	e.bytes(k.Lkey)
}
func (e *encoder) value(v Value) {
	e.byte(byte(v.Kind))
	switch v.Kind {
	case ValueLive:
		e.bytes(v.Content)
		e.uint64(v.Timestamp)
	case ValueTombstone:
		e.uint64(v.Timestamp)
	case ValueNone:
		// no fields
	}
}

type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) byte() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, decodingErrorf("unexpected end of buffer reading tag byte")
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) uint64() (uint64, error) {
	if d.pos+8 > len(d.buf) {
		return 0, decodingErrorf("unexpected end of buffer reading uint64")
	}
	v := binary.BigEndian.Uint64(d.buf[d.pos : d.pos+8])
	d.pos += 8
	return v, nil
}

func (d *decoder) bytes() ([]byte, error) {
	if d.pos+4 > len(d.buf) {
		return nil, decodingErrorf("unexpected end of buffer reading length prefix")
	}
	n := binary.BigEndian.Uint32(d.buf[d.pos : d.pos+4])
	d.pos += 4
	if d.pos+int(n) > len(d.buf) {
		return nil, decodingErrorf("declared byte-string length %d exceeds remaining buffer", n)
	}
	out := make([]byte, n)
	copy(out, d.buf[d.pos:d.pos+int(n)])
	d.pos += int(n)
	return out, nil
}

func (d *decoder) key() (Key, error) {
	dataset, err := d.bytes()
	if err != nil {
		return Key{}, err
	}
	pkey, err := d.bytes()
	if err != nil {
		return Key{}, err
	}
	lkey, err := d.bytes()
	if err != nil {
		return Key{}, err
	}
	return Key{Dataset: dataset, Pkey: pkey, Lkey: lkey}, nil
}

func (d *decoder) value() (Value, error) {
	kindByte, err := d.byte()
	if err != nil {
		return Value{}, err
	}
	kind := ValueKind(kindByte)
	switch kind {
	case ValueNone:
		return Value{Kind: ValueNone}, nil
	case ValueLive:
		content, err := d.bytes()
		if err != nil {
			return Value{}, err
		}
		ts, err := d.uint64()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValueLive, Content: content, Timestamp: ts}, nil
	case ValueTombstone:
		ts, err := d.uint64()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValueTombstone, Timestamp: ts}, nil
	default:
		return Value{}, decodingErrorf("unknown value kind tag %d", kindByte)
	}
}

func (d *decoder) done() error {
	if d.pos != len(d.buf) {
		return decodingErrorf("trailing %d unread bytes", len(d.buf)-d.pos)
	}
	return nil
}

// EncodeRequest serializes a client-to-handler Request.
func EncodeRequest(r Request) []byte {
	var e encoder
	e.byte(byte(r.Op))
	e.key(r.Key)
	switch r.Op {
	case OpWrite:
		e.bytes(r.Content)
	case OpRead, OpDelete:
		// no extra fields
	}
	e.byte(byte(r.Consistency))
	return e.buf.Bytes()
}

// DecodeRequest deserializes a client-to-handler Request.
func DecodeRequest(payload []byte) (Request, error) {
	d := decoder{buf: payload}
	opByte, err := d.byte()
	if err != nil {
		return Request{}, err
	}
	op := Op(opByte)
	if op > OpDelete {
		return Request{}, decodingErrorf("unknown request op tag %d", opByte)
	}
	key, err := d.key()
	if err != nil {
		return Request{}, err
	}
	var content []byte
	if op == OpWrite {
		content, err = d.bytes()
		if err != nil {
			return Request{}, err
		}
	}
	consByte, err := d.byte()
	if err != nil {
		return Request{}, err
	}
	if err := d.done(); err != nil {
		return Request{}, err
	}
	return Request{Op: op, Key: key, Content: content, Consistency: Consistency(consByte)}, nil
}

// EncodeResponse serializes a handler-to-client ResponseMessage.
func EncodeResponse(r ResponseMessage) []byte {
	var e encoder
	e.byte(byte(r.Status))
	switch r.Status {
	case RespValue:
		e.value(r.Value)
	case RespWriteAck:
		e.uint64(r.Timestamp)
	case RespError:
		e.bytes([]byte(r.ErrorText))
	}
	e.byte(byte(r.Consistency))
	return e.buf.Bytes()
}

// DecodeResponse deserializes a handler-to-client ResponseMessage.
func DecodeResponse(payload []byte) (ResponseMessage, error) {
	d := decoder{buf: payload}
	statusByte, err := d.byte()
	if err != nil {
		return ResponseMessage{}, err
	}
	status := RespStatus(statusByte)
	var resp ResponseMessage
	switch status {
	case RespValue:
		v, err := d.value()
		if err != nil {
			return ResponseMessage{}, err
		}
		resp.Value = v
	case RespWriteAck:
		ts, err := d.uint64()
		if err != nil {
			return ResponseMessage{}, err
		}
		resp.Timestamp = ts
	case RespError:
		text, err := d.bytes()
		if err != nil {
			return ResponseMessage{}, err
		}
		resp.ErrorText = string(text)
	default:
		return ResponseMessage{}, decodingErrorf("unknown response status tag %d", statusByte)
	}
	resp.Status = status
	consByte, err := d.byte()
	if err != nil {
		return ResponseMessage{}, err
	}
	resp.Consistency = Consistency(consByte)
	if err := d.done(); err != nil {
		return ResponseMessage{}, err
	}
	return resp, nil
}

// EncodeInternodeRequest serializes a handler-to-replica InternodeRequest.
func EncodeInternodeRequest(r InternodeRequest) []byte {
	var e encoder
	e.byte(byte(r.Op))
	e.key(r.Key)
	if r.Op == InternodeWrite {
		e.value(r.Value)
	}
	return e.buf.Bytes()
}

// DecodeInternodeRequest deserializes a handler-to-replica InternodeRequest.
func DecodeInternodeRequest(payload []byte) (InternodeRequest, error) {
	d := decoder{buf: payload}
	opByte, err := d.byte()
	if err != nil {
		return InternodeRequest{}, err
	}
	op := InternodeOp(opByte)
	if op > InternodeWrite {
		return InternodeRequest{}, decodingErrorf("unknown internode op tag %d", opByte)
	}
	key, err := d.key()
	if err != nil {
		return InternodeRequest{}, err
	}
	var value Value
	if op == InternodeWrite {
		value, err = d.value()
		if err != nil {
			return InternodeRequest{}, err
		}
	}
	if err := d.done(); err != nil {
		return InternodeRequest{}, err
	}
	return InternodeRequest{Op: op, Key: key, Value: value}, nil
}

// EncodeInternodeResponse serializes a replica-to-handler InternodeResponse.
func EncodeInternodeResponse(r InternodeResponse) []byte {
	var e encoder
	e.byte(byte(r.Status))
	switch r.Status {
	case InternodeValue:
		e.value(r.Value)
	case InternodeWriteAck:
		e.uint64(r.Timestamp)
	case InternodeError:
		e.bytes([]byte(r.ErrorText))
	}
	return e.buf.Bytes()
}

// DecodeInternodeResponse deserializes a replica-to-handler InternodeResponse.
func DecodeInternodeResponse(payload []byte) (InternodeResponse, error) {
	d := decoder{buf: payload}
	statusByte, err := d.byte()
	if err != nil {
		return InternodeResponse{}, err
	}
	status := InternodeRespStatus(statusByte)
	var resp InternodeResponse
	switch status {
	case InternodeValue:
		v, err := d.value()
		if err != nil {
			return InternodeResponse{}, err
		}
		resp.Value = v
	case InternodeWriteAck:
		ts, err := d.uint64()
		if err != nil {
			return InternodeResponse{}, err
		}
		resp.Timestamp = ts
	case InternodeError:
		text, err := d.bytes()
		if err != nil {
			return InternodeResponse{}, err
		}
		resp.ErrorText = string(text)
	default:
		return InternodeResponse{}, decodingErrorf("unknown internode response status tag %d", statusByte)
	}
	resp.Status = status
	if err := d.done(); err != nil {
		return InternodeResponse{}, err
	}
	return resp, nil
}
