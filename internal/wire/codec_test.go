package wire

import (
	"bytes"
	"testing"
)

func TestRequestRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		req  Request
	}{
		{"read", Request{Op: OpRead, Key: Key{Dataset: []byte("ds"), Pkey: []byte("p1"), Lkey: []byte("l1")}, Consistency: ConsistencyOne}},
		{"write", Request{Op: OpWrite, Key: Key{Pkey: []byte("p2")}, Content: []byte("hello"), Consistency: ConsistencyLatest}},
		{"delete", Request{Op: OpDelete, Key: Key{Pkey: []byte("p3")}, Consistency: ConsistencyLatest}},
		{"empty content write", Request{Op: OpWrite, Key: Key{Pkey: []byte("p4")}, Content: []byte{}, Consistency: ConsistencyOne}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := EncodeRequest(tc.req)
			got, err := DecodeRequest(payload)
			if err != nil {
				t.Fatalf("DecodeRequest: %v", err)
			}
			if got.Op != tc.req.Op {
				t.Errorf("Op = %v, want %v", got.Op, tc.req.Op)
			}
			if !got.Key.Equal(tc.req.Key) {
				t.Errorf("Key = %+v, want %+v", got.Key, tc.req.Key)
			}
			if !bytes.Equal(got.Content, tc.req.Content) && len(got.Content)+len(tc.req.Content) != 0 {
				t.Errorf("Content = %q, want %q", got.Content, tc.req.Content)
			}
			if got.Consistency != tc.req.Consistency {
				t.Errorf("Consistency = %v, want %v", got.Consistency, tc.req.Consistency)
			}
		})
	}
}

func TestResponseRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		resp ResponseMessage
	}{
		{"value none", ResponseMessage{Status: RespValue, Value: Value{Kind: ValueNone}, Consistency: ConsistencyOne}},
		{"value live", ResponseMessage{Status: RespValue, Value: Value{Kind: ValueLive, Content: []byte("v"), Timestamp: 42}, Consistency: ConsistencyLatest}},
		{"write ack", ResponseMessage{Status: RespWriteAck, Timestamp: 99, Consistency: ConsistencyLatest}},
		{"error", ResponseMessage{Status: RespError, ErrorText: "Quorum write could not be accomplished.", Consistency: ConsistencyOne}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := EncodeResponse(tc.resp)
			got, err := DecodeResponse(payload)
			if err != nil {
				t.Fatalf("DecodeResponse: %v", err)
			}
			if got.Status != tc.resp.Status {
				t.Errorf("Status = %v, want %v", got.Status, tc.resp.Status)
			}
			if got.ErrorText != tc.resp.ErrorText {
				t.Errorf("ErrorText = %q, want %q", got.ErrorText, tc.resp.ErrorText)
			}
			if got.Timestamp != tc.resp.Timestamp {
				t.Errorf("Timestamp = %d, want %d", got.Timestamp, tc.resp.Timestamp)
			}
		})
	}
}

func TestInternodeRoundTrip(t *testing.T) {
	req := InternodeRequest{Op: InternodeWrite, Key: Key{Pkey: []byte("pk")}, Value: Value{Kind: ValueTombstone, Timestamp: 7}}
	payload := EncodeInternodeRequest(req)
	got, err := DecodeInternodeRequest(payload)
	if err != nil {
		t.Fatalf("DecodeInternodeRequest: %v", err)
	}
	if got.Value.Kind != ValueTombstone || got.Value.Timestamp != 7 {
		t.Errorf("Value = %+v, want Tombstone ts=7", got.Value)
	}

	resp := InternodeResponse{Status: InternodeValue, Value: Value{Kind: ValueLive, Content: []byte("x"), Timestamp: 5}}
	rp := EncodeInternodeResponse(resp)
	gotResp, err := DecodeInternodeResponse(rp)
	if err != nil {
		t.Fatalf("DecodeInternodeResponse: %v", err)
	}
	if gotResp.Value.Kind != ValueLive || string(gotResp.Value.Content) != "x" {
		t.Errorf("Value = %+v, want Live content=x", gotResp.Value)
	}
}

func TestDecodeRequestRejectsTruncatedBuffer(t *testing.T) {
	payload := EncodeRequest(Request{Op: OpRead, Key: Key{Pkey: []byte("p")}, Consistency: ConsistencyOne})
	_, err := DecodeRequest(payload[:len(payload)-1])
	if err == nil {
		t.Fatal("expected decoding error for truncated buffer, got nil")
	}
}

func TestDecodeRequestRejectsUnknownOp(t *testing.T) {
	payload := EncodeRequest(Request{Op: OpRead, Key: Key{Pkey: []byte("p")}, Consistency: ConsistencyOne})
	payload[0] = 0xFF
	_, err := DecodeRequest(payload)
	if err == nil {
		t.Fatal("expected decoding error for unknown op tag, got nil")
	}
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("some payload bytes")
	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("ReadFrame = %q, want %q", got, payload)
	}
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	_, err := ReadFrame(&buf)
	if err == nil {
		t.Fatal("expected error for oversized frame length, got nil")
	}
}
