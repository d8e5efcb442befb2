package protocol

import (
	"encoding/binary"
	"errors"
	"unicode/utf8"
)

var (
	ErrBadRequest = errors.New("protocol: malformed READ payload")
)

// ReadRequestSize is the encoded size of a ReadRequest.
const ReadRequestSize = 5

// ReadRequest asks for Count bytes from access point Minor.
type ReadRequest struct {
	Minor uint8
	Count uint32
}

// Encode serializes the request.
// Format:
//
//	1 byte: minor
//	4 bytes: count (big endian)
func (r ReadRequest) Encode() []byte {
	out := make([]byte, ReadRequestSize)
	out[0] = r.Minor
	binary.BigEndian.PutUint32(out[1:], r.Count)
	return out
}

// Frame wraps the request in a READ frame.
func (r ReadRequest) Frame() Frame {
	return Frame{Type: MessageTypeRead, Payload: r.Encode()}
}

func DecodeReadRequest(b []byte) (ReadRequest, error) {
	if len(b) != ReadRequestSize {
		return ReadRequest{}, ErrBadRequest
	}
	return ReadRequest{
		Minor: b[0],
		Count: binary.BigEndian.Uint32(b[1:]),
	}, nil
}

// ErrorFrame carries a human readable failure back to the client.
// Long messages are cut at a rune boundary to fit one frame.
func ErrorFrame(err error) Frame {
	return Frame{Type: MessageTypeError, Payload: []byte(truncateUTF8(err.Error(), MaxFramePayload))}
}

func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
