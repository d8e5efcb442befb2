package protocol

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// MaxFramePayload limits a single protocol frame payload.
	MaxFramePayload = 1 << 20 // 1 MiB
)

var (
	ErrFrameTooLarge = errors.New("protocol: frame payload too large")
	ErrInvalidType   = errors.New("protocol: invalid message type")
)

// Frame is the basic wire container.
// Format:
//
//	1 byte: type
//	4 bytes: payload length (big endian)
//	N bytes: payload
//
// One READ frame in, one DATA or ERROR frame out per request; a stream may
// carry many requests in turn.
type Frame struct {
	Type    MessageType
	Payload []byte
}

func WriteFrame(w io.Writer, f Frame) error {
	if f.Type == 0 {
		return ErrInvalidType
	}
	if len(f.Payload) > MaxFramePayload {
		return ErrFrameTooLarge
	}

	bw := bufio.NewWriter(w)
	if err := bw.WriteByte(byte(f.Type)); err != nil {
		return err
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(f.Payload)))
	if _, err := bw.Write(lenBuf[:]); err != nil {
		return err
	}
	if len(f.Payload) > 0 {
		if _, err := bw.Write(f.Payload); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadFrame reads exactly one frame and nothing past it.
func ReadFrame(r io.Reader) (Frame, error) {
	var hdr [5]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Frame{}, err
	}
	mt := MessageType(hdr[0])
	if mt == 0 {
		return Frame{}, ErrInvalidType
	}
	payloadLen := binary.BigEndian.Uint32(hdr[1:])
	if payloadLen > MaxFramePayload {
		return Frame{}, fmt.Errorf("%w: %d", ErrFrameTooLarge, payloadLen)
	}
	payload := make([]byte, payloadLen)
	if payloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Frame{}, err
		}
	}
	return Frame{Type: mt, Payload: payload}, nil
}
