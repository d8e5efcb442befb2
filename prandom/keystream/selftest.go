package keystream

import (
	"bytes"
	"errors"
	"io"

	"golang.org/x/crypto/blake2b"
)

var ErrSelfTestFailed = errors.New("keystream: known-answer self test failed")

// knownAnswer is the first 16 bytes produced under DefaultKey.
var knownAnswer = []byte{
	0x57, 0x4b, 0xac, 0xb6, 0x83, 0x45, 0xb1, 0x87,
	0x01, 0xf5, 0x87, 0xe0, 0x45, 0x90, 0x90, 0xe4,
}

// SelfTest checks the key schedule and step function against known output.
// It runs on a private engine and never touches shared state.
func SelfTest() error {
	e, err := New(DefaultKey)
	if err != nil {
		return err
	}
	got := make([]byte, len(knownAnswer))
	for n := range got {
		got[n] = e.NextByte()
	}
	if !bytes.Equal(got, knownAnswer) {
		return ErrSelfTestFailed
	}
	if !e.Snapshot().IsPermutation() {
		return ErrSelfTestFailed
	}
	return nil
}

// Digest returns the BLAKE2b-256 hash of the next n bytes read from r.
// It is used to fingerprint long keystream runs without storing them.
func Digest(r io.Reader, n int64) ([32]byte, error) {
	var sum [32]byte
	h, err := blake2b.New256(nil)
	if err != nil {
		return sum, err
	}
	if _, err := io.CopyN(h, r, n); err != nil {
		return sum, err
	}
	copy(sum[:], h.Sum(nil))
	return sum, nil
}
