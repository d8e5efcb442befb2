package prandom

import (
	"github.com/TheusHen/prandom/prandom/keystream"
	"github.com/TheusHen/prandom/prandom/protocol"
)

// Config configures a Device.
type Config struct {
	Key        []byte // keystream key (default: keystream.DefaultKey)
	Atomic     bool   // hold the engine for a whole request instead of per byte
	MaxRequest int    // largest remote request in bytes
	MaxStreams int    // request streams a remote client keeps open
}

// DefaultConfig returns the device as originally shipped: the static key,
// per-byte locking, and 1 MiB remote requests.
func DefaultConfig() Config {
	return Config{
		Key:        keystream.DefaultKey,
		Atomic:     false,
		MaxRequest: protocol.MaxFramePayload,
		MaxStreams: 4,
	}
}
