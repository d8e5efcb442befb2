package server

import "errors"

var ErrUnknownMinor = errors.New("server: unknown access point")

// Minor identifies an access point on the device.
// "random" and "urandom" behave identically; neither blocks on entropy.
type Minor uint8

const (
	MinorRandom  Minor = 0
	MinorURandom Minor = 1
)

// Minors lists every access point in minor number order.
var Minors = []Minor{MinorRandom, MinorURandom}

func (m Minor) String() string {
	switch m {
	case MinorRandom:
		return "random"
	case MinorURandom:
		return "urandom"
	default:
		return "unknown"
	}
}

// Valid reports whether m names a known access point.
func (m Minor) Valid() bool {
	return m == MinorRandom || m == MinorURandom
}

// ParseMinor maps an access point name to its minor number.
func ParseMinor(name string) (Minor, error) {
	for _, m := range Minors {
		if m.String() == name {
			return m, nil
		}
	}
	return 0, ErrUnknownMinor
}
