// Package prandom provides a pseudo-random byte device built on a static-key
// RC4 keystream.
//
// A Device owns the one keystream engine in the process and exposes it through
// two access points, "random" and "urandom". Both return the same stream and
// neither blocks. The key is compiled in, so the output is reproducible and
// must not be used where unpredictability matters.
//
// The device can also serve its access points over QUIC; see Device.Listen
// and Dial.
package prandom
