// Package keystream implements the RC4 keystream engine behind the prandom device.
//
// The engine is deterministic: a given key always yields the same byte
// sequence. The device seeds it with DefaultKey, a static compiled-in key,
// so its output is predictable and NOT suitable for cryptographic use.
//
// An Engine is a single shared resource. Every step is taken under the
// engine's mutex; Do holds the mutex across a whole request.
package keystream
