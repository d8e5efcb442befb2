// Package server fulfills "read N bytes" requests from the shared keystream engine.
//
// Bytes are generated and delivered one at a time. A failing sink ends the
// request immediately; bytes already drawn from the engine are not returned
// to it.
package server
