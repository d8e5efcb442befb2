// Package quic carries remote access point requests over QUIC with a
// throwaway self-signed certificate.
package quic
