// Package remote exposes the device's access points over a stream transport.
//
// A client sends READ frames on a stream and receives one DATA or ERROR
// frame per request. Streams are reused across requests.
package remote
