// Package net implements network communication primitives for the client
// protocol.
//
// This includes a message (a single length-framed communications block sent
// by client or server), the socket carrying messages over a plaintext or TLS
// session, and the transports the socket can run over.
package net
