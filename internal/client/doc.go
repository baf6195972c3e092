// Package client runs LiNa transactions: one connect, one framed request,
// one framed response and one disconnect per Upload, Download or Delete.
//
// A Client owns a single connection handle and supports one in-flight
// transaction. Callers that share a Client across goroutines must serialize
// access themselves, or use one Client per goroutine.
//
// Nothing is retried. Every failure is returned as a *Error whose Kind is one
// of the Err* sentinels, and the connection is torn down before returning.
package client
