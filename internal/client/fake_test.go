package client

import (
	"bytes"
	"context"
	"errors"

	"github.com/danmuck/lina/internal/transport"
)

// scriptedEndpoint records what was sent and replays a canned reply.
type scriptedEndpoint struct {
	sent      bytes.Buffer
	sendCalls int
	// shortBy makes SendAll report that many fewer bytes than requested.
	shortBy  int64
	sendErr  error
	reply    *bytes.Reader
	recvErr  error
	closeErr error
	closes   int
}

func newScriptedEndpoint(reply []byte) *scriptedEndpoint {
	return &scriptedEndpoint{reply: bytes.NewReader(reply)}
}

func (e *scriptedEndpoint) SendAll(_ context.Context, bufs [][]byte) (int64, error) {
	e.sendCalls++
	var total int64
	for _, b := range bufs {
		e.sent.Write(b)
		total += int64(len(b))
	}
	if e.sendErr != nil {
		return total - e.shortBy, e.sendErr
	}
	return total - e.shortBy, nil
}

func (e *scriptedEndpoint) Recv(_ context.Context, p []byte) (int, error) {
	if e.reply.Len() == 0 && e.recvErr != nil {
		return 0, e.recvErr
	}
	// Dribble the reply to exercise the read loop.
	if len(p) > 100 {
		p = p[:100]
	}
	return e.reply.Read(p)
}

func (e *scriptedEndpoint) Close() error {
	e.closes++
	return e.closeErr
}

func (e *scriptedEndpoint) RemoteAddr() string {
	return "scripted"
}

// fakeDialer hands out endpoints in order.
type fakeDialer struct {
	endpoints []*scriptedEndpoint
	dials     int
	err       error
}

func (d *fakeDialer) Dial(context.Context, string) (transport.Endpoint, error) {
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	if len(d.endpoints) == 0 {
		return nil, errors.New("fakeDialer: no endpoints left")
	}
	ep := d.endpoints[0]
	d.endpoints = d.endpoints[1:]
	return ep, nil
}

