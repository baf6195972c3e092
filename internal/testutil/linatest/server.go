// Package linatest runs an in-process LiNa server over loopback TCP.
package linatest

import (
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"

	"github.com/danmuck/lina/internal/protocol"
	"github.com/danmuck/lina/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

// Responder produces the raw reply bytes for one request. Returning nil
// closes the connection without replying.
type Responder func(req frame.Request) []byte

// Server stores objects in memory and answers one transaction per connection.
type Server struct {
	ln net.Listener

	mu        sync.Mutex
	objects   map[string][]byte
	requests  []frame.Request
	responder Responder

	wg sync.WaitGroup
}

// Start listens on a loopback port and stops the server at test cleanup.
func Start(t testing.TB) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("linatest listen: %v", err)
	}
	s := &Server{ln: ln, objects: make(map[string][]byte)}
	s.wg.Add(1)
	go s.serve()
	t.Cleanup(s.Close)
	return s
}

func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.Addr())
	return host
}

func (s *Server) Port() int {
	_, port, _ := net.SplitHostPort(s.Addr())
	n, _ := strconv.Atoi(port)
	return n
}

func (s *Server) Close() {
	_ = s.ln.Close()
	s.wg.Wait()
}

func (s *Server) Put(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = append([]byte(nil), data...)
}

func (s *Server) Get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[name]
	return data, ok
}

// Requests returns every verified request seen so far.
func (s *Server) Requests() []frame.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]frame.Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// SetResponder overrides replies; nil restores the store behavior.
func (s *Server) SetResponder(fn Responder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responder = fn
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	req, err := frame.ReadRequest(conn, frame.DefaultLimits())
	if err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		log.Debug().Err(err).Msg("linatest: bad request")
		if errors.Is(err, protocol.ErrChecksumMismatch) {
			_, _ = conn.Write(RawResponse(protocol.StatusInvalidRequest, "", nil))
		}
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	responder := s.responder
	s.mu.Unlock()

	var reply []byte
	if responder != nil {
		reply = responder(req)
	} else {
		reply = s.Handle(req).Bytes()
	}
	if reply == nil {
		return
	}
	_, _ = conn.Write(reply)
}

// Handle applies req to the store and builds the reply.
func (s *Server) Handle(req frame.Request) frame.Response {
	name := req.Header.NameString()
	if name == "" {
		return mustResponse(protocol.StatusFileNameInvalid, "", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch req.Flags().Op() {
	case protocol.FlagWrite:
		s.objects[name] = append([]byte(nil), req.Payload...)
		return mustResponse(protocol.StatusSuccess, name, nil)
	case protocol.FlagRead:
		data, ok := s.objects[name]
		if !ok {
			return mustResponse(protocol.StatusFileNotFound, name, nil)
		}
		return mustResponse(protocol.StatusSuccess, name, data)
	case protocol.FlagDelete:
		if _, ok := s.objects[name]; !ok {
			return mustResponse(protocol.StatusFileNotFound, name, nil)
		}
		delete(s.objects, name)
		return mustResponse(protocol.StatusSuccess, name, nil)
	default:
		return mustResponse(protocol.StatusInvalidRequest, name, nil)
	}
}

// RawResponse frames a reply and returns its wire bytes.
func RawResponse(status protocol.Status, name string, body []byte) []byte {
	return mustResponse(status, name, body).Bytes()
}

// CorruptChecksum flips the checksum field of a framed reply.
func CorruptChecksum(wire []byte) []byte {
	out := append([]byte(nil), wire...)
	out[protocol.ChecksumOffset] ^= 0xff
	return out
}

func mustResponse(status protocol.Status, name string, body []byte) frame.Response {
	resp, err := frame.BuildResponse(status, name, body)
	if err != nil {
		panic(err)
	}
	return resp
}
