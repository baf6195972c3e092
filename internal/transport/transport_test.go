package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"syscall"
	"testing"
	"time"
)

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	return ln
}

func TestSendAllGathersBuffersInOrder(t *testing.T) {
	ln := listen(t)
	got := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		b, _ := io.ReadAll(conn)
		got <- b
	}()

	ep, err := NewTCPDialer(DefaultConfig()).Dial(context.Background(), ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	bufs := [][]byte{{0x80}, []byte("name"), {1, 2, 3, 4}, nil, []byte("tail")}
	n, err := ep.SendAll(context.Background(), bufs)
	if err != nil {
		t.Fatalf("send all: %v", err)
	}
	if n != 13 {
		t.Fatalf("sent=%d want=13", n)
	}
	if len(bufs) != 5 || string(bufs[1]) != "name" {
		t.Fatalf("caller buffers mutated: %q", bufs)
	}
	if err := ep.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	want := []byte{0x80, 'n', 'a', 'm', 'e', 1, 2, 3, 4, 't', 'a', 'i', 'l'}
	select {
	case b := <-got:
		if !bytes.Equal(b, want) {
			t.Fatalf("received=%x want=%x", b, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("server did not receive")
	}
}

func TestRecvReportsEOFWhenPeerCloses(t *testing.T) {
	ln := listen(t)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		_, _ = conn.Write([]byte("hi"))
		_ = conn.Close()
	}()

	ep, err := NewTCPDialer(DefaultConfig()).Dial(context.Background(), ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ep.Close()
	b, err := io.ReadAll(Reader(context.Background(), ep))
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if string(b) != "hi" {
		t.Fatalf("received=%q", b)
	}
	if n, err := ep.Recv(context.Background(), make([]byte, 4)); n != 0 || !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, n=%d err=%v", n, err)
	}
}

func TestRecvHonorsReadTimeout(t *testing.T) {
	ln := listen(t)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		time.Sleep(time.Second)
		_ = conn.Close()
	}()

	cfg := DefaultConfig()
	cfg.ReadTimeout = 50 * time.Millisecond
	ep, err := NewTCPDialer(cfg).Dial(context.Background(), ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ep.Close()
	_, err = ep.Recv(context.Background(), make([]byte, 1))
	var netErr net.Error
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestRecvHonorsContextDeadline(t *testing.T) {
	ln := listen(t)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		time.Sleep(time.Second)
		_ = conn.Close()
	}()

	ep, err := NewTCPDialer(DefaultConfig()).Dial(context.Background(), ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ep.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = ep.Recv(ctx, make([]byte, 1))
	var netErr net.Error
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestDialRefusedCarriesErrno(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	_, err = NewTCPDialer(DefaultConfig()).Dial(context.Background(), addr)
	if err == nil {
		t.Fatalf("expected dial error")
	}
	if !errors.Is(err, syscall.ECONNREFUSED) {
		t.Fatalf("expected ECONNREFUSED, got %v", err)
	}
	if Errno(err) != int(syscall.ECONNREFUSED) {
		t.Fatalf("errno=%d", Errno(err))
	}
}

func TestErrnoWithoutOSError(t *testing.T) {
	if got := Errno(errors.New("plain")); got != 0 {
		t.Fatalf("errno=%d", got)
	}
}

func TestDeadlineMerge(t *testing.T) {
	if d := deadline(time.Time{}, false, 0); !d.IsZero() {
		t.Fatalf("expected no deadline, got %v", d)
	}
	soon := time.Now().Add(10 * time.Millisecond)
	if d := deadline(soon, true, time.Hour); !d.Equal(soon) {
		t.Fatalf("context deadline not preferred: %v", d)
	}
	late := time.Now().Add(time.Hour)
	if d := deadline(late, true, time.Millisecond); !d.Before(late) {
		t.Fatalf("timeout not preferred: %v", d)
	}
}

func TestConfigWithDefaultsClampsNegative(t *testing.T) {
	cfg := Config{ConnectTimeout: -1, ReadTimeout: -1, WriteTimeout: -1}.WithDefaults()
	if cfg.ConnectTimeout != 0 || cfg.ReadTimeout != 0 || cfg.WriteTimeout != 0 {
		t.Fatalf("cfg=%+v", cfg)
	}
}
