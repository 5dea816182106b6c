package player

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"RaspCD/model"
)

// fakeMPDServer speaks just enough of the MPD protocol for the control
// channel: every command is acknowledged, status returns the given attrs.
type fakeMPDServer struct {
	ln net.Listener

	mu       sync.Mutex
	status   map[string]string
	commands []string
}

func newFakeMPDServer(t *testing.T, status map[string]string) *fakeMPDServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &fakeMPDServer{ln: ln, status: status}
	t.Cleanup(func() { ln.Close() })
	go s.serve()
	return s
}

func (s *fakeMPDServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *fakeMPDServer) handle(conn net.Conn) {
	defer conn.Close()
	fmt.Fprint(conn, "OK MPD 0.23.5\n")
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimSpace(line)
		s.mu.Lock()
		s.commands = append(s.commands, cmd)
		var b strings.Builder
		if cmd == "status" {
			for k, v := range s.status {
				fmt.Fprintf(&b, "%s: %s\n", k, v)
			}
		}
		s.mu.Unlock()
		if cmd == "close" {
			return
		}
		b.WriteString("OK\n")
		fmt.Fprint(conn, b.String())
	}
}

func (s *fakeMPDServer) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

func TestMPDStartQueuesTracks(t *testing.T) {
	srv := newFakeMPDServer(t, map[string]string{"state": "play"})
	m := NewMPD(srv.ln.Addr().String(), "", time.Second)
	defer m.Close()

	disc := model.Disc{Tracks: []model.Track{{Duration: 1000}, {Duration: 2000}, {Duration: 3000}}}
	if err := m.Start(context.Background(), disc, 70); err != nil {
		t.Fatalf("Start: %v", err)
	}

	got := strings.Join(srv.received(), "|")
	for _, want := range []string{"clear", `add "cdda:///1"`, `add "cdda:///3"`, "setvol 70", "play 0"} {
		if !strings.Contains(got, want) {
			t.Errorf("commands %q missing %q", got, want)
		}
	}
}

func TestMPDGet(t *testing.T) {
	srv := newFakeMPDServer(t, map[string]string{
		"state":   "pause",
		"song":    "1",
		"elapsed": "12.500",
		"volume":  "64",
	})
	m := NewMPD(srv.ln.Addr().String(), "", time.Second)
	defer m.Close()
	ctx := context.Background()

	disc := model.Disc{Tracks: []model.Track{{Duration: 40000}, {Duration: 53333}}}
	if err := m.Start(ctx, disc, 64); err != nil {
		t.Fatalf("Start: %v", err)
	}

	tests := []struct {
		prop Property
		want any
	}{
		{PropPause, true},
		{PropChapter, 1.0},
		{PropPlaylistPos, 1.0},
		{PropTimePos, 52.5},
		{PropVolume, 64.0},
	}
	for _, tt := range tests {
		got, err := m.Get(ctx, tt.prop)
		if err != nil {
			t.Errorf("Get(%s): %v", tt.prop, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Get(%s) = %v, want %v", tt.prop, got, tt.want)
		}
	}

	if !m.Alive(ctx) {
		t.Error("Alive() = false while paused")
	}
}

func TestMPDAliveStopped(t *testing.T) {
	srv := newFakeMPDServer(t, map[string]string{"state": "stop", "volume": "-1"})
	m := NewMPD(srv.ln.Addr().String(), "", time.Second)
	defer m.Close()

	if m.Alive(context.Background()) {
		t.Error("Alive() = true for a stopped MPD")
	}
	if _, err := m.Get(context.Background(), PropVolume); err == nil {
		t.Error("volume -1 should be unavailable")
	}
}

func TestMPDUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	m := NewMPD(addr, "", time.Second)
	if m.Alive(context.Background()) {
		t.Error("Alive() = true with no server")
	}
}

// silentListener accepts connections and never writes to them.
func silentListener(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	})
	return ln.Addr().String()
}

func TestMPDUnresponsiveServer(t *testing.T) {
	t.Run("context deadline", func(t *testing.T) {
		m := NewMPD(silentListener(t), "", 10*time.Second)
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		start := time.Now()
		if m.Alive(ctx) {
			t.Error("Alive() = true for a server that never greets")
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("Alive returned after %v, want about 200ms", elapsed)
		}
	})

	t.Run("channel timeout", func(t *testing.T) {
		m := NewMPD(silentListener(t), "", 100*time.Millisecond)

		start := time.Now()
		if _, err := m.Get(context.Background(), PropVolume); !errors.Is(err, ErrNotRunning) {
			t.Errorf("err = %v, want ErrNotRunning", err)
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("Get returned after %v, want about 100ms", elapsed)
		}

		// the first connection is still unanswered, so this must not wait
		start = time.Now()
		if err := m.Set(context.Background(), PropPause, true); !errors.Is(err, ErrNotRunning) {
			t.Errorf("err = %v, want ErrNotRunning", err)
		}
		if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
			t.Errorf("Set waited %v behind an unanswered request", elapsed)
		}
	})
}

func TestMPDRecoversAfterAbandonedCall(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	release := make(chan struct{})
	go func() {
		// first connection: greet late, then behave
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		<-release
		conn.Close()

		srv := &fakeMPDServer{ln: ln, status: map[string]string{"state": "play"}}
		srv.serve()
	}()

	m := NewMPD(ln.Addr().String(), "", 100*time.Millisecond)
	defer m.Close()
	if m.Alive(context.Background()) {
		t.Fatal("Alive() = true before the server greeted")
	}
	close(release)

	deadline := time.Now().Add(2 * time.Second)
	for !m.Alive(context.Background()) {
		if time.Now().After(deadline) {
			t.Fatal("MPD channel did not recover after the stalled connection closed")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
