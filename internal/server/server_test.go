package server

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/openshelf/openshelf/internal/catalog"
	"github.com/openshelf/openshelf/internal/library"
	"github.com/openshelf/openshelf/internal/lock"
	"github.com/openshelf/openshelf/internal/persistence"
)

func startTestServer(t *testing.T) (*Server, net.Addr) {
	t.Helper()

	store := persistence.NewFileStore(t.TempDir()+"/database.json", zerolog.Nop())
	pm := persistence.NewManager(store, lock.NewNoOpLocker(), time.Minute, zerolog.Nop())
	manager := library.NewManager(catalog.NewStore("admin"), pm, 3, zerolog.Nop())
	manager.SeedDemoData()

	srv := New("127.0.0.1:0", manager, zerolog.Nop())
	go func() {
		if err := srv.Start(); err != nil {
			t.Errorf("Start failed: %v", err)
		}
	}()

	deadline := time.Now().Add(5 * time.Second)
	for srv.Addr() == nil {
		if time.Now().After(deadline) {
			t.Fatal("server did not bind in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return srv, srv.Addr()
}

func TestServerServesSessions(t *testing.T) {
	srv, addr := startTestServer(t)
	defer srv.Stop()

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("reading the login menu failed: %v", err)
	}
	if !strings.Contains(line, "Login") {
		t.Errorf("expected the login menu, got %q", line)
	}

	// Choosing Exit ends the session; the server closes the connection.
	if _, err := conn.Write([]byte("2\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	for {
		if _, err := reader.ReadString('\n'); err != nil {
			break
		}
	}
}

func TestServerConcurrentConnections(t *testing.T) {
	srv, addr := startTestServer(t)
	defer srv.Stop()

	conns := make([]net.Conn, 0, 3)
	for i := 0; i < 3; i++ {
		conn, err := net.Dial("tcp", addr.String())
		if err != nil {
			t.Fatalf("Dial %d failed: %v", i, err)
		}
		conns = append(conns, conn)
	}

	// Every connection gets its own session and its own login menu.
	for i, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		line, err := bufio.NewReader(conn).ReadString('\n')
		if err != nil {
			t.Fatalf("reading from connection %d failed: %v", i, err)
		}
		if !strings.Contains(line, "Login") {
			t.Errorf("connection %d: expected the login menu, got %q", i, line)
		}
		conn.Close()
	}
}

func TestServerStopUnblocksAccept(t *testing.T) {
	srv, _ := startTestServer(t)

	done := make(chan struct{})
	go func() {
		srv.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
}
