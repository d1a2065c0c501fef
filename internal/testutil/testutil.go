package testutil

import (
	"context"
	"database/sql"
	"net"
	"sync"
	"testing"

	"example.com/technotes/app/internal/infra/persistence/sqlite"
)

// OpenInMemoryDB opens a migrated in-memory SQLite database. The shared
// cache keeps every pooled connection on the same database; name must be
// unique per test.
func OpenInMemoryDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	d, err := sqlite.Open(context.Background(), "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// SilentBrokerURL returns an AMQP URL whose server accepts TCP connections
// and then never speaks, so the client handshake hangs until its deadline.
func SilentBrokerURL(t *testing.T) string {
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
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return "amqp://guest:guest@" + ln.Addr().String() + "/"
}
