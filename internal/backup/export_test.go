package backup

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cocobologroup/seatsync/internal/docstore/docstoretest"
)

func seedStore(t *testing.T) *docstoretest.MemStore {
	t.Helper()
	mem := docstoretest.NewMemStore()
	mem.Seed("guests", "g1", map[string]any{"firstName": "Jane"})
	mem.Seed("guests", "g2", map[string]any{"firstName": "John"})
	mem.Seed("tables", "t1", map[string]any{"name": "12", "isOpen": true})
	return mem
}

func TestExportJSONL(t *testing.T) {
	mem := seedStore(t)

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), mem, &buf); err != nil {
		t.Fatalf("ExportJSONL: %v", err)
	}

	scanner := bufio.NewScanner(&buf)
	if !scanner.Scan() {
		t.Fatal("no header line")
	}
	var h header
	if err := json.Unmarshal(scanner.Bytes(), &h); err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if h.Type != "header" || h.Collections != 2 || h.DocumentCount != 3 {
		t.Errorf("header = %+v", h)
	}

	var lines []record
	for scanner.Scan() {
		var r record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		lines = append(lines, r)
	}
	if len(lines) != 3 {
		t.Fatalf("got %d document lines, want 3", len(lines))
	}
	// Ordered by collection then id.
	want := []struct{ collection, id string }{
		{"guests", "g1"}, {"guests", "g2"}, {"tables", "t1"},
	}
	for i, w := range want {
		if lines[i].Collection != w.collection || lines[i].ID != w.id {
			t.Errorf("line %d = %s/%s, want %s/%s",
				i, lines[i].Collection, lines[i].ID, w.collection, w.id)
		}
	}
	if lines[0].Fields["firstName"] != "Jane" {
		t.Errorf("fields not exported: %v", lines[0].Fields)
	}
}

// captureDestination records writes for assertions.
type captureDestination struct {
	mu     sync.Mutex
	writes [][]byte
}

func (d *captureDestination) Write(ctx context.Context, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes = append(d.writes, append([]byte(nil), data...))
	return nil
}

func (d *captureDestination) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.writes)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RunsImmediatelyAndStops(t *testing.T) {
	mem := seedStore(t)
	dest := &captureDestination{}
	sched := NewScheduler(mem, []Destination{dest}, time.Hour, discardLogger())

	sched.Start()
	deadline := time.Now().Add(2 * time.Second)
	for dest.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("initial backup never ran")
		}
		time.Sleep(10 * time.Millisecond)
	}
	sched.Stop()

	if dest.count() != 1 {
		t.Errorf("writes = %d, want 1 (hour-long interval)", dest.count())
	}
}

func TestScheduler_RunOnce(t *testing.T) {
	mem := seedStore(t)
	dest := &captureDestination{}
	sched := NewScheduler(mem, []Destination{dest}, time.Hour, discardLogger())

	if err := sched.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if dest.count() != 1 {
		t.Fatalf("writes = %d, want 1", dest.count())
	}
}

func TestFileDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "backup.jsonl")
	dest := NewFileDestination(path)

	if err := dest.Write(context.Background(), []byte("line1\nline2\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "line1\nline2\n" {
		t.Errorf("content = %q", data)
	}

	// Second write replaces the first.
	if err := dest.Write(context.Background(), []byte("replaced\n")); err != nil {
		t.Fatalf("second Write: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "replaced\n" {
		t.Errorf("content after replace = %q", data)
	}
}
