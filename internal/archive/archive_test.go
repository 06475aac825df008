package archive_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ajaytemal-source/Resonate/internal/archive"
)

func TestFileStore_SaveAndLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "sessions.jsonl")
	store := archive.NewFileStore(path)

	rec := archive.Record{
		StreamID:        "stream-1",
		ConnectionID:    "conn-abc",
		UserIntent:      "practice keynote",
		TotalTranscript: "hello everyone",
		FeedbackHistory: []string{"Slow down slightly"},
		ToneLabels:      map[string]string{"emotion": "neutral"},
		PrimaryWindows:  3,
		DurationMs:      31200,
	}
	if err := store.SaveSession(rec); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	got, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("loaded %d records, want 1", len(got))
	}
	if got[0].StreamID != "stream-1" {
		t.Errorf("StreamID = %q, want %q", got[0].StreamID, "stream-1")
	}
	if got[0].Timestamp.IsZero() {
		t.Error("Timestamp was not defaulted")
	}
	if got[0].ToneLabels["emotion"] != "neutral" {
		t.Errorf("ToneLabels = %v", got[0].ToneLabels)
	}
}

func TestFileStore_AppendsRecords(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "sessions.jsonl")
	store := archive.NewFileStore(path)

	for i := range 3 {
		rec := archive.Record{
			StreamID:  "stream",
			Timestamp: time.Date(2025, 1, 1, 0, i, 0, 0, time.UTC),
		}
		if err := store.SaveSession(rec); err != nil {
			t.Fatalf("SaveSession #%d: %v", i, err)
		}
	}

	got, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("loaded %d records, want 3", len(got))
	}
	if !got[2].Timestamp.After(got[0].Timestamp) {
		t.Error("records are not in append order")
	}
}

func TestFileStore_LoadMissingFile(t *testing.T) {
	t.Parallel()
	store := archive.NewFileStore(filepath.Join(t.TempDir(), "never-written.jsonl"))

	got, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("loaded %d records from missing file, want 0", len(got))
	}
}

func TestFileStore_SkipsMalformedLines(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "sessions.jsonl")
	content := strings.Join([]string{
		`{"stream_id":"good-1","total_transcript":""}`,
		`{this is not json`,
		`{"stream_id":"good-2","total_transcript":""}`,
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := archive.NewFileStore(path).LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("loaded %d records, want 2", len(got))
	}
	if got[0].StreamID != "good-1" || got[1].StreamID != "good-2" {
		t.Errorf("records = %+v", got)
	}
}

func TestFileStore_ConcurrentSaves(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "sessions.jsonl")
	store := archive.NewFileStore(path)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.SaveSession(archive.Record{StreamID: "concurrent"})
		}()
	}
	wg.Wait()

	got, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("loaded %d records, want 10", len(got))
	}
}
