// Package archive persists finished coaching sessions. Sessions are stored
// as append-only JSON lines in a local file, one record per completed
// stream, so past sessions can be reviewed or fed into later analysis.
//
// For production use at scale, this should be replaced with a database-backed
// implementation.
package archive

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// Record is a single archived session written to the file store.
type Record struct {
	Timestamp    time.Time `json:"timestamp"`
	StreamID     string    `json:"stream_id"`
	ConnectionID string    `json:"connection_id"`

	UserIntent   string `json:"user_intent,omitempty"`
	UserPurpose  string `json:"user_purpose,omitempty"`
	AudienceType string `json:"audience_type,omitempty"`

	TotalTranscript string   `json:"total_transcript"`
	FeedbackHistory []string `json:"feedback_history,omitempty"`

	// ToneLabels holds the final label per analysis task from the last
	// completed voice analysis, if any.
	ToneLabels map[string]string `json:"tone_labels,omitempty"`

	PrimaryWindows   int   `json:"primary_windows"`
	SecondaryWindows int   `json:"secondary_windows"`
	DurationMs       int64 `json:"duration_ms"`
}

// FileStore persists session records as JSON lines in a local file.
// Thread-safe for concurrent use.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore that writes to the given path.
// The file is created if it does not exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// SaveSession appends a session record to the file. A zero Timestamp is
// filled with the current UTC time.
func (fs *FileStore) SaveSession(rec Record) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("archive: marshal: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(fs.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("archive: open file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("archive: write: %w", err)
	}
	return nil
}

// LoadAll reads every archived session from the file. A missing file is not
// an error; it returns an empty slice. Malformed lines are skipped so a
// single truncated write cannot make the whole archive unreadable.
func (fs *FileStore) LoadAll() ([]Record, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := os.Open(fs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("archive: open file: %w", err)
	}
	defer f.Close()

	var records []Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("archive: read: %w", err)
	}
	return records, nil
}
