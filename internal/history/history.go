// Package history persists the question/answer trail per user as an
// append-only JSONL file, one line per answered question.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ragnova/ragnova/internal/log"
)

// Entry is one answered question.
type Entry struct {
	Time       time.Time `json:"time"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	References []string  `json:"references,omitempty"`
	Contexts   []string  `json:"contexts,omitempty"`
}

// Log writes and reads per-owner history files under one directory. Safe for
// concurrent use.
type Log struct {
	dir    string
	logger log.Logger

	mu sync.Mutex
}

// NewLog creates a Log rooted at dir. The directory is created on first
// append.
func NewLog(dir string, logger log.Logger) *Log {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Log{dir: dir, logger: logger}
}

// Append writes one entry to the owner's history file. A zero entry time is
// filled with the current time.
func (l *Log) Append(owner string, e Entry) error {
	if strings.TrimSpace(owner) == "" {
		return fmt.Errorf("empty history owner")
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding history entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0o750); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}

	f, err := os.OpenFile(l.path(owner), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening history file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("writing history entry: %w", err)
	}
	return nil
}

// Load returns the owner's history in append order. A missing file is an
// empty history; unparseable lines are skipped with a warning.
func (l *Log) Load(owner string) ([]Entry, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("empty history owner")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path(owner))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening history file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			l.logger.Warn("skipping unreadable history line", "owner", owner, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("reading history file: %w", err)
	}
	return entries, nil
}

func (l *Log) path(owner string) string {
	return filepath.Join(l.dir, "chat_log_"+sanitize(owner)+".jsonl")
}

// sanitize keeps owner names filesystem-safe.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
