package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/deployguard/deployguard/internal/decision"
)

// JSONLLog appends one self-contained JSON record per decision to a daily
// log file, so log files remain parseable even when very large.
type JSONLLog struct {
	dir string
	mu  sync.Mutex
}

// NewJSONLLog creates the log directory if needed and returns a sink
// writing to it.
func NewJSONLLog(dir string) (*JSONLLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}
	return &JSONLLog{dir: dir}, nil
}

// LogPath returns the log file path for the given day.
func (l *JSONLLog) LogPath(day time.Time) string {
	return filepath.Join(l.dir, fmt.Sprintf("decisions-%s.jsonl", day.UTC().Format("2006-01-02")))
}

// Write appends a decision record to today's log. The mutex and O_APPEND
// together guarantee records are never interleaved.
func (l *JSONLLog) Write(result *decision.Result) error {
	line, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal decision record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	path := l.LogPath(time.Now())
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}

	return nil
}

// ReadDay returns all decision records logged on the given day, in write
// order. A missing log file yields an empty slice, not an error.
func (l *JSONLLog) ReadDay(day time.Time) ([]decision.Result, error) {
	f, err := os.Open(l.LogPath(day))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var records []decision.Result
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r decision.Result
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("parse audit record: %w", err)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	return records, nil
}

// Close implements Sink. JSONL logs hold no persistent handles.
func (l *JSONLLog) Close() error {
	return nil
}
