package teacher

import (
	"encoding/json"
	"os"
	"sync"
)

// RunLog is the append-only line-delimited JSON record of a run. One
// record is written per round before dispatch, and one more before
// training.
type RunLog struct {
	mu   sync.Mutex
	file *os.File
}

type runLogRecord struct {
	Iteration   int      `json:"iteration"`
	Msg         string   `json:"msg"`
	Conjectures []string `json:"conjectures,omitempty"`
}

// OpenRunLog opens (or creates) log.jsonl-style file in append mode, so
// a resumed run extends the existing history.
func OpenRunLog(path string) (*RunLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &RunLog{file: f}, nil
}

// Record appends one record and flushes it immediately.
func (l *RunLog) Record(iteration int, msg string, conjectures []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	line, err := json.Marshal(runLogRecord{
		Iteration:   iteration,
		Msg:         msg,
		Conjectures: conjectures,
	})
	if err != nil {
		return err
	}

	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return err
	}
	return l.file.Sync()
}

// Close closes the underlying file.
func (l *RunLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
