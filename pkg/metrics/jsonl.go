package metrics

import (
	"encoding/json"
	"os"
	"sync"
)

// JSONLSink appends metrics records to a line-delimited JSON file.
type JSONLSink struct {
	mu     sync.Mutex
	file   *os.File
	staged []Record
}

// NewJSONLSink opens (or creates) the sink file in append mode.
func NewJSONLSink(path string) (*JSONLSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLSink{file: f}, nil
}

// Update stages one record.
func (s *JSONLSink) Update(step map[string]int, values map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = append(s.staged, Record{Step: step, Values: values})
	return nil
}

// Save writes all staged records and syncs the file.
func (s *JSONLSink) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.staged {
		line, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if _, err := s.file.Write(append(line, '\n')); err != nil {
			return err
		}
	}
	s.staged = s.staged[:0]

	return s.file.Sync()
}

// Close flushes staged records and closes the file.
func (s *JSONLSink) Close() error {
	if err := s.Save(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
