package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"whirlpoolQuote/internal/model"
)

// JsonlStorage writes quote records as JSON lines, either appending to a
// file or to a caller-supplied writer.
type JsonlStorage struct {
	path   string
	writer io.Writer
	mu     sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// NewJsonlWriter writes records to w, e.g. os.Stdout.
func NewJsonlWriter(w io.Writer) *JsonlStorage {
	return &JsonlStorage{writer: w}
}

// PutQuotes appends a batch of quote records as JSON lines.
func (s *JsonlStorage) PutQuotes(_ context.Context, records []model.QuoteRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.writer
	if out == nil {
		dir := filepath.Dir(s.path)
		if dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}
		file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	writer := bufio.NewWriter(out)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal quote record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write quote record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}

// ReadRequests decodes JSON-lines quote requests, skipping blank lines.
func ReadRequests(r io.Reader) ([]model.QuoteRequest, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var requests []model.QuoteRequest
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(bytes.TrimSpace(text)) == 0 {
			continue
		}
		var req model.QuoteRequest
		if err := json.Unmarshal(text, &req); err != nil {
			return nil, fmt.Errorf("parse request line %d: %w", line, err)
		}
		if req.ID == "" {
			req.ID = fmt.Sprintf("line-%d", line)
		}
		requests = append(requests, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read requests: %w", err)
	}
	return requests, nil
}
