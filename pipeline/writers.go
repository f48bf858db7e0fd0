// Package pipeline persists collected records to durable storage.
package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/lmazurina/bookcrawl/models"
)

// OutputWriter defines the interface for record output.
type OutputWriter interface {
	Write(records []*models.Record) error
	Close() error
	Validate() error
}

// TextWriter writes the human-readable sequential dump: one numbered
// block per record with key: value lines in insertion order, blocks
// separated by a blank line.
type TextWriter struct {
	file   *os.File
	writer *bufio.Writer
	index  int
	mu     sync.Mutex
}

// NewTextWriter truncates filename and prepares the writer.
func NewTextWriter(filename string) (*TextWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create text file: %w", err)
	}

	return &TextWriter{
		file:   f,
		writer: bufio.NewWriter(f),
	}, nil
}

// Write appends records, numbering blocks across calls.
func (tw *TextWriter) Write(records []*models.Record) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	for _, record := range records {
		if record == nil {
			continue
		}
		tw.index++
		if _, err := fmt.Fprintf(tw.writer, "Book #%d\n", tw.index); err != nil {
			return fmt.Errorf("write block header: %w", err)
		}
		for _, key := range record.Keys() {
			value, _ := record.Get(key)
			if _, err := fmt.Fprintf(tw.writer, "%s: %s\n", key, value); err != nil {
				return fmt.Errorf("write block entry: %w", err)
			}
		}
		if _, err := tw.writer.WriteString("\n"); err != nil {
			return fmt.Errorf("write block separator: %w", err)
		}
	}

	if err := tw.writer.Flush(); err != nil {
		return fmt.Errorf("flush text writer: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (tw *TextWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := tw.writer.Flush(); err != nil {
		return fmt.Errorf("flush text writer: %w", err)
	}
	return tw.file.Close()
}

// Validate ensures the file has content.
func (tw *TextWriter) Validate() error {
	info, err := tw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat text file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("text file is empty")
	}
	return nil
}

// JSONWriter writes newline-delimited JSON records with key order
// preserved.
type JSONWriter struct {
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONWriter initialises the JSON writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	return &JSONWriter{
		file:    f,
		writer:  buffer,
		encoder: json.NewEncoder(buffer),
	}, nil
}

// Write appends records in JSONL format.
func (jw *JSONWriter) Write(records []*models.Record) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	for _, record := range records {
		if record == nil {
			continue
		}
		if err := jw.encoder.Encode(record); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
	}

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	info, err := jw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat json file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("json file is empty")
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
