package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
)

// NewWriter returns a writer for the named output format. The dual
// format derives the JSONL filename from the text filename.
func NewWriter(format, filename string) (OutputWriter, error) {
	switch format {
	case "text":
		return NewTextWriter(filename)
	case "json":
		return NewJSONWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, filepath.Ext(filename)) + ".jsonl"
		return NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
