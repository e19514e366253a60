package paper

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// JSONLRecorder appends executed entries as JSON lines for later analysis.
type JSONLRecorder struct {
	file *os.File
	enc  *json.Encoder
}

// NewJSONLRecorder creates/opens the target file and returns a recorder.
func NewJSONLRecorder(path string) (*JSONLRecorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLRecorder{file: file, enc: json.NewEncoder(file)}, nil
}

// Record writes a single entry to the underlying JSONL file.
func (r *JSONLRecorder) Record(entry Entry) {
	_ = r.enc.Encode(entry)
}

// Close flushes and closes the file handle.
func (r *JSONLRecorder) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
