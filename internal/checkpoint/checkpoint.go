package checkpoint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/GT-610/chaos-translator/internal/apperrors"
	"github.com/GT-610/chaos-translator/internal/files"
	"github.com/GT-610/chaos-translator/internal/logger"
)

// Checkpoint is a durable snapshot of chain progress.
type Checkpoint struct {
	Text      string   `json:"text"`
	Path      []string `json:"path"`
	Iteration int      `json:"iteration"`
}

var requiredFields = []string{"text", "path", "iteration"}

// FileName derives the checkpoint file name for a chain configuration.
func FileName(src string, total int) string {
	return fmt.Sprintf("checkpoint_%s_%d.json", src, total)
}

// PathFor joins dir and FileName. An empty dir means the working directory.
func PathFor(dir, src string, total int) string {
	if dir == "" {
		return FileName(src, total)
	}
	return filepath.Join(dir, FileName(src, total))
}

// Save writes cp to path atomically. Checkpointing is best-effort: failures are logged
// and reported through the return value only.
func Save(path string, cp Checkpoint) bool {
	if cp.Path == nil {
		cp.Path = []string{}
	}
	data, err := encode(cp)
	if err != nil {
		logger.Error("Failed to encode checkpoint", "path", path, "error", err)
		return false
	}
	if err := files.AtomicWrite(path, data, 0600); err != nil {
		logger.Error("Failed to save checkpoint", "path", path, "error", err)
		return false
	}
	logger.Info("Checkpoint saved", "path", path, "iteration", cp.Iteration)
	return true
}

func encode(cp Checkpoint) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cp); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load reads and validates a checkpoint. Structural problems are reported as
// checkpoint_corrupt errors; I/O errors are returned unchanged.
func Load(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cp, err := decode(data)
	if err != nil {
		return nil, apperrors.CheckpointCorrupt(path, err)
	}
	return cp, nil
}

func decode(data []byte) (*Checkpoint, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("file is not valid UTF-8")
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("checkpoint is not an object")
	}

	var missing []string
	for _, field := range requiredFields {
		v, ok := raw[field]
		if !ok || string(v) == "null" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	var unknown []string
	for key := range raw {
		if !isRequired(key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unexpected fields: %s", strings.Join(unknown, ", "))
	}

	var cp Checkpoint
	if err := json.Unmarshal(raw["text"], &cp.Text); err != nil {
		return nil, fmt.Errorf("field text: %w", err)
	}
	if err := json.Unmarshal(raw["path"], &cp.Path); err != nil {
		return nil, fmt.Errorf("field path: %w", err)
	}
	if err := json.Unmarshal(raw["iteration"], &cp.Iteration); err != nil {
		return nil, fmt.Errorf("field iteration: %w", err)
	}
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	return &cp, nil
}

func isRequired(key string) bool {
	for _, field := range requiredFields {
		if key == field {
			return true
		}
	}
	return false
}

// Validate checks that the snapshot is internally consistent.
func (cp *Checkpoint) Validate() error {
	if cp.Iteration < 0 {
		return fmt.Errorf("invalid iteration: %d", cp.Iteration)
	}
	// Every completed iteration appends exactly one entry, no-ops included.
	if len(cp.Path) != cp.Iteration {
		return fmt.Errorf("path has %d entries but %d iterations completed", len(cp.Path), cp.Iteration)
	}
	for i, entry := range cp.Path {
		if strings.TrimSpace(entry) == "" {
			return fmt.Errorf("path entry %d is empty", i)
		}
	}
	return nil
}
