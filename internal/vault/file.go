package vault

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// FileStore keeps secrets in a single JSON object on disk.
type FileStore struct {
	path   string
	logger zerolog.Logger
}

func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	return &FileStore{path: path, logger: logger.With().Str("store", DriverJSON).Logger()}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load() Secrets {
	b, err := os.ReadFile(s.path)
	if err != nil {
		reason := reasonRead
		if errors.Is(err, fs.ErrNotExist) {
			reason = reasonMissing
		}
		return emptyOnError(s.logger, s.path, reason, err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return emptyOnError(s.logger, s.path, reasonMalformed, err)
	}
	out := make(Secrets, len(raw))
	for alias, v := range raw {
		out[alias] = valueText(v)
	}
	return loaded(out)
}

// valueText returns string values verbatim and anything else as compact JSON.
func valueText(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return string(v)
	}
	return buf.String()
}

func (s *FileStore) Seed(entries Secrets) (bool, error) {
	exists, err := fileExists(s.path)
	if err != nil || exists {
		return false, err
	}
	b, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return false, fmt.Errorf("encode secrets: %w", err)
	}
	if err := ensureDir(s.path); err != nil {
		return false, err
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("create %s: %w", s.path, err)
	}
	if _, err := f.Write(append(b, '\n')); err != nil {
		_ = f.Close()
		return false, discardPartial(s.path, fmt.Errorf("write %s: %w", s.path, err))
	}
	if err := f.Close(); err != nil {
		return false, discardPartial(s.path, fmt.Errorf("close %s: %w", s.path, err))
	}
	return true, nil
}

// discardPartial removes a seed file that was created but not completely
// written, so the next startup seeds again.
func discardPartial(path string, cause error) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Join(cause, fmt.Errorf("remove partial %s: %w", path, err))
	}
	return cause
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}
