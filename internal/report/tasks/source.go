package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// Source supplies a point-in-time copy of all tasks.
type Source interface {
	ListTasks(ctx context.Context) ([]Task, error)
}

// FileSource reads tasks from a JSON file holding either an array of tasks
// or an object with a "tasks" array. The file is read on every call.
type FileSource struct {
	fs afero.Fs

	mu   sync.RWMutex
	path string
}

func NewFileSource(fsys afero.Fs, path string) *FileSource {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &FileSource{fs: fsys, path: path}
}

// SetPath points the source at another file; the next ListTasks reads it.
func (s *FileSource) SetPath(path string) {
	s.mu.Lock()
	s.path = path
	s.mu.Unlock()
}

func (s *FileSource) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// ListTasks returns no tasks when the file does not exist yet. A file that
// cannot be decoded is an error.
func (s *FileSource) ListTasks(ctx context.Context) ([]Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.Path()
	b, err := afero.ReadFile(s.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read tasks %s: %w", path, err)
	}
	out, err := decode(b)
	if err != nil {
		return nil, fmt.Errorf("decode tasks %s: %w", path, err)
	}
	return out, nil
}

func decode(b []byte) ([]Task, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil, nil
	}
	if strings.HasPrefix(string(b), "[") {
		var out []Task
		err := json.Unmarshal(b, &out)
		return out, err
	}
	var wrapped struct {
		Tasks []Task `json:"tasks"`
	}
	err := json.Unmarshal(b, &wrapped)
	return wrapped.Tasks, err
}

// Static is a fixed in-memory Source.
type Static []Task

func (s Static) ListTasks(context.Context) ([]Task, error) {
	return append([]Task(nil), s...), nil
}
