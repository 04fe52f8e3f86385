package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	logx "github.com/XaMcTeRzzz/taskmeneger/pkg/logx"
)

const compactEvery = 200

// fileStore persists records as:
//   - <prefix>.snapshot.json (compacted state)
//   - <prefix>.journal.jsonl (append-only)
//
// Nothing is cached: every call rebuilds the state from the snapshot and the
// journal, so a second process on the same files (a CLI command next to the
// daemon) sees and keeps the other's writes. Writes are single appended
// lines. The journal is folded into the snapshot on open and once it holds
// compactEvery records; a writer in another process that appends during that
// fold can lose its record, so concurrent writers belong on sqlite.
type fileStore struct {
	log logx.Logger
	fs  afero.Fs

	mu     sync.Mutex
	closed bool

	snapshotPath string
	journalPath  string
}

type journalRecord struct {
	Key     string `json:"key"`
	Value   []byte `json:"value,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	fs := cfg.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	prefix := filepath.Join(dir, base)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	s := &fileStore{
		log:          log,
		fs:           fs,
		snapshotPath: prefix + ".snapshot.json",
		journalPath:  prefix + ".journal.jsonl",
	}
	data, n := s.loadLocked(true)
	if n > 0 {
		if err := s.compactLocked(data); err != nil {
			log.Debug("storage compact on open failed", logx.Err(err))
		}
	}
	return s, nil
}

// loadLocked rebuilds the current state. Unreadable files lose state but
// never fail the call; warn controls whether that is logged.
func (s *fileStore) loadLocked(warn bool) (map[string][]byte, int) {
	data := map[string][]byte{}
	if err := s.loadSnapshot(data); err != nil && !errors.Is(err, os.ErrNotExist) && warn {
		s.log.Warn("storage snapshot unreadable; starting empty", logx.String("path", s.snapshotPath), logx.Err(err))
	}
	n, err := s.replayJournal(data)
	if err != nil && !errors.Is(err, os.ErrNotExist) && warn {
		s.log.Warn("storage journal replay incomplete", logx.String("path", s.journalPath), logx.Err(err))
	}
	return data, n
}

func (s *fileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	key = strings.TrimSpace(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false, ErrClosed
	}
	data, _ := s.loadLocked(false)
	v, ok := data[key]
	if !ok {
		return nil, false, nil
	}
	return v, true, nil
}

func (s *fileStore) Put(_ context.Context, key string, value []byte) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.appendLocked(journalRecord{Key: key, Value: value})
}

func (s *fileStore) Delete(_ context.Context, key string) error {
	key = strings.TrimSpace(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	data, _ := s.loadLocked(false)
	if _, ok := data[key]; !ok {
		return nil
	}
	return s.appendLocked(journalRecord{Key: key, Deleted: true})
}

// Close only marks the store closed. It does not compact: the state on disk
// may include writes from another process.
func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// appendLocked opens the journal per write so the offset is always the
// current end of file, even after another process compacted it.
func (s *fileStore) appendLocked(r journalRecord) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	f, err := s.fs.OpenFile(s.journalPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	_ = f.Sync()
	if err := f.Close(); err != nil {
		return err
	}

	data, n := s.loadLocked(false)
	if n >= compactEvery {
		if err := s.compactLocked(data); err != nil {
			s.log.Debug("storage compact failed", logx.Err(err))
		}
	}
	return nil
}

func (s *fileStore) compactLocked(data map[string][]byte) error {
	tmp := s.snapshotPath + ".tmp"
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(s.fs, tmp, b, 0o600); err != nil {
		return err
	}
	if err := s.fs.Rename(tmp, s.snapshotPath); err != nil {
		return err
	}
	f, err := s.fs.OpenFile(s.journalPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	return f.Close()
}

func (s *fileStore) loadSnapshot(data map[string][]byte) error {
	b, err := afero.ReadFile(s.fs, s.snapshotPath)
	if err != nil {
		return err
	}
	var m map[string][]byte
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	for k, v := range m {
		data[k] = v
	}
	return nil
}

// replayJournal applies the journal to data and returns the number of
// records it held.
func (s *fileStore) replayJournal(data map[string][]byte) (int, error) {
	f, err := s.fs.Open(s.journalPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	n := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var r journalRecord
		// A torn last line (crash mid-write) is skipped.
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil || r.Key == "" {
			continue
		}
		n++
		if r.Deleted {
			delete(data, r.Key)
			continue
		}
		data[r.Key] = r.Value
	}
	return n, sc.Err()
}
