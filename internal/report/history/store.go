package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/XaMcTeRzzz/taskmeneger/internal/storage"
	logx "github.com/XaMcTeRzzz/taskmeneger/pkg/logx"
)

const (
	HistoryKey = "report_history"
	StatusKey  = "report_status"
)

// Store persists the delivery Record and the diagnostic Status in a
// key-value backend. Callers serialize access; Store adds no locking.
type Store struct {
	kv  storage.Store
	log logx.Logger
}

func New(kv storage.Store, log logx.Logger) *Store {
	return &Store{kv: kv, log: log}
}

// Load returns the persisted record. Missing, unreadable or corrupt data
// yields an empty record ("never sent"); only the cause is logged.
func (s *Store) Load(ctx context.Context) Record {
	var rec Record
	if err := s.get(ctx, HistoryKey, &rec); err != nil {
		s.log.Warn("report history unreadable; treating as never sent", logx.Err(err))
		return Record{}
	}
	return rec
}

// Save overwrites the persisted record.
func (s *Store) Save(ctx context.Context, rec Record) error {
	return s.put(ctx, HistoryKey, rec)
}

// MarkDailySent records now's calendar date as delivered. Repeating the call
// for the same day leaves the record unchanged.
func (s *Store) MarkDailySent(ctx context.Context, now time.Time) error {
	return s.Save(ctx, s.Load(ctx).WithDaily(now))
}

// MarkWeeklySent records now's ISO week as delivered.
func (s *Store) MarkWeeklySent(ctx context.Context, now time.Time) error {
	return s.Save(ctx, s.Load(ctx).WithWeekly(now))
}

// Reset forgets every delivered occurrence, so due reports go out again.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.kv.Delete(ctx, HistoryKey); err != nil {
		return fmt.Errorf("reset report history: %w", err)
	}
	return nil
}

func (s *Store) LoadStatus(ctx context.Context) Status {
	var st Status
	if err := s.get(ctx, StatusKey, &st); err != nil {
		s.log.Debug("report status unreadable", logx.Err(err))
		return Status{}
	}
	return st
}

func (s *Store) SaveStatus(ctx context.Context, st Status) error {
	return s.put(ctx, StatusKey, st)
}

func (s *Store) get(ctx context.Context, key string, v any) error {
	b, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, key, b); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
