package rsvp

import (
	"context"
	"log/slog"
	"time"
)

// ResponseTable is the tabular store that holds response rows. Individual
// calls are assumed atomic; a read followed by a write is not.
type ResponseTable interface {
	// ResponseKeys returns the invite id column of every stored row, in row
	// order.
	ResponseKeys(ctx context.Context) ([]string, error)
	// AppendResponse adds a new row.
	AppendResponse(ctx context.Context, row []string) error
	// UpdateResponse overwrites the full row at index, counted like the
	// result of ResponseKeys.
	UpdateResponse(ctx context.Context, index int, row []string) error
	// ResponseRows returns every stored row.
	ResponseRows(ctx context.Context) ([][]string, error)
}

// AtomicUpserter is implemented by tables that can create or replace the row
// for key in a single call. ResponseStore prefers it over scan-then-write.
type AtomicUpserter interface {
	UpsertResponse(ctx context.Context, key string, row []string) error
}

// Locker serializes writers of the same key.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// ResponseStore validates submissions and commits them to a ResponseTable,
// keeping at most one row per invite id.
type ResponseStore struct {
	table     ResponseTable
	subEvents []string
	locker    Locker
	now       func() time.Time
	logger    *slog.Logger
}

// StoreOption configures a ResponseStore.
type StoreOption func(*ResponseStore)

// WithLocker holds a per-invite lock around the scan-then-write sequence.
func WithLocker(l Locker) StoreOption {
	return func(s *ResponseStore) { s.locker = l }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *ResponseStore) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *ResponseStore) { s.logger = l }
}

// NewResponseStore creates a store over table. subEvents fixes the
// attendance columns; nil means DefaultSubEvents.
func NewResponseStore(table ResponseTable, subEvents []string, opts ...StoreOption) *ResponseStore {
	if len(subEvents) == 0 {
		subEvents = DefaultSubEvents
	}
	s := &ResponseStore{
		table:     table,
		subEvents: subEvents,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "response_store")
	return s
}

// SubEvents returns the recognized sub-event keys in column order.
func (s *ResponseStore) SubEvents() []string {
	return s.subEvents
}

// Submit validates sub against inv and commits it. Nothing is written when
// validation fails. Store failures are returned as StoreUnavailable and are
// not retried.
func (s *ResponseStore) Submit(ctx context.Context, inv Invitation, sub Submission) (ResponseRecord, error) {
	rec, err := Prepare(inv, sub, s.subEvents, s.now())
	if err != nil {
		return ResponseRecord{}, err
	}
	if err := s.commit(ctx, rec); err != nil {
		return ResponseRecord{}, err
	}
	s.logger.InfoContext(ctx, "response committed",
		"invite_id", rec.InviteID, "party_size", rec.PartySize)
	return rec, nil
}

func (s *ResponseStore) commit(ctx context.Context, rec ResponseRecord) error {
	row := rec.Row(s.subEvents)

	if up, ok := s.table.(AtomicUpserter); ok {
		if err := up.UpsertResponse(ctx, rec.InviteID, row); err != nil {
			return storeUnavailable("failed to save response", err)
		}
		return nil
	}

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, rec.InviteID)
		if err != nil {
			return storeUnavailable("failed to lock response", err)
		}
		defer unlock()
	}

	keys, err := s.table.ResponseKeys(ctx)
	if err != nil {
		return storeUnavailable("failed to read responses", err)
	}
	idx := -1
	for i, k := range keys {
		if k == rec.InviteID {
			idx = i
			break
		}
	}

	if idx == -1 {
		err = s.table.AppendResponse(ctx, row)
	} else {
		err = s.table.UpdateResponse(ctx, idx, row)
	}
	if err != nil {
		return storeUnavailable("failed to save response", err)
	}
	return nil
}

// Responses lists every stored record. Rows that cannot be read are skipped.
func (s *ResponseStore) Responses(ctx context.Context) ([]ResponseRecord, error) {
	rows, err := s.table.ResponseRows(ctx)
	if err != nil {
		return nil, storeUnavailable("failed to read responses", err)
	}
	records := make([]ResponseRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := ParseResponseRow(row, s.subEvents)
		if err != nil {
			s.logger.DebugContext(ctx, "skipping response row", "row", i, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
