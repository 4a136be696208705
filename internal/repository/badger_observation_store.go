package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"TrendPulse/internal/domain/models"
	domrepo "TrendPulse/internal/domain/repository"
	applogger "TrendPulse/pkg/logger"
)

// ErrStoreClosed is returned by operations on a closed store.
var ErrStoreClosed = errors.New("observation store closed")

const (
	obsPrefix = "obs/"
	signBit   = 1 << 63
)

// BadgerOptions configures the embedded store.
type BadgerOptions struct {
	Dir        string
	InMemory   bool
	SyncWrites bool
	Logger     *applogger.Logger
}

// BadgerObservationStore implements ObservationStore on an embedded Badger
// database. Keys are obs/<indicator>/<8-byte big-endian date>, so a prefix
// scan yields one indicator in date order and a second write for the same
// date replaces the first.
type BadgerObservationStore struct {
	db     *badger.DB
	l      *applogger.Logger
	mu     sync.RWMutex
	closed bool
}

type badgerValue struct {
	Value float64 `json:"v"`
	Unit  string  `json:"u,omitempty"`
}

func NewBadgerObservationStore(opts BadgerOptions) (*BadgerObservationStore, error) {
	l := opts.Logger
	if l == nil {
		l = applogger.Nop()
	}

	bopts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	if opts.SyncWrites {
		bopts = bopts.WithSyncWrites(true)
	}
	bopts = bopts.WithLogger(badgerLogger{l: l.With(applogger.String("component", "badger"))})

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerObservationStore{db: db, l: l}, nil
}

// Init is a no-op; Badger needs no schema.
func (s *BadgerObservationStore) Init(context.Context) error { return s.ensureOpen() }

func (s *BadgerObservationStore) Store(ctx context.Context, o *models.Observation) error {
	if o == nil {
		return fmt.Errorf("%w: nil", models.ErrInvalidObservation)
	}
	return s.StoreBatch(ctx, []*models.Observation{o})
}

func (s *BadgerObservationStore) StoreBatch(_ context.Context, obs []*models.Observation) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	for _, o := range obs {
		if o == nil {
			continue
		}
		if err := o.Validate(); err != nil {
			return err
		}
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, o := range obs {
		if o == nil {
			continue
		}
		val, err := json.Marshal(badgerValue{Value: o.Value, Unit: o.Unit})
		if err != nil {
			return fmt.Errorf("encode observation: %w", err)
		}
		if err := wb.Set(obsKey(o.Indicator, o.Date), val); err != nil {
			return fmt.Errorf("write observation: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush observations: %w", err)
	}
	return nil
}

func (s *BadgerObservationStore) Query(_ context.Context, q domrepo.ObservationQuery) ([]models.Observation, error) {
	q = q.Normalize()
	if q.Indicator == "" {
		return nil, fmt.Errorf("%w: indicator is required", models.ErrInvalidObservation)
	}

	prefix := indicatorPrefix(q.Indicator)
	seek := append(append([]byte{}, prefix...), 0xff)
	if !q.To.IsZero() {
		seek = obsKey(q.Indicator, q.To)
	}

	out := make([]models.Observation, 0, 64)
	err := s.withView(func(txn *badger.Txn) error {
		opts := badgerIterOpts(prefix)
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// newest first so the limit keeps the most recent rows
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(out) < q.Limit; it.Next() {
			item := it.Item()
			date := decodeDate(item.Key()[len(prefix):])
			if !q.From.IsZero() && date.Before(q.From) {
				break
			}
			var v badgerValue
			if err := item.Value(func(b []byte) error { return json.Unmarshal(b, &v) }); err != nil {
				return fmt.Errorf("decode observation: %w", err)
			}
			out = append(out, models.Observation{Indicator: q.Indicator, Date: date, Value: v.Value, Unit: v.Unit})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	reverse(out)
	return out, nil
}

func (s *BadgerObservationStore) Latest(ctx context.Context, indicator string, n int) ([]models.Observation, error) {
	return s.Query(ctx, domrepo.ObservationQuery{Indicator: indicator, Limit: n})
}

func (s *BadgerObservationStore) Indicators(context.Context) ([]string, error) {
	var out []string
	err := s.withView(func(txn *badger.Txn) error {
		prefix := []byte(obsPrefix)
		opts := badgerIterOpts(prefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(prefix)
		for it.ValidForPrefix(prefix) {
			rest := string(it.Item().Key()[len(prefix):])
			slash := strings.IndexByte(rest, '/')
			if slash <= 0 {
				it.Next()
				continue
			}
			ind := rest[:slash]
			out = append(out, ind)
			// skip the remaining keys of this indicator
			it.Seek(append(indicatorPrefix(ind), 0xff))
		}
		return nil
	})
	return out, err
}

func (s *BadgerObservationStore) Health(context.Context) error { return s.ensureOpen() }

func (s *BadgerObservationStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *BadgerObservationStore) ensureOpen() error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrStoreClosed
	}
	return nil
}

func (s *BadgerObservationStore) withView(fn func(txn *badger.Txn) error) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	return s.db.View(fn)
}

func badgerIterOpts(prefix []byte) badger.IteratorOptions {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	opts.PrefetchSize = 100
	opts.Prefix = prefix
	return opts
}

func indicatorPrefix(indicator string) []byte {
	return []byte(obsPrefix + indicator + "/")
}

// obsKey flips the sign bit of the date so pre-1970 dates sort first.
func obsKey(indicator string, date time.Time) []byte {
	prefix := indicatorPrefix(indicator)
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	ts := uint64(date.UnixNano()) ^ signBit
	binary.BigEndian.PutUint64(key[len(prefix):], ts)
	return key
}

func decodeDate(b []byte) time.Time {
	if len(b) < 8 {
		return time.Time{}
	}
	ts := binary.BigEndian.Uint64(b) ^ signBit
	return time.Unix(0, int64(ts)).UTC()
}

// badgerLogger routes Badger's internal logging through the app logger.
type badgerLogger struct{ l *applogger.Logger }

func (b badgerLogger) Errorf(f string, v ...interface{})   { b.l.Error(strings.TrimSpace(fmt.Sprintf(f, v...))) }
func (b badgerLogger) Warningf(f string, v ...interface{}) { b.l.Warn(strings.TrimSpace(fmt.Sprintf(f, v...))) }
func (b badgerLogger) Infof(f string, v ...interface{})    { b.l.Debug(strings.TrimSpace(fmt.Sprintf(f, v...))) }
func (b badgerLogger) Debugf(f string, v ...interface{})   { b.l.Debug(strings.TrimSpace(fmt.Sprintf(f, v...))) }

var _ domrepo.ObservationStore = (*BadgerObservationStore)(nil)
