// Package session persists a learner's quest between sign-ins.
//
// A record is one JSON document per identity held in an opaque key-value
// store. Saving is best-effort and loading never fails: a missing, unreadable
// or corrupt record simply means there is no saved session.
package session

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/Tarunjit45/ExamGenius/internal/gamification"
	"github.com/Tarunjit45/ExamGenius/internal/plan"
)

// DefaultKeyPrefix namespaces session records in shared stores.
const DefaultKeyPrefix = "quest:session:"

// Snapshot is the persisted part of a session.
type Snapshot struct {
	Topics  []plan.SyllabusTopic
	Plan    *plan.StudyPlan
	Profile gamification.Profile
	SavedAt time.Time
}

// PersistenceError reports a failed save or load.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("session %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Store saves and loads snapshots.
type Store struct {
	kv      KV
	prefix  string
	catalog *gamification.Catalog
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithCatalog sets the badge catalog used to rehydrate badges.
func WithCatalog(c *gamification.Catalog) Option {
	return func(s *Store) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithClock overrides time.Now for SavedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a Store on top of kv.
func NewStore(kv KV, opts ...Option) *Store {
	s := &Store{
		kv:      kv,
		prefix:  DefaultKeyPrefix,
		catalog: gamification.DefaultCatalog(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key derives the storage key for an identity. The raw identity id never
// appears in the key.
func (s *Store) Key(identityID string) string {
	sum := blake2b.Sum256([]byte(identityID))
	return s.prefix + hex.EncodeToString(sum[:])[:32]
}

// Save writes snap for identityID.
func (s *Store) Save(ctx context.Context, identityID string, snap Snapshot) error {
	key := s.Key(identityID)
	if identityID == "" {
		return &PersistenceError{Op: "save", Key: key, Err: errors.New("identity id is empty")}
	}

	data, err := json.Marshal(newRecord(snap, s.now()))
	if err != nil {
		return &PersistenceError{Op: "save", Key: key, Err: fmt.Errorf("encoding record: %w", err)}
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		return &PersistenceError{Op: "save", Key: key, Err: err}
	}
	return nil
}

// Load returns the saved snapshot for identityID, or false when there is
// none. Storage and decoding failures are logged and reported as absent.
func (s *Store) Load(ctx context.Context, identityID string) (Snapshot, bool) {
	if identityID == "" {
		return Snapshot{}, false
	}
	key := s.Key(identityID)

	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return Snapshot{}, false
	}
	if err != nil {
		slog.Warn("failed to load session, starting fresh",
			"key", key,
			"error", &PersistenceError{Op: "load", Key: key, Err: err},
		)
		return Snapshot{}, false
	}

	snap, err := s.decode(data)
	if err != nil {
		slog.Warn("discarding unreadable session record",
			"key", key,
			"error", err,
		)
		return Snapshot{}, false
	}
	return snap, true
}

// Delete removes the record for identityID.
func (s *Store) Delete(ctx context.Context, identityID string) error {
	key := s.Key(identityID)
	if err := s.kv.Delete(ctx, key); err != nil {
		return &PersistenceError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func (s *Store) decode(data []byte) (Snapshot, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return Snapshot{}, fmt.Errorf("decoding record: %w", err)
	}
	if r.Version > RecordVersion {
		slog.Warn("session record is newer than this build", "version", r.Version)
	}
	snap, err := migrate(r, s.catalog)
	if err != nil {
		return Snapshot{}, fmt.Errorf("migrating record v%d: %w", r.Version, err)
	}
	return snap, nil
}
