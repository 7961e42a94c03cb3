// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package trace records execution traces in a BadgerDB database.
//
// A trace is a sequence of snapshots, one per executed step, grouped by
// session. A Session implements debugger.Recorder:
//
//	store, err := trace.Open(trace.Config{Path: dir})
//	...
//	defer store.Close()
//	sess := store.NewSession()
//	d := debugger.New(topo, debugger.WithRecorder(sess))
//
package trace

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/db47h/minimax"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a trace entry does not exist.
var ErrNotFound = errors.New("trace entry not found")

const prefix = "trace/"

// Config configures a Store.
//
type Config struct {
	// Path is the database directory. Ignored if InMemory is set.
	Path string
	// InMemory keeps the database in memory.
	InMemory bool
	// SyncWrites syncs every write to disk.
	SyncWrites bool
	// Logger receives BadgerDB's internal log. If nil, it is discarded.
	Logger *slog.Logger
}

// An Entry is a recorded step.
//
type Entry struct {
	Session  uuid.UUID        `json:"session"`
	Cycle    uint64           `json:"cycle"`
	Row      int              `json:"row"`
	Time     time.Time        `json:"time"`
	Snapshot minimax.Snapshot `json:"snapshot"`
}

// Store is a trace database. It is safe for concurrent use.
//
type Store struct {
	db *badger.DB
}

type badgerLogger struct {
	l *slog.Logger
}

func (b badgerLogger) Errorf(f string, args ...interface{})   { b.l.Error(fmt.Sprintf(f, args...)) }
func (b badgerLogger) Warningf(f string, args ...interface{}) { b.l.Warn(fmt.Sprintf(f, args...)) }
func (b badgerLogger) Infof(f string, args ...interface{})    { b.l.Info(fmt.Sprintf(f, args...)) }
func (b badgerLogger) Debugf(f string, args ...interface{})   { b.l.Debug(fmt.Sprintf(f, args...)) }

// Open opens or creates a trace database.
//
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("trace database path required")
		}
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, errors.Wrap(err, "create trace database directory")
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(badgerLogger{cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open trace database")
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func sessionPrefix(id uuid.UUID) []byte {
	return append([]byte(prefix), id[:]...)
}

func key(id uuid.UUID, cycle uint64) []byte {
	return binary.BigEndian.AppendUint64(sessionPrefix(id), cycle)
}

// Put stores e.
//
func (s *Store) Put(e Entry) error {
	v, err := json.Marshal(&e)
	if err != nil {
		return errors.Wrap(err, "encode trace entry")
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(e.Session, e.Cycle), v)
	})
	return errors.Wrapf(err, "session %s cycle %d", e.Session, e.Cycle)
}

// Load returns the entry recorded for the given session and cycle.
//
func (s *Store) Load(id uuid.UUID, cycle uint64) (Entry, error) {
	var e Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id, cycle))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return errors.Wrapf(ErrNotFound, "session %s cycle %d", id, cycle)
			}
			return err
		}
		return item.Value(func(v []byte) error { return json.Unmarshal(v, &e) })
	})
	return e, err
}

// History returns the entries of a session, by increasing cycle.
//
func (s *Store) History(id uuid.UUID) ([]Entry, error) {
	var es []Entry
	p := sessionPrefix(id)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			var e Entry
			if err := it.Item().Value(func(v []byte) error { return json.Unmarshal(v, &e) }); err != nil {
				return errors.Wrapf(err, "decode %x", it.Item().Key())
			}
			es = append(es, e)
		}
		return nil
	})
	return es, err
}

// Sessions returns the ids of all recorded sessions.
//
func (s *Store) Sessions() ([]uuid.UUID, error) {
	var ids []uuid.UUID
	p := []byte(prefix)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			k := it.Item().Key()
			if len(k) < len(p)+16 {
				continue
			}
			id, err := uuid.FromBytes(k[len(p) : len(p)+16])
			if err != nil {
				return err
			}
			if n := len(ids); n == 0 || ids[n-1] != id {
				ids = append(ids, id)
			}
		}
		return nil
	})
	return ids, err
}

// Delete removes all entries of a session.
//
func (s *Store) Delete(id uuid.UUID) error {
	return s.db.DropPrefix(sessionPrefix(id))
}

// A Session records the steps of one debugger run.
//
type Session struct {
	ID    uuid.UUID
	store *Store
}

// NewSession returns a new session with a random id.
//
func (s *Store) NewSession() *Session {
	return &Session{ID: uuid.New(), store: s}
}

// Session returns the session with the given id.
func (s *Store) Session(id uuid.UUID) *Session { return &Session{ID: id, store: s} }

// Record implements debugger.Recorder.
//
func (s *Session) Record(cycle uint64, row int, snap minimax.Snapshot) error {
	return s.store.Put(Entry{
		Session:  s.ID,
		Cycle:    cycle,
		Row:      row,
		Time:     time.Now().UTC(),
		Snapshot: snap,
	})
}

// History returns the entries recorded by s.
func (s *Session) History() ([]Entry, error) { return s.store.History(s.ID) }
