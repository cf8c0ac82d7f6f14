// Copyright 2025 Poiesic LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package audit

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

const (
	eventPrefix = "audev"
	eventIDSeq  = "audevseq"

	defaultSequenceBandwidth = 100
)

// Trail is an append-only event store backed by BadgerDB. Events are
// keyed by a monotonic sequence so iteration returns them in the order
// they were appended.
type Trail struct {
	db     *badger.DB
	seq    *badger.Sequence
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenTrail opens a trail at the given path, creating the directory if
// needed. Pass inMemory=true for an ephemeral trail (tests, dry runs).
func OpenTrail(filePath string, inMemory bool) (*Trail, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	seq, err := db.GetSequence([]byte(eventIDSeq), defaultSequenceBandwidth)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Trail{
		db:     db,
		seq:    seq,
		logger: slog.Default().With("component", "audit_trail"),
	}, nil
}

// Close releases the sequence and closes the underlying database.
func (t *Trail) Close() error {
	if err := t.seq.Release(); err != nil {
		t.logger.Warn("failed to release event sequence", "error", err)
	}
	return t.db.Close()
}

// Append stores an event at the next sequence position.
func (t *Trail) Append(event Event) error {
	id, err := t.seq.Next()
	if err != nil {
		return err
	}

	value, err := json.Marshal(&event)
	if err != nil {
		return err
	}

	return t.db.Update(func(tx *badger.Txn) error {
		return tx.Set(makeEventKey(id), value)
	})
}

// List returns up to limit events in append order. A limit <= 0 returns
// all events.
func (t *Trail) List(limit int) ([]Event, error) {
	var events []Event

	err := t.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(eventPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if limit > 0 && len(events) >= limit {
				break
			}
			var event Event
			err := iter.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			})
			if err != nil {
				return err
			}
			events = append(events, event)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return events, nil
}

// makeEventKey generates a sequence-ordered key for an event.
// BigEndian keeps lexicographic and numeric order aligned.
func makeEventKey(id uint64) []byte {
	prefix := []byte(eventPrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], id)
	return buf
}
