// Package store persists Index snapshots in a bbolt database. Each analyzed
// directory keeps its most recent snapshot, keyed by absolute path. Writes
// are transactional, so a crash mid-write leaves the previous snapshot
// intact.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/phobologic/symdex/internal/model"
)

var bucketSnapshots = []byte("snapshots")

// Snapshot is an Index together with the analysis that produced it.
type Snapshot struct {
	Dir      string       `json:"dir"`
	Language string       `json:"language"`
	Source   string       `json:"source"`
	Created  time.Time    `json:"created"`
	Index    *model.Index `json:"index"`
}

// Store is a bbolt-backed snapshot store.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the snapshot stored for snap.Dir.
func (s *Store) Save(snap Snapshot) error {
	if snap.Dir == "" {
		return errors.New("snapshot without a directory")
	}
	if snap.Index == nil {
		return errors.New("nil index")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketSnapshots)
		if err != nil {
			return err
		}
		return b.Put([]byte(snap.Dir), data)
	})
}

// Load returns the snapshot for dir, or nil if none was saved.
func (s *Store) Load(dir string) (*Snapshot, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		if b == nil {
			return nil
		}
		// bbolt slices are only valid inside the transaction.
		if v := b.Get([]byte(dir)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return decode(data)
}

// List returns every stored snapshot, most recent first.
func (s *Store) List() ([]Snapshot, error) {
	var out []Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			snap, err := decode(v)
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			out = append(out, *snap)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Created.After(out[j].Created)
	})
	return out, nil
}

// Latest returns the most recently created snapshot, or nil if the store
// is empty.
func (s *Store) Latest() (*Snapshot, error) {
	all, err := s.List()
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return &all[0], nil
}

// Delete removes the snapshot for dir. Deleting a missing snapshot is not
// an error.
func (s *Store) Delete(dir string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(dir))
	})
}

func decode(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snap.Index == nil {
		snap.Index = &model.Index{}
	}
	return &snap, nil
}
