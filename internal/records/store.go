package records

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

const bucketName = "medicines"

// Store persists medicine records in a BoltDB file.
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Save stores r and returns the stored copy.
//
// A record without an ID is created: it gets a new ID, CreatedAt, and the
// defaults (Anonymous donor, pending status). A record with an ID replaces
// the existing one, keeping its CreatedAt; ErrNotFound if there is none.
func (s *Store) Save(r *Record) (*Record, error) {
	rec := *r
	if err := rec.applyDefaults(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	rec.UpdatedAt = now

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))

		if rec.ID == "" {
			rec.ID = uuid.NewString()
			rec.CreatedAt = now
		} else {
			existing, err := getRecord(bucket, rec.ID)
			if err != nil {
				return err
			}
			rec.CreatedAt = existing.CreatedAt
		}

		return putRecord(bucket, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Get returns the record with the given ID.
func (s *Store) Get(id string) (*Record, error) {
	var rec *Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		rec, err = getRecord(tx.Bucket([]byte(bucketName)), id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns all records, newest first.
func (s *Store) List() ([]*Record, error) {
	recs := make([]*Record, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshaling record %s: %w", k, err)
			}
			recs = append(recs, &rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	return recs, nil
}

// Verify moves a record to a new review status and returns the updated record.
func (s *Store) Verify(id string, status string) (*Record, error) {
	parsed, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}

	var rec *Record
	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		var err error
		rec, err = getRecord(bucket, id)
		if err != nil {
			return err
		}
		rec.Status = parsed
		rec.UpdatedAt = s.now().UTC()
		return putRecord(bucket, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Close closes the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

func getRecord(bucket *bbolt.Bucket, id string) (*Record, error) {
	data := bucket.Get([]byte(id))
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling record %s: %w", id, err)
	}
	return &rec, nil
}

func putRecord(bucket *bbolt.Bucket, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	return bucket.Put([]byte(rec.ID), data)
}
