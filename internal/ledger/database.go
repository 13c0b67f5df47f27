package ledger

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

const (
	linesBucketName = "lines"
	indexBucketName = "line_index"
	metaBucketName  = "meta"

	sessionKey = "session"
	seqKey     = "seq"
	batchKey   = "batch"
)

// BoltStore implements the Store interface using BoltDB. Lines are
// stored under a zero-padded sequence key so that bbolt's sorted
// iteration yields insertion order; a second bucket maps line ID to
// sequence key.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens (or creates) the database and ensures buckets and
// a session token exist.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{linesBucketName, indexBucketName, metaBucketName} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		meta := tx.Bucket([]byte(metaBucketName))
		if meta.Get([]byte(sessionKey)) == nil {
			return meta.Put([]byte(sessionKey), []byte(uuid.NewString()))
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Session returns the current session token
func (b *BoltStore) Session() (string, error) {
	var session string
	err := b.db.View(func(tx *bbolt.Tx) error {
		session = string(tx.Bucket([]byte(metaBucketName)).Get([]byte(sessionKey)))
		return nil
	})
	if err != nil {
		return "", err
	}
	return session, nil
}

// NextBatch issues a batch token from a counter persisted in the meta
// bucket. A restarted process continues the sequence instead of
// reissuing tokens whose line IDs are already in the ledger.
func (b *BoltStore) NextBatch() (string, error) {
	var n uint64
	err := b.db.Update(func(tx *bbolt.Tx) error {
		meta := tx.Bucket([]byte(metaBucketName))
		if raw := meta.Get([]byte(batchKey)); raw != nil {
			n = binary.BigEndian.Uint64(raw)
		}
		n++
		raw := make([]byte, 8)
		binary.BigEndian.PutUint64(raw, n)
		return meta.Put([]byte(batchKey), raw)
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("line-%d", n), nil
}

// AppendLines appends lines at the end of the ledger. Lines carrying a
// stale session token are discarded with ErrSessionSuperseded.
func (b *BoltStore) AppendLines(session string, lines []ReceiptLine) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		meta := tx.Bucket([]byte(metaBucketName))
		if string(meta.Get([]byte(sessionKey))) != session {
			return ErrSessionSuperseded
		}

		bucket := tx.Bucket([]byte(linesBucketName))
		index := tx.Bucket([]byte(indexBucketName))

		seq := uint64(0)
		if raw := meta.Get([]byte(seqKey)); raw != nil {
			seq = binary.BigEndian.Uint64(raw)
		}

		for _, line := range lines {
			// IDs must stay unique across the whole ledger; repointing
			// the index would orphan the earlier row.
			if index.Get([]byte(line.ID)) != nil {
				return fmt.Errorf("duplicate line id: %s", line.ID)
			}
			seq++
			key := []byte(fmt.Sprintf("%016d", seq))
			data, err := json.Marshal(line)
			if err != nil {
				return fmt.Errorf("marshaling line: %w", err)
			}
			if err := bucket.Put(key, data); err != nil {
				return err
			}
			if err := index.Put([]byte(line.ID), key); err != nil {
				return err
			}
		}

		raw := make([]byte, 8)
		binary.BigEndian.PutUint64(raw, seq)
		return meta.Put([]byte(seqKey), raw)
	})
}

// GetLine retrieves a line by ID
func (b *BoltStore) GetLine(id string) (*ReceiptLine, error) {
	var line *ReceiptLine
	err := b.db.View(func(tx *bbolt.Tx) error {
		key := tx.Bucket([]byte(indexBucketName)).Get([]byte(id))
		if key == nil {
			return fmt.Errorf("line not found: %s", id)
		}
		data := tx.Bucket([]byte(linesBucketName)).Get(key)
		if data == nil {
			return fmt.Errorf("line not found: %s", id)
		}
		return json.Unmarshal(data, &line)
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// ListLines returns all lines in insertion order
func (b *BoltStore) ListLines() ([]ReceiptLine, error) {
	lines := make([]ReceiptLine, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(linesBucketName)).ForEach(func(k, v []byte) error {
			var line ReceiptLine
			if err := json.Unmarshal(v, &line); err != nil {
				return fmt.Errorf("unmarshaling line: %w", err)
			}
			lines = append(lines, line)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// UpdateLine loads the line, runs the edit through the recomputation
// engine, and commits the reconciled result. An absent ID is a no-op
// and reports false.
func (b *BoltStore) UpdateLine(id string, e Edit) (bool, error) {
	found := false
	err := b.db.Update(func(tx *bbolt.Tx) error {
		key := tx.Bucket([]byte(indexBucketName)).Get([]byte(id))
		if key == nil {
			return nil
		}
		bucket := tx.Bucket([]byte(linesBucketName))
		data := bucket.Get(key)
		if data == nil {
			return nil
		}

		var line ReceiptLine
		if err := json.Unmarshal(data, &line); err != nil {
			return fmt.Errorf("unmarshaling line: %w", err)
		}

		updated := Apply(line, e)
		out, err := json.Marshal(updated)
		if err != nil {
			return fmt.Errorf("marshaling line: %w", err)
		}
		found = true
		return bucket.Put(key, out)
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// DeleteLine removes a line if present
func (b *BoltStore) DeleteLine(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		index := tx.Bucket([]byte(indexBucketName))
		key := index.Get([]byte(id))
		if key == nil {
			return nil
		}
		if err := tx.Bucket([]byte(linesBucketName)).Delete(key); err != nil {
			return err
		}
		return index.Delete([]byte(id))
	})
}

// Reset drops all lines and issues a new session token, so results of
// uploads still in flight cannot be appended afterwards.
func (b *BoltStore) Reset() (string, error) {
	session := uuid.NewString()
	err := b.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{linesBucketName, indexBucketName} {
			if err := tx.DeleteBucket([]byte(name)); err != nil {
				return err
			}
			if _, err := tx.CreateBucket([]byte(name)); err != nil {
				return err
			}
		}
		meta := tx.Bucket([]byte(metaBucketName))
		if err := meta.Delete([]byte(seqKey)); err != nil {
			return err
		}
		return meta.Put([]byte(sessionKey), []byte(session))
	})
	if err != nil {
		return "", err
	}
	return session, nil
}

// Close closes the database
func (b *BoltStore) Close() error {
	return b.db.Close()
}
