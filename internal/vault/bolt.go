package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"
)

// SecretsBucket holds one key per alias.
var SecretsBucket = []byte("secrets")

const boltOpenTimeout = time.Second

// BoltStore keeps secrets in a bbolt database file. The database is opened
// read-only for every Load and closed again before returning.
type BoltStore struct {
	path   string
	logger zerolog.Logger
}

func NewBoltStore(path string, logger zerolog.Logger) *BoltStore {
	return &BoltStore{path: path, logger: logger.With().Str("store", DriverBolt).Logger()}
}

func (s *BoltStore) Path() string { return s.path }

func (s *BoltStore) Load() Secrets {
	if _, err := os.Stat(s.path); err != nil {
		reason := reasonRead
		if errors.Is(err, fs.ErrNotExist) {
			reason = reasonMissing
		}
		return emptyOnError(s.logger, s.path, reason, err)
	}
	db, err := bolt.Open(s.path, 0o600, &bolt.Options{ReadOnly: true, Timeout: boltOpenTimeout})
	if err != nil {
		return emptyOnError(s.logger, s.path, reasonMalformed, err)
	}
	defer db.Close()

	out := Secrets{}
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(SecretsBucket)
		if b == nil {
			return fmt.Errorf("bucket %s not found", SecretsBucket)
		}
		return b.ForEach(func(k, v []byte) error {
			out[string(k)] = string(v)
			return nil
		})
	})
	if err != nil {
		return emptyOnError(s.logger, s.path, reasonMalformed, err)
	}
	return loaded(out)
}

func (s *BoltStore) Seed(entries Secrets) (bool, error) {
	exists, err := fileExists(s.path)
	if err != nil || exists {
		return false, err
	}
	if err := ensureDir(s.path); err != nil {
		return false, err
	}
	db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return false, fmt.Errorf("failed to open database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(SecretsBucket)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", SecretsBucket, err)
		}
		for alias, value := range entries {
			if err := b.Put([]byte(alias), []byte(value)); err != nil {
				return fmt.Errorf("failed to store %q: %w", alias, err)
			}
		}
		return nil
	})
	if cerr := db.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close database: %w", cerr)
	}
	if err != nil {
		return false, discardPartial(s.path, err)
	}
	return true, nil
}
