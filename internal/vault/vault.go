// Package vault holds the alias -> secret mapping behind the lookup endpoint.
//
// A Store is a flat file on local disk. Every Load reads the file again, so
// edits made while the server runs are visible on the next request. Read
// failures of any kind degrade to an empty mapping; callers cannot tell a
// missing file from a corrupt one.
package vault

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vfraga/wso2-custom-secret-vault/internal/infra/metrics"
)

const (
	DriverJSON = "json"
	DriverBolt = "bolt"
)

// Reasons reported when a load falls back to an empty mapping.
const (
	reasonMissing   = "missing"
	reasonRead      = "read"
	reasonMalformed = "malformed"
)

var ErrUnknownDriver = errors.New("unknown store driver")

// Secrets maps an alias to its plaintext value.
type Secrets map[string]string

// Lookup returns the value stored for alias.
func (s Secrets) Lookup(alias string) (string, bool) {
	v, ok := s[alias]
	return v, ok
}

type Store interface {
	// Load returns the current mapping. It never fails; unreadable or
	// malformed storage yields an empty mapping.
	Load() Secrets
	// Seed creates the backing file with the given entries when it does not
	// exist yet. It reports whether the file was created.
	Seed(entries Secrets) (bool, error)
	Path() string
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*BoltStore)(nil)
)

// SampleSecrets returns the entries written to a fresh store.
func SampleSecrets() Secrets {
	return Secrets{
		"DB_PASSWORD": "super_secret_password",
		"API_KEY":     "12345-abcde-67890",
		"foo":         "foo_val",
		"bar":         "bar_val",
	}
}

// New returns the store for driver backed by the file at path.
func New(driver, path string, logger zerolog.Logger) (Store, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	switch strings.ToLower(driver) {
	case "", DriverJSON:
		return NewFileStore(path, logger), nil
	case DriverBolt:
		return NewBoltStore(path, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// emptyOnError records a failed load and returns the empty mapping.
func emptyOnError(logger zerolog.Logger, path, reason string, err error) Secrets {
	metrics.StoreLoadErrorsTotal.WithLabelValues(reason).Inc()
	metrics.StoreEntries.Set(0)
	ev := logger.Warn()
	if reason == reasonMissing {
		ev = logger.Debug()
	}
	ev.Err(err).Str("path", path).Str("reason", reason).Msg("secrets store unreadable, treating as empty")
	return Secrets{}
}

func loaded(s Secrets) Secrets {
	metrics.StoreEntries.Set(float64(len(s)))
	return s
}
