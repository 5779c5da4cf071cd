package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vfraga/wso2-custom-secret-vault/internal/api/rest"
	"github.com/vfraga/wso2-custom-secret-vault/internal/vault"
)

func newClient(url string, mutate ...func(*Config)) *Client {
	cfg := DefaultConfig()
	cfg.URL = url
	for _, m := range mutate {
		m(&cfg)
	}
	return New(cfg, zerolog.Nop())
}

func TestGetAgainstLookupServer(t *testing.T) {
	store := vault.NewFileStore(filepath.Join(t.TempDir(), "secrets.json"), zerolog.Nop())
	_, err := store.Seed(vault.SampleSecrets())
	require.NoError(t, err)
	srv := httptest.NewServer(rest.New(store, zerolog.Nop()).Handler())
	t.Cleanup(srv.Close)

	c := newClient(srv.URL + rest.SecretsPath)
	got, err := c.Get(context.Background(), "DB_PASSWORD")
	require.NoError(t, err)
	assert.Equal(t, "super_secret_password", got)

	_, err = c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "404")
}

func TestGetCachesHitsOnly(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["alias"] != "foo" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"secret": "foo_val"})
	}))
	t.Cleanup(srv.Close)

	c := newClient(srv.URL)
	for i := 0; i < 3; i++ {
		got, err := c.Get(context.Background(), "foo")
		require.NoError(t, err)
		assert.Equal(t, "foo_val", got)
	}
	assert.EqualValues(t, 1, calls.Load())

	for i := 0; i < 2; i++ {
		_, err := c.Get(context.Background(), "bar")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.EqualValues(t, 3, calls.Load())
}

func TestGetSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		if r.Header.Get("Authorization") != "Bearer t0ken" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"secret":"ok"}`))
	}))
	t.Cleanup(srv.Close)

	_, err := newClient(srv.URL).Get(context.Background(), "foo")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := newClient(srv.URL, func(c *Config) {
		c.Headers = map[string]string{"Authorization": "Bearer t0ken"}
	}).Get(context.Background(), "foo")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestExtractSecret(t *testing.T) {
	for _, tc := range []struct {
		name, body, key, want string
	}{
		{"default key", `{"secret":"s3cr3t"}`, "secret", "s3cr3t"},
		{"custom key", `{"value":"v","secret":"x"}`, "value", "v"},
		{"non string value", `{"secret":5432}`, "secret", "5432"},
		{"missing key falls back to body", `{"other":"x"}`, "secret", `{"other":"x"}`},
		{"plain text", "  raw-value\n", "secret", "raw-value"},
		{"json string", `"quoted"`, "secret", `"quoted"`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractSecret([]byte(tc.body), tc.key))
		})
	}
}

func TestGetRejectsEmptyAlias(t *testing.T) {
	_, err := newClient("http://127.0.0.1:1").Get(context.Background(), "")
	assert.True(t, errors.Is(err, ErrEmptyAlias))
}

func TestGetEmptyValueIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"secret":""}`))
	}))
	t.Cleanup(srv.Close)

	_, err := newClient(srv.URL).Get(context.Background(), "foo")
	assert.ErrorIs(t, err, ErrNotFound)
}
