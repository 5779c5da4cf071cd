package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vfraga/wso2-custom-secret-vault/internal/vault"
)

// countingStore serves a fixed mapping and counts reads.
type countingStore struct {
	secrets vault.Secrets
	loads   int
}

func (c *countingStore) Load() vault.Secrets {
	c.loads++
	return c.secrets
}

func (c *countingStore) Seed(vault.Secrets) (bool, error) { return false, nil }
func (c *countingStore) Path() string                     { return "memory" }

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(http.MethodPost, SecretsPath, nil)
	} else {
		req = httptest.NewRequest(http.MethodPost, SecretsPath, strings.NewReader(body))
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestLookupKnownAlias(t *testing.T) {
	h := New(&countingStore{secrets: vault.SampleSecrets()}, zerolog.Nop()).Handler()

	rec := post(t, h, `{"alias":"API_KEY"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"secret": "12345-abcde-67890"}, decodeBody(t, rec))
}

func TestLookupUnknownAlias(t *testing.T) {
	h := New(&countingStore{secrets: vault.SampleSecrets()}, zerolog.Nop()).Handler()

	for _, body := range []string{
		`{"alias":"nope"}`,
		`{"alias":""}`,
		`{"alias":"db_password"}`,
		`{"alias":null}`,
		`{"alias":42}`,
		`{"alias":true}`,
		`{"alias":["foo"]}`,
	} {
		rec := post(t, h, body)
		require.Equal(t, http.StatusNotFound, rec.Code, body)
		assert.Equal(t, map[string]string{"error": MsgSecretNotFound}, decodeBody(t, rec))
	}
}

func TestLookupMissingAlias(t *testing.T) {
	store := &countingStore{secrets: vault.SampleSecrets()}
	h := New(store, zerolog.Nop()).Handler()

	for name, body := range map[string]string{
		"no body":      "",
		"empty object": `{}`,
		"other field":  `{"name":"foo"}`,
		"null":         `null`,
		"array":        `["foo"]`,
		"not json":     `alias=foo`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := post(t, h, body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, map[string]string{"error": MsgMissingAlias}, decodeBody(t, rec))
		})
	}
	assert.Zero(t, store.loads, "rejected requests must not touch the store")
}

func TestLookupReadsStoreEveryRequest(t *testing.T) {
	store := &countingStore{secrets: vault.Secrets{"foo": "foo_val"}}
	h := New(store, zerolog.Nop()).Handler()

	post(t, h, `{"alias":"foo"}`)
	store.secrets = vault.Secrets{"foo": "rotated"}
	rec := post(t, h, `{"alias":"foo"}`)

	assert.Equal(t, 2, store.loads)
	assert.Equal(t, "rotated", decodeBody(t, rec)["secret"])
}

func TestLookupMethodNotAllowed(t *testing.T) {
	h := New(&countingStore{}, zerolog.Nop()).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, SecretsPath, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Header().Get("Allow"), http.MethodPost)
}

func TestLookupAgainstFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	store := vault.NewFileStore(path, zerolog.Nop())
	h := New(store, zerolog.Nop()).Handler()

	// missing file behaves as an empty mapping
	assert.Equal(t, http.StatusNotFound, post(t, h, `{"alias":"foo"}`).Code)

	_, err := store.Seed(vault.SampleSecrets())
	require.NoError(t, err)
	for alias, want := range vault.SampleSecrets() {
		rec := post(t, h, `{"alias":"`+alias+`"}`)
		require.Equal(t, http.StatusOK, rec.Code, alias)
		assert.Equal(t, want, decodeBody(t, rec)["secret"])
	}

	require.NoError(t, os.WriteFile(path, []byte("{corrupt"), 0o600))
	rec := post(t, h, `{"alias":"foo"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, MsgSecretNotFound, decodeBody(t, rec)["error"])
}
