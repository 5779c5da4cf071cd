package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/vfraga/wso2-custom-secret-vault/internal/infra/metrics"
	"github.com/vfraga/wso2-custom-secret-vault/internal/vault"
)

const (
	SecretsPath = "/secrets"

	MsgMissingAlias   = "Missing alias in request body"
	MsgSecretNotFound = "Secret not found"

	maxBodyBytes = 1 << 20
)

// LookupRequest is the body of POST /secrets. Alias holds the raw JSON
// member so that an absent field can be told apart from a null one.
type LookupRequest struct {
	Alias json.RawMessage `json:"alias" validate:"required"`
}

type LookupResponse struct {
	Secret string `json:"secret"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	mux      *http.ServeMux
	store    vault.Store
	logger   zerolog.Logger
	validate *validator.Validate
}

// New wires the lookup route against store.
func New(store vault.Store, logger zerolog.Logger) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		store:    store,
		logger:   logger.With().Str("component", "rest").Logger(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.mux.HandleFunc("POST "+SecretsPath, s.handleLookup)
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { metrics.SecretLookupDuration.Observe(time.Since(start).Seconds()) }()

	req, err := s.decode(w, r)
	if err != nil {
		metrics.SecretLookupsTotal.WithLabelValues(metrics.OutcomeBadRequest).Inc()
		s.logger.Debug().Err(err).Msg("rejected lookup request")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: MsgMissingAlias})
		return
	}

	// Aliases are strings; any other JSON value can never match a key.
	var alias string
	if err := json.Unmarshal(req.Alias, &alias); err != nil {
		metrics.SecretLookupsTotal.WithLabelValues(metrics.OutcomeNotFound).Inc()
		s.logger.Debug().RawJSON("alias", req.Alias).Msg("non-string alias")
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: MsgSecretNotFound})
		return
	}

	secret, ok := s.store.Load().Lookup(alias)
	if !ok {
		metrics.SecretLookupsTotal.WithLabelValues(metrics.OutcomeNotFound).Inc()
		s.logger.Debug().Str("alias", alias).Msg("secret not found")
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: MsgSecretNotFound})
		return
	}
	metrics.SecretLookupsTotal.WithLabelValues(metrics.OutcomeFound).Inc()
	s.logger.Debug().Str("alias", alias).Msg("secret served")
	writeJSON(w, http.StatusOK, LookupResponse{Secret: secret})
}

var errEmptyBody = errors.New("empty request body")

// decode extracts the alias member from the request body. Bodies that are
// not a JSON object, or that lack an "alias" member, are rejected.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (LookupRequest, error) {
	var req LookupRequest
	if r.Body == nil {
		return req, errEmptyBody
	}
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return req, err
	}
	if len(b) == 0 {
		return req, errEmptyBody
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(b, &members); err != nil {
		return req, err
	}
	req.Alias = members["alias"]
	if err := s.validate.Struct(req); err != nil {
		return req, err
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
