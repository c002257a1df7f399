package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/itsatony/go-dynaprompt"
)

// promptRequest is the body of every prompt endpoint
type promptRequest struct {
	Prompt     string                 `json:"prompt"`
	Surcharges []dynaprompt.Surcharge `json:"surcharges,omitempty"`
}

// tokenizeResponse wraps the token list
type tokenizeResponse struct {
	Tokens []dynaprompt.Token `json:"tokens"`
}

// wildcardListResponse wraps a wild card listing
type wildcardListResponse struct {
	Wildcards []*dynaprompt.WildcardDefinition `json:"wildcards"`
}

// errorResponse is the body of every error status
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": HealthStatusOK})
}

func (s *server) handleTokenize(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodePrompt(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, tokenizeResponse{Tokens: s.engine.Tokenize(req.Prompt)})
}

func (s *server) handleValidate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodePrompt(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Validate(req.Prompt))
}

func (s *server) handleExpand(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodePrompt(w, r)
	if !ok {
		return
	}
	result, err := s.engine.Expand(r.Context(), req.Prompt, req.Surcharges...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, ErrMsgStoreFailed, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodePrompt(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Analyze(req.Prompt))
}

func (s *server) handleListWildcards(w http.ResponseWriter, r *http.Request) {
	query, err := parseWildcardQuery(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, ErrMsgInvalidQuery, err)
		return
	}

	store := s.engine.Store()
	if store == nil {
		lookup, err := s.engine.Wildcards(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, ErrMsgStoreFailed, err)
			return
		}
		writeJSON(w, http.StatusOK, wildcardListResponse{Wildcards: definitionsOf(r.Context(), lookup, query)})
		return
	}

	defs, err := store.List(r.Context(), query)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, ErrMsgStoreFailed, err)
		return
	}
	writeJSON(w, http.StatusOK, wildcardListResponse{Wildcards: defs})
}

func (s *server) handleGetWildcard(w http.ResponseWriter, r *http.Request) {
	store, ok := s.requireStore(w)
	if !ok {
		return
	}
	def, err := store.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (s *server) handlePutWildcard(w http.ResponseWriter, r *http.Request) {
	store, ok := s.requireStore(w)
	if !ok {
		return
	}

	var def dynaprompt.WildcardDefinition
	if err := decodeJSON(r, &def); err != nil {
		s.writeError(w, http.StatusBadRequest, ErrMsgInvalidBody, err)
		return
	}
	def.Name = chi.URLParam(r, "name")

	if err := store.Save(r.Context(), &def); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &def)
}

func (s *server) handleDeleteWildcard(w http.ResponseWriter, r *http.Request) {
	store, ok := s.requireStore(w)
	if !ok {
		return
	}
	if err := store.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) requireStore(w http.ResponseWriter) (dynaprompt.WildcardStore, bool) {
	store := s.engine.Store()
	if store == nil {
		s.writeError(w, http.StatusNotImplemented, ErrMsgNoStore, nil)
		return nil, false
	}
	return store, true
}

func (s *server) decodePrompt(w http.ResponseWriter, r *http.Request) (promptRequest, bool) {
	var req promptRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, ErrMsgInvalidBody, err)
		return req, false
	}
	return req, true
}

// writeStoreError maps store errors to statuses
func (s *server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case dynaprompt.IsNotFound(err):
		s.writeError(w, http.StatusNotFound, err.Error(), nil)
	case dynaprompt.IsInvalidDefinition(err):
		s.writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		s.writeError(w, http.StatusInternalServerError, ErrMsgStoreFailed, err)
	}
}

func (s *server) writeError(w http.ResponseWriter, status int, msg string, cause error) {
	resp := errorResponse{Error: msg}
	if cause != nil {
		resp.Detail = cause.Error()
	}
	if status >= http.StatusInternalServerError {
		s.logger.Warn(LogMsgRequestFailed, zap.Int(LogFieldStatus, status), zap.Error(cause))
	}
	writeJSON(w, status, resp)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxRequestBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New(ErrMsgInvalidBody)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(HeaderContentType, ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseWildcardQuery(r *http.Request) (*dynaprompt.WildcardQuery, error) {
	values := r.URL.Query()
	query := &dynaprompt.WildcardQuery{
		Category:   values.Get(QueryCategory),
		NamePrefix: values.Get(QueryPrefix),
	}

	var err error
	if v := values.Get(QueryShared); v != "" {
		if query.SharedOnly, err = strconv.ParseBool(v); err != nil {
			return nil, err
		}
	}
	if v := values.Get(QueryLimit); v != "" {
		if query.Limit, err = strconv.Atoi(v); err != nil {
			return nil, err
		}
	}
	if v := values.Get(QueryOffset); v != "" {
		if query.Offset, err = strconv.Atoi(v); err != nil {
			return nil, err
		}
	}
	if query.Limit < 0 || query.Offset < 0 {
		return nil, errors.New(ErrMsgInvalidQuery)
	}
	return query, nil
}

// definitionsOf lists a fixed dictionary when the engine has no store
func definitionsOf(ctx context.Context, lookup dynaprompt.WildcardLookup, query *dynaprompt.WildcardQuery) []*dynaprompt.WildcardDefinition {
	m, ok := lookup.(dynaprompt.WildcardMap)
	if !ok {
		return []*dynaprompt.WildcardDefinition{}
	}
	store := dynaprompt.NewMemoryStorage(m.Definitions()...)
	defs, err := store.List(ctx, query)
	if err != nil {
		return []*dynaprompt.WildcardDefinition{}
	}
	return defs
}
