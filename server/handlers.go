package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jonwraymond/matchcache/analysis"
	"github.com/jonwraymond/matchcache/cache"
	"github.com/jonwraymond/matchcache/observe"
	"github.com/jonwraymond/matchcache/resilience"
)

// multipart parts beyond this are spooled to disk.
const maxMemory = 8 << 20

// errorResponse matches the {"detail": ...} body clients already parse.
type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := s.logger.With(observe.F("request_id", RequestIDFromContext(ctx)))

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	document, contentType, err := readFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	jd, ok := r.MultipartForm.Value["jd"]
	if !ok || len(jd) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%v: jd", ErrMissingField))
		return
	}
	query := jd[0]

	compute := func(ctx context.Context) (analysis.Result, error) {
		text := s.extractorFor(contentType).Extract(ctx, document)
		if text == "" {
			return analysis.Result{}, ErrEmptyDocument
		}

		var res analysis.Result
		err := s.bulkhead.Execute(ctx, func(ctx context.Context) error {
			res = s.analyzer.Analyze(ctx, text, query)
			return nil
		})
		if errors.Is(err, resilience.ErrBulkheadFull) {
			return analysis.Result{}, ErrBusy
		}
		return res, err
	}

	res, err := s.cache.LookupOrCompute(ctx, document, query, compute, s.cfg.CacheTTL)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, ErrEmptyDocument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrBusy):
		logger.Warn(ctx, "analysis rejected", observe.Err(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		logger.Error(ctx, "analysis failed", observe.Err(err))
		writeError(w, http.StatusServiceUnavailable, "analysis unavailable")
	}
}

func readFile(r *http.Request) ([]byte, string, error) {
	f, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("%w: file", ErrMissingField)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("server: read upload: %w", err)
	}
	return data, header.Header.Get("Content-Type"), nil
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	err := s.cache.Invalidate(r.Context(), r.PathValue("key"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, cache.ErrInvalidKey), errors.Is(err, cache.ErrKeyTooLong):
		writeError(w, http.StatusBadRequest, err.Error())
	case cache.IsBackendError(err):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, errorResponse{Detail: detail})
}
