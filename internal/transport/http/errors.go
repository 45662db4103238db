package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/parser"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Issues  []parser.Issue `json:"issues,omitempty"`
}

const (
	codeNotFound    = "not_found"
	codeInvalid     = "invalid_request"
	codeParse       = "parse_error"
	codeConflict    = "conflict"
	codeNoResults   = "no_results"
	codeUpstream    = "upstream_error"
	codeInternal    = "internal_error"
	internalMessage = "something went wrong, please try again"
)

func errorStatus(err error) (int, ErrorResponse) {
	var parseErr *parser.Error
	switch {
	case errors.As(err, &parseErr):
		return http.StatusBadRequest, ErrorResponse{Code: codeParse, Message: parseErr.Error(), Issues: parseErr.Issues}
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrQuestionSetNotFound):
		return http.StatusNotFound, ErrorResponse{Code: codeNotFound, Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidConfig), errors.Is(err, domain.ErrInvalidAnswer):
		return http.StatusBadRequest, ErrorResponse{Code: codeInvalid, Message: err.Error()}
	case errors.Is(err, domain.ErrAlreadyAnswered),
		errors.Is(err, domain.ErrNotAnswered),
		errors.Is(err, domain.ErrQuizFinished),
		errors.Is(err, domain.ErrQuizNotFinished):
		return http.StatusConflict, ErrorResponse{Code: codeConflict, Message: err.Error()}
	case errors.Is(err, domain.ErrNoResults):
		return http.StatusUnprocessableEntity, ErrorResponse{Code: codeNoResults, Message: err.Error()}
	case errors.Is(err, domain.ErrFetchFailed):
		return http.StatusBadGateway, ErrorResponse{Code: codeUpstream, Message: domain.ErrFetchFailed.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Code: codeInternal, Message: internalMessage}
	}
}

func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	status, body := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		log.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
