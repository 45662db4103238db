package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/parser"
)

const maxBodyBytes = 1 << 20

// QuizHandler exposes the quiz use cases as JSON endpoints.
type QuizHandler struct {
	service *app.QuizService
	log     *zap.Logger
}

func NewQuizHandler(service *app.QuizService, log *zap.Logger) *QuizHandler {
	return &QuizHandler{service: service, log: log}
}

type customRequest struct {
	Text string `json:"text"`
}

type selectionRequest struct {
	Answer string `json:"answer"`
}

// answerRequest leaves Answers nil when omitted so the pending selections are submitted.
type answerRequest struct {
	Answers []string `json:"answers"`
}

type answerResponse struct {
	Result  domain.AnswerResult `json:"result"`
	Session domain.SessionView  `json:"session"`
}

type questionSetRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type questionSetResponse struct {
	Set    domain.QuestionSet `json:"set"`
	Issues []parser.Issue     `json:"issues,omitempty"`
}

func (h *QuizHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var cfg domain.QuizConfig
	if !h.decode(w, r, &cfg) {
		return
	}
	view, err := h.service.Start(r.Context(), cfg)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *QuizHandler) StartCustomSession(w http.ResponseWriter, r *http.Request) {
	var req customRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.service.StartCustom(r.Context(), req.Text)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *QuizHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.State(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *QuizHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Close(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *QuizHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.service.Select(r.Context(), chi.URLParam(r, "sessionID"), req.Answer)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, view, err := h.service.Submit(r.Context(), chi.URLParam(r, "sessionID"), req.Answers)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, answerResponse{Result: result, Session: view})
}

func (h *QuizHandler) Next(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Next(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *QuizHandler) Restart(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Restart(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *QuizHandler) Results(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.Results(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *QuizHandler) SaveQuestionSet(w http.ResponseWriter, r *http.Request) {
	var req questionSetRequest
	if !h.decode(w, r, &req) {
		return
	}
	set, issues, err := h.service.SaveQuestionSet(r.Context(), req.Title, req.Text)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, questionSetResponse{Set: set, Issues: issues})
}

func (h *QuizHandler) GetQuestionSet(w http.ResponseWriter, r *http.Request) {
	set, err := h.service.QuestionSet(r.Context(), chi.URLParam(r, "setID"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (h *QuizHandler) StartSetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.StartFromSet(r.Context(), chi.URLParam(r, "setID"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// decode reads a JSON body into dst. An empty body leaves dst at its zero value.
func (h *QuizHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:    codeInvalid,
			Message: fmt.Sprintf("invalid request body: %v", err),
		})
		return false
	}
	return true
}
