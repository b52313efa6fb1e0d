package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fbkorg/chatbot-backend/internal/platform/logger"
	"github.com/fbkorg/chatbot-backend/internal/types"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	return log
}

type fakeFeedbackRepo struct {
	mu        sync.Mutex
	created   []*types.ChatFeedback
	createErr error
}

func (f *fakeFeedbackRepo) Create(ctx context.Context, tx *gorm.DB, fb *types.ChatFeedback) (*types.ChatFeedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, fb)
	return fb, nil
}

func feedbackRouter(t *testing.T, repo *fakeFeedbackRepo) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/feedback", NewFeedbackHandler(newTestLogger(t), repo).Submit)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSubmitFeedback_OK(t *testing.T) {
	repo := &fakeFeedbackRepo{}
	r := feedbackRouter(t, repo)

	sessionID, messageID := uuid.New(), uuid.New()
	rec := postJSON(t, r, "/api/feedback",
		`{"sessionId":"`+sessionID.String()+`","messageId":"`+messageID.String()+`","rating":"up","comment":"helpful!"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected feedback stored")
	}
	fb := repo.created[0]
	if fb.SessionID != sessionID || fb.MessageID != messageID || fb.Rating != "up" {
		t.Fatalf("unexpected stored feedback: %+v", fb)
	}
	if fb.Comment == nil || *fb.Comment != "helpful!" {
		t.Fatalf("comment not stored")
	}
}

func TestSubmitFeedback_MissingFields(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no session", `{"messageId":"` + uuid.NewString() + `","rating":"up"}`},
		{"no message", `{"sessionId":"` + uuid.NewString() + `","rating":"up"}`},
		{"no rating", `{"sessionId":"` + uuid.NewString() + `","messageId":"` + uuid.NewString() + `"}`},
		{"bad session uuid", `{"sessionId":"abc","messageId":"` + uuid.NewString() + `","rating":"up"}`},
		{"bad message uuid", `{"sessionId":"` + uuid.NewString() + `","messageId":"xyz","rating":"up"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeFeedbackRepo{}
			rec := postJSON(t, feedbackRouter(t, repo), "/api/feedback", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if len(repo.created) != 0 {
				t.Fatalf("nothing should be stored")
			}
		})
	}
}

func TestSubmitFeedback_InvalidRating(t *testing.T) {
	repo := &fakeFeedbackRepo{}
	rec := postJSON(t, feedbackRouter(t, repo), "/api/feedback",
		`{"sessionId":"`+uuid.NewString()+`","messageId":"`+uuid.NewString()+`","rating":"sideways"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(repo.created) != 0 {
		t.Fatalf("nothing should be stored")
	}
}

func TestSubmitFeedback_StoreFailure(t *testing.T) {
	repo := &fakeFeedbackRepo{createErr: errors.New("db down")}
	rec := postJSON(t, feedbackRouter(t, repo), "/api/feedback",
		`{"sessionId":"`+uuid.NewString()+`","messageId":"`+uuid.NewString()+`","rating":"down"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("db down")) {
		t.Fatalf("internal error text must not leak: %s", rec.Body.String())
	}
}
