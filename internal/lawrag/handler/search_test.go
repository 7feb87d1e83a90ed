package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zakon-kg/lawrag/internal/lawrag/biz"
	"github.com/zakon-kg/lawrag/internal/lawrag/store"
	"github.com/zakon-kg/lawrag/pkg/utils/json"
)

// stubService implements biz.Service with canned answers.
type stubService struct {
	answer   string
	lastMode biz.Mode
	lastLang store.Language
	lastDoc  []byte
}

func (s *stubService) GetResponseText(_ context.Context, _ string, mode biz.Mode, lang store.Language) string {
	s.lastMode, s.lastLang = mode, lang
	return s.answer
}

func (s *stubService) GetResponseFromDocument(_ context.Context, _ string, document []byte, _ string, mode biz.Mode, lang store.Language) string {
	s.lastMode, s.lastLang, s.lastDoc = mode, lang, document
	return s.answer
}

func (s *stubService) GetResponseFromImage(_ context.Context, _ string, image []byte, _ string, mode biz.Mode, lang store.Language) string {
	s.lastMode, s.lastLang, s.lastDoc = mode, lang, image
	return s.answer
}

func (s *stubService) Stats(context.Context) (map[string]any, error) {
	return map[string]any{"collections": map[string]int64{"ru": 3}}, nil
}

func newTestRouter(svc biz.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSearchHandler(svc, time.Second)

	r := gin.New()
	r.POST("/v1/answers", h.Answer)
	r.POST("/v1/answers/document", h.AnswerDocument)
	r.POST("/v1/answers/image", h.AnswerImage)
	r.GET("/v1/stats", h.Stats)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAnswer(t *testing.T) {
	svc := &stubService{answer: "ответ"}
	r := newTestRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/v1/answers", map[string]string{
		"query": "вопрос",
		"mode":  "pro",
		"lang":  "kg",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp AnswerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ответ", resp.Answer)
	assert.True(t, resp.Answered)
	assert.Equal(t, biz.ModePro, svc.lastMode)
	assert.Equal(t, store.LanguageKG, svc.lastLang)
}

func TestAnswerEmptyResultNotAnswered(t *testing.T) {
	r := newTestRouter(&stubService{answer: ""})

	w := doJSON(t, r, http.MethodPost, "/v1/answers", map[string]string{"query": "вопрос"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp AnswerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Answer)
	assert.False(t, resp.Answered)
}

func TestAnswerDefaultsModeAndLang(t *testing.T) {
	svc := &stubService{answer: "a"}
	r := newTestRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/v1/answers", map[string]string{"query": "вопрос"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, biz.ModeBase, svc.lastMode)
	assert.Equal(t, store.LanguageRU, svc.lastLang)
}

func TestAnswerValidation(t *testing.T) {
	r := newTestRouter(&stubService{})

	tests := []struct {
		name string
		body map[string]string
	}{
		{name: "missing query", body: map[string]string{}},
		{name: "bad mode", body: map[string]string{"query": "q", "mode": "turbo"}},
		{name: "bad lang", body: map[string]string{"query": "q", "lang": "en"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/v1/answers", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAnswerDocument(t *testing.T) {
	svc := &stubService{answer: "doc answer"}
	r := newTestRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/v1/answers/document", map[string]string{
		"query":           "вопрос",
		"document_base64": base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")),
		"mime_type":       "application/pdf",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []byte("%PDF-1.4"), svc.lastDoc)
}

func TestAnswerDocumentInvalidBase64(t *testing.T) {
	r := newTestRouter(&stubService{})

	w := doJSON(t, r, http.MethodPost, "/v1/answers/document", map[string]string{
		"query":           "вопрос",
		"document_base64": "not-base64!!!",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnswerImage(t *testing.T) {
	svc := &stubService{answer: "image answer"}
	r := newTestRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/v1/answers/image", map[string]string{
		"image_base64": base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8}),
		"mime_type":    "image/jpeg",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []byte{0xFF, 0xD8}, svc.lastDoc)
}

func TestStats(t *testing.T) {
	r := newTestRouter(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "collections")
}
