// Package handler provides the HTTP handlers of the retrieval service.
package handler

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zakon-kg/lawrag/internal/lawrag/biz"
	"github.com/zakon-kg/lawrag/internal/lawrag/store"
)

// SearchHandler handles answer requests.
type SearchHandler struct {
	service biz.Service
	timeout time.Duration
}

// NewSearchHandler creates a new SearchHandler. A non-positive timeout
// defaults to 60 seconds.
func NewSearchHandler(service biz.Service, timeout time.Duration) *SearchHandler {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &SearchHandler{
		service: service,
		timeout: timeout,
	}
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// AnswerResponse carries the pipeline result. Answered is false when the
// pipeline produced no answer.
type AnswerResponse struct {
	Answer   string `json:"answer"`
	Answered bool   `json:"answered"`
}

// AnswerRequest is a text answer request.
type AnswerRequest struct {
	Query string `json:"query" binding:"required"`
	Mode  string `json:"mode"`
	Lang  string `json:"lang"`
}

// Answer answers a text query.
func (h *SearchHandler) Answer(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}

	mode, lang, ok := h.parseModeAndLang(c, req.Mode, req.Lang)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	answer := h.service.GetResponseText(ctx, req.Query, mode, lang)
	c.JSON(http.StatusOK, AnswerResponse{Answer: answer, Answered: answer != ""})
}

// DocumentAnswerRequest is an answer request about an uploaded document.
type DocumentAnswerRequest struct {
	Query          string `json:"query"`
	DocumentBase64 string `json:"document_base64" binding:"required"`
	MimeType       string `json:"mime_type"`
	Mode           string `json:"mode"`
	Lang           string `json:"lang"`
}

// AnswerDocument answers a query about an uploaded document.
func (h *SearchHandler) AnswerDocument(c *gin.Context) {
	var req DocumentAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}

	mode, lang, ok := h.parseModeAndLang(c, req.Mode, req.Lang)
	if !ok {
		return
	}

	document, err := base64.StdEncoding.DecodeString(req.DocumentBase64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: "invalid document_base64"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	answer := h.service.GetResponseFromDocument(ctx, req.Query, document, req.MimeType, mode, lang)
	c.JSON(http.StatusOK, AnswerResponse{Answer: answer, Answered: answer != ""})
}

// ImageAnswerRequest is an answer request about a photographed document.
type ImageAnswerRequest struct {
	Query       string `json:"query"`
	ImageBase64 string `json:"image_base64" binding:"required"`
	MimeType    string `json:"mime_type"`
	Mode        string `json:"mode"`
	Lang        string `json:"lang"`
}

// AnswerImage answers a query about a photographed document.
func (h *SearchHandler) AnswerImage(c *gin.Context) {
	var req ImageAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}

	mode, lang, ok := h.parseModeAndLang(c, req.Mode, req.Lang)
	if !ok {
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: "invalid image_base64"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	answer := h.service.GetResponseFromImage(ctx, req.Query, image, req.MimeType, mode, lang)
	c.JSON(http.StatusOK, AnswerResponse{Answer: answer, Answered: answer != ""})
}

// Stats returns collection sizes and business counters.
func (h *SearchHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *SearchHandler) parseModeAndLang(c *gin.Context, modeStr, langStr string) (biz.Mode, store.Language, bool) {
	mode, err := biz.ParseMode(modeStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return "", "", false
	}

	lang, err := store.ParseLanguage(langStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return "", "", false
	}

	return mode, lang, true
}
