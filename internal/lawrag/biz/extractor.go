package biz

import (
	"context"
	"fmt"

	"github.com/zakon-kg/lawrag/pkg/llm"
)

// Extractor pulls an ordered paragraph list out of an uploaded document or
// image via a schema-constrained LLM call.
type Extractor struct {
	chat llm.ChatProvider
}

// NewExtractor creates a content extractor.
func NewExtractor(chat llm.ChatProvider) *Extractor {
	return &Extractor{chat: chat}
}

type extractedPoints struct {
	Points []struct {
		Paragraph string `json:"paragraph"`
	} `json:"points"`
}

// ExtractDocument extracts paragraphs from a document (PDF by default).
func (e *Extractor) ExtractDocument(ctx context.Context, data []byte, mimeType string) ([]string, error) {
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	return e.extract(ctx, llm.FilePart("legal_document.pdf", mimeType, data))
}

// ExtractImage extracts paragraphs from a photographed document.
func (e *Extractor) ExtractImage(ctx context.Context, data []byte, mimeType string) ([]string, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return e.extract(ctx, llm.ImagePart(mimeType, data))
}

func (e *Extractor) extract(ctx context.Context, part llm.ContentPart) ([]string, error) {
	req := &llm.StructuredRequest{
		Instructions: dataExtractionInstruction,
		Prompt:       "Break it into items/paragraphs.",
		Parts:        []llm.ContentPart{part},
		Schema: llm.StructuredSchema{
			Name:   "points",
			Schema: pointsSchema,
		},
	}

	var parsed extractedPoints
	if err := e.chat.GenerateStructured(ctx, req, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	paragraphs := make([]string, 0, len(parsed.Points))
	for _, p := range parsed.Points {
		if p.Paragraph == "" {
			continue
		}
		paragraphs = append(paragraphs, p.Paragraph)
	}

	if len(paragraphs) == 0 {
		return nil, fmt.Errorf("%w: model returned no paragraphs", ErrExtractionFailed)
	}

	return paragraphs, nil
}
