package biz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zakon-kg/lawrag/pkg/llm"
)

func TestExtractDocument(t *testing.T) {
	var gotReq *llm.StructuredRequest
	chat := &mockChat{
		structuredFn: func(ctx context.Context, req *llm.StructuredRequest, out any) error {
			gotReq = req
			return structuredPoints("пункт 1", "пункт 2")(ctx, req, out)
		},
	}
	extractor := NewExtractor(chat)

	paragraphs, err := extractor.ExtractDocument(context.Background(), []byte("%PDF"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"пункт 1", "пункт 2"}, paragraphs)

	require.Len(t, gotReq.Parts, 1)
	assert.Equal(t, llm.PartFile, gotReq.Parts[0].Kind)
	assert.Equal(t, "application/pdf", gotReq.Parts[0].MIMEType)
	assert.Contains(t, gotReq.Instructions, "extracting structured data")
}

func TestExtractImage(t *testing.T) {
	var gotReq *llm.StructuredRequest
	chat := &mockChat{
		structuredFn: func(ctx context.Context, req *llm.StructuredRequest, out any) error {
			gotReq = req
			return structuredPoints("текст")(ctx, req, out)
		},
	}
	extractor := NewExtractor(chat)

	paragraphs, err := extractor.ExtractImage(context.Background(), []byte{0x89, 0x50}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, []string{"текст"}, paragraphs)

	require.Len(t, gotReq.Parts, 1)
	assert.Equal(t, llm.PartImage, gotReq.Parts[0].Kind)
	assert.Equal(t, "image/png", gotReq.Parts[0].MIMEType)
}

func TestExtractProviderError(t *testing.T) {
	chat := &mockChat{
		structuredFn: func(context.Context, *llm.StructuredRequest, any) error {
			return errors.New("provider down")
		},
	}
	extractor := NewExtractor(chat)

	_, err := extractor.ExtractDocument(context.Background(), []byte("%PDF"), "")
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestExtractZeroParagraphs(t *testing.T) {
	chat := &mockChat{structuredFn: structuredPoints()}
	extractor := NewExtractor(chat)

	_, err := extractor.ExtractImage(context.Background(), []byte{0x89}, "")
	assert.ErrorIs(t, err, ErrExtractionFailed)
}
