package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in      string
		want    Language
		wantErr bool
	}{
		{in: "ru", want: LanguageRU},
		{in: "kg", want: LanguageKG},
		{in: "", want: LanguageRU},
		{in: "en", wantErr: true},
		{in: "RU", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("lang_"+tt.in, func(t *testing.T) {
			got, err := ParseLanguage(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCollectionMapping(t *testing.T) {
	s := NewMilvusStore(nil, "law_articles_ru", "law_articles_kg")

	ru, err := s.Collection(LanguageRU)
	require.NoError(t, err)
	assert.Equal(t, "law_articles_ru", ru)

	kg, err := s.Collection(LanguageKG)
	require.NoError(t, err)
	assert.Equal(t, "law_articles_kg", kg)

	_, err = s.Collection(Language("en"))
	assert.Error(t, err)
}
