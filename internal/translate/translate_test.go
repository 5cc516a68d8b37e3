// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package translate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ManuGH/rebookd/internal/domain"
	"github.com/stretchr/testify/assert"
)

type upper struct{ err error }

func (u upper) Translate(_ context.Context, text, _, target string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	return "[" + target + "] " + strings.ToUpper(text), nil
}

func sample() domain.Notification {
	return domain.Notification{
		Body:       "Your flight was cancelled.",
		CTAOptions: []string{"View options", "Talk to an agent"},
	}
}

func TestNotification(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		translator Translator
		target     string
		wantLang   string
		wantBody   string
	}{
		{"english is a no-op", upper{}, "en", "en", "Your flight was cancelled."},
		{"empty target", upper{}, "", "en", "Your flight was cancelled."},
		{"unsupported language", upper{}, "xx", "en", "Your flight was cancelled."},
		{"nil translator", nil, "de", "en", "Your flight was cancelled."},
		{"failure falls back", upper{err: errors.New("down")}, "de", "en", "Your flight was cancelled."},
		{"translated", upper{}, "de", "de", "[de] YOUR FLIGHT WAS CANCELLED."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Notification(ctx, tt.translator, sample(), tt.target)
			assert.Equal(t, tt.wantLang, got.Language)
			assert.Equal(t, tt.wantBody, got.Body)
		})
	}
}

func TestNotification_KeepsOriginal(t *testing.T) {
	got := Notification(context.Background(), upper{}, sample(), "fr")
	assert.Equal(t, "Your flight was cancelled.", got.OriginalBody)
	assert.Equal(t, []string{"View options", "Talk to an agent"}, got.OriginalCTAOptions)
	assert.Equal(t, []string{"[fr] VIEW OPTIONS", "[fr] TALK TO AN AGENT"}, got.CTAOptions)
	assert.Equal(t, "en", got.TranslatedFrom)
}

func TestPassthroughAndSupport(t *testing.T) {
	out, err := Passthrough{}.Translate(context.Background(), "hola", "es", "en")
	assert.NoError(t, err)
	assert.Equal(t, "hola", out)
	assert.True(t, IsSupported("zh-TW"))
	assert.False(t, IsSupported("klingon"))
}
