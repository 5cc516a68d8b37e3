// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package translate localizes notification copy into the passenger's
// language. Every failure falls through to the English original.
package translate

import (
	"context"
	"slices"
	"strings"

	"github.com/ManuGH/rebookd/internal/aigw"
	"github.com/ManuGH/rebookd/internal/domain"
	xglog "github.com/ManuGH/rebookd/internal/log"
)

// SourceLanguage is the language all copy is authored in.
const SourceLanguage = "en"

// SupportedLanguages are the ISO 639-1 codes the managed translator accepts.
var SupportedLanguages = []string{
	"en", "es", "fr", "de", "it", "pt", "nl", "ja", "ko", "zh", "zh-TW",
	"ar", "hi", "ru", "tr", "pl", "sv", "da", "no", "fi", "el", "cs", "ro",
	"hu", "th", "vi", "id", "ms", "tl", "he",
}

// IsSupported reports whether lang can be a translation target.
func IsSupported(lang string) bool {
	return slices.Contains(SupportedLanguages, lang)
}

// Translator translates text from source to target.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Passthrough returns text unchanged.
type Passthrough struct{}

func (Passthrough) Translate(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
}

type managedRequest struct {
	Text               string `json:"text"`
	SourceLanguageCode string `json:"sourceLanguageCode"`
	TargetLanguageCode string `json:"targetLanguageCode"`
}

type managedResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Managed calls the gateway translate capability.
type Managed struct {
	client aigw.Caller
}

func NewManaged(client aigw.Caller) *Managed { return &Managed{client: client} }

func (m *Managed) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" || source == target {
		return text, nil
	}
	var resp managedResponse
	req := managedRequest{Text: text, SourceLanguageCode: source, TargetLanguageCode: target}
	if err := m.client.Call(ctx, aigw.CapTranslate, req, &resp); err != nil {
		return "", err
	}
	return resp.TranslatedText, nil
}

// Notification translates the body and call-to-action labels of n into
// target. The English copy is kept in OriginalBody and OriginalCTAOptions.
// Unsupported targets, English, and any translation failure return n
// marked as English.
func Notification(ctx context.Context, t Translator, n domain.Notification, target string) domain.Notification {
	if t == nil || target == "" || target == SourceLanguage {
		n.Language = SourceLanguage
		return n
	}
	if !IsSupported(target) {
		xglog.LogMetric(ctx, "TranslateUnsupportedLang", 1, map[string]string{"lang": target})
		n.Language = SourceLanguage
		return n
	}

	body, err := t.Translate(ctx, n.Body, SourceLanguage, target)
	if err != nil {
		aigw.RecordFallback(ctx, aigw.CapTranslate, aigw.Reason(err), err)
		n.Language = SourceLanguage
		return n
	}

	ctas := make([]string, len(n.CTAOptions))
	for i, cta := range n.CTAOptions {
		translated, err := t.Translate(ctx, cta, SourceLanguage, target)
		if err != nil {
			aigw.RecordFallback(ctx, aigw.CapTranslate, aigw.Reason(err), err)
			n.Language = SourceLanguage
			return n
		}
		ctas[i] = translated
	}

	out := n
	out.OriginalBody = n.Body
	out.OriginalCTAOptions = n.CTAOptions
	out.Body = body
	out.CTAOptions = ctas
	out.Language = target
	out.TranslatedFrom = SourceLanguage
	return out
}
