// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package router

import (
	"regexp"
	"strings"
)

var transferPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(speak|talk|chat)\s+(to|with)\s+(an?\s+|the\s+|your\s+)?(human|agent|person|representative|someone|supervisor|manager)\b`),
	regexp.MustCompile(`\b(want|need|get)\s+(an?\s+|the\s+)?(human|agent|person|representative|supervisor|manager)\b`),
	regexp.MustCompile(`\b(transfer|connect)\s+me\b`),
	regexp.MustCompile(`\b(live|real)\s+(agent|person|human)\b`),
}

// negators cancel a match when they appear among the preceding words of
// the same clause.
var negators = map[string]bool{
	"not": true, "no": true, "never": true, "dont": true, "don't": true,
	"doesnt": true, "doesn't": true, "wont": true, "won't": true,
	"without": true, "needn't": true,
}

const negationWindow = 3

// DetectTransferIntent reports whether the passenger asked for a human.
func DetectTransferIntent(message string) bool {
	text := strings.ReplaceAll(fold(message), "’", "'")
	for _, re := range transferPatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if !negated(text[:loc[0]]) {
				return true
			}
		}
	}
	return false
}

// clauseBreaks end the look-back: "No, I want an agent" is a request.
const clauseBreaks = ".,!?;:"

func negated(prefix string) bool {
	if i := strings.LastIndexAny(prefix, clauseBreaks); i >= 0 {
		prefix = prefix[i+1:]
	}
	words := strings.Fields(prefix)
	if len(words) > negationWindow {
		words = words[len(words)-negationWindow:]
	}
	for _, w := range words {
		if negators[w] {
			return true
		}
	}
	return false
}
