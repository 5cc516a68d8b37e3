// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pii

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", []string{}},
		{"nothing", "Can I get a window seat?", []string{}},
		{"email and phone", "Reach me at jane.doe@example.com or +1 555-123-4567", []string{TypeEmail, TypePhone}},
		{"valid card", "My card is 4111 1111 1111 1111", []string{TypeCard}},
		{"luhn failure is ignored", "Reference 4111111111111112", []string{}},
		{"ssn", "SSN 123-45-6789", []string{TypeSSN}},
		{"passport", "passport number X1234567", []string{TypePassport}},
		{"date of birth", "DOB: 1980-04-12", []string{TypeDateTime}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Types(Scan(tt.text)))
		})
	}
}

func TestScan_Offsets(t *testing.T) {
	text := "mail: a@b.io"
	got := Scan(text)
	require.Len(t, got, 1)
	assert.Equal(t, "a@b.io", text[got[0].BeginOffset:got[0].EndOffset])
}

type stubDetector struct {
	entities []Entity
	err      error
}

func (s stubDetector) Detect(context.Context, string) ([]Entity, error) { return s.entities, s.err }

func TestFallback(t *testing.T) {
	ctx := context.Background()

	managed := NewFallback(stubDetector{entities: []Entity{{Type: "NAME"}}})
	got, err := managed.Detect(ctx, "hi")
	require.NoError(t, err)
	assert.Equal(t, []string{"NAME"}, Types(got))

	failing := NewFallback(stubDetector{err: errors.New("down")})
	got, err = failing.Detect(ctx, "me@example.org")
	require.NoError(t, err)
	assert.Equal(t, []string{TypeEmail}, Types(got))

	local := NewFallback(nil)
	got, err = local.Detect(ctx, "nothing here")
	require.NoError(t, err)
	assert.Empty(t, got)
}
