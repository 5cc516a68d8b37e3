// SPDX-License-Identifier: MIT
package validate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_URL(t *testing.T) {
	tests := []struct {
		name           string
		value          string
		allowedSchemes []string
		wantErr        bool
	}{
		{"valid http", "http://example.com", []string{"http", "https"}, false},
		{"valid https", "https://ai.example.com/v1", []string{"http", "https"}, false},
		{"empty url", "", []string{"http"}, true},
		{"no host", "http://", []string{"http"}, true},
		{"invalid scheme", "ftp://example.com", []string{"http", "https"}, true},
		{"no scheme", "example.com", []string{"http"}, true},
		{"with port", "http://example.com:8080", []string{"http"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.URL("testURL", tt.value, tt.allowedSchemes)
			assert.Equal(t, tt.wantErr, !v.IsValid(), "err: %v", v.Err())
		})
	}
}

func TestValidator_ListenAddr(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{":3000", false},
		{"127.0.0.1:8080", false},
		{"[::1]:443", false},
		{"localhost", true},
		{":99999", true},
		{":http", true},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			v := New()
			v.ListenAddr("Listen", tt.addr)
			assert.Equal(t, tt.wantErr, !v.IsValid())
		})
	}
}

func TestValidator_Directory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	tests := []struct {
		name      string
		path      string
		mustExist bool
		wantErr   bool
	}{
		{"existing dir", dir, true, false},
		{"missing dir allowed", filepath.Join(dir, "new"), false, false},
		{"missing dir required", filepath.Join(dir, "new"), true, true},
		{"file not dir", file, false, true},
		{"traversal", "../etc", false, true},
		{"empty", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Directory("DataDir", tt.path, tt.mustExist)
			assert.Equal(t, tt.wantErr, !v.IsValid())
		})
	}
}

func TestValidator_AccumulatesErrors(t *testing.T) {
	v := New()
	v.OneOf("Store", "dynamo", []string{"memory", "badger"})
	v.Range("AIRPS", 0, 1, 100)
	v.FloatRange("Sampling", 1.5, 0, 1)
	v.Positive("MaxConns", 0)
	v.NonNegative("RedisDB", -1)
	v.NotEmpty("Topic", "  ")

	require.False(t, v.IsValid())
	assert.Len(t, v.Errors(), 6)

	err := v.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed for Store")
	assert.Contains(t, err.Error(), "; ")

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors(), 6)
}

func TestValidator_ValidReturnsNil(t *testing.T) {
	v := New()
	v.OneOf("Store", "memory", []string{"memory"})
	assert.NoError(t, v.Err())
}
