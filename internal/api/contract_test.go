// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/stretchr/testify/require"
)

var (
	openapiOnce sync.Once
	openapiDoc  *openapi3.T
	openapiErr  error
)

func loadOpenAPIDoc(t *testing.T) *openapi3.T {
	t.Helper()
	openapiOnce.Do(func() {
		doc, err := openapi3.NewLoader().LoadFromData(OpenAPISpec())
		if err != nil {
			openapiErr = err
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			openapiErr = err
			return
		}
		openapiDoc = doc
	})
	if openapiErr != nil {
		t.Fatalf("openapi load failed: %v", openapiErr)
	}
	return openapiDoc
}

// callAndValidate serves the request and checks both sides against the
// OpenAPI document.
func callAndValidate(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	doc := loadOpenAPIDoc(t)

	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	newReq := func() *http.Request {
		req := httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	router, err := legacy.NewRouter(doc)
	require.NoError(t, err, "openapi router init")
	route, pathParams, err := router.FindRoute(newReq())
	require.NoError(t, err, "openapi route lookup %s %s", method, path)

	reqInput := &openapi3filter.RequestValidationInput{
		Request:    newReq(),
		PathParams: pathParams,
		Route:      route,
		Options:    &openapi3filter.Options{MultiError: true},
	}
	require.NoError(t, openapi3filter.ValidateRequest(context.Background(), reqInput), "openapi request validation")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, newReq())

	respInput := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: reqInput,
		Status:                 rr.Code,
		Header:                 rr.Header(),
		Options:                &openapi3filter.Options{MultiError: true},
	}
	respInput.SetBodyBytes(rr.Body.Bytes())
	require.NoError(t, openapi3filter.ValidateResponse(context.Background(), respInput),
		"openapi response validation for %s %s: %s", method, path, rr.Body.String())
	return rr
}

func TestOpenAPIDocumentIsValid(t *testing.T) {
	doc := loadOpenAPIDoc(t)
	for _, p := range []string{"/health", "/disruption", "/chat", "/select-option", "/confirm", "/escalate", "/dashboard"} {
		require.NotNil(t, doc.Paths.Find(p), "path %s documented", p)
	}
}

func TestContract_FullSession(t *testing.T) {
	h := newTestHandler(t)

	callAndValidate(t, h, http.MethodGet, "/health", nil)

	rr := callAndValidate(t, h, http.MethodPost, "/disruption", platinumDisruption)
	require.Equal(t, http.StatusOK, rr.Code)
	var created struct {
		SessionID string `json:"sessionId"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	sid := created.SessionID

	callAndValidate(t, h, http.MethodGet, "/disruption", nil)

	for _, msg := range []string{
		"What is the EU261 compensation for this cancellation?",
		"This is unacceptable, I am furious",
		"This is unacceptable, I am furious, call me at +1 415 555 0100",
		"hello",
	} {
		rr = callAndValidate(t, h, http.MethodPost, "/chat", map[string]string{"sessionId": sid, "message": msg})
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr = callAndValidate(t, h, http.MethodPost, "/confirm", map[string]string{"sessionId": sid})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = callAndValidate(t, h, http.MethodPost, "/escalate", map[string]string{"sessionId": sid})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = callAndValidate(t, h, http.MethodPost, "/select-option", map[string]string{"sessionId": sid, "optionId": "E"})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = callAndValidate(t, h, http.MethodPost, "/confirm", map[string]string{"sessionId": sid})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = callAndValidate(t, h, http.MethodPost, "/escalate", map[string]string{"sessionId": sid, "reason": "Compensation inquiry"})
	require.Equal(t, http.StatusOK, rr.Code)

	for _, q := range []string{"", "?timeRange=1h", "?timeRange=7d", "?timeRange=30d"} {
		rr = callAndValidate(t, h, http.MethodGet, "/dashboard"+q, nil)
		require.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestContract_Errors(t *testing.T) {
	h := newTestHandler(t)

	rr := callAndValidate(t, h, http.MethodPost, "/disruption", map[string]any{"type": "CANCELLATION"})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = callAndValidate(t, h, http.MethodPost, "/chat", map[string]string{"sessionId": "SES-MISSING", "message": "hi"})
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = callAndValidate(t, h, http.MethodPost, "/select-option", map[string]string{"sessionId": "SES-MISSING"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
