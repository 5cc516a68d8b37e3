// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
	"time"

	xglog "github.com/ManuGH/rebookd/internal/log"
	"github.com/ManuGH/rebookd/internal/session"
	"github.com/ManuGH/rebookd/internal/telemetry"
	"go.opentelemetry.io/otel/trace"
)

// HealthResponse is the liveness body.
type HealthResponse struct {
	OK   bool      `json:"ok"`
	Time time.Time `json:"time"`
}

// ListDisruptionsResponse wraps the disruption list.
type ListDisruptionsResponse struct {
	Disruptions []session.DisruptionView `json:"disruptions"`
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type selectOptionRequest struct {
	SessionID string `json:"sessionId"`
	OptionID  string `json:"optionId"`
}

type confirmRequest struct {
	SessionID string `json:"sessionId"`
}

type escalateRequest struct {
	SessionID string `json:"sessionId"`
	Reason    string `json:"reason"`
}

func annotate(r *http.Request, op, sessionID string) *http.Request {
	trace.SpanFromContext(r.Context()).SetAttributes(telemetry.SessionAttributes(op, sessionID, "", "")...)
	if sessionID == "" {
		return r
	}
	return r.WithContext(xglog.ContextWithSessionID(r.Context(), sessionID))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{OK: true, Time: s.now()})
}

func (s *Server) handleCreateDisruption(w http.ResponseWriter, r *http.Request) {
	var in session.CreateDisruptionInput
	if !decodeJSON(w, r, &in) {
		return
	}
	r = annotate(r, "create_disruption", "")

	res, err := s.sessions.CreateDisruption(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, "create_disruption", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListDisruptions(w http.ResponseWriter, r *http.Request) {
	views, err := s.sessions.ListDisruptions(r.Context())
	if err != nil {
		writeServiceError(w, r, "list_disruptions", err)
		return
	}
	if views == nil {
		views = []session.DisruptionView{}
	}
	writeJSON(w, http.StatusOK, ListDisruptionsResponse{Disruptions: views})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	r = annotate(r, "chat", req.SessionID)

	res, err := s.sessions.ChatTurn(r.Context(), req.SessionID, req.Message)
	if err != nil {
		writeServiceError(w, r, "chat", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSelectOption(w http.ResponseWriter, r *http.Request) {
	var req selectOptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	r = annotate(r, "select_option", req.SessionID)

	res, err := s.sessions.SelectOption(r.Context(), req.SessionID, req.OptionID)
	if err != nil {
		writeServiceError(w, r, "select_option", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	r = annotate(r, "confirm", req.SessionID)

	res, err := s.sessions.Confirm(r.Context(), req.SessionID)
	if err != nil {
		writeServiceError(w, r, "confirm", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleEscalate(w http.ResponseWriter, r *http.Request) {
	var req escalateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	r = annotate(r, "escalate", req.SessionID)

	res, err := s.sessions.Escalate(r.Context(), req.SessionID, req.Reason)
	if err != nil {
		writeServiceError(w, r, "escalate", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	rep, err := s.dashboard.Build(r.Context(), r.URL.Query().Get("timeRange"))
	if err != nil {
		writeServiceError(w, r, "dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(openAPISpec)
}
