// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package router picks who answers a passenger message: the policy
// responder for regulation and entitlement questions, the conversational
// responder for everything else. Managed responders degrade to local ones and
// Route never fails.
package router

import (
	"context"
	"strconv"
	"strings"

	"github.com/ManuGH/rebookd/internal/aigw"
	"github.com/ManuGH/rebookd/internal/domain"
	xglog "github.com/ManuGH/rebookd/internal/log"
)

// Response sources.
const (
	SourceKnowledgeBase = "knowledge-base"
	SourceBedrock       = "bedrock"
	SourceFallback      = "fallback"
	SourceFallbackError = "fallback-error"
)

// GuardrailIntervened is the action reported when the guardrail blocked a reply.
const GuardrailIntervened = "GUARDRAIL_INTERVENED"

const reasonGuardrail = "guardrail"

// Request is one message to answer along with its session context.
type Request struct {
	Message      string
	Passenger    domain.Passenger
	DisruptionID string
	Options      []domain.RebookingOption
	History      []domain.Turn
}

// Response is the routed answer.
type Response struct {
	Text      string
	Source    string
	Citations []domain.Citation
}

// Answer is what a policy responder returns.
type Answer struct {
	Text      string
	Citations []domain.Citation
}

// Reply is what a conversational responder returns.
type Reply struct {
	Text            string
	GuardrailAction string
}

// PolicyResponder answers regulation and entitlement questions.
type PolicyResponder interface {
	Answer(ctx context.Context, req Request) (Answer, error)
}

// ChatResponder holds the general conversation.
type ChatResponder interface {
	Reply(ctx context.Context, req Request) (Reply, error)
}

// Router dispatches messages. A nil responder means the managed capability is
// disabled and the local implementation answers.
type Router struct {
	policy PolicyResponder
	chat   ChatResponder
}

// New returns a Router. Either responder may be nil.
func New(policy PolicyResponder, chat ChatResponder) *Router {
	return &Router{policy: policy, chat: chat}
}

// Route answers req. It never returns an error; failures of managed
// responders are logged, counted and replaced by local answers.
func (r *Router) Route(ctx context.Context, req Request) Response {
	if IsPolicyQuestion(req.Message) {
		return r.routePolicy(ctx, req)
	}
	return r.routeChat(ctx, req)
}

func (r *Router) routePolicy(ctx context.Context, req Request) Response {
	local := LocalPolicy{}
	if r.policy == nil {
		ans, _ := local.Answer(ctx, req)
		return Response{Text: ans.Text, Source: SourceKnowledgeBase, Citations: ans.Citations}
	}

	ans, err := r.policy.Answer(ctx, req)
	if err != nil {
		aigw.RecordFallback(ctx, aigw.CapKnowledgeBase, aigw.Reason(err), err)
		fb, _ := local.Answer(ctx, req)
		return Response{Text: fb.Text, Source: SourceFallbackError, Citations: fb.Citations}
	}
	if strings.TrimSpace(ans.Text) == "" {
		fb, _ := local.Answer(ctx, req)
		ans.Text = fb.Text
	}
	xglog.LogMetric(ctx, "KBQuery", 1, map[string]string{"citations": strconv.Itoa(len(ans.Citations))})
	return Response{Text: ans.Text, Source: SourceKnowledgeBase, Citations: nonNil(ans.Citations)}
}

func (r *Router) routeChat(ctx context.Context, req Request) Response {
	local := LocalChat{}
	fallback := func(source string) Response {
		rep, _ := local.Reply(ctx, req)
		return Response{Text: rep.Text, Source: source, Citations: []domain.Citation{}}
	}

	if r.chat == nil {
		return fallback(SourceFallback)
	}

	rep, err := r.chat.Reply(ctx, req)
	if err != nil {
		aigw.RecordFallback(ctx, aigw.CapChat, aigw.Reason(err), err)
		return fallback(SourceFallbackError)
	}

	logger := xglog.WithComponentFromContext(ctx, "router")
	if rep.GuardrailAction != "" {
		logger.Info().
			Str("event", "chat.guardrail").
			Str("action", rep.GuardrailAction).
			Msg("guardrail evaluated reply")
	}
	if rep.GuardrailAction == GuardrailIntervened {
		aigw.RecordFallback(ctx, aigw.CapChat, reasonGuardrail, nil)
		return fallback(SourceFallback)
	}
	if strings.TrimSpace(rep.Text) == "" {
		xglog.LogMetric(ctx, "ChatEmptyResponse", 1, nil)
		return fallback(SourceFallback)
	}
	return Response{Text: rep.Text, Source: SourceBedrock, Citations: []domain.Citation{}}
}

func nonNil(c []domain.Citation) []domain.Citation {
	if c == nil {
		return []domain.Citation{}
	}
	return c
}
