package controllers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deadline-assistant/deadline-assistant/internal/pkg/aidraft"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/metrics"
)

type stubGenerator struct {
	gen   aidraft.Generation
	err   error
	input aidraft.GenerationInput
}

func (s *stubGenerator) Generate(_ context.Context, in aidraft.GenerationInput) (*aidraft.Generation, error) {
	s.input = in
	if s.err != nil {
		return nil, s.err
	}
	g := s.gen
	return &g, nil
}

func newDraftEnv(t *testing.T, gen *stubGenerator) (*testEnv, *fakeRecorder) {
	env := newTestEnv(t)
	recorder := &fakeRecorder{}
	ai := NewAIDraftController(aidraft.NewService(gen, env.repos.EmailDraft), recorder)
	drafts := NewEmailDraftController(env.repos.EmailDraft)
	env.app.Post("/api/ai/email-draft", ai.Create)
	env.app.Get("/api/email-drafts", drafts.List)
	env.app.Patch("/api/email-drafts/:id", drafts.Update)
	return env, recorder
}

func TestAIDraftCreateRedactsAndPersists(t *testing.T) {
	gen := &stubGenerator{gen: aidraft.Generation{
		Subject:     "Request for tuition extension",
		Body:        "Dear registrar, ...",
		SafetyFlags: []string{"mentions_money", "mentions_money"},
	}}
	env, recorder := newDraftEnv(t, gen)

	resp := env.do(t, "POST", "/api/ai/email-draft", map[string]any{
		"contextType": "tuition",
		"recipient":   "registrar@uni.example",
		"prompt":      "Please ask for an extension, my student number is 12345678.",
	})
	require.Equal(t, 201, resp.Status, string(resp.Raw))

	assert.Equal(t, "English", gen.input.Language)
	assert.Equal(t, "Professional", gen.input.Tone)
	assert.NotContains(t, gen.input.Prompt, "12345678")

	assert.Equal(t, "Request for tuition extension", resp.Body["subject"])
	assert.Equal(t, []any{"mentions_money", aidraft.FlagPromptRedacted}, resp.Body["safetyFlags"])
	item := resp.item(t)
	assert.Equal(t, "draft", item["status"])
	assert.Equal(t, "registrar@uni.example", item["recipient"])
	assert.NotContains(t, item["input_json"].(map[string]any)["prompt"], "12345678")

	assert.Equal(t, []string{metrics.DraftCreated, metrics.DraftRedacted}, recorder.results("ai"))

	list := env.do(t, "GET", "/api/email-drafts?contextType=tuition", nil)
	require.Equal(t, 200, list.Status)
	assert.Len(t, list.items(t), 1)
	other := env.do(t, "GET", "/api/email-drafts?contextType=housing", nil)
	assert.Empty(t, other.items(t))
}

func TestAIDraftValidation(t *testing.T) {
	env, _ := newDraftEnv(t, &stubGenerator{})

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"short prompt", `{"contextType":"visa","prompt":"too short"}`, "prompt"},
		{"missing context", `{"prompt":"Please write to the visa office for me"}`, "contextType"},
		{"bad recipient", `{"contextType":"visa","recipient":"nobody","prompt":"Please write to the visa office for me"}`, "recipient"},
		{"one letter language", `{"contextType":"visa","language":"x","prompt":"Please write to the visa office for me"}`, "language"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, "POST", "/api/ai/email-draft", tt.body)
			require.Equal(t, 400, resp.Status)
			assert.Contains(t, resp.Body["details"].(map[string]any)["fieldErrors"], tt.field)
		})
	}
}

func TestAIDraftGeneratorFailures(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		retryable bool
		metric    string
	}{
		{"deadline exceeded", context.DeadlineExceeded, 504, true, metrics.DraftTimeout},
		{"abort message", errors.New("request AbortError"), 504, true, metrics.DraftTimeout},
		{"provider error", errors.New("500 from provider"), 502, false, metrics.DraftFailure},
		{"no output", aidraft.ErrNoOutput, 502, false, metrics.DraftFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, recorder := newDraftEnv(t, &stubGenerator{err: tt.err})
			resp := env.do(t, "POST", "/api/ai/email-draft", `{"contextType":"visa","prompt":"Please write to the visa office for me"}`)
			assert.Equal(t, tt.status, resp.Status)
			if tt.retryable {
				assert.Equal(t, true, resp.Body["retryable"])
				assert.Equal(t, "AI generation timed out. Please retry.", resp.Body["message"])
			}
			assert.Equal(t, []string{tt.metric}, recorder.results("ai"))

			list := env.do(t, "GET", "/api/email-drafts", nil)
			assert.Empty(t, list.items(t))
		})
	}
}

func TestEmailDraftPatch(t *testing.T) {
	env, _ := newDraftEnv(t, &stubGenerator{gen: aidraft.Generation{Subject: "Hello", Body: "Body"}})

	created := env.do(t, "POST", "/api/ai/email-draft", `{"contextType":"visa","prompt":"Please write to the visa office for me"}`)
	require.Equal(t, 201, created.Status)
	id := created.item(t)["id"].(string)

	resp := env.do(t, "PATCH", "/api/email-drafts/"+id, `{"subject":"Updated","status":"final"}`)
	require.Equal(t, 200, resp.Status, string(resp.Raw))
	assert.Equal(t, "Updated", resp.item(t)["subject"])
	assert.Equal(t, "final", resp.item(t)["status"])

	assert.Equal(t, 400, env.do(t, "PATCH", "/api/email-drafts/"+id, `{"status":"sent"}`).Status)
	assert.Equal(t, 400, env.do(t, "PATCH", "/api/email-drafts/"+id, `{"subject":""}`).Status)
	assert.Equal(t, 400, env.do(t, "PATCH", "/api/email-drafts/"+id, `{}`).Status)
	assert.Equal(t, 404, env.do(t, "PATCH", "/api/email-drafts/"+id, `{"body":"x"}`, "X-Test-User", "intruder").Status)
}
