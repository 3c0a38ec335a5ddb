package aidraft

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deadline-assistant/deadline-assistant/app/models"
	"github.com/deadline-assistant/deadline-assistant/app/repository"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/apperror"
)

type fakeGenerator struct {
	gen   *Generation
	err   error
	calls []GenerationInput
}

func (f *fakeGenerator) Generate(_ context.Context, in GenerationInput) (*Generation, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	return f.gen, nil
}

type fakeDrafts struct {
	repository.EmailDraftRepository
	created []*models.EmailDraft
	err     error
}

func (f *fakeDrafts) Create(_ context.Context, draft *models.EmailDraft) error {
	if f.err != nil {
		return f.err
	}
	draft.ID = fmt.Sprintf("draft-%d", len(f.created)+1)
	f.created = append(f.created, draft)
	return nil
}

func validRequest(prompt string) Request {
	return Request{ContextType: "visa", Language: "English", Tone: "Professional", Prompt: prompt}
}

func TestCreateDraft_RedactsBeforeGenerationAndStorage(t *testing.T) {
	gen := &fakeGenerator{gen: &Generation{
		Subject:     "Payment confirmation",
		Body:        "Dear office, account 123456789012 ...",
		SafetyFlags: []string{"pii_removed", "pii_removed"},
	}}
	drafts := &fakeDrafts{}
	svc := NewService(gen, drafts)

	res, err := svc.CreateDraft(context.Background(), "user_1", validRequest("My account 123456789012 needs payment confirmation."))
	require.NoError(t, err)

	require.Len(t, gen.calls, 1)
	assert.Equal(t, "My account [REDACTED_NUMBER] needs payment confirmation.", gen.calls[0].Prompt)
	assert.Equal(t, "English", gen.calls[0].Language)
	assert.Equal(t, "Professional", gen.calls[0].Tone)

	assert.Equal(t, []string{"pii_removed", FlagPromptRedacted}, res.SafetyFlags)
	assert.Equal(t, "Payment confirmation", res.Subject)

	require.Len(t, drafts.created, 1)
	stored := drafts.created[0]
	assert.Equal(t, res.Draft, stored)
	assert.Equal(t, "user_1", stored.UserID)
	assert.Equal(t, models.EmailDraftStatusDraft, stored.Status)
	assert.Equal(t, "My account [REDACTED_NUMBER] needs payment confirmation.", stored.StoredPrompt())
	assert.NotContains(t, stored.StoredPrompt(), "123456789012")
	assert.Equal(t, []string{"pii_removed", FlagPromptRedacted}, stored.SafetyFlags.Data())
}

func TestCreateDraft_CleanPromptHasNoRedactionFlag(t *testing.T) {
	gen := &fakeGenerator{gen: &Generation{Subject: "Extension request", Body: "Hello"}}
	svc := NewService(gen, &fakeDrafts{})

	prompt := "Please draft an email asking for payment deadline extension."
	res, err := svc.CreateDraft(context.Background(), "user_1", validRequest(prompt))
	require.NoError(t, err)
	assert.Empty(t, res.SafetyFlags)
	assert.Equal(t, prompt, res.Draft.StoredPrompt())
}

func TestCreateDraft_ErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    apperror.Kind
		message string
	}{
		{name: "deadline", err: fmt.Errorf("post: %w", context.DeadlineExceeded), kind: apperror.KindUpstreamTimeout, message: timeoutMessage},
		{name: "canceled", err: context.Canceled, kind: apperror.KindUpstreamTimeout, message: timeoutMessage},
		{name: "message", err: errors.New("request timed out after 30s"), kind: apperror.KindUpstreamTimeout, message: timeoutMessage},
		{name: "abort", err: errors.New("AbortError: the operation was aborted"), kind: apperror.KindUpstreamTimeout, message: timeoutMessage},
		{name: "no output", err: ErrNoOutput, kind: apperror.KindUpstreamFailure, message: "AI provider returned no output"},
		{name: "other", err: errors.New("status 500: server error"), kind: apperror.KindUpstreamFailure, message: "AI generation failed"},
		{name: "missing key", err: apperror.Internal("OPENAI_API_KEY is required", nil), kind: apperror.KindInternal, message: "OPENAI_API_KEY is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drafts := &fakeDrafts{}
			svc := NewService(&fakeGenerator{err: tt.err}, drafts)

			_, err := svc.CreateDraft(context.Background(), "user_1", validRequest("Please write to the registrar."))
			appErr, ok := apperror.As(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.kind, appErr.Kind)
			assert.Equal(t, tt.message, appErr.Message)
			assert.Empty(t, drafts.created)
		})
	}
}

func TestCreateDraft_PersistErrorPropagates(t *testing.T) {
	dbErr := errors.New("db down")
	svc := NewService(&fakeGenerator{gen: &Generation{Subject: "s", Body: "b"}}, &fakeDrafts{err: dbErr})

	_, err := svc.CreateDraft(context.Background(), "user_1", validRequest("Please write to the registrar."))
	assert.ErrorIs(t, err, dbErr)
}

func TestSafetyFlags(t *testing.T) {
	assert.Equal(t, []string{}, SafetyFlags(nil, false))
	assert.Equal(t, []string{FlagPromptRedacted}, SafetyFlags(nil, true))
	assert.Equal(t, []string{"a", "b", FlagPromptRedacted}, SafetyFlags([]string{"a", "b", "a", ""}, true))
	assert.Equal(t, []string{FlagPromptRedacted}, SafetyFlags([]string{FlagPromptRedacted}, true))
}
