// Package aidraft turns a user prompt into a stored email draft: the prompt is
// redacted, sent to the generator and persisted together with safety flags.
package aidraft

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/datatypes"

	"github.com/deadline-assistant/deadline-assistant/app/models"
	"github.com/deadline-assistant/deadline-assistant/app/repository"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/apperror"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/redaction"
)

const (
	FlagPromptRedacted = "prompt_redacted"

	timeoutMessage = "AI generation timed out. Please retry."
)

var timeoutPattern = regexp.MustCompile(`(?i)timeout|timed out|AbortError`)

type Request struct {
	ContextType string
	Recipient   *string
	Language    string
	Tone        string
	Prompt      string
}

type Result struct {
	Subject     string
	Body        string
	SafetyFlags []string
	Draft       *models.EmailDraft
}

// Service runs the redact, generate, persist pipeline.
type Service struct {
	generator Generator
	drafts    repository.EmailDraftRepository
}

func NewService(generator Generator, drafts repository.EmailDraftRepository) *Service {
	return &Service{generator: generator, drafts: drafts}
}

func (s *Service) CreateDraft(ctx context.Context, userID string, req Request) (*Result, error) {
	redacted := redaction.Redact(req.Prompt)

	gen, err := s.generator.Generate(ctx, GenerationInput{
		Prompt:   redacted.Text,
		Language: req.Language,
		Tone:     req.Tone,
	})
	if err != nil {
		return nil, classifyGenerationError(err)
	}

	flags := SafetyFlags(gen.SafetyFlags, redacted.WasRedacted)
	draft := &models.EmailDraft{
		UserID:      userID,
		ContextType: req.ContextType,
		Recipient:   req.Recipient,
		Language:    req.Language,
		Tone:        req.Tone,
		InputJSON:   datatypes.JSONMap{"prompt": redacted.Text},
		SafetyFlags: datatypes.NewJSONType(flags),
		Subject:     gen.Subject,
		Body:        gen.Body,
		Status:      models.EmailDraftStatusDraft,
	}
	if err := s.drafts.Create(ctx, draft); err != nil {
		return nil, fmt.Errorf("persist AI draft: %w", err)
	}

	if redacted.WasRedacted {
		log.Infof("[AIDraft] Draft %s created from a redacted prompt", draft.ID)
	}
	return &Result{
		Subject:     gen.Subject,
		Body:        gen.Body,
		SafetyFlags: flags,
		Draft:       draft,
	}, nil
}

// SafetyFlags returns the generator flags without duplicates, in order, with
// prompt_redacted added when the prompt was changed.
func SafetyFlags(generated []string, promptRedacted bool) []string {
	flags := make([]string, 0, len(generated)+1)
	seen := make(map[string]struct{}, len(generated)+1)
	add := func(flag string) {
		if flag == "" {
			return
		}
		if _, ok := seen[flag]; ok {
			return
		}
		seen[flag] = struct{}{}
		flags = append(flags, flag)
	}
	for _, flag := range generated {
		add(flag)
	}
	if promptRedacted {
		add(FlagPromptRedacted)
	}
	return flags
}

func classifyGenerationError(err error) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	if errors.Is(err, ErrNoOutput) {
		log.Warnf("[AIDraft] Provider returned no usable output: %v", err)
		return apperror.UpstreamFailure(ErrNoOutput.Error(), err)
	}
	if IsTimeout(err) {
		log.Warnf("[AIDraft] Generation timed out: %v", err)
		return apperror.UpstreamTimeout(timeoutMessage, err)
	}
	log.Errorf("[AIDraft] Generation failed: %v", err)
	return apperror.UpstreamFailure("AI generation failed", err)
}

// IsTimeout reports whether err means the generation call was cut short.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return timeoutPattern.MatchString(err.Error())
}
