package agent

import (
	"context"
	"fmt"

	"github.com/secondbrainhq/secondbrain/internal/log"
)

// Classifier produces a structured verdict from a system prompt and a user
// prompt. Implemented by the genkit-backed classifier in production and by
// fakes in tests.
type Classifier interface {
	Classify(ctx context.Context, system, prompt string) (Verdict, error)
}

// DefaultMaxQueryLength bounds question size when no limit is configured.
const DefaultMaxQueryLength = 1000

// Guard validates queries before processing and answers after synthesis.
// The length check is deterministic and runs before any model call; the
// semantic checks are LLM-based and advisory. A false verdict is
// authoritative, but a true verdict does not guarantee safety.
type Guard struct {
	classifier     Classifier
	maxQueryLength int
	logger         log.Logger
}

// NewGuard creates a Guard over the given classifier.
func NewGuard(classifier Classifier, maxQueryLength int, logger log.Logger) (*Guard, error) {
	if classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if maxQueryLength <= 0 {
		maxQueryLength = DefaultMaxQueryLength
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Guard{
		classifier:     classifier,
		maxQueryLength: maxQueryLength,
		logger:         logger,
	}, nil
}

// ValidateInput classifies a user query. Over-length queries are rejected
// immediately without invoking the classifier.
func (g *Guard) ValidateInput(ctx context.Context, query string) (Verdict, error) {
	if len(query) > g.maxQueryLength {
		return Verdict{
			Allowed: false,
			Reason:  fmt.Sprintf("Query too long (%d chars). Maximum: %d.", len(query), g.maxQueryLength),
		}, nil
	}

	verdict, err := g.classifier.Classify(ctx, guardInputSystemPrompt,
		fmt.Sprintf("Classify this user query:\n\n%s", query))
	if err != nil {
		return Verdict{}, fmt.Errorf("classifying input: %w", err)
	}

	if !verdict.Allowed {
		g.logger.Info("input rejected by guard", "reason", verdict.Reason)
	}
	return verdict, nil
}

// ValidateOutput checks that an answer is grounded in the retrieved context.
func (g *Guard) ValidateOutput(ctx context.Context, question, answer, context string) (Verdict, error) {
	prompt := fmt.Sprintf(
		"User question: %s\n\nRetrieved context:\n%s\n\nAgent response:\n%s\n\n"+
			"Is this response properly grounded in the retrieved context?",
		question, context, answer)

	verdict, err := g.classifier.Classify(ctx, guardOutputSystemPrompt, prompt)
	if err != nil {
		return Verdict{}, fmt.Errorf("classifying output: %w", err)
	}

	if !verdict.Allowed {
		g.logger.Info("output rejected by guard", "reason", verdict.Reason)
	}
	return verdict, nil
}
