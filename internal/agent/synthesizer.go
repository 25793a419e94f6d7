package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"golang.org/x/time/rate"

	"github.com/secondbrainhq/secondbrain/internal/log"
	"github.com/secondbrainhq/secondbrain/internal/rag"
)

// Generator produces a structured response from a system prompt, optional
// conversation history, and a user prompt.
type Generator interface {
	Generate(ctx context.Context, system string, history []*ai.Message, prompt string) (Response, error)
}

// noInfoMarkers are the phrasings that mark an answer as "no information
// available". Matching is a lowercase substring check; an answer containing
// any of these is exempt from the citation requirement.
var noInfoMarkers = []string{
	"no relevant information",
	"don't have information",
	"do not have information",
	"not available in",
	"no information about",
}

// Synthesis defaults.
const (
	DefaultSynthesisAttempts = 3
	defaultRetryDelay        = 500 * time.Millisecond
	defaultGenerateRate      = rate.Limit(2)
	defaultGenerateBurst     = 5
)

// SynthesizerConfig tunes the synthesis retry loop. Zero values fall back to
// the package defaults.
type SynthesizerConfig struct {
	// MaxAttempts bounds generation attempts per question, counting both
	// model failures and citation-validation rejections.
	MaxAttempts int

	// RetryDelay is the initial backoff between attempts; it doubles after
	// each failure.
	RetryDelay time.Duration

	// RateLimit and RateBurst throttle generation calls across questions.
	RateLimit rate.Limit
	RateBurst int
}

// Synthesizer produces cited answers from retrieved context. Every candidate
// response passes the citation validator before it is accepted; rejected
// candidates are regenerated with the rejection reason appended to the
// prompt, up to the attempt budget.
type Synthesizer struct {
	generator   Generator
	limiter     *rate.Limiter
	maxAttempts int
	retryDelay  time.Duration
	logger      log.Logger
}

// NewSynthesizer creates a Synthesizer over the given generator.
func NewSynthesizer(generator Generator, cfg SynthesizerConfig, logger log.Logger) (*Synthesizer, error) {
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultSynthesisAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = defaultGenerateRate
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = defaultGenerateBurst
	}
	return &Synthesizer{
		generator:   generator,
		limiter:     rate.NewLimiter(cfg.RateLimit, cfg.RateBurst),
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		logger:      logger,
	}, nil
}

// Synthesize generates a cited answer for the question from the retrieved
// context, with optional conversation history for follow-ups. Exhausting the
// attempt budget returns a *SynthesisError.
func (s *Synthesizer) Synthesize(ctx context.Context, question, contextText string, history []*ai.Message) (Response, error) {
	basePrompt := fmt.Sprintf("Question: %s\n\nRetrieved context:\n%s", question, contextText)
	hasHistory := len(history) > 0

	prompt := basePrompt
	delay := s.retryDelay
	var lastErr error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return Response{}, fmt.Errorf("waiting for rate limiter: %w", err)
		}

		resp, err := s.generator.Generate(ctx, researchSystemPrompt, history, prompt)
		if err != nil {
			lastErr = err
			s.logger.Warn("generation failed", "attempt", attempt, "error", err)
			continue
		}

		if err := validateCitations(resp, contextText, hasHistory); err != nil {
			lastErr = err
			s.logger.Warn("citation validation failed", "attempt", attempt, "error", err)
			prompt = fmt.Sprintf("%s\n\nYour previous response was rejected: %s", basePrompt, err)
			continue
		}

		return resp, nil
	}

	return Response{}, &SynthesisError{Attempts: s.maxAttempts, Err: lastErr}
}

// validateCitations enforces the citation invariant:
//   - a no-information answer may cite nothing;
//   - any cited answer is valid;
//   - an uncited factual answer is valid only on a follow-up turn where the
//     context was the no-results sentinel, meaning the answer came entirely
//     from conversation history with nothing fresh to cite.
func validateCitations(resp Response, contextText string, hasHistory bool) error {
	answerLower := strings.ToLower(resp.Answer)
	for _, marker := range noInfoMarkers {
		if strings.Contains(answerLower, marker) {
			return nil
		}
	}

	if len(resp.Sources) > 0 {
		return nil
	}

	hasRealChunks := contextText != rag.NoResultsSentinel
	if hasHistory && !hasRealChunks {
		return nil
	}

	if hasHistory && hasRealChunks {
		return errors.New("response must include source citations; " +
			"even for follow-up questions, populate the sources list " +
			"from the retrieved context chunks provided")
	}
	return errors.New("response must include source citations; " +
		"populate the sources list with the documents you referenced")
}
