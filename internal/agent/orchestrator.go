package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"

	"github.com/secondbrainhq/secondbrain/internal/knowledge"
	"github.com/secondbrainhq/secondbrain/internal/log"
)

// Fallback answers for recovered pipeline failures.
const (
	// SynthesisFallbackAnswer is returned when synthesis fails after
	// retrieval found chunks; the raw retrieved results accompany it.
	SynthesisFallbackAnswer = "I found relevant information but could not synthesize a proper answer. Please review the sources below."

	// OutputGuardFallbackAnswer is returned when the output guard rejects a
	// synthesized answer; no sources accompany it.
	OutputGuardFallbackAnswer = "I could not verify my response against the knowledge base. Please try rephrasing your question."
)

// retriever is the slice of rag.Retriever the orchestrator needs.
type retriever interface {
	Retrieve(ctx context.Context, query string) (string, []knowledge.SearchResult, error)
}

// synthesizer is the slice of Synthesizer the orchestrator needs.
type synthesizer interface {
	Synthesize(ctx context.Context, question, context string, history []*ai.Message) (Response, error)
}

// Orchestrator runs the question pipeline: length check, input guard,
// retrieval, synthesis, output guard, citation filtering. Stages run
// strictly in sequence; each depends on the previous stage's output.
type Orchestrator struct {
	retriever      retriever
	synthesizer    synthesizer
	guard          *Guard // nil disables both guard stages
	maxQueryLength int
	logger         log.Logger
}

// NewOrchestrator wires the pipeline. A nil guard disables guardrails; the
// length check still applies.
func NewOrchestrator(r retriever, s synthesizer, guard *Guard, maxQueryLength int, logger log.Logger) (*Orchestrator, error) {
	if r == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if s == nil {
		return nil, fmt.Errorf("synthesizer is required")
	}
	if maxQueryLength <= 0 {
		maxQueryLength = DefaultMaxQueryLength
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Orchestrator{
		retriever:      r,
		synthesizer:    s,
		guard:          guard,
		maxQueryLength: maxQueryLength,
		logger:         logger,
	}, nil
}

// Ask answers a question through the full pipeline.
//
// An over-length question returns ErrQueryTooLong before any stage runs.
// Guard rejections and synthesis failures are modeled outcomes: the caller
// receives a well-formed QueryResult carrying a refusal or fallback answer.
// Collaborator failures (embedding, store, classifier transport errors)
// propagate as errors; retry policy belongs to those clients.
func (o *Orchestrator) Ask(ctx context.Context, question string, history []*ai.Message) (QueryResult, error) {
	if len(question) > o.maxQueryLength {
		return QueryResult{}, fmt.Errorf("%w: %d chars (maximum %d)",
			ErrQueryTooLong, len(question), o.maxQueryLength)
	}

	if o.guard != nil {
		verdict, err := o.guard.ValidateInput(ctx, question)
		if err != nil {
			return QueryResult{}, err
		}
		if !verdict.Allowed {
			return QueryResult{Answer: verdict.Reason}, nil
		}
	}

	contextText, results, err := o.retriever.Retrieve(ctx, question)
	if err != nil {
		return QueryResult{}, err
	}

	resp, err := o.synthesizer.Synthesize(ctx, question, contextText, history)
	if err != nil {
		// Recovered locally: the caller gets a fallback answer with the raw
		// retrieved results, not yet citation-filtered.
		o.logger.Warn("synthesis failed, returning fallback", "error", err)
		return QueryResult{Answer: SynthesisFallbackAnswer, Sources: results}, nil
	}

	if o.guard != nil {
		verdict, err := o.guard.ValidateOutput(ctx, question, resp.Answer, contextText)
		if err != nil {
			return QueryResult{}, err
		}
		if !verdict.Allowed {
			return QueryResult{Answer: OutputGuardFallbackAnswer}, nil
		}
	}

	return QueryResult{
		Answer:  resp.Answer,
		Sources: filterCitations(results, resp.Sources),
	}, nil
}

// filterCitations keeps retrieved results the synthesizer actually cited. A
// result matches a citation when its chunk URL equals the cited URL, or when
// its chunk source and the cited title contain each other as a substring in
// either direction. The substring match tolerates shortened or reformatted
// titles echoed by the model; exact matching would silently drop valid
// citations.
func filterCitations(results []knowledge.SearchResult, refs []SourceRef) []knowledge.SearchResult {
	var kept []knowledge.SearchResult
	for _, result := range results {
		for _, ref := range refs {
			if citationMatches(result.Chunk, ref) {
				kept = append(kept, result)
				break
			}
		}
	}
	return kept
}

func citationMatches(chunk knowledge.Chunk, ref SourceRef) bool {
	if ref.URL != "" && chunk.URL == ref.URL {
		return true
	}
	if ref.Title == "" {
		return false
	}
	return strings.Contains(ref.Title, chunk.Source) || strings.Contains(chunk.Source, ref.Title)
}
