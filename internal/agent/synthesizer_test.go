package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"

	"github.com/secondbrainhq/secondbrain/internal/log"
	"github.com/secondbrainhq/secondbrain/internal/rag"
)

// fakeGenerator replays a scripted sequence of responses.
type fakeGenerator struct {
	responses []Response
	errs      []error
	prompts   []string
	histories [][]*ai.Message
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, history []*ai.Message, prompt string) (Response, error) {
	i := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	f.histories = append(f.histories, history)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var resp Response
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	return resp, err
}

func newTestSynthesizer(t *testing.T, gen Generator) *Synthesizer {
	t.Helper()
	s, err := NewSynthesizer(gen, SynthesizerConfig{RetryDelay: time.Millisecond}, log.NewNop())
	if err != nil {
		t.Fatalf("NewSynthesizer() error: %v", err)
	}
	return s
}

func TestSynthesizeAcceptsCitedAnswer(t *testing.T) {
	gen := &fakeGenerator{responses: []Response{{
		Answer:  "The deadline is March 30, 2024, according to project_alpha.txt.",
		Sources: []SourceRef{{Title: "project_alpha.txt", SourceType: "note"}},
	}}}
	s := newTestSynthesizer(t, gen)

	resp, err := s.Synthesize(context.Background(), "When is the deadline?",
		"[Source: project_alpha.txt | Type: note]\nProject Alpha deadline is March 30, 2024.", nil)
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	if len(resp.Sources) != 1 {
		t.Errorf("response sources = %+v", resp.Sources)
	}
	if len(gen.prompts) != 1 {
		t.Errorf("generator called %d times, want 1", len(gen.prompts))
	}
}

func TestSynthesizeAcceptsNoInfoAnswer(t *testing.T) {
	gen := &fakeGenerator{responses: []Response{{
		Answer: "I don't have information about that in my knowledge base.",
	}}}
	s := newTestSynthesizer(t, gen)

	resp, err := s.Synthesize(context.Background(), "Unknown topic?", rag.NoResultsSentinel, nil)
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	if len(resp.Sources) != 0 {
		t.Errorf("sources = %+v, want empty", resp.Sources)
	}
}

func TestSynthesizeRetriesUncitedAnswer(t *testing.T) {
	uncited := Response{Answer: "The deadline is March 30."}
	gen := &fakeGenerator{responses: []Response{uncited, uncited, uncited}}
	s := newTestSynthesizer(t, gen)

	_, err := s.Synthesize(context.Background(), "When is the deadline?",
		"[Source: project_alpha.txt | Type: note]\nProject Alpha deadline is March 30, 2024.", nil)

	var synthErr *SynthesisError
	if !errors.As(err, &synthErr) {
		t.Fatalf("Synthesize() error = %v, want *SynthesisError", err)
	}
	if synthErr.Attempts != DefaultSynthesisAttempts {
		t.Errorf("Attempts = %d, want %d", synthErr.Attempts, DefaultSynthesisAttempts)
	}
	if len(gen.prompts) != DefaultSynthesisAttempts {
		t.Fatalf("generator called %d times, want %d", len(gen.prompts), DefaultSynthesisAttempts)
	}
	if !strings.Contains(gen.prompts[1], "rejected") {
		t.Error("retry prompt should carry the rejection reason")
	}
	if strings.Contains(gen.prompts[0], "rejected") {
		t.Error("first prompt must not carry a rejection reason")
	}
}

func TestSynthesizeRecoversOnRetry(t *testing.T) {
	gen := &fakeGenerator{responses: []Response{
		{Answer: "Uncited factual claim."},
		{Answer: "Cited claim.", Sources: []SourceRef{{Title: "notes/a.md", SourceType: "note"}}},
	}}
	s := newTestSynthesizer(t, gen)

	resp, err := s.Synthesize(context.Background(), "question",
		"[Source: notes/a.md | Type: note]\nsome chunk", nil)
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	if resp.Answer != "Cited claim." {
		t.Errorf("answer = %q", resp.Answer)
	}
}

func TestSynthesizeRetriesModelErrors(t *testing.T) {
	gen := &fakeGenerator{
		errs: []error{errors.New("transient"), nil},
		responses: []Response{{}, {
			Answer:  "Cited.",
			Sources: []SourceRef{{Title: "notes/a.md", SourceType: "note"}},
		}},
	}
	s := newTestSynthesizer(t, gen)

	resp, err := s.Synthesize(context.Background(), "q", "[Source: notes/a.md | Type: note]\nchunk", nil)
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	if resp.Answer != "Cited." {
		t.Errorf("answer = %q", resp.Answer)
	}
}

func TestSynthesizePassesHistory(t *testing.T) {
	gen := &fakeGenerator{responses: []Response{{
		Answer: "It refers to the project we discussed.",
	}}}
	s := newTestSynthesizer(t, gen)

	history := []*ai.Message{
		ai.NewUserTextMessage("What is Project Alpha's deadline?"),
		ai.NewModelTextMessage("March 30, 2024."),
	}

	// Follow-up with the no-results sentinel: an uncited answer is valid.
	resp, err := s.Synthesize(context.Background(), "What about it?", rag.NoResultsSentinel, history)
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	if resp.Answer == "" {
		t.Error("empty answer")
	}
	if len(gen.histories[0]) != 2 {
		t.Errorf("generator received %d history messages, want 2", len(gen.histories[0]))
	}
}

func TestValidateCitations(t *testing.T) {
	realContext := "[Source: notes/a.md | Type: note]\nchunk text"

	tests := []struct {
		name       string
		resp       Response
		context    string
		hasHistory bool
		wantErr    bool
	}{
		{
			name:    "no-info answer, empty sources",
			resp:    Response{Answer: "I don't have information about that in my knowledge base."},
			context: realContext,
		},
		{
			name:    "no-info marker is case-insensitive",
			resp:    Response{Answer: "There is NO RELEVANT INFORMATION for this."},
			context: realContext,
		},
		{
			name: "cited answer always valid",
			resp: Response{
				Answer:  "Fact from notes.",
				Sources: []SourceRef{{Title: "notes/a.md", SourceType: "note"}},
			},
			context: realContext,
		},
		{
			name:       "follow-up with sentinel context, uncited",
			resp:       Response{Answer: "It uses the stack we discussed."},
			context:    rag.NoResultsSentinel,
			hasHistory: true,
		},
		{
			name:       "follow-up with fresh chunks, uncited",
			resp:       Response{Answer: "It uses Python and FastAPI."},
			context:    realContext,
			hasHistory: true,
			wantErr:    true,
		},
		{
			name:    "first turn with chunks, uncited",
			resp:    Response{Answer: "The deadline is March 30."},
			context: realContext,
			wantErr: true,
		},
		{
			name:    "first turn with sentinel, uncited",
			resp:    Response{Answer: "Some fabricated claim."},
			context: rag.NoResultsSentinel,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCitations(tt.resp, tt.context, tt.hasHistory)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateCitations() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
