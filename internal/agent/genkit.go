package agent

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// GenkitClassifier is the production Classifier: one structured-output model
// call per verdict.
type GenkitClassifier struct {
	g         *genkit.Genkit
	modelName string
}

// NewGenkitClassifier creates a classifier bound to the given model.
func NewGenkitClassifier(g *genkit.Genkit, modelName string) *GenkitClassifier {
	return &GenkitClassifier{g: g, modelName: modelName}
}

// Classify requests a structured verdict from the model.
func (c *GenkitClassifier) Classify(ctx context.Context, system, prompt string) (Verdict, error) {
	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.modelName),
		ai.WithSystem(system),
		ai.WithPrompt(prompt),
		ai.WithOutputType(Verdict{}),
	)
	if err != nil {
		return Verdict{}, fmt.Errorf("generating verdict: %w", err)
	}

	var verdict Verdict
	if err := resp.Output(&verdict); err != nil {
		return Verdict{}, fmt.Errorf("decoding verdict: %w", err)
	}
	return verdict, nil
}

// GenkitGenerator is the production Generator: a structured-output model
// call with optional conversation history.
type GenkitGenerator struct {
	g         *genkit.Genkit
	modelName string
}

// NewGenkitGenerator creates a generator bound to the given model.
func NewGenkitGenerator(g *genkit.Genkit, modelName string) *GenkitGenerator {
	return &GenkitGenerator{g: g, modelName: modelName}
}

// Generate requests a structured response from the model.
func (g *GenkitGenerator) Generate(ctx context.Context, system string, history []*ai.Message, prompt string) (Response, error) {
	opts := []ai.GenerateOption{
		ai.WithModelName(g.modelName),
		ai.WithSystem(system),
	}
	if len(history) > 0 {
		opts = append(opts, ai.WithMessages(history...))
	}
	opts = append(opts,
		ai.WithPrompt(prompt),
		ai.WithOutputType(Response{}),
	)

	resp, err := genkit.Generate(ctx, g.g, opts...)
	if err != nil {
		return Response{}, fmt.Errorf("generating response: %w", err)
	}

	var out Response
	if err := resp.Output(&out); err != nil {
		return Response{}, fmt.Errorf("decoding response: %w", err)
	}
	return out, nil
}
