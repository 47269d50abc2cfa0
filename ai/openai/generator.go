package openai

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/poiesic/lexrag/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrEmptyCompletion indicates the model returned only whitespace.
var ErrEmptyCompletion = errors.New("model returned an empty completion")

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	client      llms.Model
	temperature float64
	logger      *slog.Logger
}

// newGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GeneratorHost),
		openai.WithToken(config.Token),
		openai.WithModel(config.GeneratorModel),
	)
	if err != nil {
		return nil, err
	}

	return newGeneratorWithModel(client, config.Temperature), nil
}

// newGeneratorWithModel wraps any langchaingo model.
func newGeneratorWithModel(client llms.Model, temperature float64) *Generator {
	return &Generator{
		client:      client,
		temperature: temperature,
		logger:      slog.Default().With("component", "openai-generator"),
	}
}

// NewGenerator creates a new generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// NewGeneratorFromModel adapts an existing langchaingo model to ai.Generator.
func NewGeneratorFromModel(client llms.Model, temperature float64) ai.Generator {
	return newGeneratorWithModel(client, temperature)
}

// Generate sends the prompt as a single human message and returns the completion.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	g.logger.Debug("generating completion", "promptLength", len(prompt))

	completion, err := llms.GenerateFromSinglePrompt(ctx, g.client, prompt, llms.WithTemperature(g.temperature))
	if err != nil {
		g.logger.Error("failed to generate completion", "err", err)
		return "", err
	}

	if strings.TrimSpace(completion) == "" {
		g.logger.Warn("generator returned empty completion")
		return "", ErrEmptyCompletion
	}

	return completion, nil
}
