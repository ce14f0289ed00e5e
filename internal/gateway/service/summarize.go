package service

import (
	"context"
	"time"

	"github.com/docbrief/docbrief/pkg/ollama"
	"github.com/docbrief/docbrief/pkg/slogx"
)

const (
	// DefaultMaxLength is the target summary length in words.
	DefaultMaxLength = 500

	// Summaries and analyses run cooler than free-form generation so
	// repeated calls stay consistent.
	summaryTemperature = 0.3
	defaultTemperature = 0.7
)

// LLM is the slice of the inference client the services need. Satisfied by
// *ollama.Client; fakes implement it in tests.
type LLM interface {
	Generate(ctx context.Context, req ollama.GenerateRequest) (*ollama.GenerateResponse, error)
	Chat(ctx context.Context, req ollama.ChatRequest) (*ollama.ChatResponse, error)
	ListModels(ctx context.Context) ([]ollama.ModelInfo, error)
	Healthy(ctx context.Context) bool
}

// Result is the outcome of one inference call, carrying what the usage log
// needs alongside the output itself.
type Result struct {
	Output          string
	Model           string
	PromptChars     int
	CompletionChars int
	Duration        time.Duration
}

// SummarizeService builds prompts and runs them through the inference server.
type SummarizeService struct {
	LLM LLM
}

type SummarizeInput struct {
	Text      string
	Model     string
	MaxLength int
	Style     string
}

// Summarize runs a styled summarization over the given text.
func (s *SummarizeService) Summarize(ctx context.Context, in SummarizeInput) (*Result, error) {
	if in.MaxLength <= 0 {
		in.MaxLength = DefaultMaxLength
	}

	log := slogx.FromContext(ctx)
	log.Info("summarizing text", "chars", len(in.Text), "style", in.Style)

	start := time.Now()
	resp, err := s.LLM.Generate(ctx, ollama.GenerateRequest{
		Model:  in.Model,
		Prompt: summaryPrompt(in.Text),
		System: summarySystemPrompt(in.Style, in.MaxLength),
		Options: map[string]any{
			"temperature": summaryTemperature,
			// Rough words-to-tokens conversion for the length cap.
			"num_predict": in.MaxLength * 2,
		},
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Output:          resp.Response,
		Model:           resp.Model,
		PromptChars:     len(in.Text),
		CompletionChars: len(resp.Response),
		Duration:        time.Since(start),
	}, nil
}

type AnalyzeInput struct {
	Text         string
	AnalysisType string
	Model        string
}

// Analyze runs a structured document analysis (general, sentiment, entities
// or topics) over the given text.
func (s *SummarizeService) Analyze(ctx context.Context, in AnalyzeInput) (*Result, error) {
	start := time.Now()
	resp, err := s.LLM.Generate(ctx, ollama.GenerateRequest{
		Model:  in.Model,
		Prompt: analysisPrompt(in.AnalysisType, in.Text),
		Options: map[string]any{
			"temperature": summaryTemperature,
		},
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Output:          resp.Response,
		Model:           resp.Model,
		PromptChars:     len(in.Text),
		CompletionChars: len(resp.Response),
		Duration:        time.Since(start),
	}, nil
}

type QueryInput struct {
	Prompt  string
	Context string
	Model   string
}

// Query runs a free-form prompt, optionally grounded in caller-provided
// context material.
func (s *SummarizeService) Query(ctx context.Context, in QueryInput) (*Result, error) {
	full := queryPrompt(in.Prompt, in.Context)

	start := time.Now()
	resp, err := s.LLM.Generate(ctx, ollama.GenerateRequest{
		Model:  in.Model,
		Prompt: full,
		Options: map[string]any{
			"temperature": defaultTemperature,
		},
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Output:          resp.Response,
		Model:           resp.Model,
		PromptChars:     len(full),
		CompletionChars: len(resp.Response),
		Duration:        time.Since(start),
	}, nil
}

type ChatInput struct {
	Messages    []ollama.Message
	Model       string
	Temperature float64
}

// Chat runs a multi-turn conversation.
func (s *SummarizeService) Chat(ctx context.Context, in ChatInput) (*Result, error) {
	if in.Temperature <= 0 {
		in.Temperature = defaultTemperature
	}

	promptChars := 0
	for _, m := range in.Messages {
		promptChars += len(m.Content)
	}

	start := time.Now()
	resp, err := s.LLM.Chat(ctx, ollama.ChatRequest{
		Model:    in.Model,
		Messages: in.Messages,
		Options: map[string]any{
			"temperature": in.Temperature,
		},
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Output:          resp.Message.Content,
		Model:           resp.Model,
		PromptChars:     promptChars,
		CompletionChars: len(resp.Message.Content),
		Duration:        time.Since(start),
	}, nil
}
