package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/brightboard/brightboard/internal/domain"
	"github.com/brightboard/brightboard/internal/telemetry"
)

// InsufficientContextAnswer is returned when retrieval finds nothing. A
// defined success outcome, not an error.
const InsufficientContextAnswer = "I don't have enough information on this board to answer that question."

const answerSystemPrompt = "You are a research assistant for a shared workspace board. " +
	"Answer the question using only the provided context. Each context block is " +
	"labeled with a source marker like [S1]. Cite the markers of the sources you " +
	"used. If the context does not contain the answer, say so."

// Retriever defines the retrieval surface the answerer depends on.
type Retriever interface {
	Retrieve(ctx context.Context, input RetrieveInput) ([]*domain.RetrievedChunk, error)
}

// AnswerGenerator defines the text-generation surface the answerer depends on.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, system, user string) (string, error)
}

// Source attributes one retrieved chunk that grounded the answer. Sources
// map 1:1 by position to the context blocks submitted to the generator, in
// retrieval rank order.
type Source struct {
	UnitID     string
	ChunkIndex int
	Relevance  float32
}

// AnswerInput scopes one question. TopK overrides the configured retrieval
// depth when positive.
type AnswerInput struct {
	Query   string
	BoardID string
	UnitIDs []string
	TopK    int
}

// AnswerOutput carries the grounded answer plus its attributions.
type AnswerOutput struct {
	Answer  string
	Sources []Source
}

// AnswerConfig controls retrieval depth and prompt size.
type AnswerConfig struct {
	TopK            int
	ContextMaxChars int
}

// DefaultAnswerConfig provides sane defaults for answering.
func DefaultAnswerConfig() AnswerConfig {
	return AnswerConfig{
		TopK:            DefaultRetrieveLimit,
		ContextMaxChars: 8000,
	}
}

// AnswerService assembles retrieved chunks into a grounded prompt and
// produces an attributed answer.
type AnswerService struct {
	retriever Retriever
	generator AnswerGenerator
	cfg       AnswerConfig
}

func NewAnswerService(retriever Retriever, generator AnswerGenerator) *AnswerService {
	return NewAnswerServiceWithConfig(retriever, generator, DefaultAnswerConfig())
}

func NewAnswerServiceWithConfig(retriever Retriever, generator AnswerGenerator, cfg AnswerConfig) *AnswerService {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultRetrieveLimit
	}
	if cfg.ContextMaxChars <= 0 {
		cfg.ContextMaxChars = DefaultAnswerConfig().ContextMaxChars
	}
	return &AnswerService{
		retriever: retriever,
		generator: generator,
		cfg:       cfg,
	}
}

// Answer retrieves the board's most relevant chunks and grounds a generated
// answer in them.
func (s *AnswerService) Answer(ctx context.Context, input AnswerInput) (*AnswerOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "AnswerService.Answer", telemetry.SpanAttributes{
		BoardID:   input.BoardID,
		Operation: "answer",
	})
	defer span.End()

	limit := input.TopK
	if limit == 0 {
		limit = s.cfg.TopK
	}

	chunks, err := s.retriever.Retrieve(ctx, RetrieveInput{
		Query:   input.Query,
		BoardID: input.BoardID,
		Limit:   limit,
		UnitIDs: input.UnitIDs,
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	if len(chunks) == 0 {
		return &AnswerOutput{
			Answer:  InsufficientContextAnswer,
			Sources: []Source{},
		}, nil
	}

	contextBlock := buildContextBlock(chunks, s.cfg.ContextMaxChars)
	userPrompt := fmt.Sprintf("Context:\n%s\nQuestion: %s", contextBlock, input.Query)

	answer, err := s.generator.GenerateAnswer(ctx, answerSystemPrompt, userPrompt)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	sources := make([]Source, len(chunks))
	for i, c := range chunks {
		sources[i] = Source{
			UnitID:     c.UnitID,
			ChunkIndex: c.ChunkIndex,
			Relevance:  c.Similarity,
		}
	}

	return &AnswerOutput{
		Answer:  answer,
		Sources: sources,
	}, nil
}

// buildContextBlock labels each chunk with its source marker in rank order.
// When the combined text would exceed maxChars, every chunk is truncated to
// an equal share (keeping its earliest characters) rather than dropping
// whole chunks, so each source marker still maps to a context block.
func buildContextBlock(chunks []*domain.RetrievedChunk, maxChars int) string {
	total := 0
	for _, c := range chunks {
		total += len([]rune(c.ChunkText))
	}

	perChunk := 0
	if total > maxChars {
		perChunk = maxChars / len(chunks)
		if perChunk < 1 {
			perChunk = 1
		}
	}

	var b strings.Builder
	for i, c := range chunks {
		text := c.ChunkText
		if perChunk > 0 {
			runes := []rune(text)
			if len(runes) > perChunk {
				text = string(runes[:perChunk])
			}
		}
		fmt.Fprintf(&b, "[S%d] %s\n\n", i+1, text)
	}
	return b.String()
}
