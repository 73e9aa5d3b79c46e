package memory

import (
	"strings"

	"go.uber.org/zap"

	"github.com/ethanturk-incycle/memoripy/tokenizer"
	"github.com/ethanturk-incycle/memoripy/types"
)

// ContextBuilderConfig configures prompt-context assembly.
type ContextBuilderConfig struct {
	// TokenBudget caps the total tokens of the assembled context.
	TokenBudget int `json:"token_budget" yaml:"token_budget"`

	// RecentN is how many of the newest short-term interactions are included
	// verbatim as conversation tail.
	RecentN int `json:"recent_n" yaml:"recent_n"`

	// TopK is how many retrieved interactions are included.
	TopK int `json:"top_k" yaml:"top_k"`
}

// DefaultContextBuilderConfig returns sensible defaults.
func DefaultContextBuilderConfig() ContextBuilderConfig {
	return ContextBuilderConfig{
		TokenBudget: 2048,
		RecentN:     5,
		TopK:        5,
	}
}

// ContextBuilder assembles the prompt context for a new response: the most
// relevant past interactions from both tiers plus the recent conversation
// tail, bounded by a token budget. The recent window is excluded from
// retrieval so the same interaction never appears twice.
type ContextBuilder struct {
	config  ContextBuilderConfig
	counter tokenizer.Counter
	logger  *zap.Logger
}

// NewContextBuilder creates a context builder. A nil counter falls back to
// the heuristic rune-based counter.
func NewContextBuilder(config ContextBuilderConfig, counter tokenizer.Counter, logger *zap.Logger) *ContextBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if counter == nil {
		counter = tokenizer.HeuristicCounter{}
	}
	return &ContextBuilder{
		config:  config,
		counter: counter,
		logger:  logger.With(zap.String("component", "context_builder")),
	}
}

// Build retrieves relevant memories from the store and formats them together
// with the recent conversation tail. Blocks are added until the token budget
// is exhausted; relevant memories take precedence over older recent turns.
func (b *ContextBuilder) Build(store *MemoryStore, queryEmbedding []float64, queryConcepts []string) (string, error) {
	relevant, err := store.Retrieve(queryEmbedding, queryConcepts, b.config.RecentN, b.config.TopK)
	if err != nil {
		return "", err
	}
	recent := store.Recent(b.config.RecentN)

	var sb strings.Builder
	used := 0

	appendSection := func(header string, records []*types.MemoryRecord) error {
		wroteHeader := false
		for _, rec := range records {
			block := formatInteraction(rec)
			text := block
			if !wroteHeader {
				text = header + "\n" + block
			}
			cost, err := b.counter.CountTokens(text)
			if err != nil {
				return err
			}
			if b.config.TokenBudget > 0 && used+cost > b.config.TokenBudget {
				return nil
			}
			sb.WriteString(text)
			used += cost
			wroteHeader = true
		}
		return nil
	}

	if err := appendSection("Relevant past interactions:", relevant); err != nil {
		return "", err
	}
	if len(recent) > 0 && sb.Len() > 0 {
		sb.WriteString("\n")
	}
	if err := appendSection("Recent conversation:", recent); err != nil {
		return "", err
	}

	return sb.String(), nil
}

func formatInteraction(rec *types.MemoryRecord) string {
	var sb strings.Builder
	sb.WriteString("User: ")
	sb.WriteString(rec.Prompt)
	sb.WriteString("\nAssistant: ")
	sb.WriteString(rec.Output)
	sb.WriteString("\n")
	return sb.String()
}
