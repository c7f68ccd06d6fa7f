// Package optimizer asks a language model to arrange the fetched options into
// a plan. Any failure is returned to the caller, which falls back to the
// deterministic synthesizer.
package optimizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Domenick1991/tripplanner/config"
	"github.com/Domenick1991/tripplanner/internal/domain"
)

var (
	ErrNotConfigured   = errors.New("optimizer not configured")
	ErrMalformedOutput = errors.New("malformed optimizer output")
)

type LLMOptimizer struct {
	gen    Generator
	logger *slog.Logger
}

func NewLLMOptimizer(gen Generator, logger *slog.Logger) *LLMOptimizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMOptimizer{gen: gen, logger: logger}
}

// New builds the optimizer for the configured provider. Without an API key
// the optimizer is still returned and every call reports ErrNotConfigured.
func New(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (*LLMOptimizer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIKey == "" {
		logger.Warn("ai api key not configured, plans will use the fallback synthesizer", "provider", cfg.Provider)
		return NewLLMOptimizer(nil, logger), nil
	}

	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewLLMOptimizer(NewOpenAIGenerator(cfg.APIKey, cfg.Model), logger), nil
	case "gemini", "":
		gen, err := NewGeminiGenerator(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return NewLLMOptimizer(gen, logger), nil
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.Provider)
	}
}

func (o *LLMOptimizer) Optimize(ctx context.Context, tc domain.TripContext, data domain.SourceData) (*domain.Plan, error) {
	if o.gen == nil {
		return nil, ErrNotConfigured
	}

	text, err := o.gen.Generate(ctx, BuildPrompt(tc, data))
	if err != nil {
		return nil, err
	}

	plan, err := ParsePlan(text)
	if err != nil {
		o.logger.Warn("discarding optimizer output", "err", err, "bytes", len(text))
		return nil, err
	}
	return plan, nil
}

func (o *LLMOptimizer) Close() error {
	if c, ok := o.gen.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type rawBreakdown struct {
	Flights        *float64 `json:"flights"`
	Accommodation  *float64 `json:"accommodation"`
	Transportation *float64 `json:"transportation"`
	Activities     *float64 `json:"activities"`
}

type rawPlan struct {
	DailyItinerary     []domain.DailyItineraryEntry `json:"dailyItinerary"`
	Breakdown          *rawBreakdown                `json:"breakdown"`
	TotalEstimatedCost *float64                     `json:"totalEstimatedCost"`
}

// ParsePlan decodes model output into a plan. Only the shape is checked here;
// the orchestrator decides whether the content is usable.
func ParsePlan(text string) (*domain.Plan, error) {
	var raw rawPlan
	if err := json.Unmarshal([]byte(CleanJSON(text)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	b := raw.Breakdown
	if b == nil || b.Flights == nil || b.Accommodation == nil || b.Transportation == nil || b.Activities == nil {
		return nil, fmt.Errorf("%w: breakdown incomplete", ErrMalformedOutput)
	}

	plan := &domain.Plan{
		Source: domain.PlanSourceOptimizer,
		Breakdown: domain.CostBreakdown{
			Flights:        *b.Flights,
			Accommodation:  *b.Accommodation,
			Transportation: *b.Transportation,
			Activities:     *b.Activities,
		},
		DailyItinerary: raw.DailyItinerary,
	}
	plan.TotalEstimatedCost = plan.Breakdown.Total()
	if raw.TotalEstimatedCost != nil {
		plan.TotalEstimatedCost = *raw.TotalEstimatedCost
	}
	return plan, nil
}

// CleanJSON strips markdown fences and any prose around the outermost object.
func CleanJSON(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	start, end := strings.Index(s, "{"), strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}
