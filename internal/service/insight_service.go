package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/djval79/caresync1/internal/domain"
	"github.com/djval79/caresync1/internal/state"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"google.golang.org/genai"
)

// Insight types
const (
	InsightCompliance   = "compliance"
	InsightOptimization = "optimization"
	InsightWarning      = "warning"
)

// Insight one categorised rota observation
type Insight struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// InsightProvider produces rota insights from staff and shift snapshots.
type InsightProvider interface {
	RotaInsights(ctx context.Context, staff []domain.Staff, shifts []domain.Shift) ([]Insight, error)
}

// FallbackInsights returned whenever the provider fails.
func FallbackInsights() []Insight {
	return []Insight{
		{
			Title:       "Compliance Alert",
			Description: "One or more staff members are approaching the 48-hour weekly limit.",
			Type:        InsightCompliance,
		},
		{
			Title:       "Efficiency Check",
			Description: "Consider assigning Emma Wilson to the unassigned afternoon shift to reduce potential bank staff costs.",
			Type:        InsightOptimization,
		},
	}
}

// InsightResult insights plus whether they are the fallback set
type InsightResult struct {
	Insights []Insight `json:"insights"`
	Fallback bool      `json:"fallback"`
}

// InsightService wraps a provider with a timeout, a fixed fallback and
// per-key request coalescing. There is no retry.
type InsightService struct {
	st       *state.State
	provider InsightProvider
	timeout  time.Duration
	group    singleflight.Group
	logger   *zap.Logger
}

func NewInsightService(st *state.State, provider InsightProvider, timeout time.Duration, logger *zap.Logger) *InsightService {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &InsightService{st: st, provider: provider, timeout: timeout, logger: logger}
}

// Insights never fails. Concurrent calls with the same key share one
// outstanding provider request; it ends on the service timeout only, never
// on the cancellation of whichever caller started it.
func (s *InsightService) Insights(ctx context.Context, key string) InsightResult {
	v, _, _ := s.group.Do(key, func() (interface{}, error) {
		return s.fetch(context.WithoutCancel(ctx)), nil
	})
	return v.(InsightResult)
}

func (s *InsightService) fetch(ctx context.Context) InsightResult {
	if s.provider == nil {
		return InsightResult{Insights: FallbackInsights(), Fallback: true}
	}
	snap := s.st.Snapshot()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	insights, err := s.provider.RotaInsights(ctx, snap.Staff, snap.Shifts)
	if err != nil {
		s.logger.Warn("rota insights unavailable, using fallback", zap.Error(err))
		return InsightResult{Insights: FallbackInsights(), Fallback: true}
	}
	return InsightResult{Insights: insights}
}

// GeminiInsightProvider asks a Gemini model for three insights with a JSON
// response schema.
type GeminiInsightProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiInsightProvider creates the genai client. baseURL overrides the
// API endpoint and is empty in production.
func NewGeminiInsightProvider(ctx context.Context, apiKey, model, baseURL string) (*GeminiInsightProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.5-pro"
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiInsightProvider{client: client, model: model}, nil
}

func insightSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title":       {Type: genai.TypeString},
				"description": {Type: genai.TypeString},
				"type": {
					Type: genai.TypeString,
					Enum: []string{InsightCompliance, InsightOptimization, InsightWarning},
				},
			},
			Required: []string{"title", "description", "type"},
		},
	}
}

func rotaPrompt(staff []domain.Staff, shifts []domain.Shift) (string, error) {
	staffJSON, err := json.Marshal(staff)
	if err != nil {
		return "", err
	}
	shiftJSON, err := json.Marshal(shifts)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`As a UK Care Quality Commission (CQC) expert and scheduling specialist, analyze this current rota and staff list for a care setting.
Staff Data: %s
Shift Data: %s

Provide 3 actionable insights in JSON format.
Focus on:
1. Compliance (Working Time Regulations - max 48 hours).
2. Continuity of Care (Staff consistency).
3. Efficiency (Overtime costs vs bank staff).`, staffJSON, shiftJSON), nil
}

func (p *GeminiInsightProvider) RotaInsights(ctx context.Context, staff []domain.Staff, shifts []domain.Shift) ([]Insight, error) {
	prompt, err := rotaPrompt(staff, shifts)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   insightSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}
	return ParseInsights(resp.Text())
}

// ParseInsights decodes a JSON array of insights. An empty body is an empty
// list; anything that is not a well-formed array is an error.
func ParseInsights(text string) ([]Insight, error) {
	if text == "" {
		return []Insight{}, nil
	}
	var out []Insight
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("failed to parse insights: %w", err)
	}
	if out == nil {
		return nil, errors.New("insights response is not an array")
	}
	return out, nil
}
