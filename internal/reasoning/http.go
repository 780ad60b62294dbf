package reasoning

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
	"github.com/wonny/fpl-squad/backend/pkg/httputil"
)

// ErrEmptyReason is returned when the endpoint answers without text
var ErrEmptyReason = errors.New("reasoning endpoint returned empty text")

// Request is the JSON body posted to the reasoning endpoint
type Request struct {
	Model  string       `json:"model,omitempty"`
	Prompt string       `json:"prompt"`
	Out    PlayerDigest `json:"out"`
	In     PlayerDigest `json:"in"`
}

// PlayerDigest is the subset of player data sent upstream
type PlayerDigest struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Team       string  `json:"team"`
	Category   string  `json:"category"`
	Cost       float64 `json:"cost"`
	Score      float64 `json:"score"`
	Form       float64 `json:"form"`
	ICTIndex   float64 `json:"ict_index"`
	Difficulty float64 `json:"avg_difficulty"`
}

// Response is the expected JSON reply
type Response struct {
	Reason string `json:"reason"`
}

// HTTP asks a remote text service for the reason
type HTTP struct {
	client   *httputil.Client
	endpoint string
	model    string
}

// NewHTTP creates a remote generator. The client should carry auth
// headers and limits (see cmd wiring).
func NewHTTP(client *httputil.Client, endpoint, model string) *HTTP {
	return &HTTP{client: client, endpoint: endpoint, model: model}
}

// Reason posts both players and returns the trimmed reply
func (h *HTTP) Reason(ctx context.Context, out, in contracts.ScoredPlayer) (string, error) {
	req := Request{
		Model:  h.model,
		Prompt: prompt(out, in),
		Out:    digest(out),
		In:     digest(in),
	}

	var resp Response
	if err := h.client.PostJSONInto(ctx, h.endpoint, req, &resp); err != nil {
		return "", fmt.Errorf("reasoning %d -> %d: %w", out.ID, in.ID, err)
	}

	text := strings.TrimSpace(resp.Reason)
	if text == "" {
		return "", ErrEmptyReason
	}
	return text, nil
}

func prompt(out, in contracts.ScoredPlayer) string {
	return fmt.Sprintf(
		"In one or two sentences, explain why a fantasy manager should transfer out %s (%s) and bring in %s (%s).",
		out.DisplayName(), out.TeamName, in.DisplayName(), in.TeamName,
	)
}

func digest(p contracts.ScoredPlayer) PlayerDigest {
	return PlayerDigest{
		ID:         p.ID,
		Name:       p.DisplayName(),
		Team:       p.TeamName,
		Category:   p.Category.String(),
		Cost:       p.Cost.Millions(),
		Score:      p.Score,
		Form:       p.Form,
		ICTIndex:   p.ICTIndex,
		Difficulty: contracts.AverageDifficulty(p.UpcomingFixtures),
	}
}

// Fallback tries primary first and uses secondary when it fails
type Fallback struct {
	primary   contracts.ReasonGenerator
	secondary contracts.ReasonGenerator
}

// NewFallback chains two generators
func NewFallback(primary, secondary contracts.ReasonGenerator) *Fallback {
	return &Fallback{primary: primary, secondary: secondary}
}

// Reason returns the secondary's text when the primary errors
func (f *Fallback) Reason(ctx context.Context, out, in contracts.ScoredPlayer) (string, error) {
	text, err := f.primary.Reason(ctx, out, in)
	if err == nil {
		return text, nil
	}
	if f.secondary == nil {
		return "", err
	}
	return f.secondary.Reason(ctx, out, in)
}
