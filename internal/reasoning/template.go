package reasoning

import (
	"context"
	"fmt"
	"strings"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
)

// Template builds deterministic reason text from the two players' numbers
type Template struct {
	horizon int
}

// NewTemplate creates a template generator; horizon limits the fixtures quoted
func NewTemplate(horizon int) *Template {
	if horizon <= 0 {
		horizon = 3
	}
	return &Template{horizon: horizon}
}

// Reason never fails
func (t *Template) Reason(_ context.Context, out, in contracts.ScoredPlayer) (string, error) {
	parts := []string{
		fmt.Sprintf("%s (%s, %s) scores %.2f vs %.2f for %s",
			in.DisplayName(), in.TeamName, in.Cost, in.Score, out.Score, out.DisplayName()),
	}

	switch {
	case in.Form > out.Form:
		parts = append(parts, fmt.Sprintf("form %.1f vs %.1f", in.Form, out.Form))
	case in.ICTIndex > out.ICTIndex:
		parts = append(parts, fmt.Sprintf("ICT %.1f vs %.1f", in.ICTIndex, out.ICTIndex))
	}

	if fixtures := describeFixtures(in.UpcomingFixtures, t.horizon); fixtures != "" {
		parts = append(parts, "next: "+fixtures)
	}

	if delta := in.Cost - out.Cost; delta < 0 {
		parts = append(parts, fmt.Sprintf("saves %s", -delta))
	}

	if !out.Available() {
		parts = append(parts, fmt.Sprintf("%s is flagged (%s)", out.DisplayName(), out.Status))
	}

	return strings.Join(parts, "; ") + ".", nil
}

// describeFixtures formats "CHE (H, 4), bur (A, 2)"; away opponents lower-case
func describeFixtures(fixtures []contracts.Fixture, n int) string {
	if len(fixtures) > n {
		fixtures = fixtures[:n]
	}
	out := make([]string, 0, len(fixtures))
	for _, f := range fixtures {
		opp := f.Opponent
		if f.Venue == contracts.Away {
			opp = strings.ToLower(opp)
		}
		out = append(out, fmt.Sprintf("%s (%s, %d)", opp, f.Venue, f.Difficulty))
	}
	return strings.Join(out, ", ")
}
