package squad

import (
	"fmt"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
)

// Squad constants
const (
	SquadSize = 15
	Budget    = contracts.Cost(1000) // 100.0m
	TeamCap   = 3
)

// Rules is the constraint model for a legal squad
// ⭐ SSOT: 스쿼드 규칙은 여기서만 정의
type Rules struct {
	Size       int
	Budget     contracts.Cost
	TeamCap    int
	Quotas     map[contracts.Category]int
	Formations []contracts.Formation
}

// DefaultRules returns the standard 15-man, 100.0m, 3-per-team rules
func DefaultRules() Rules {
	return Rules{
		Size:    SquadSize,
		Budget:  Budget,
		TeamCap: TeamCap,
		Quotas: map[contracts.Category]int{
			contracts.GKP: 2,
			contracts.DEF: 5,
			contracts.MID: 5,
			contracts.FWD: 3,
		},
		Formations: DefaultFormations(),
	}
}

// DefaultFormations lists the six legal starting shapes
func DefaultFormations() []contracts.Formation {
	return []contracts.Formation{
		{GKP: 1, DEF: 3, MID: 5, FWD: 2},
		{GKP: 1, DEF: 3, MID: 4, FWD: 3},
		{GKP: 1, DEF: 4, MID: 4, FWD: 2},
		{GKP: 1, DEF: 4, MID: 5, FWD: 1},
		{GKP: 1, DEF: 5, MID: 3, FWD: 2},
		{GKP: 1, DEF: 5, MID: 4, FWD: 1},
	}
}

// Violation names the rule a squad breaks
type Violation struct {
	Rule   string // size, budget, team_cap, quota, duplicate
	Detail string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Rule, v.Detail)
}

// Quota returns the required count for a category
func (r Rules) Quota(c contracts.Category) int {
	return r.Quotas[c]
}

// Validate checks the rules are self-consistent
func (r Rules) Validate() error {
	total := 0
	for _, c := range contracts.Categories {
		if r.Quotas[c] < 0 {
			return fmt.Errorf("%w: negative quota for %s", ErrStructural, c)
		}
		total += r.Quotas[c]
	}
	if total != r.Size {
		return fmt.Errorf("%w: quotas sum to %d, size is %d", ErrStructural, total, r.Size)
	}
	if r.Budget <= 0 || r.TeamCap <= 0 {
		return fmt.Errorf("%w: budget and team cap must be positive", ErrStructural)
	}
	if len(r.Formations) == 0 {
		return fmt.Errorf("%w: no formations", ErrStructural)
	}
	for _, f := range r.Formations {
		for _, c := range contracts.Categories {
			if f.Count(c) > r.Quotas[c] {
				return fmt.Errorf("%w: formation %s needs %d %s, quota is %d",
					ErrStructural, f, f.Count(c), c, r.Quotas[c])
			}
		}
	}
	return nil
}

// Check returns a *Violation for the first broken rule, nil when legal.
// Budget equality is legal.
func (r Rules) Check(s contracts.Squad) error {
	if len(s) != r.Size {
		return &Violation{Rule: "size", Detail: fmt.Sprintf("have %d players, need %d", len(s), r.Size)}
	}

	seen := make(map[int]bool, len(s))
	for _, p := range s {
		if seen[p.ID] {
			return &Violation{Rule: "duplicate", Detail: fmt.Sprintf("player %d selected twice", p.ID)}
		}
		seen[p.ID] = true
	}

	if cost := s.TotalCost(); cost > r.Budget {
		return &Violation{Rule: "budget", Detail: fmt.Sprintf("cost %s exceeds %s", cost, r.Budget)}
	}

	for team, n := range s.CountByTeam() {
		if n > r.TeamCap {
			return &Violation{Rule: "team_cap", Detail: fmt.Sprintf("team %d has %d players, cap %d", team, n, r.TeamCap)}
		}
	}

	counts := s.CountByCategory()
	for _, c := range contracts.Categories {
		if counts[c] != r.Quotas[c] {
			return &Violation{Rule: "quota", Detail: fmt.Sprintf("%s has %d, need %d", c, counts[c], r.Quotas[c])}
		}
	}
	return nil
}

// IsValid reports whether the squad satisfies every rule
func (r Rules) IsValid(s contracts.Squad) bool {
	return r.Check(s) == nil
}
