package squad

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
)

// legalSquad costs 14×67 + 62 = 1000 exactly, one player per team
func legalSquad() contracts.Squad {
	var s contracts.Squad
	id := 1
	for _, c := range contracts.Categories {
		for i := 0; i < DefaultRules().Quota(c); i++ {
			s = append(s, player(id, c, contracts.TeamID(id), 67, float64(id)))
			id++
		}
	}
	s[14].Cost = 62
	return s
}

func TestDefaultRulesValidate(t *testing.T) {
	require.NoError(t, DefaultRules().Validate())

	broken := DefaultRules()
	broken.Quotas = map[contracts.Category]int{contracts.GKP: 2, contracts.DEF: 5, contracts.MID: 5, contracts.FWD: 2}
	assert.ErrorIs(t, broken.Validate(), ErrStructural)

	tooWide := DefaultRules()
	tooWide.Formations = []contracts.Formation{{GKP: 1, DEF: 6, MID: 3, FWD: 1}}
	assert.ErrorIs(t, tooWide.Validate(), ErrStructural)
}

func TestCheck(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name     string
		mutate   func(s contracts.Squad) contracts.Squad
		wantRule string
	}{
		{
			name:   "budget exactly exhausted is valid",
			mutate: func(s contracts.Squad) contracts.Squad { return s },
		},
		{
			name: "one tenth over budget",
			mutate: func(s contracts.Squad) contracts.Squad {
				s[0].Cost++
				return s
			},
			wantRule: "budget",
		},
		{
			name:     "too few players",
			mutate:   func(s contracts.Squad) contracts.Squad { return s[:14] },
			wantRule: "size",
		},
		{
			name: "four from one team",
			mutate: func(s contracts.Squad) contracts.Squad {
				for i := 0; i < 4; i++ {
					s[i].Team = 99
				}
				return s
			},
			wantRule: "team_cap",
		},
		{
			name: "three from one team is fine",
			mutate: func(s contracts.Squad) contracts.Squad {
				for i := 0; i < 3; i++ {
					s[i].Team = 99
				}
				return s
			},
		},
		{
			name: "quota broken",
			mutate: func(s contracts.Squad) contracts.Squad {
				s[0].Category = contracts.FWD
				return s
			},
			wantRule: "quota",
		},
		{
			name: "duplicate player",
			mutate: func(s contracts.Squad) contracts.Squad {
				s[1] = s[0]
				return s
			},
			wantRule: "duplicate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.mutate(legalSquad())
			err := rules.Check(s)
			if tt.wantRule == "" {
				assert.NoError(t, err)
				assert.True(t, rules.IsValid(s))
				return
			}

			var v *Violation
			require.True(t, errors.As(err, &v), "expected *Violation, got %v", err)
			assert.Equal(t, tt.wantRule, v.Rule)
			assert.False(t, rules.IsValid(s))
		})
	}
}

func TestLegalSquadCostsExactlyBudget(t *testing.T) {
	assert.Equal(t, Budget, legalSquad().TotalCost())
}
