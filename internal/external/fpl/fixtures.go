package fpl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
)

// DifficultySource selects how fixture difficulty is rated
type DifficultySource string

const (
	// DifficultyOfficial uses team_h_difficulty / team_a_difficulty
	DifficultyOfficial DifficultySource = "official"
	// DifficultyStrength derives difficulty from the opponent's strength rating
	DifficultyStrength DifficultySource = "strength"
)

// ParseDifficultySource parses "official" or "strength" (empty means official)
func ParseDifficultySource(s string) (DifficultySource, error) {
	switch DifficultySource(strings.ToLower(strings.TrimSpace(s))) {
	case "", DifficultyOfficial:
		return DifficultyOfficial, nil
	case DifficultyStrength:
		return DifficultyStrength, nil
	default:
		return "", fmt.Errorf("unknown difficulty source %q", s)
	}
}

// BuildFixtureMap lists, per team name, the next unfinished fixtures from
// fromGameweek onwards in gameweek order. horizon <= 0 keeps all of them.
// Every known team has an entry, possibly empty.
func BuildFixtureMap(teams []Team, fixtures []FixtureRecord, fromGameweek, horizon int, source DifficultySource) contracts.FixtureMap {
	byID := make(map[int]Team, len(teams))
	out := make(contracts.FixtureMap, len(teams))
	for _, t := range teams {
		byID[t.ID] = t
		out[t.Name] = []contracts.Fixture{}
	}

	upcoming := make([]FixtureRecord, 0, len(fixtures))
	for _, f := range fixtures {
		if f.Event == nil || f.Finished || *f.Event < fromGameweek {
			continue
		}
		upcoming = append(upcoming, f)
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		if *upcoming[i].Event != *upcoming[j].Event {
			return *upcoming[i].Event < *upcoming[j].Event
		}
		return upcoming[i].ID < upcoming[j].ID
	})

	lo, hi := strengthRange(teams)
	add := func(team Team, fx contracts.Fixture) {
		if horizon > 0 && len(out[team.Name]) >= horizon {
			return
		}
		out[team.Name] = append(out[team.Name], fx)
	}

	for _, f := range upcoming {
		home, okH := byID[f.TeamH]
		away, okA := byID[f.TeamA]
		if !okH || !okA {
			continue
		}

		homeDifficulty, awayDifficulty := f.TeamHDifficulty, f.TeamADifficulty
		if source == DifficultyStrength {
			// 상대 팀이 실제로 뛰는 쪽(원정/홈)의 전력으로 평가
			homeDifficulty = NormalizeStrength(away.StrengthOverallAway, lo, hi)
			awayDifficulty = NormalizeStrength(home.StrengthOverallHome, lo, hi)
		}

		add(home, contracts.Fixture{
			Gameweek:   *f.Event,
			Opponent:   away.ShortName,
			Difficulty: clampDifficulty(homeDifficulty),
			Venue:      contracts.Home,
		})
		add(away, contracts.Fixture{
			Gameweek:   *f.Event,
			Opponent:   home.ShortName,
			Difficulty: clampDifficulty(awayDifficulty),
			Venue:      contracts.Away,
		})
	}

	return out
}

// strengthRange is min/max over both home and away overall strengths
func strengthRange(teams []Team) (int, int) {
	if len(teams) == 0 {
		return 0, 0
	}
	lo, hi := teams[0].StrengthOverallHome, teams[0].StrengthOverallHome
	for _, t := range teams {
		lo = min(lo, t.StrengthOverallHome, t.StrengthOverallAway)
		hi = max(hi, t.StrengthOverallHome, t.StrengthOverallAway)
	}
	return lo, hi
}

func clampDifficulty(d int) int {
	if d < 1 || d > 5 {
		return contracts.NeutralDifficulty
	}
	return d
}
