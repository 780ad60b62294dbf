package fpl

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
)

var (
	clubSuffix = regexp.MustCompile(`\s+(fc|afc|cf|sc)\b`)
	teamSuffix = regexp.MustCompile(`\s+(fc|afc|cf|sc|utd|united|hotspur)\b`)
)

// 공급처마다 다른 구단 표기를 FPL 표기로 맞춤
var teamAliases = map[string]string{
	"brighton & hove albion":  "brighton",
	"wolverhampton wanderers": "wolves",
	"manchester city":         "man city",
	"manchester united":       "man utd",
	"nottingham forest":       "nott'm forest",
	"tottenham hotspur":       "spurs",
	"tottenham":               "spurs",
}

var canonicalAliases = func() map[string]bool {
	out := make(map[string]bool, len(teamAliases))
	for _, v := range teamAliases {
		out[v] = true
	}
	return out
}()

// MatchThreshold is the minimum similarity for a fuzzy team match
const MatchThreshold = 0.8

// SanitizeTeamName lowercases a club name, strips common suffixes and
// applies the alias table.
func SanitizeTeamName(name string) string {
	s := strings.Join(strings.Fields(strings.ToLower(name)), " ")
	if canonicalAliases[s] {
		return s
	}
	for _, suffix := range []*regexp.Regexp{clubSuffix, teamSuffix} {
		if alias, ok := teamAliases[s]; ok {
			return alias
		}
		s = strings.TrimSpace(suffix.ReplaceAllString(s, ""))
	}
	if alias, ok := teamAliases[s]; ok {
		return alias
	}
	return s
}

// Matcher resolves club names from another source onto canonical FPL names
type Matcher struct {
	canonical []string          // sorted
	sanitized map[string]string // canonical -> sanitized
}

// NewMatcher builds a matcher over the canonical team names
func NewMatcher(names []string) *Matcher {
	m := &Matcher{sanitized: make(map[string]string, len(names))}
	for _, n := range names {
		if _, dup := m.sanitized[n]; dup || n == "" {
			continue
		}
		m.canonical = append(m.canonical, n)
		m.sanitized[n] = SanitizeTeamName(n)
	}
	sort.Strings(m.canonical)
	return m
}

// Resolve returns the canonical name for name.
// Order: exact sanitized match, containment, then best similarity above MatchThreshold.
func (m *Matcher) Resolve(name string) (string, bool) {
	target := SanitizeTeamName(name)
	if target == "" {
		return "", false
	}

	for _, c := range m.canonical {
		if m.sanitized[c] == target {
			return c, true
		}
	}

	for _, c := range m.canonical {
		s := m.sanitized[c]
		if strings.Contains(s, target) || strings.Contains(target, s) {
			return c, true
		}
	}

	best, bestScore := "", 0.0
	for _, c := range m.canonical {
		if score := similarity(m.sanitized[c], target); score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore >= MatchThreshold {
		return best, true
	}
	return "", false
}

// Rekey renames fixture map keys onto canonical names. Unmatched teams are dropped.
func (m *Matcher) Rekey(fm contracts.FixtureMap) (contracts.FixtureMap, []string) {
	out := make(contracts.FixtureMap, len(fm))
	var unmatched []string
	for name, fixtures := range fm {
		canonical, ok := m.Resolve(name)
		if !ok {
			unmatched = append(unmatched, name)
			continue
		}
		out[canonical] = append(out[canonical], fixtures...)
	}
	for name := range out {
		sort.SliceStable(out[name], func(i, j int) bool {
			return out[name][i].Gameweek < out[name][j].Gameweek
		})
	}
	sort.Strings(unmatched)
	return out, unmatched
}

// NormalizeStrength maps a strength rating onto the 1-5 difficulty scale
func NormalizeStrength(strength, lo, hi int) int {
	if hi == lo {
		return contracts.NeutralDifficulty
	}
	normalized := float64(strength-lo) / float64(hi-lo)
	d := int(math.Round(1 + normalized*4))
	if d < 1 {
		return 1
	}
	if d > 5 {
		return 5
	}
	return d
}

// similarity is 1 - edit distance / longer length, counted in runes
func similarity(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
