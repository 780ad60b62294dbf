package contracts

// Venue is where a fixture is played from the team's perspective
type Venue string

const (
	Home Venue = "H"
	Away Venue = "A"
)

// NeutralDifficulty is used when a team's fixtures are unknown
const NeutralDifficulty = 3

// Fixture is one upcoming match for a team
type Fixture struct {
	Gameweek   int    `json:"gameweek"`
	Opponent   string `json:"opponent"`
	Difficulty int    `json:"difficulty"` // 1 (easiest) ~ 5 (hardest)
	Venue      Venue  `json:"venue"`
}

// FixtureMap maps a team name to its upcoming fixtures in gameweek order.
// Read-only once built.
type FixtureMap map[string][]Fixture

// Upcoming returns up to n fixtures for team, nil when unknown
func (m FixtureMap) Upcoming(team string, n int) []Fixture {
	fixtures, ok := m[team]
	if !ok || n <= 0 {
		return nil
	}
	if len(fixtures) > n {
		fixtures = fixtures[:n]
	}
	out := make([]Fixture, len(fixtures))
	copy(out, fixtures)
	return out
}

// AverageDifficulty is the mean difficulty of fixtures. Values outside 1~5
// count as neutral; no fixtures at all is NeutralDifficulty.
func AverageDifficulty(fixtures []Fixture) float64 {
	if len(fixtures) == 0 {
		return NeutralDifficulty
	}
	sum := 0
	for _, f := range fixtures {
		d := f.Difficulty
		if d < 1 || d > 5 {
			d = NeutralDifficulty
		}
		sum += d
	}
	return float64(sum) / float64(len(fixtures))
}
