package scoring

import (
	"math"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
)

// Config holds the score model weights and reference maxima
// ⭐ SSOT: 점수 가중치/기준값은 여기서만 정의
type Config struct {
	FormWeight    float64 `yaml:"form_weight" json:"form_weight"`
	ICTWeight     float64 `yaml:"ict_weight" json:"ict_weight"`
	FixtureWeight float64 `yaml:"fixture_weight" json:"fixture_weight"`

	// 고정 기준 최대값 (시즌 간 안정성을 위해 min-max 정규화 대신 사용)
	FormReference float64 `yaml:"form_reference" json:"form_reference"`
	ICTReference  float64 `yaml:"ict_reference" json:"ict_reference"`

	Horizon          int     `yaml:"horizon" json:"horizon"`                     // 평균 난이도 계산 경기 수
	MinutesReference float64 `yaml:"minutes_reference" json:"minutes_reference"` // 풀 시즌 (38 × 90)
	MinutesBonus     float64 `yaml:"minutes_bonus" json:"minutes_bonus"`
}

// DefaultConfig returns the standard weights
func DefaultConfig() Config {
	return Config{
		FormWeight:       0.4,
		ICTWeight:        0.4,
		FixtureWeight:    0.2,
		FormReference:    10.0,
		ICTReference:     300.0,
		Horizon:          5,
		MinutesReference: 3420,
		MinutesBonus:     2.0,
	}
}

// Model scores players against a fixture map
type Model struct {
	cfg Config
}

// NewModel creates a score model
func NewModel(cfg Config) *Model {
	return &Model{cfg: cfg}
}

// Config returns the model configuration
func (m *Model) Config() Config {
	return m.cfg
}

// Score computes a player's quality score.
// Pure: the returned value is new and p is never modified.
func (m *Model) Score(p contracts.Player, fixtures contracts.FixtureMap) contracts.ScoredPlayer {
	formN := normalize(p.Form, m.cfg.FormReference)
	ictN := normalize(p.ICTIndex, m.cfg.ICTReference)

	upcoming := fixtures.Upcoming(p.TeamName, m.cfg.Horizon)
	avg := contracts.AverageDifficulty(upcoming)
	ease := (5 - avg) / 4

	base := m.cfg.FormWeight*formN + m.cfg.ICTWeight*ictN
	score := base*(1+m.cfg.FixtureWeight*ease) + m.minutesBonus(p.Minutes)

	return contracts.ScoredPlayer{
		Player:           p,
		Score:            score,
		UpcomingFixtures: upcoming,
	}
}

// ScorePool scores every player into a new slice
func (m *Model) ScorePool(players []contracts.Player, fixtures contracts.FixtureMap) []contracts.ScoredPlayer {
	out := make([]contracts.ScoredPlayer, len(players))
	for i, p := range players {
		out[i] = m.Score(p, fixtures)
	}
	return out
}

func (m *Model) minutesBonus(minutes int) float64 {
	if m.cfg.MinutesReference <= 0 || minutes <= 0 {
		return 0
	}
	return m.cfg.MinutesBonus * math.Min(float64(minutes)/m.cfg.MinutesReference, 1)
}

// normalize maps v onto [0,10] against a reference maximum
func normalize(v, ref float64) float64 {
	if ref <= 0 || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	return math.Min(v/ref*10, 10)
}
