package contracts

import (
	"fmt"
	"math"
	"strings"
)

// Category is a player's playing position
// ⭐ SSOT: 포지션 enum은 여기서만 정의
type Category int

const (
	GKP Category = iota + 1
	DEF
	MID
	FWD
)

// Categories lists every category in squad order
var Categories = []Category{GKP, DEF, MID, FWD}

// String returns the short code (GKP, DEF, MID, FWD)
func (c Category) String() string {
	switch c {
	case GKP:
		return "GKP"
	case DEF:
		return "DEF"
	case MID:
		return "MID"
	case FWD:
		return "FWD"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Valid reports whether c is one of the four categories
func (c Category) Valid() bool {
	return c >= GKP && c <= FWD
}

// ParseCategory accepts the short codes and a few common spellings
func ParseCategory(s string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GKP", "GK", "GOALKEEPER":
		return GKP, nil
	case "DEF", "DEFENDER":
		return DEF, nil
	case "MID", "MIDFIELDER":
		return MID, nil
	case "FWD", "FW", "FORWARD":
		return FWD, nil
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// MarshalText encodes the category as its short code; unset encodes as ""
func (c Category) MarshalText() ([]byte, error) {
	if c == 0 {
		return []byte{}, nil
	}
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a short code
func (c *Category) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*c = 0
		return nil
	}
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// TeamID identifies a club
type TeamID int

// Cost is a price in tenths of a million (75 == 7.5m)
// 부동소수점 오차 없이 예산 비교
type Cost int

// CostFromMillions converts 7.5 to 75
func CostFromMillions(m float64) Cost {
	return Cost(math.Round(m * 10))
}

// Millions returns the cost in millions
func (c Cost) Millions() float64 {
	return float64(c) / 10
}

func (c Cost) String() string {
	return fmt.Sprintf("£%.1fm", c.Millions())
}

// Player is an immutable record fetched from the upstream source
type Player struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	WebName       string   `json:"web_name"`
	Category      Category `json:"category"`
	Team          TeamID   `json:"team"`
	TeamName      string   `json:"team_name"`
	Cost          Cost     `json:"cost"`
	Form          float64  `json:"form"`
	ICTIndex      float64  `json:"ict_index"`
	PointsPerGame float64  `json:"points_per_game"`
	Minutes       int      `json:"minutes"`
	Status        string   `json:"status,omitempty"` // a=available, d=doubtful, i=injured, s=suspended, u=unavailable
}

// DisplayName prefers the short web name
func (p Player) DisplayName() string {
	if p.WebName != "" {
		return p.WebName
	}
	return p.Name
}

// Available reports whether the player is flagged as available (empty counts as available)
func (p Player) Available() bool {
	return p.Status == "" || p.Status == "a"
}

// ScoredPlayer is a Player with a computed quality score
// ⭐ 계약: ScoreModel이 새 값으로 생성, 원본 Player는 수정하지 않음
type ScoredPlayer struct {
	Player
	Score            float64   `json:"score"`
	UpcomingFixtures []Fixture `json:"upcoming_fixtures,omitempty"`
}

// ValuePerCost returns score per tenth of a million.
// Zero cost is treated as one tenth so free players still rank.
func (p ScoredPlayer) ValuePerCost() float64 {
	c := p.Cost
	if c <= 0 {
		c = 1
	}
	return p.Score / float64(c)
}
