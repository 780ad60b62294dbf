package fpl

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Bootstrap is the subset of bootstrap-static used to build the player pool
type Bootstrap struct {
	Elements []Element `json:"elements"`
	Teams    []Team    `json:"teams"`
	Events   []Event   `json:"events"`
}

// Element is one player record
type Element struct {
	ID            int     `json:"id"`
	FirstName     string  `json:"first_name"`
	SecondName    string  `json:"second_name"`
	WebName       string  `json:"web_name"`
	ElementType   int     `json:"element_type"` // 1 GKP, 2 DEF, 3 MID, 4 FWD
	Team          int     `json:"team"`
	NowCost       int     `json:"now_cost"` // 0.1m 단위
	Form          Decimal `json:"form"`
	ICTIndex      Decimal `json:"ict_index"`
	PointsPerGame Decimal `json:"points_per_game"`
	Minutes       int     `json:"minutes"`
	Status        string  `json:"status"`
}

// Team is one club with its strength ratings
type Team struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	ShortName           string `json:"short_name"`
	StrengthOverallHome int    `json:"strength_overall_home"`
	StrengthOverallAway int    `json:"strength_overall_away"`
}

// Event is one gameweek
type Event struct {
	ID        int  `json:"id"`
	IsCurrent bool `json:"is_current"`
	IsNext    bool `json:"is_next"`
	Finished  bool `json:"finished"`
}

// FixtureRecord is one entry of the fixtures endpoint.
// Event is nil for fixtures that are not scheduled yet.
type FixtureRecord struct {
	ID              int        `json:"id"`
	Event           *int       `json:"event"`
	TeamH           int        `json:"team_h"`
	TeamA           int        `json:"team_a"`
	TeamHDifficulty int        `json:"team_h_difficulty"`
	TeamADifficulty int        `json:"team_a_difficulty"`
	Finished        bool       `json:"finished"`
	Started         bool       `json:"started"`
	KickoffTime     *time.Time `json:"kickoff_time"`
}

// LiveEvent is the event/{gw}/live payload
type LiveEvent struct {
	Elements []LiveElement `json:"elements"`
}

// LiveElement is one player's stats for a gameweek.
// Explain has one entry per fixture played (two in a double gameweek).
type LiveElement struct {
	ID      int           `json:"id"`
	Stats   LiveStats     `json:"stats"`
	Explain []LiveExplain `json:"explain"`
}

// LiveExplain links a live record to its fixture
type LiveExplain struct {
	Fixture int `json:"fixture"`
}

// LiveStats is the per-gameweek stat line
type LiveStats struct {
	Minutes         int `json:"minutes"`
	GoalsScored     int `json:"goals_scored"`
	Assists         int `json:"assists"`
	CleanSheets     int `json:"clean_sheets"`
	GoalsConceded   int `json:"goals_conceded"`
	OwnGoals        int `json:"own_goals"`
	PenaltiesSaved  int `json:"penalties_saved"`
	PenaltiesMissed int `json:"penalties_missed"`
	YellowCards     int `json:"yellow_cards"`
	RedCards        int `json:"red_cards"`
	Saves           int `json:"saves"`
	Bonus           int `json:"bonus"`
	BPS             int `json:"bps"`
	TotalPoints     int `json:"total_points"`

	Influence                Decimal `json:"influence"`
	Creativity               Decimal `json:"creativity"`
	Threat                   Decimal `json:"threat"`
	ICTIndex                 Decimal `json:"ict_index"`
	ExpectedGoals            Decimal `json:"expected_goals"`
	ExpectedAssists          Decimal `json:"expected_assists"`
	ExpectedGoalInvolvements Decimal `json:"expected_goal_involvements"`
	ExpectedGoalsConceded    Decimal `json:"expected_goals_conceded"`
}

// Decimal decodes metrics the API ships as strings ("5.2") or numbers
type Decimal float64

// UnmarshalJSON accepts "5.2", 5.2, "" and null
func (d *Decimal) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == `""` {
		*d = 0
		return nil
	}

	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*d = 0
			return nil
		}
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid decimal %q: %w", raw, err)
	}
	*d = Decimal(v)
	return nil
}

// Float64 returns the value as float64
func (d Decimal) Float64() float64 {
	return float64(d)
}
