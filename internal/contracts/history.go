package contracts

import (
	"context"
	"time"
)

// GameweekStats is one finished match from a player's point of view
type GameweekStats struct {
	Gameweek  int        `json:"gameweek"`
	FixtureID int        `json:"fixture_id"`
	Opponent  string     `json:"opponent"` // 상대 팀 약칭 (ARS, MCI)
	Venue     Venue      `json:"venue"`
	Kickoff   *time.Time `json:"kickoff,omitempty"`

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

	Influence                float64 `json:"influence"`
	Creativity               float64 `json:"creativity"`
	Threat                   float64 `json:"threat"`
	ICTIndex                 float64 `json:"ict_index"`
	ExpectedGoals            float64 `json:"expected_goals"`
	ExpectedAssists          float64 `json:"expected_assists"`
	ExpectedGoalInvolvements float64 `json:"expected_goal_involvements"`
	ExpectedGoalsConceded    float64 `json:"expected_goals_conceded"`
}

// PlayerDetail is a scored player with recent match history, newest first
type PlayerDetail struct {
	Player ScoredPlayer    `json:"player"`
	Recent []GameweekStats `json:"recent"`
}

// GameHistory looks up a player's matches in the last n finished gameweeks.
// Gameweeks the player did not play in are left out.
type GameHistory interface {
	RecentGames(ctx context.Context, playerID, n int) ([]GameweekStats, error)
}
