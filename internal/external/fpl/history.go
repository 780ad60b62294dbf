package fpl

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
)

// historyConcurrency bounds parallel gameweek fetches
const historyConcurrency = 4

var _ contracts.GameHistory = (*Provider)(nil)

// gameweekData is what one finished gameweek contributes to a history
type gameweekData struct {
	gameweek int
	live     *LiveEvent
	fixtures []FixtureRecord
}

// RecentGames returns the player's matches in the last n finished gameweeks, newest first
func (p *Provider) RecentGames(ctx context.Context, playerID, n int) ([]contracts.GameweekStats, error) {
	b, err := p.client.Bootstrap(ctx)
	if err != nil {
		return nil, err
	}

	team := 0
	for _, e := range b.Elements {
		if e.ID == playerID {
			team = e.Team
			break
		}
	}
	if team == 0 {
		return nil, fmt.Errorf("player %d not in bootstrap-static", playerID)
	}

	weeks := LastFinished(b.Events, n)
	data := make([]gameweekData, len(weeks))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(historyConcurrency)
	for i, gw := range weeks {
		i, gw := i, gw
		eg.Go(func() error {
			live, err := p.client.EventLive(egCtx, gw)
			if err != nil {
				return err
			}
			fixtures, err := p.client.EventFixtures(egCtx, gw)
			if err != nil {
				return err
			}
			data[i] = gameweekData{gameweek: gw, live: live, fixtures: fixtures}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	games := playerGames(playerID, team, b.Teams, data)
	p.logger.WithFields(map[string]interface{}{
		"player":    playerID,
		"gameweeks": len(weeks),
		"games":     len(games),
	}).Debug("Built player history")
	return games, nil
}

// LastFinished returns up to n finished gameweek ids, newest first
func LastFinished(events []Event, n int) []int {
	var ids []int
	for _, e := range events {
		if e.Finished {
			ids = append(ids, e.ID)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ids)))
	if n >= 0 && len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

// playerGames picks the player's stat line out of each gameweek, keeping
// gameweek order. Gameweeks with zero minutes or an unknown fixture are skipped.
// In a double gameweek the stats cover both matches and the first fixture is reported.
func playerGames(playerID, team int, teams []Team, weeks []gameweekData) []contracts.GameweekStats {
	shortNames := make(map[int]string, len(teams))
	for _, t := range teams {
		shortNames[t.ID] = t.ShortName
	}

	var games []contracts.GameweekStats
	for _, w := range weeks {
		el, ok := findLive(w.live, playerID)
		if !ok || el.Stats.Minutes == 0 || len(el.Explain) == 0 {
			continue
		}
		fx, ok := findFixture(w.fixtures, el.Explain[0].Fixture)
		if !ok {
			continue
		}

		opponent, venue := fx.TeamA, contracts.Home
		if fx.TeamH != team {
			opponent, venue = fx.TeamH, contracts.Away
		}
		name := shortNames[opponent]
		if name == "" {
			name = "N/A"
		}

		s := el.Stats
		games = append(games, contracts.GameweekStats{
			Gameweek:  w.gameweek,
			FixtureID: fx.ID,
			Opponent:  name,
			Venue:     venue,
			Kickoff:   fx.KickoffTime,

			Minutes:         s.Minutes,
			GoalsScored:     s.GoalsScored,
			Assists:         s.Assists,
			CleanSheets:     s.CleanSheets,
			GoalsConceded:   s.GoalsConceded,
			OwnGoals:        s.OwnGoals,
			PenaltiesSaved:  s.PenaltiesSaved,
			PenaltiesMissed: s.PenaltiesMissed,
			YellowCards:     s.YellowCards,
			RedCards:        s.RedCards,
			Saves:           s.Saves,
			Bonus:           s.Bonus,
			BPS:             s.BPS,
			TotalPoints:     s.TotalPoints,

			Influence:                s.Influence.Float64(),
			Creativity:               s.Creativity.Float64(),
			Threat:                   s.Threat.Float64(),
			ICTIndex:                 s.ICTIndex.Float64(),
			ExpectedGoals:            s.ExpectedGoals.Float64(),
			ExpectedAssists:          s.ExpectedAssists.Float64(),
			ExpectedGoalInvolvements: s.ExpectedGoalInvolvements.Float64(),
			ExpectedGoalsConceded:    s.ExpectedGoalsConceded.Float64(),
		})
	}
	return games
}

func findLive(live *LiveEvent, playerID int) (LiveElement, bool) {
	if live == nil {
		return LiveElement{}, false
	}
	for _, el := range live.Elements {
		if el.ID == playerID {
			return el, true
		}
	}
	return LiveElement{}, false
}

func findFixture(fixtures []FixtureRecord, id int) (FixtureRecord, bool) {
	for _, f := range fixtures {
		if f.ID == id {
			return f, true
		}
	}
	return FixtureRecord{}, false
}
