package fpl

import (
	"sort"
	"strings"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
)

// ToPlayers converts bootstrap elements into contract players.
// Elements with an unknown element_type are skipped.
func ToPlayers(b *Bootstrap) []contracts.Player {
	teams := make(map[int]Team, len(b.Teams))
	for _, t := range b.Teams {
		teams[t.ID] = t
	}

	players := make([]contracts.Player, 0, len(b.Elements))
	for _, e := range b.Elements {
		category := contracts.Category(e.ElementType)
		if !category.Valid() {
			continue
		}

		players = append(players, contracts.Player{
			ID:            e.ID,
			Name:          fullName(e),
			WebName:       e.WebName,
			Category:      category,
			Team:          contracts.TeamID(e.Team),
			TeamName:      teams[e.Team].Name,
			Cost:          contracts.Cost(e.NowCost),
			Form:          e.Form.Float64(),
			ICTIndex:      e.ICTIndex.Float64(),
			PointsPerGame: e.PointsPerGame.Float64(),
			Minutes:       e.Minutes,
			Status:        e.Status,
		})
	}

	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players
}

func fullName(e Element) string {
	name := strings.TrimSpace(e.FirstName + " " + e.SecondName)
	if name == "" {
		return e.WebName
	}
	return name
}

// NextGameweek returns the gameweek fixtures should be read from.
// is_next wins; otherwise the first unfinished event; 0 when the season is over.
func NextGameweek(events []Event) int {
	for _, e := range events {
		if e.IsNext {
			return e.ID
		}
	}

	next := 0
	for _, e := range events {
		if !e.Finished && (next == 0 || e.ID < next) {
			next = e.ID
		}
	}
	return next
}
