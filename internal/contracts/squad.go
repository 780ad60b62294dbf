package contracts

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Squad is an ordered collection of scored players.
// Value type: helpers never mutate the receiver.
type Squad []ScoredPlayer

// TotalCost sums member costs
func (s Squad) TotalCost() Cost {
	var total Cost
	for _, p := range s {
		total += p.Cost
	}
	return total
}

// TotalScore sums member scores
func (s Squad) TotalScore() float64 {
	total := 0.0
	for _, p := range s {
		total += p.Score
	}
	return total
}

// CountByCategory counts members per category
func (s Squad) CountByCategory() map[Category]int {
	counts := make(map[Category]int, len(Categories))
	for _, p := range s {
		counts[p.Category]++
	}
	return counts
}

// CountByTeam counts members per team
func (s Squad) CountByTeam() map[TeamID]int {
	counts := make(map[TeamID]int)
	for _, p := range s {
		counts[p.Team]++
	}
	return counts
}

// Contains reports whether a player id is in the squad
func (s Squad) Contains(id int) bool {
	return s.IndexOf(id) >= 0
}

// IndexOf returns the position of a player id, or -1
func (s Squad) IndexOf(id int) int {
	for i, p := range s {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// ByCategory returns the members of one category in squad order
func (s Squad) ByCategory(c Category) []ScoredPlayer {
	var out []ScoredPlayer
	for _, p := range s {
		if p.Category == c {
			out = append(out, p)
		}
	}
	return out
}

// IDs returns the sorted member ids
func (s Squad) IDs() []int {
	ids := make([]int, len(s))
	for i, p := range s {
		ids[i] = p.ID
	}
	sort.Ints(ids)
	return ids
}

// Clone returns an independent copy
func (s Squad) Clone() Squad {
	if s == nil {
		return nil
	}
	out := make(Squad, len(s))
	copy(out, s)
	return out
}

// Replace returns a copy with the member outID swapped for in
func (s Squad) Replace(outID int, in ScoredPlayer) (Squad, error) {
	idx := s.IndexOf(outID)
	if idx < 0 {
		return nil, fmt.Errorf("player %d not in squad", outID)
	}
	out := s.Clone()
	out[idx] = in
	return out, nil
}

// Key is an order-independent identity ("1-5-9-...")
func (s Squad) Key() string {
	ids := s.IDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, "-")
}

// Formation is a starting-11 shape; GKP is always 1
type Formation struct {
	GKP int `json:"gkp"`
	DEF int `json:"def"`
	MID int `json:"mid"`
	FWD int `json:"fwd"`
}

// Count returns the slots for a category
func (f Formation) Count(c Category) int {
	switch c {
	case GKP:
		return f.GKP
	case DEF:
		return f.DEF
	case MID:
		return f.MID
	case FWD:
		return f.FWD
	}
	return 0
}

// String formats as "4-4-2"
func (f Formation) String() string {
	return fmt.Sprintf("%d-%d-%d", f.DEF, f.MID, f.FWD)
}

// Lineup is a starting 11 plus bench derived from a squad
type Lineup struct {
	Formation Formation      `json:"formation"`
	Starters  []ScoredPlayer `json:"starters"`
	Bench     []ScoredPlayer `json:"bench"`
	Score     float64        `json:"score"`
}
