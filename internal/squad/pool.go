package squad

import (
	"sort"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
)

// Pool indexes the scored candidate pool by category and id.
// Read-only after construction.
type Pool struct {
	players    []contracts.ScoredPlayer
	byCategory map[contracts.Category][]contracts.ScoredPlayer
	byID       map[int]contracts.ScoredPlayer
	costsAsc   map[contracts.Category][]contracts.Cost
}

// NewPool builds the index; duplicate ids keep the first occurrence,
// unknown categories are skipped
func NewPool(players []contracts.ScoredPlayer) *Pool {
	p := &Pool{
		byCategory: make(map[contracts.Category][]contracts.ScoredPlayer),
		byID:       make(map[int]contracts.ScoredPlayer, len(players)),
		costsAsc:   make(map[contracts.Category][]contracts.Cost),
	}

	for _, sp := range players {
		if !sp.Category.Valid() {
			continue
		}
		if _, dup := p.byID[sp.ID]; dup {
			continue
		}
		p.players = append(p.players, sp)
		p.byID[sp.ID] = sp
		p.byCategory[sp.Category] = append(p.byCategory[sp.Category], sp)
		p.costsAsc[sp.Category] = append(p.costsAsc[sp.Category], sp.Cost)
	}

	for c := range p.costsAsc {
		costs := p.costsAsc[c]
		sort.Slice(costs, func(i, j int) bool { return costs[i] < costs[j] })
	}
	return p
}

// Len returns the number of indexed players
func (p *Pool) Len() int {
	return len(p.players)
}

// Players returns every indexed player
func (p *Pool) Players() []contracts.ScoredPlayer {
	return p.players
}

// Category returns candidates of one category; callers must not modify the slice
func (p *Pool) Category(c contracts.Category) []contracts.ScoredPlayer {
	return p.byCategory[c]
}

// Get looks up a player by id
func (p *Pool) Get(id int) (contracts.ScoredPlayer, bool) {
	sp, ok := p.byID[id]
	return sp, ok
}

// CheapestSum is the cost of the k cheapest candidates in a category,
// a lower bound on filling k slots
func (p *Pool) CheapestSum(c contracts.Category, k int) contracts.Cost {
	costs := p.costsAsc[c]
	if k > len(costs) {
		k = len(costs)
	}
	var sum contracts.Cost
	for _, cost := range costs[:k] {
		sum += cost
	}
	return sum
}

// Covers reports whether every quota can be met by count alone
func (p *Pool) Covers(r Rules) bool {
	for _, c := range contracts.Categories {
		if len(p.byCategory[c]) < r.Quota(c) {
			return false
		}
	}
	return true
}
