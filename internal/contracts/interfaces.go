package contracts

import "context"

// PlayerSource loads the raw player pool
// ⭐ SSOT: 선수 풀 조회 인터페이스
type PlayerSource interface {
	Players(ctx context.Context) ([]Player, error)
}

// FixtureProvider supplies upcoming fixtures per team name
// ⭐ SSOT: 경기 난이도 조회 인터페이스
type FixtureProvider interface {
	FixtureMap(ctx context.Context, horizon int) (FixtureMap, error)
}

// ReasonGenerator produces human-readable text for a swap.
// Failures are non-fatal to callers.
type ReasonGenerator interface {
	Reason(ctx context.Context, out, in ScoredPlayer) (string, error)
}
