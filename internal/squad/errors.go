package squad

import "errors"

var (
	// ErrExhausted means a bounded search ran out of attempts; callers may retry
	ErrExhausted = errors.New("search exhausted without a valid squad")

	// ErrInfeasible means no viable population or no fitting formation exists
	ErrInfeasible = errors.New("no feasible squad")

	// ErrStructural marks a constraint breach that correct construction cannot produce
	ErrStructural = errors.New("structural constraint violation")
)
