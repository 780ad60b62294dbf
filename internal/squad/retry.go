package squad

// Outcome is the result of a bounded retry; Value is the zero value unless OK
type Outcome[T any] struct {
	Value    T
	OK       bool
	Attempts int
}

// Retry calls fn until it reports success or limit attempts are used.
// A limit below one still makes a single attempt.
func Retry[T any](limit int, fn func(attempt int) (T, bool)) Outcome[T] {
	if limit < 1 {
		limit = 1
	}
	for attempt := 1; attempt <= limit; attempt++ {
		if v, ok := fn(attempt); ok {
			return Outcome[T]{Value: v, OK: true, Attempts: attempt}
		}
	}
	return Outcome[T]{Attempts: limit}
}
