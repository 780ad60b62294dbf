package squad

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetry(t *testing.T) {
	calls := 0
	out := Retry(5, func(attempt int) (string, bool) {
		calls++
		return "ok", attempt == 3
	})
	assert.True(t, out.OK)
	assert.Equal(t, "ok", out.Value)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, 3, calls)

	out = Retry(4, func(int) (string, bool) { return "partial", false })
	assert.False(t, out.OK)
	assert.Equal(t, "", out.Value)
	assert.Equal(t, 4, out.Attempts)

	calls = 0
	Retry(0, func(int) (int, bool) {
		calls++
		return 0, false
	})
	assert.Equal(t, 1, calls)
}
