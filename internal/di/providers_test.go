package di

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubmitLimitStaysUnderWriteTimeout(t *testing.T) {
	assert.Equal(t, 175*time.Second, submitLimit(3*time.Minute))
	for _, wt := range []time.Duration{3 * time.Minute, 10 * time.Second, time.Second} {
		got := submitLimit(wt)
		assert.Greater(t, got, time.Duration(0), wt)
		assert.Less(t, got, wt, wt)
	}
}
