package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIDGenerator_StrictlyIncreasing(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	g := NewIDGenerator(func() time.Time { return fixed })

	first := g.Next()
	second := g.Next()
	assert.Equal(t, fixed.UnixMilli(), first)
	assert.Equal(t, first+1, second)
}

func TestIDGenerator_Observe(t *testing.T) {
	fixed := time.UnixMilli(1_000)
	g := NewIDGenerator(func() time.Time { return fixed })

	g.Observe([]Workout{{ID: 5_000}, {ID: 4_000}})
	assert.Equal(t, int64(5_001), g.Next())
}
