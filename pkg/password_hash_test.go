package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	passwordHash, err := HashPassword("squat-day")
	require.NoError(t, err)
	assert.NotEmpty(t, passwordHash)
	assert.NotEqual(t, "squat-day", passwordHash)
	assert.True(t, CheckPasswordHash("squat-day", passwordHash))
	assert.False(t, CheckPasswordHash("leg-day", passwordHash))

	// hashes produced with a different cost still verify
	assert.True(t, CheckPasswordHash("sr", "$2a$14$z8cd4yJpzP40Qh2F2BhiMO.sOm4YAIaf30pmUKLOaISojD9HnXgaG"))
	assert.False(t, CheckPasswordHash("sr", "not-a-hash"))
}
