package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedGenerator_Sequential(t *testing.T) {
	gen := NewFixedGenerator("id-1", "id-2", "id-3")

	assert.Equal(t, "id-1", gen.Generate())
	assert.Equal(t, "id-2", gen.Generate())
	assert.Equal(t, "id-3", gen.Generate())
}

func TestFixedGenerator_PanicsWhenExhausted(t *testing.T) {
	gen := NewFixedGenerator("only-one")
	gen.Generate()

	require.Panics(t, func() { gen.Generate() })
}

func TestFixedGenerator_Empty(t *testing.T) {
	gen := NewFixedGenerator()

	require.Panics(t, func() { gen.Generate() })
}

func TestFixedClock(t *testing.T) {
	at := Date(2024, time.July, 15)
	now := FixedClock(at)

	assert.Equal(t, at, now())
	assert.Equal(t, at, now(), "pinned instant never advances")
	assert.Equal(t, "2024-07-15", now().Format("2006-01-02"))
}
