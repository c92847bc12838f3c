package quotes

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soliplex/flasharb/types"
)

func TestStaticSource(t *testing.T) {
	src := NewStatic()
	pair := types.NewPair("SOL", "USDC")

	_, err := src.Quote(context.Background(), "Orca", pair)
	assert.True(t, errors.Is(err, ErrUnavailable))

	src.SetPrice("Orca", pair, 101.25)
	price, err := src.Quote(context.Background(), "Orca", pair)
	require.NoError(t, err)
	assert.Equal(t, 101.25, price)
}

func TestParsePair(t *testing.T) {
	t.Run("canonical order", func(t *testing.T) {
		pair, flipped, err := ParsePair("SOL/USDC")
		require.NoError(t, err)
		assert.False(t, flipped)
		assert.Equal(t, types.Pair{Base: "SOL", Quote: "USDC"}, pair)
	})

	t.Run("reversed order", func(t *testing.T) {
		pair, flipped, err := ParsePair("USDC/SOL")
		require.NoError(t, err)
		assert.True(t, flipped)
		assert.Equal(t, types.Pair{Base: "SOL", Quote: "USDC"}, pair)
	})

	t.Run("malformed", func(t *testing.T) {
		for _, s := range []string{"SOLUSDC", "/USDC", "SOL/", ""} {
			_, _, err := ParsePair(s)
			assert.Error(t, err, s)
		}
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.yaml")
	data := `
Orca:
  SOL/USDC: 100.0
Raydium:
  USDC/SOL: 0.01
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	src, err := LoadFile(path)
	require.NoError(t, err)

	pair := types.NewPair("SOL", "USDC")

	price, err := src.Quote(context.Background(), "Orca", pair)
	require.NoError(t, err)
	assert.Equal(t, 100.0, price)

	// a reversed pair key is inverted into the canonical quote-per-base form
	price, err = src.Quote(context.Background(), "Raydium", pair)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, price, 1e-9)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Orca:\n  SOLUSDC: 1.0\n"), 0o644))
	_, err = LoadFile(path)
	assert.Error(t, err)
}
