package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelection_WellFormed(t *testing.T) {
	assert.True(t, Selection{X0: 0, Y0: 0, X1: 10, Y1: 10}.WellFormed())
	assert.False(t, Selection{X0: 10, Y0: 0, X1: 10, Y1: 10}.WellFormed())
	assert.False(t, Selection{X0: 20, Y0: 0, X1: 10, Y1: 10}.WellFormed())
	assert.False(t, Selection{X0: -1, Y0: 0, X1: 10, Y1: 10}.WellFormed())
	assert.False(t, Selection{}.WellFormed())
}

func TestSelection_Validate(t *testing.T) {
	t.Run("within bounds", func(t *testing.T) {
		sel := Selection{X0: 0, Y0: 0, X1: 100, Y1: 50}
		assert.NoError(t, sel.Validate(100, 50))
	})

	t.Run("exceeds width", func(t *testing.T) {
		sel := Selection{X0: 0, Y0: 0, X1: 101, Y1: 50}
		err := sel.Validate(100, 50)
		require.Error(t, err)
		assert.IsType(t, GeometryError{}, err)
	})

	t.Run("exceeds height", func(t *testing.T) {
		sel := Selection{X0: 0, Y0: 0, X1: 100, Y1: 51}
		err := sel.Validate(100, 50)
		require.Error(t, err)
	})

	t.Run("malformed rectangle", func(t *testing.T) {
		sel := Selection{X0: 50, Y0: 0, X1: 10, Y1: 50}
		err := sel.Validate(100, 50)
		require.Error(t, err)
		assert.IsType(t, GeometryError{}, err)
	})
}

func TestDefaultSelection(t *testing.T) {
	t.Run("wide source with square ratio uses full height", func(t *testing.T) {
		ratio, _ := ParseRatio("1x1")
		sel := DefaultSelection(ratio, 400, 200)

		assert.Equal(t, 200, sel.Width())
		assert.Equal(t, 200, sel.Height())
		// Centered horizontally
		assert.Equal(t, 100, sel.X0)
		assert.Equal(t, 0, sel.Y0)
	})

	t.Run("tall source with wide ratio uses full width", func(t *testing.T) {
		ratio, _ := ParseRatio("2x1")
		sel := DefaultSelection(ratio, 200, 400)

		assert.Equal(t, 200, sel.Width())
		assert.Equal(t, 100, sel.Height())
		assert.Equal(t, 0, sel.X0)
		assert.Equal(t, 150, sel.Y0)
	})

	t.Run("matching aspect covers whole frame", func(t *testing.T) {
		ratio, _ := ParseRatio("16x9")
		sel := DefaultSelection(ratio, 1920, 1080)

		assert.Equal(t, Selection{X0: 0, Y0: 0, X1: 1920, Y1: 1080}, sel)
	})

	t.Run("original ratio bound to source covers whole frame", func(t *testing.T) {
		ratio, _ := ParseRatio("original")
		bound := ratio.WithDimensions(640, 480)
		sel := DefaultSelection(bound, 640, 480)

		assert.Equal(t, Selection{X0: 0, Y0: 0, X1: 640, Y1: 480}, sel)
	})

	t.Run("extreme ratio clamps to one pixel", func(t *testing.T) {
		ratio, _ := ParseRatio("1000x1")
		sel := DefaultSelection(ratio, 10, 10)

		assert.GreaterOrEqual(t, sel.Height(), 1)
		assert.NoError(t, sel.Validate(10, 10))
	})

	t.Run("default is always valid against its source", func(t *testing.T) {
		tokens := []string{"1x1", "2x1", "3x1", "3x4", "4x3", "16x9"}
		dims := [][2]int{{1, 1}, {7, 13}, {100, 100}, {1920, 1080}, {33, 1000}}

		for _, token := range tokens {
			ratio, err := ParseRatio(token)
			require.NoError(t, err)
			for _, d := range dims {
				sel := DefaultSelection(ratio, d[0], d[1])
				assert.NoError(t, sel.Validate(d[0], d[1]),
					"ratio %s on %dx%d", token, d[0], d[1])
			}
		}
	})
}
