package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChapterSelection(t *testing.T) {
	sel, err := ChapterSelection("1-3, 7 ,10-10")
	require.NoError(t, err)

	for _, chapter := range []int{1, 2, 3, 7, 10} {
		assert.True(t, sel.Contains(chapter), "chapter %d", chapter)
	}
	for _, chapter := range []int{0, 4, 6, 8, 11} {
		assert.False(t, sel.Contains(chapter), "chapter %d", chapter)
	}
	assert.False(t, sel.All())
}

func TestChapterSelection_Empty(t *testing.T) {
	sel, err := ChapterSelection("  ")
	require.NoError(t, err)

	assert.True(t, sel.All())
	assert.True(t, sel.Contains(123))
}

func TestChapterSelection_Errors(t *testing.T) {
	for _, input := range []string{"5-1", "1-2-3", "a", "1-b", "x-2"} {
		_, err := ChapterSelection(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestMinMax(t *testing.T) {
	lo, hi, err := MinMax([]int{5, 2, 9, 3})
	require.NoError(t, err)
	assert.Equal(t, 2, lo)
	assert.Equal(t, 9, hi)

	_, _, err = MinMax([]int{})
	assert.Error(t, err)
}
