package hmmcopy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// points on a line: 0, 1, 5, 6, 20
var lineRows = [][]float64{{0}, {1}, {5}, {6}, {20}}

func TestCondensedIndex(t *testing.T) {
	n := 4
	want := 0
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			assert.Equal(t, want, condensedIndex(n, i, j))
			assert.Equal(t, want, condensedIndex(n, j, i))
			want++
		}
	}
}

func TestPairwiseDistances(t *testing.T) {
	rows := [][]float64{{1, 0}, {0, 1}, {1, 1}}
	assert.Equal(t, []float64{2, 1, 1}, PairwiseDistances(rows, CityBlock))

	eu := PairwiseDistances([][]float64{{0, 0}, {3, 4}}, Euclidean)
	require.Len(t, eu, 1)
	assert.InDelta(t, 5.0, eu[0], 1e-12)

	assert.Nil(t, PairwiseDistances([][]float64{{1}}, CityBlock))
}

func TestLinkageAverage(t *testing.T) {
	d, err := Linkage(PairwiseDistances(lineRows, CityBlock), 5, Average)
	require.NoError(t, err)
	assert.Equal(t, []Merge{
		{A: 0, B: 1, Height: 1, Size: 2},
		{A: 2, B: 3, Height: 1, Size: 2},
		{A: 5, B: 6, Height: 5, Size: 4},
		{A: 4, B: 7, Height: 17, Size: 5},
	}, d.Merges)
	assert.Equal(t, []int{4, 0, 1, 2, 3}, d.Leaves())
}

func TestLinkageHeightsNonDecreasing(t *testing.T) {
	rows := [][]float64{
		{2, 2, 2, 3}, {2, 2, 2, 2}, {4, 4, 1, 1}, {2, 2, 3, 3},
		{1, 1, 1, 1}, {4, 4, 2, 1}, {2, 3, 2, 2}, {0, 1, 1, 1},
	}
	for _, method := range []Method{Ward, Average, Complete, Weighted, Single} {
		d, err := Linkage(PairwiseDistances(rows, CityBlock), len(rows), method)
		require.NoError(t, err, method)
		require.Len(t, d.Merges, len(rows)-1)
		for i := 1; i < len(d.Merges); i++ {
			assert.LessOrEqual(t, d.Merges[i-1].Height, d.Merges[i].Height, method)
		}
		last := d.Merges[len(d.Merges)-1]
		assert.Equal(t, len(rows), last.Size, method)
		for _, m := range d.Merges {
			assert.Less(t, m.A, m.B, method)
		}
		assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, d.Leaves(), method)
	}
}

func TestLinkageWardSeparatesGroups(t *testing.T) {
	rows := [][]float64{{0, 0}, {10, 10}, {0, 1}, {10, 11}, {1, 0}}
	d, err := Linkage(PairwiseDistances(rows, CityBlock), len(rows), Ward)
	require.NoError(t, err)
	// the pair {1,3} closes before the triple, so it is the left child of the root
	assert.Equal(t, []int{1, 3, 4, 0, 2}, d.Leaves())
	assert.InDelta(t, 1.0, d.Merges[0].Height, 1e-12)
	assert.Greater(t, d.Merges[3].Height, d.Merges[2].Height)
}

func TestLinkageSmallInputs(t *testing.T) {
	d, err := Linkage(nil, 0, Ward)
	require.NoError(t, err)
	assert.Empty(t, d.Leaves())

	d, err = Linkage(nil, 1, Ward)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, d.Leaves())

	d, err = Linkage([]float64{3}, 2, Average)
	require.NoError(t, err)
	assert.Equal(t, []Merge{{A: 0, B: 1, Height: 3, Size: 2}}, d.Merges)
	assert.Equal(t, []int{0, 1}, d.Leaves())
}

func TestLinkageErrors(t *testing.T) {
	_, err := Linkage([]float64{1, 2}, 3, Average)
	assert.Error(t, err)

	_, err = Linkage([]float64{1}, 2, Method("centroid"))
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "linkage", cfgErr.Option)
}
