package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_Stable(t *testing.T) {
	a := Hash("Senior Go engineer")
	b := Hash("Senior Go engineer")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, Hash("Senior Go engineer "))
}

func TestCosineSimilarity_Identities(t *testing.T) {
	v := []float32{0.3, -1.2, 4.5, 0.01}
	neg := make([]float32, len(v))
	for i := range v {
		neg[i] = -v[i]
	}

	sim, err := CosineSimilarity(v, v)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)

	sim, err = CosineSimilarity(v, neg)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, sim, 1e-9)

	sim, err = CosineSimilarity(make([]float32, len(v)), v)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)
}

func TestCosineSimilarity_Orthogonal(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sim, 1e-12)
}

func TestCosineSimilarity_DimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestToMatchScore(t *testing.T) {
	cases := map[float64]int{
		1.0:   100,
		0.0:   0,
		0.755: 76,
		0.285: 29,
		0.7:   70,
		0.704: 70,
		1.2:   100,
		-0.3:  0,
	}
	for sim, want := range cases {
		assert.Equal(t, want, ToMatchScore(sim), "sim=%v", sim)
	}
}

func TestMeetsThreshold(t *testing.T) {
	assert.True(t, MeetsThreshold(0.70))
	assert.True(t, MeetsThreshold(0.9))
	assert.False(t, MeetsThreshold(0.699))
	assert.False(t, MeetsThreshold(-1))
}

func TestClampSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, ClampSimilarity(1.0000000002))
	assert.Equal(t, 0.0, ClampSimilarity(-0.1))
	assert.Equal(t, 0.42, ClampSimilarity(0.42))
}
