package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	assert.Equal(t, 5.0, Of(0, 0).Distance(Of(3, 4)))
	assert.Equal(t, 25.0, Of(0, 0).SquaredDistance(Of(3, 4)))
	assert.Equal(t, 2.0, Of(1, 1, 1, 1).Distance(Of(0, 0, 0, 0)))
	assert.Panics(t, func() { Of(1).SquaredDistance(Of(1, 2)) })
}

func TestMean(t *testing.T) {
	m := Mean([]Vector{Of(0, 0, 3), Of(2, 4, 3), Of(4, 2, 3)})
	assert.Equal(t, Of(2, 2, 3), m)
	assert.Nil(t, Mean(nil))
}

func TestEqual(t *testing.T) {
	assert.True(t, Of(1, 2).Equal(Of(1, 2)))
	assert.False(t, Of(1, 2).Equal(Of(1, 2.0001)))
	assert.False(t, Of(1, 2).Equal(Of(1, 2, 3)))
	assert.True(t, Of(1, 2).EqualApprox(Of(1, 2.0001), 1e-3))
}

func TestCloneIsIndependent(t *testing.T) {
	v := Of(1, 2)
	c := v.Clone()
	c[0] = 9
	assert.Equal(t, 1.0, v[0])
}

func TestBounds(t *testing.T) {
	lo, hi := Bounds([]Vector{Of(1, 5), Of(-2, 7), Of(3, 6)})
	assert.Equal(t, Of(-2, 5), lo)
	assert.Equal(t, Of(3, 7), hi)
}
