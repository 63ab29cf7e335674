package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSparseSetLifecycle(t *testing.T) {
	cases := []struct {
		name    string
		set     []int
		remove  []int
		wantIDs []int
	}{
		{"empty", nil, nil, []int{}},
		{"insert_order", []int{3, 1, 7}, nil, []int{3, 1, 7}},
		{"remove_middle_swaps_last", []int{3, 1, 7}, []int{1}, []int{3, 7}},
		{"remove_missing", []int{2}, []int{5}, []int{2}},
		{"ignores_non_positive", []int{0, -4, 2}, nil, []int{2}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := NewSparseSet[string]()
			for _, id := range c.set {
				s.Set(id, "v")
			}
			for _, id := range c.remove {
				s.Remove(id)
			}
			assert.Equal(t, c.wantIDs, append([]int{}, s.IDs()...))
			assert.Equal(t, len(c.wantIDs), s.Len())
			for _, id := range c.wantIDs {
				assert.True(t, s.Has(id))
			}
			for _, id := range c.remove {
				assert.False(t, s.Has(id))
			}
		})
	}
}

func TestSparseSetGetUpdateAndClear(t *testing.T) {
	s := NewSparseSet[int]()
	s.Set(4, 40)
	s.Set(4, 41)

	v, ok := s.Get(4)
	require.True(t, ok)
	assert.Equal(t, 41, v)
	assert.Equal(t, 1, s.Len())

	_, ok = s.Get(9)
	assert.False(t, ok)

	s.Clear()
	assert.Zero(t, s.Len())
	assert.False(t, s.Has(4))

	s.Set(4, 1)
	v, ok = s.Get(4)
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestSparseSetNilSafe(t *testing.T) {
	var s *SparseSet[int]
	assert.False(t, s.Has(1))
	assert.False(t, s.Remove(1))
	assert.Zero(t, s.Len())
	assert.Nil(t, s.IDs())
	s.Set(1, 1)
	s.Clear()
}
