package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDPoolRecyclesReleasedIDs(t *testing.T) {
	p := NewIDPool()
	assert.Equal(t, 1, p.Acquire())
	assert.Equal(t, 2, p.Acquire())
	assert.Equal(t, 3, p.Acquire())

	assert.True(t, p.Release(2))
	assert.False(t, p.Release(2))
	assert.False(t, p.InUse(2))
	assert.Equal(t, 2, p.Len())

	assert.Equal(t, 2, p.Acquire())
	assert.Equal(t, 4, p.Acquire())
	assert.True(t, p.InUse(4))
}

func TestIDPoolZeroValue(t *testing.T) {
	var p IDPool
	assert.False(t, p.Release(1))
	assert.Equal(t, 1, p.Acquire())
	assert.True(t, p.InUse(1))
}
