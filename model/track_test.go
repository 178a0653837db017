package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackClone(t *testing.T) {
	orig := Track{Title: "A", File: "a.mp3", Duration: DurationSeconds(200)}

	c := orig.Clone()
	require.NotNil(t, c.Duration)
	*c.Duration = 1

	assert.Equal(t, 200, *orig.Duration)
	assert.Equal(t, orig.Title, c.Title)
	assert.Nil(t, Track{Title: "B"}.Clone().Duration)
}

func TestDurationSeconds(t *testing.T) {
	assert.Nil(t, DurationSeconds(-1))
	require.NotNil(t, DurationSeconds(0))
	assert.Equal(t, 0, *DurationSeconds(0))
}
