package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTags(t *testing.T) {
	tags := NormalizeTags([]string{" Fuerza ", "FUERZA", "pierna", "", "pierna"})
	assert.Equal(t, []string{"fuerza", "pierna"}, tags)
}

func TestNormalizeTags_DropsOverlong(t *testing.T) {
	long := strings.Repeat("x", 31)
	ok := strings.Repeat("x", 30)
	assert.Equal(t, []string{ok}, NormalizeTags([]string{long, ok}))
}

func TestNormalizeTags_Empty(t *testing.T) {
	assert.Nil(t, NormalizeTags(nil))
	assert.Nil(t, NormalizeTags([]string{"", "  "}))
}

func TestIsAllowedVideoURL(t *testing.T) {
	assert.True(t, IsAllowedVideoURL("https://youtube.com/watch?v=abc"))
	assert.True(t, IsAllowedVideoURL("https://www.youtube.com/watch?v=abc"))
	assert.True(t, IsAllowedVideoURL("https://m.youtube.com/watch?v=abc"))
	assert.True(t, IsAllowedVideoURL("https://youtu.be/abc"))

	assert.False(t, IsAllowedVideoURL("https://vimeo.com/123"))
	assert.False(t, IsAllowedVideoURL("https://notyoutube.com/watch"))
	assert.False(t, IsAllowedVideoURL("https://youtube.com.evil.io/x"))
	assert.False(t, IsAllowedVideoURL("not a url"))
	assert.False(t, IsAllowedVideoURL(""))
}

func TestRoundEffort(t *testing.T) {
	assert.Equal(t, 7.5, RoundEffort(7.6))
	assert.Equal(t, 7.5, RoundEffort(7.4))
	assert.Equal(t, 8.0, RoundEffort(7.8))
	assert.Equal(t, 7.0, RoundEffort(7.2))
	assert.Equal(t, 7.0, RoundEffort(7.0))
}

func TestEffortInRange(t *testing.T) {
	assert.True(t, EffortInRange(ScaleRPE, 1))
	assert.True(t, EffortInRange(ScaleRPE, 10))
	assert.False(t, EffortInRange(ScaleRPE, 0.5))
	assert.False(t, EffortInRange(ScaleRPE, 10.5))

	assert.True(t, EffortInRange(ScaleRIR, 0))
	assert.True(t, EffortInRange(ScaleRIR, 5))
	assert.False(t, EffortInRange(ScaleRIR, -0.5))
	assert.False(t, EffortInRange(ScaleRIR, 5.5))

	assert.False(t, EffortInRange("unknown", 5))
}
