package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func unmarshalNode(t *testing.T, raw string) *yaml.Node {
	t.Helper()
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(raw), &node))
	require.Len(t, node.Content, 1)
	return node.Content[0]
}

func TestMaxRankingsAcceptsMaxSentinel(t *testing.T) {
	var m MaxRankings
	require.NoError(t, m.UnmarshalYAML(unmarshalNode(t, "max")))
	assert.True(t, m.IsMax)
	assert.Equal(t, 0, m.N)
}

func TestMaxRankingsAcceptsPositiveInteger(t *testing.T) {
	var m MaxRankings
	require.NoError(t, m.UnmarshalYAML(unmarshalNode(t, "5")))
	assert.False(t, m.IsMax)
	assert.Equal(t, 5, m.N)
}

func TestMaxRankingsRejectsZeroOrNegative(t *testing.T) {
	var m MaxRankings
	assert.Error(t, m.UnmarshalYAML(unmarshalNode(t, "0")))
	assert.Error(t, m.UnmarshalYAML(unmarshalNode(t, "-3")))
}

func TestMaxRankingsRejectsGarbage(t *testing.T) {
	var m MaxRankings
	assert.Error(t, m.UnmarshalYAML(unmarshalNode(t, "unlimited")))
}

func TestMaxSkippedRanksAcceptsUnlimitedSentinel(t *testing.T) {
	var m MaxSkippedRanks
	require.NoError(t, m.UnmarshalYAML(unmarshalNode(t, "unlimited")))
	assert.True(t, m.Unlimited)
	assert.Equal(t, 0, m.N)
}

func TestMaxSkippedRanksAcceptsZero(t *testing.T) {
	var m MaxSkippedRanks
	require.NoError(t, m.UnmarshalYAML(unmarshalNode(t, "0")))
	assert.False(t, m.Unlimited)
	assert.Equal(t, 0, m.N)
}

func TestMaxSkippedRanksRejectsNegative(t *testing.T) {
	var m MaxSkippedRanks
	assert.Error(t, m.UnmarshalYAML(unmarshalNode(t, "-1")))
}

func TestMaxSkippedRanksRejectsGarbage(t *testing.T) {
	var m MaxSkippedRanks
	assert.Error(t, m.UnmarshalYAML(unmarshalNode(t, "max")))
}
