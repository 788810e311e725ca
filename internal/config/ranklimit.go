package config

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// MaxRankings represents rules.max_rankings_allowed: either a positive
// integer cutoff or the literal string "max", meaning every rank
// present on any ballot is honored.
type MaxRankings struct {
	IsMax bool
	N     int
}

// UnmarshalYAML accepts either a scalar integer or the string "max".
func (m *MaxRankings) UnmarshalYAML(node *yaml.Node) error {
	if node.Value == "max" && node.Tag == "!!str" {
		m.IsMax = true
		m.N = 0
		return nil
	}
	n, err := strconv.Atoi(node.Value)
	if err != nil {
		return fmt.Errorf("max_rankings_allowed must be a positive integer or \"max\", got %q", node.Value)
	}
	if n <= 0 {
		return fmt.Errorf("max_rankings_allowed must be positive, got %d", n)
	}
	m.IsMax = false
	m.N = n
	return nil
}

// MaxSkippedRanks represents rules.max_skipped_ranks_allowed:
// either a non-negative integer or the literal string "unlimited".
type MaxSkippedRanks struct {
	Unlimited bool
	N         int
}

// UnmarshalYAML accepts either a scalar integer or the string "unlimited".
func (m *MaxSkippedRanks) UnmarshalYAML(node *yaml.Node) error {
	if node.Value == "unlimited" && node.Tag == "!!str" {
		m.Unlimited = true
		m.N = 0
		return nil
	}
	n, err := strconv.Atoi(node.Value)
	if err != nil {
		return fmt.Errorf("max_skipped_ranks_allowed must be a non-negative integer or \"unlimited\", got %q", node.Value)
	}
	if n < 0 {
		return fmt.Errorf("max_skipped_ranks_allowed must be non-negative, got %d", n)
	}
	m.Unlimited = false
	m.N = n
	return nil
}
