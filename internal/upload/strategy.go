// Package upload simulates the progress and outcome of file uploads.
package upload

import (
	"math/rand"
	"sync"
	"time"

	"ocrdrop/internal/config"
)

// Strategy decides how a simulated upload advances and how it ends.
type Strategy interface {
	// Increment is the progress added on one tick.
	Increment() float64
	// Succeeds is asked once per upload after progress reaches 100.
	Succeeds() bool
}

// RandomStrategy advances by a random step in [0, max) and succeeds with a
// fixed probability.
type RandomStrategy struct {
	mu           sync.Mutex
	rng          *rand.Rand
	maxIncrement float64
	successRate  float64
}

// NewRandomStrategy creates a random strategy drawing from src.
func NewRandomStrategy(src rand.Source, maxIncrement, successRate float64) *RandomStrategy {
	return &RandomStrategy{
		rng:          rand.New(src),
		maxIncrement: maxIncrement,
		successRate:  successRate,
	}
}

func (s *RandomStrategy) Increment() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() * s.maxIncrement
}

func (s *RandomStrategy) Succeeds() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < s.successRate
}

// InstantStrategy completes in a single tick and always succeeds.
type InstantStrategy struct{}

func (InstantStrategy) Increment() float64 { return 100 }
func (InstantStrategy) Succeeds() bool     { return true }

// ScriptedStrategy replays fixed steps and outcomes. Steps are cycled; once
// Outcomes is exhausted every upload succeeds.
type ScriptedStrategy struct {
	mu       sync.Mutex
	steps    []float64
	outcomes []bool
	step     int
}

// NewScriptedStrategy creates a scripted strategy.
func NewScriptedStrategy(steps []float64, outcomes ...bool) *ScriptedStrategy {
	if len(steps) == 0 {
		steps = []float64{100}
	}
	return &ScriptedStrategy{steps: steps, outcomes: outcomes}
}

func (s *ScriptedStrategy) Increment() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.steps[s.step%len(s.steps)]
	s.step++
	return v
}

func (s *ScriptedStrategy) Succeeds() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.outcomes) == 0 {
		return true
	}
	ok := s.outcomes[0]
	s.outcomes = s.outcomes[1:]
	return ok
}

// FromConfig builds the strategy named by upload.strategy. A nil src seeds
// from the clock.
func FromConfig(cfg *config.Config, src rand.Source) Strategy {
	if cfg.Upload.Strategy == config.StrategyInstant {
		return InstantStrategy{}
	}
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return NewRandomStrategy(src, cfg.Upload.MaxIncrement, cfg.Upload.SuccessRate)
}
