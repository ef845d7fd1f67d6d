// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolver

import "sync"

// Stats accumulates running resolution counters. Observational only: nothing
// in the control flow reads them. Safe for concurrent use; one instance can
// be shared by several resolvers when process-wide aggregation is wanted.
type Stats struct {
	mu                  sync.Mutex
	totalAttempts       int
	successes           int
	failures            int
	successesByProvider map[string]int
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	TotalAttempts       int            `json:"total_attempts" yaml:"total_attempts"`
	Successes           int            `json:"successes" yaml:"successes"`
	Failures            int            `json:"failures" yaml:"failures"`
	SuccessesByProvider map[string]int `json:"successes_by_provider" yaml:"successes_by_provider"`
}

// NewStats returns an empty aggregator.
func NewStats() *Stats {
	return &Stats{successesByProvider: make(map[string]int)}
}

func (s *Stats) recordAttempt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalAttempts++
}

func (s *Stats) recordSuccess(providerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successes++
	s.successesByProvider[providerID]++
}

func (s *Stats) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures++
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	byProvider := make(map[string]int, len(s.successesByProvider))
	for k, v := range s.successesByProvider {
		byProvider[k] = v
	}
	return StatsSnapshot{
		TotalAttempts:       s.totalAttempts,
		Successes:           s.successes,
		Failures:            s.failures,
		SuccessesByProvider: byProvider,
	}
}

// Reset zeroes all counters.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalAttempts = 0
	s.successes = 0
	s.failures = 0
	s.successesByProvider = make(map[string]int)
}

// Statistics returns a snapshot of the resolver's counters.
func (r *Resolver) Statistics() StatsSnapshot {
	return r.stats.Snapshot()
}

// ResetStatistics zeroes the resolver's counters.
func (r *Resolver) ResetStatistics() {
	r.stats.Reset()
}
