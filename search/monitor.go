package search

import (
	"github.com/poiesic/reqmatch/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterQueryEmbedding(normalized string, vector []float32)
	AfterCandidateEmbedding(count int)
	AfterScoring(scored []Scored[*core.StandardRequirement])
	Finish(results []Scored[*core.StandardRequirement])
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                     {}
func (n *noopMonitor) AfterQueryEmbedding(_ string, _ []float32)          {}
func (n *noopMonitor) AfterCandidateEmbedding(_ int)                      {}
func (n *noopMonitor) AfterScoring(_ []Scored[*core.StandardRequirement]) {}
func (n *noopMonitor) Finish(_ []Scored[*core.StandardRequirement])       {}
