package search

import "github.com/poiesic/answerdesk/core"

// RankMonitor provides hooks to observe the ranking process.
// Implement this interface to inspect per-entry scores during ranking.
type RankMonitor interface {
	Start(corpusSize, topK int, threshold float64)
	Scored(index int, similarity float64)
	AfterThreshold(kept int)
	Finish(matches []core.RankedMatch)
}

// noopMonitor is a no-op implementation of RankMonitor
type noopMonitor struct{}

var _ RankMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ int, _ float64) {}
func (n *noopMonitor) Scored(_ int, _ float64) {}
func (n *noopMonitor) AfterThreshold(_ int) {}
func (n *noopMonitor) Finish(_ []core.RankedMatch) {}
