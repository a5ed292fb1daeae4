package search

import (
	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/result"
)

// SearchMonitor provides hooks to observe the search process.
// Hooks run only when a query is executed, not on cache hits.
type SearchMonitor interface {
	Start(input Input)
	AfterCandidates(programIDs []core.ID)
	AfterTaxonomyFilter(programIDs []core.ID)
	AfterGeo(siteIDs []core.ID, ordered bool)
	AfterJoin(offerings []*core.SiteProgram)
	Finish(results []*result.Result)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ Input)                   {}
func (n *noopMonitor) AfterCandidates(_ []core.ID)     {}
func (n *noopMonitor) AfterTaxonomyFilter(_ []core.ID) {}
func (n *noopMonitor) AfterGeo(_ []core.ID, _ bool)    {}
func (n *noopMonitor) AfterJoin(_ []*core.SiteProgram) {}
func (n *noopMonitor) Finish(_ []*result.Result)       {}
