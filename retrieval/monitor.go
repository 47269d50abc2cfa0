package retrieval

import (
	"github.com/poiesic/lexrag/core"
)

// RetrievalMonitor provides hooks to observe a retrieval pass.
// All hooks are called from the goroutine that called Retrieve, in query order.
type RetrievalMonitor interface {
	Start(queries []string)
	QueryCompleted(index int, query string, results int)
	QueryFailed(index int, query string, err error)
	DuplicateSkipped(index int, fingerprint core.Fingerprint)
	Finish(candidates []core.Candidate)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ []string)                           {}
func (n *noopMonitor) QueryCompleted(_ int, _ string, _ int)      {}
func (n *noopMonitor) QueryFailed(_ int, _ string, _ error)       {}
func (n *noopMonitor) DuplicateSkipped(_ int, _ core.Fingerprint) {}
func (n *noopMonitor) Finish(_ []core.Candidate)                  {}
