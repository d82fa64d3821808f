package scraper

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Stats accumulates the outcome counters for a run. The counters are
// atomic because image downloads update them from concurrent workers;
// everything else is incremented from the traversal goroutine.
type Stats struct {
	ProcessedGalleries    atomic.Int64
	DownloadedImages      atomic.Int64
	SkippedExistingImages atomic.Int64
	Errors                atomic.Int64

	mu                sync.Mutex
	passwordProtected map[string]struct{}
}

// NewStats returns a zeroed Stats ready for use.
func NewStats() *Stats {
	return &Stats{
		passwordProtected: make(map[string]struct{}),
	}
}

// AddPasswordProtectedFolder records a folder that was skipped because
// it requires a password. Recording the same folder twice is a no-op.
func (s *Stats) AddPasswordProtectedFolder(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passwordProtected[name] = struct{}{}
}

// PasswordProtectedFolders returns the recorded folder names in sorted
// order.
func (s *Stats) PasswordProtectedFolders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.passwordProtected))
	for name := range s.passwordProtected {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge folds other into s: counters add, folder sets union. Used to
// combine per-target stats into the run total.
func (s *Stats) Merge(other *Stats) {
	if other == nil {
		return
	}

	s.ProcessedGalleries.Add(other.ProcessedGalleries.Load())
	s.DownloadedImages.Add(other.DownloadedImages.Load())
	s.SkippedExistingImages.Add(other.SkippedExistingImages.Load())
	s.Errors.Add(other.Errors.Load())

	for _, name := range other.PasswordProtectedFolders() {
		s.AddPasswordProtectedFolder(name)
	}
}
