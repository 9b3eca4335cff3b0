package grading

import (
	"fmt"
	"sync"

	"github.com/educode/educode-backend/internal/content"
)

// Artifacts are the immutable per-question grading inputs.
type Artifacts struct {
	ReferenceSolution string
	HiddenTests       []content.TestCase
}

// ArtifactCache memoizes grading artifacts for the process lifetime.
// Question content is authored once and treated as immutable while the
// server runs; a content edit needs a restart (or Invalidate) to be seen.
// Concurrent first-access to a key may fetch twice; population is idempotent.
type ArtifactCache struct {
	mu sync.RWMutex
	m  map[string]Artifacts
}

func NewArtifactCache() *ArtifactCache {
	return &ArtifactCache{m: map[string]Artifacts{}}
}

func cacheKey(courseID, unitID, subUnitID, questionID string) string {
	return fmt.Sprintf("%s&%s&%s&%s", courseID, unitID, subUnitID, questionID)
}

func (c *ArtifactCache) Get(courseID, unitID, subUnitID, questionID string) (Artifacts, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.m[cacheKey(courseID, unitID, subUnitID, questionID)]
	return a, ok
}

func (c *ArtifactCache) Put(courseID, unitID, subUnitID, questionID string, a Artifacts) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[cacheKey(courseID, unitID, subUnitID, questionID)] = a
}

func (c *ArtifactCache) Invalidate(courseID, unitID, subUnitID, questionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, cacheKey(courseID, unitID, subUnitID, questionID))
}

func (c *ArtifactCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m = map[string]Artifacts{}
}
