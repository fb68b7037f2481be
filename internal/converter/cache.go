package converter

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/osroflo/openapi-generator/internal/models"
)

// SampleCache keeps normalized schema trees per resolved sample path.
// Concurrent loads of the same path share a single inference run.
type SampleCache struct {
	cache *lru.Cache[string, *models.Node]
	group singleflight.Group
}

// NewSampleCache creates a cache holding up to maxItems trees. A size of zero
// disables caching; concurrent loads are still shared.
func NewSampleCache(maxItems int) (*SampleCache, error) {
	c := &SampleCache{}
	if maxItems > 0 {
		l, err := lru.New[string, *models.Node](maxItems)
		if err != nil {
			return nil, err
		}
		c.cache = l
	}
	return c, nil
}

// Load returns the tree cached for path, or calls load and caches its result.
// Trees handed out are shared and must not be modified.
func (c *SampleCache) Load(path string, load func() (*models.Node, error)) (*models.Node, error) {
	if c.cache != nil {
		if node, ok := c.cache.Get(path); ok {
			return node, nil
		}
	}

	v, err, _ := c.group.Do(path, func() (any, error) {
		node, err := load()
		if err != nil {
			return nil, err
		}
		if c.cache != nil {
			c.cache.Add(path, node)
		}
		return node, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Node), nil
}

// Len returns the number of cached trees.
func (c *SampleCache) Len() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Len()
}
