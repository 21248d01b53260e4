package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// maxRendererPools bounds the option sets kept warm. The chat panel width
// changes on every terminal resize, so old widths are evicted.
const maxRendererPools = 4

// rendererCache keeps one sync.Pool of renderers per option set.
// glamour.TermRenderer is not safe for concurrent Render calls, so a
// renderer is only ever held by one caller at a time.
type rendererCache struct {
	mu    sync.Mutex
	tick  uint64
	pools map[Options]*pooledRenderers
}

type pooledRenderers struct {
	pool     sync.Pool
	lastUsed uint64
}

var renderers = newRendererCache()

func newRendererCache() *rendererCache {
	return &rendererCache{pools: make(map[Options]*pooledRenderers)}
}

// poolFor returns the pool for opts, evicting the least recently used
// option set when the cache is full
func (c *rendererCache) poolFor(opts Options) *pooledRenderers {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tick++
	if p, ok := c.pools[opts]; ok {
		p.lastUsed = c.tick
		return p
	}

	if len(c.pools) >= maxRendererPools {
		var oldest Options
		var oldestTick uint64
		first := true
		for key, p := range c.pools {
			if first || p.lastUsed < oldestTick {
				oldest, oldestTick, first = key, p.lastUsed, false
			}
		}
		delete(c.pools, oldest)
	}

	p := &pooledRenderers{lastUsed: c.tick}
	c.pools[opts] = p
	return p
}

// get returns a pooled renderer or builds a new one
func (c *rendererCache) get(opts Options) (*glamour.TermRenderer, error) {
	if r, ok := c.poolFor(opts).pool.Get().(*glamour.TermRenderer); ok && r != nil {
		return r, nil
	}
	return createRenderer(opts)
}

// put hands a renderer back. Renderers for an evicted option set are
// dropped with the pool.
func (c *rendererCache) put(opts Options, r *glamour.TermRenderer) {
	if r == nil {
		return
	}
	c.mu.Lock()
	p, ok := c.pools[opts]
	c.mu.Unlock()
	if ok {
		p.pool.Put(r)
	}
}

func (c *rendererCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pools)
}

func createRenderer(opts Options) (*glamour.TermRenderer, error) {
	rendererOpts := []glamour.TermRendererOption{
		glamour.WithStylePath(opts.Style),
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}
	if opts.EnableEmoji {
		rendererOpts = append(rendererOpts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		rendererOpts = append(rendererOpts, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(rendererOpts...)
}
