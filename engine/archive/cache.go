package archive

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

/**
 * @brief Read-through cache of unpacked objects of one category, keyed by name.
 * Without deduplication two concurrent loads of the same name may both create an
 * object; the last one to publish stays cached. With deduplication concurrent
 * loads of one name share a single creation.
 */
type ResourceCache[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	group *singleflight.Group
}

func NewResourceCache[T any](deduplicate bool) *ResourceCache[T] {
	c := &ResourceCache[T]{items: make(map[string]T)}
	if deduplicate {
		c.group = &singleflight.Group{}
	}
	return c
}

func (c *ResourceCache[T]) Lookup(name string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[name]
	return v, ok
}

func (c *ResourceCache[T]) Publish(name string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[name] = v
}

// Load returns the cached object or creates it with load and publishes it.
// Failed loads are not cached.
func (c *ResourceCache[T]) Load(name string, load func() (T, error)) (T, error) {
	if v, ok := c.Lookup(name); ok {
		return v, nil
	}
	if c.group == nil {
		return c.loadAndPublish(name, load)
	}

	v, err, _ := c.group.Do(name, func() (interface{}, error) {
		if v, ok := c.Lookup(name); ok {
			return v, nil
		}
		return c.loadAndPublish(name, load)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	obj, _ := v.(T)
	return obj, nil
}

func (c *ResourceCache[T]) loadAndPublish(name string, load func() (T, error)) (T, error) {
	v, err := load()
	if err != nil {
		return v, err
	}
	c.Publish(name, v)
	return v, nil
}

func (c *ResourceCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *ResourceCache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.items)
}
