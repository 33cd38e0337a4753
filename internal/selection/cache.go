package selection

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Cache memoizes computed layouts. Keys embed a time bucket, so two requests
// inside one bucket see the identical layout; writing into a new bucket
// evicts the entries left over from earlier buckets. Explicit invalidation
// drops entries immediately when a delivery lands.
type Cache struct {
	mu      sync.RWMutex
	bucket  time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	result   Result
	bucket   int64
	sections map[string]struct{}
}

func NewCache(bucket time.Duration) *Cache {
	if bucket <= 0 {
		bucket = 5 * time.Minute
	}
	return &Cache{
		bucket:  bucket,
		entries: make(map[string]cacheEntry),
	}
}

// Key derives the cache key for a section set at a clock reading. Slug order
// does not matter.
func (c *Cache) Key(sectionSlugs []string, now time.Time) string {
	slugs := append([]string(nil), sectionSlugs...)
	sort.Strings(slugs)
	bucket := now.UnixNano() / int64(c.bucket)
	return strings.Join(slugs, ",") + "@" + strconv.FormatInt(bucket, 10)
}

func (c *Cache) Get(key string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry.result, ok
}

// Put stores a layout and evicts entries keyed to older buckets. Stale
// buckets can never be hit again, so holding their results would only grow
// the map for the lifetime of the process.
func (c *Cache) Put(key string, result Result) {
	bucket := bucketFromKey(key)
	sections := make(map[string]struct{}, len(result.Sections))
	for slug := range result.Sections {
		sections[slug] = struct{}{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, entry := range c.entries {
		if entry.bucket < bucket {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{result: result, bucket: bucket, sections: sections}
}

func bucketFromKey(key string) int64 {
	i := strings.LastIndex(key, "@")
	if i < 0 {
		return 0
	}
	bucket, err := strconv.ParseInt(key[i+1:], 10, 64)
	if err != nil {
		return 0
	}
	return bucket
}

// Invalidate drops entries covered by the given logical paths and returns the
// paths it recognized. "/" clears everything; "/section/<slug>" clears
// entries containing that section.
func (c *Cache) Invalidate(paths []string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	recognized := make([]string, 0, len(paths))
	for _, path := range paths {
		switch {
		case path == "/":
			c.entries = make(map[string]cacheEntry)
			recognized = append(recognized, path)
		case strings.HasPrefix(path, "/section/"):
			slug := strings.TrimPrefix(path, "/section/")
			if slug == "" || strings.Contains(slug, "/") {
				continue
			}
			for key, entry := range c.entries {
				if _, ok := entry.sections[slug]; ok {
					delete(c.entries, key)
				}
			}
			recognized = append(recognized, path)
		}
	}
	return recognized
}

// Len reports the number of live entries, for the health endpoint.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
