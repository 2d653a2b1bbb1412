package analytics

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"
)

// Cache memoizes the most recent snapshot. A request whose inputs differ from
// the cached ones recomputes and replaces it; concurrent requests for the same
// inputs share one computation.
type Cache struct {
	mu    sync.Mutex
	key   uint64
	snap  Snapshot
	valid bool
	group singleflight.Group

	compute func(Input) Snapshot
}

// NewCache creates an empty snapshot cache.
func NewCache() *Cache {
	return &Cache{compute: Compute}
}

// Get returns the snapshot for in. The second result is true when the
// snapshot was reused, either from the cache or from a concurrent caller's
// computation, and false for the caller that computed it.
func (c *Cache) Get(in Input) (Snapshot, bool) {
	if in.Now.IsZero() {
		in.Now = time.Now()
	}
	key, ok := Fingerprint(in)
	if !ok {
		return c.compute(in), false
	}

	c.mu.Lock()
	if c.valid && c.key == key {
		snap := c.snap
		c.mu.Unlock()
		return snap, true
	}
	c.mu.Unlock()

	computed := false
	v, _, _ := c.group.Do(strconv.FormatUint(key, 16), func() (any, error) {
		computed = true
		snap := c.compute(in)
		c.mu.Lock()
		c.key, c.snap, c.valid = key, snap, true
		c.mu.Unlock()
		return snap, nil
	})
	return v.(Snapshot), !computed
}

// Invalidate drops the cached snapshot.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.snap = Snapshot{}
	c.mu.Unlock()
}

// Fingerprint hashes the inputs by value together with the current calendar
// day, since windows move at midnight. It reports false for inputs that cannot
// be encoded, such as NaN scores.
func Fingerprint(in Input) (uint64, bool) {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	d := xxhash.New()
	err := json.NewEncoder(d).Encode(struct {
		Articles   []Article
		Sources    []Source
		Range      int
		Sentiment  *ExternalSentiment
		TopicTrend *ExternalTopicTrend
		Day        string
		Zone       string
	}{
		Articles:   in.Articles,
		Sources:    in.Sources,
		Range:      int(in.Range),
		Sentiment:  in.Sentiment,
		TopicTrend: in.TopicTrend,
		Day:        dayKey(now),
		Zone:       now.Location().String(),
	})
	if err != nil {
		return 0, false
	}
	return d.Sum64(), true
}
