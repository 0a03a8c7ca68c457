package webapp

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"satark-portal/internal/services/feed"
)

// feedManager 按访客保存信息流分页状态（"加载更多"在同一筛选下继续翻页）。
type feedManager struct {
	src  feed.Lister
	size int
	log  *zap.Logger

	mu    sync.Mutex
	feeds map[string]*feedEntry
	now   func() time.Time
}

type feedEntry struct {
	p        *feed.Paginator
	lastUsed time.Time
}

func newFeedManager(src feed.Lister, size int, logger *zap.Logger) *feedManager {
	return &feedManager{src: src, size: size, log: logger, feeds: make(map[string]*feedEntry), now: time.Now}
}

// get 返回访客的分页器，没有则新建。
func (m *feedManager) get(visitor string) *feed.Paginator {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.feeds[visitor]
	if !ok {
		e = &feedEntry{p: feed.NewPaginator(m.src, m.size, m.log)}
		m.feeds[visitor] = e
	}
	e.lastUsed = m.now()
	return e.p
}

// purge 删除闲置超过 maxAge 的分页状态。
func (m *feedManager) purge(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-maxAge)
	n := 0
	for k, e := range m.feeds {
		if e.lastUsed.Before(cutoff) {
			delete(m.feeds, k)
			n++
		}
	}
	return n
}

func (m *feedManager) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.feeds)
}
