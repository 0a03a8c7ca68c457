package feed

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"satark-portal/internal/adapters/leadsapi"
	"satark-portal/internal/domain/model"
	"satark-portal/internal/platform/logging"
)

// PageSize 是首页每次拉取的条数。
const PageSize = 10

// Lister 是公开列表接口，*leadsapi.Client 实现了它。
type Lister interface {
	ListPublicLeads(ctx context.Context, q model.FeedQuery) ([]model.Lead, error)
}

// Item 是信息流中的一条。
type Item struct {
	model.Lead
	Pinned bool
	Reward string
}

// Page 是分页器当前状态的快照。
type Page struct {
	Filter  Filter
	Items   []Item
	Next    int // 下一次要请求的页号
	HasMore bool
	Loading bool
}

// Paginator 维护一个筛选状态下累积的结果。
//
// 每次请求分配递增序号；Reset 会抬高下限并取消在途请求，
// 序号不高于下限的响应一律丢弃。同一时刻只允许一个在途请求。
type Paginator struct {
	src  Lister
	size int
	log  *zap.Logger

	mu       sync.Mutex
	filter   Filter
	next     int
	hasMore  bool
	items    []model.Lead
	index    map[string]int
	seq      uint64
	floor    uint64
	inflight context.CancelFunc
}

func NewPaginator(src Lister, size int, logger *zap.Logger) *Paginator {
	if size <= 0 {
		size = PageSize
	}
	p := &Paginator{src: src, size: size, log: logging.OrNop(logger)}
	p.Reset(Filter{})
	return p
}

// Reset 切换筛选条件：回到第 0 页，清空已有结果，取消在途请求。
func (p *Paginator) Reset(f Filter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inflight != nil {
		p.inflight()
		p.inflight = nil
	}
	p.floor = p.seq
	p.filter = f
	p.next = 0
	p.hasMore = true
	p.items = nil
	p.index = map[string]int{}
}

// Next 拉取下一页并合并，返回本次新增条数。
// 已无更多、或已有请求在途时不发请求，直接返回 0。
func (p *Paginator) Next(ctx context.Context) (int, error) {
	p.mu.Lock()
	if !p.hasMore || p.inflight != nil {
		p.mu.Unlock()
		return 0, nil
	}
	p.seq++
	seq := p.seq
	page := p.next
	q := p.filter.Query(page, p.size)
	ctx, cancel := context.WithCancel(ctx)
	p.inflight = cancel
	p.mu.Unlock()

	leads, err := p.src.ListPublicLeads(ctx, q)
	cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if seq <= p.floor {
		p.log.Debug("discard stale feed page", zap.Uint64("seq", seq), zap.Int("page", page))
		return 0, nil
	}
	p.inflight = nil

	if err != nil {
		var apiErr *leadsapi.APIError
		switch {
		case errors.As(err, &apiErr), errors.Is(err, leadsapi.ErrUnexpectedShape):
			// 读接口失败：停止分页
			p.hasMore = false
			p.log.Warn("feed page failed, stop paginating", zap.Int("page", page), zap.Error(err))
			return 0, nil
		default:
			p.log.Warn("feed page transport error", zap.Int("page", page), zap.Error(err))
			return 0, err
		}
	}

	if len(leads) < p.size {
		p.hasMore = false
	}
	added := p.merge(leads)
	p.next = page + 1
	return added, nil
}

// merge 按 id 去重：后到的数据覆盖旧数据，位置保持第一次出现的位置。
func (p *Paginator) merge(leads []model.Lead) int {
	added := 0
	for _, l := range leads {
		if i, ok := p.index[l.ID]; ok {
			p.items[i] = l
			continue
		}
		p.index[l.ID] = len(p.items)
		p.items = append(p.items, l)
		added++
	}
	return added
}

// Snapshot 返回当前结果的拷贝。
func (p *Paginator) Snapshot() Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := Page{
		Filter:  p.filter,
		Next:    p.next,
		HasMore: p.hasMore,
		Loading: p.inflight != nil,
		Items:   make([]Item, len(p.items)),
	}
	for i, l := range p.items {
		out.Items[i] = Item{Lead: l, Reward: string(l.RewardAmount)}
	}
	if len(out.Items) > 0 && pinnable(out.Items[0].Lead) {
		out.Items[0].Pinned = true
	}
	return out
}

// pinnable：首条为 CRITICAL 或标题含 "Appeal" 时置顶。
func pinnable(l model.Lead) bool {
	return l.PriorityValue() == model.PriorityCritical || strings.Contains(l.Title, "Appeal")
}
