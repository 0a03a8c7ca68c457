// Package casefile 是警员端的案件详情：主 lead + 关联线索时间线 + 警员操作。
package casefile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"satark-portal/internal/adapters/leadsapi"
	"satark-portal/internal/domain/model"
	"satark-portal/internal/platform/logging"
)

// API 是案件页用到的后端接口，*leadsapi.Client 实现了它。
type API interface {
	GetLead(ctx context.Context, s leadsapi.Session, id string) (*model.Lead, error)
	ListThread(ctx context.Context, s leadsapi.Session, parentID string) ([]model.Lead, error)
	TogglePin(ctx context.Context, s leadsapi.Session, id string) error
	Rate(ctx context.Context, s leadsapi.Session, id string, rating int) error
	UpdateNotes(ctx context.Context, s leadsapi.Session, id, notes string) error
	UpdateStatus(ctx context.Context, s leadsapi.Session, id string, upd model.StatusUpdate) error
}

// Auditor 记录警员操作，*sqlite.Store 实现了它。
type Auditor interface {
	AppendAudit(ctx context.Context, leadID, eventType, action, status, actor, source string, detail any) error
}

// ErrUnauthorized 表示凭据失效：调用方应清除会话并跳转登录页。
var ErrUnauthorized = leadsapi.ErrUnauthorized

type Service struct {
	api   API
	audit Auditor
	log   *zap.Logger
}

func NewService(api API, audit Auditor, logger *zap.Logger) *Service {
	return &Service{api: api, audit: audit, log: logging.OrNop(logger)}
}

// Case 是案件页的本地状态。
type Case struct {
	ID     string
	Lead   *model.Lead
	Thread []model.Lead

	// Unavailable 为 true 时 Lead 为空，页面展示 Title/Message。
	Unavailable bool
	Title       string
	Message     string
}

// Load 并发拉取主 lead 与关联线索。
// 主 lead 返回 401/403 时返回 ErrUnauthorized；其它失败返回 Unavailable 状态而不是错误。
// 关联线索拉取失败只记日志，时间线为空。
func (s *Service) Load(ctx context.Context, sess leadsapi.Session, id string) (*Case, error) {
	id = strings.TrimSpace(id)
	c := &Case{ID: id}

	var (
		lead   *model.Lead
		thread []model.Lead
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l, err := s.api.GetLead(gctx, sess, id)
		if err != nil {
			return err
		}
		lead = l
		return nil
	})
	g.Go(func() error {
		items, err := s.api.ListThread(gctx, sess, id)
		if err != nil {
			if gctx.Err() == nil {
				s.log.Warn("load case thread failed", zap.String("lead_id", id), zap.Error(err))
			}
			return nil
		}
		thread = items
		return nil
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, leadsapi.ErrUnauthorized) {
			return nil, fmt.Errorf("load case %s: %w", id, ErrUnauthorized)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log.Warn("load case failed", zap.String("lead_id", id), zap.Error(err))
		return unavailable(id), nil
	}
	if lead == nil {
		return unavailable(id), nil
	}

	c.Lead = lead
	c.Thread = make([]model.Lead, 0, len(thread))
	for _, l := range thread {
		if l.ID != lead.ID {
			c.Thread = append(c.Thread, l)
		}
	}
	SortThread(c.Thread)
	return c, nil
}

func unavailable(id string) *Case {
	return &Case{
		ID:          id,
		Unavailable: true,
		Title:       "Case Unavailable",
		Message:     fmt.Sprintf("The requested intelligence dossier (ID: %s) could not be retrieved.", id),
	}
}

// SortThread 置顶在前，组内按 created_at 倒序。
func SortThread(items []model.Lead) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].IsPinned != items[j].IsPinned {
			return items[i].IsPinned
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

// Tab 是时间线的筛选页签。
type Tab string

const (
	TabAll          Tab = "all"
	TabAnonymous    Tab = "anonymous"
	TabConfidential Tab = "confidential"
	TabNotes        Tab = "notes"
)

// ParseTab 未知值按 all 处理。
func ParseTab(s string) Tab {
	switch t := Tab(strings.ToLower(strings.TrimSpace(s))); t {
	case TabAnonymous, TabConfidential, TabNotes:
		return t
	}
	return TabAll
}

// TabCount 是页签及其计数。
type TabCount struct {
	Tab   Tab
	Label string
	Count int
}

// Tabs 返回四个页签的计数。notes 计的是已有内部备注的条数。
func (c *Case) Tabs() []TabCount {
	var anon, conf, notes int
	for _, l := range c.Thread {
		if l.IsAnonymous {
			anon++
		} else {
			conf++
		}
		if strings.TrimSpace(l.InternalNotes) != "" {
			notes++
		}
	}
	return []TabCount{
		{TabAll, "All Intel", len(c.Thread)},
		{TabAnonymous, "Anonymous", anon},
		{TabConfidential, "Confidential", conf},
		{TabNotes, "Enquiry Notes", notes},
	}
}

// Timeline 按页签过滤并排序。notes 页签展示全部，便于逐条补备注。
func (c *Case) Timeline(tab Tab) []model.Lead {
	out := make([]model.Lead, 0, len(c.Thread))
	for _, l := range c.Thread {
		switch tab {
		case TabAnonymous:
			if !l.IsAnonymous {
				continue
			}
		case TabConfidential:
			if l.IsAnonymous {
				continue
			}
		}
		out = append(out, l)
	}
	SortThread(out)
	return out
}

// patch 对时间线中 id 对应的条目执行 fn；找不到返回 false。
func (c *Case) patch(id string, fn func(*model.Lead)) bool {
	if c == nil {
		return false
	}
	for i := range c.Thread {
		if c.Thread[i].ID == id {
			fn(&c.Thread[i])
			return true
		}
	}
	return false
}
