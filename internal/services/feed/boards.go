package feed

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"satark-portal/internal/domain/model"
)

// BoardLimit 是看板页一次拉取的条数（看板不分页）。
const BoardLimit = 50

const (
	defaultLocation = "Delhi NCR"
	defaultAlias    = "Unknown"
	defaultPhoto    = "/static/badge.svg"
)

// Card 是最高通缉 / 失踪人员看板上的一张卡片。
type Card struct {
	ID          string
	Ref         string
	Title       string
	Name        string
	Alias       string
	Location    string
	Priority    string
	Reward      string
	Image       string
	Description string
	Risk        string // details.risk，缺省按优先级推断 EXTREME/HIGH
	Category    string
}

// Armed 对应卡片上的 "ARMED & DANGEROUS" 标签。
func (c Card) Armed() bool { return c.Risk == "EXTREME" }

// Board 区分两个看板。
type Board int

const (
	BoardWanted Board = iota
	BoardMissing
)

// PriorityFilters 是看板上的优先级按钮。失踪人员看板额外允许按 risk=EXTREME 过滤。
func (b Board) PriorityFilters() []string {
	if b == BoardMissing {
		return []string{"All", "CRITICAL", "HIGH", "EXTREME"}
	}
	return []string{"All", "CRITICAL", "HIGH"}
}

// Includes 判断一条 lead 是否属于该看板。
func (b Board) Includes(l model.Lead) bool {
	switch b {
	case BoardWanted:
		return l.Status == string(model.StatusWanted)
	case BoardMissing:
		return l.Status == string(model.StatusMissing) || l.NoticeType == string(model.NoticeMissingPerson)
	}
	return false
}

// LoadBoard 拉取最近 BoardLimit 条公开 lead 并映射成卡片。
func LoadBoard(ctx context.Context, src Lister, b Board) ([]Card, error) {
	leads, err := src.ListPublicLeads(ctx, model.FeedQuery{Limit: BoardLimit})
	if err != nil {
		return nil, fmt.Errorf("list public leads: %w", err)
	}
	return Cards(leads, b), nil
}

// Cards 按看板过滤并映射。
func Cards(leads []model.Lead, b Board) []Card {
	out := []Card{}
	for _, l := range leads {
		if b.Includes(l) {
			out = append(out, toCard(l))
		}
	}
	return out
}

func toCard(l model.Lead) Card {
	d := l.ParsedDetails()
	risk := d.String("risk")
	if risk == "" {
		risk = "HIGH"
		if l.PriorityValue() == model.PriorityCritical {
			risk = "EXTREME"
		}
	}
	return Card{
		ID:          l.ID,
		Ref:         l.Ref(),
		Title:       l.Title,
		Name:        or(d.String("name", "full_name"), l.Title),
		Alias:       or(d.String("alias"), defaultAlias),
		Location:    or(l.Location, defaultLocation),
		Priority:    l.Priority,
		Reward:      string(l.RewardAmount),
		Image:       or(l.ImageURL, defaultPhoto),
		Description: l.Description,
		Risk:        risk,
		Category:    or(l.CategoryID, "general"),
	}
}

// FilterCards 按姓名/标题（不区分大小写）和优先级过滤。
// priority 为空或 "All" 时不过滤；失踪看板的筛选项是风险等级，只在该看板上与 Risk 比较。
func FilterCards(cards []Card, b Board, search, priority string) []Card {
	search = strings.ToLower(strings.TrimSpace(search))
	priority = strings.TrimSpace(priority)
	out := []Card{}
	for _, c := range cards {
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Name), search) &&
			!strings.Contains(strings.ToLower(c.Title), search) {
			continue
		}
		if priority != "" && !strings.EqualFold(priority, "All") &&
			c.Priority != priority && (b != BoardMissing || c.Risk != priority) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// TickerSize 是通缉滚动条展示的人数。
const TickerSize = 10

// Ticker 选出通缉滚动条：CRITICAL 优先，其次有悬赏的，其余保持接口返回顺序。
func Ticker(leads []model.Lead) []Card {
	cards := Cards(leads, BoardWanted)
	sort.SliceStable(cards, func(i, j int) bool {
		ci, cj := cards[i].Priority == string(model.PriorityCritical), cards[j].Priority == string(model.PriorityCritical)
		if ci != cj {
			return ci
		}
		ri, rj := cards[i].Reward != "", cards[j].Reward != ""
		if ri != rj {
			return ri
		}
		return false
	})
	if len(cards) > TickerSize {
		cards = cards[:TickerSize]
	}
	return cards
}

func or(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
