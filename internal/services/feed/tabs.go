// Package feed 实现公开列表页：首页信息流分页、最高通缉/失踪人员看板、通缉滚动条。
package feed

import (
	"strings"

	"satark-portal/internal/domain/model"
)

// DefaultSort 是未被 tab 覆盖时的排序。
const DefaultSort = "newest"

// Tab 是首页上方的一个筛选页签。
type Tab struct {
	Key   string
	Label string
}

// Tabs 是首页页签的展示顺序。
var Tabs = []Tab{
	{"all", "All Updates"},
	{"myfeed", "Live Feed"},
	{"wanted", "Wanted"},
	{"missing", "Missing"},
	{"alert", "Alerts"},
	{"appeal", "Appeals"},
	{"critical", "Critical"},
	{"rewards", "Rewards"},
	{"popular", "Popular"},
	{"trending", "Trending"},
}

// TabParams 把页签和搜索词映射成列表接口参数（固定表）。
// 未知页签按大写后的 priority 透传。
func TabParams(tab, search string) model.FeedQuery {
	q := model.FeedQuery{Search: strings.TrimSpace(search), Sort: DefaultSort}
	switch strings.ToLower(strings.TrimSpace(tab)) {
	case "", "all":
	case "myfeed":
		q.Sort = "trending"
	case "missing":
		q.Status = string(model.StatusMissing)
	case "wanted":
		q.Status = string(model.StatusWanted)
	case "alert":
		q.Status = string(model.StatusAlert)
	case "appeal":
		if q.Search == "" {
			q.Search = "Appeal"
		}
	case "critical":
		q.Priority = string(model.PriorityCritical)
	case "rewards":
		q.Priority = "REWARDS"
	case "popular":
		q.Sort = "popular"
	case "trending":
		q.Sort = "trending"
	default:
		q.Priority = strings.ToUpper(strings.TrimSpace(tab))
	}
	return q
}

// Filter 是一次分页会话的筛选状态；任一字段变化都要 Reset。
type Filter struct {
	Tab          string
	Search       string
	Category     string
	Jurisdiction string
}

// Query 生成第 page 页（从 0 开始）的请求参数。
func (f Filter) Query(page, size int) model.FeedQuery {
	q := TabParams(f.Tab, f.Search)
	q.Category = strings.TrimSpace(f.Category)
	q.Jurisdiction = strings.TrimSpace(f.Jurisdiction)
	q.Limit = size
	q.Offset = page * size
	return q
}
