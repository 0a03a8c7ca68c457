package model

// FeedQuery 是公开列表接口的查询参数。空值字段不会出现在查询串里。
type FeedQuery struct {
	Limit        int
	Offset       int
	Status       string
	Priority     string
	Category     string
	Jurisdiction string
	Search       string
	Sort         string // newest|popular|trending
}

// Unit 是一个警务单位（辖区、分局或派出所）。
type Unit struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DistrictID string `json:"district_id,omitempty"`
}

// UnitHierarchy 是 GET /api/units/hierarchy 的响应，三级平铺。
type UnitHierarchy struct {
	Districts      []Unit `json:"districts"`
	SubDivisions   []Unit `json:"subDivisions"`
	PoliceStations []Unit `json:"policeStations"`
}

// All 按 辖区 -> 分局 -> 派出所 的顺序平铺，便于渲染下拉框。
func (h UnitHierarchy) All() []Unit {
	out := make([]Unit, 0, len(h.Districts)+len(h.SubDivisions)+len(h.PoliceStations))
	out = append(out, h.Districts...)
	out = append(out, h.SubDivisions...)
	out = append(out, h.PoliceStations...)
	return out
}

// Empty 三级都为空。
func (h UnitHierarchy) Empty() bool {
	return len(h.Districts) == 0 && len(h.SubDivisions) == 0 && len(h.PoliceStations) == 0
}

// StatusUpdate 是 PUT /api/leads/:id/status 的请求体。
type StatusUpdate struct {
	Status       Status         `json:"status"`
	RewardAction string         `json:"reward_action,omitempty"`
	RewardData   map[string]any `json:"reward_data,omitempty"`
}
