package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Status 表示 lead 的生命周期状态。
// 前 5 个是市民提交情报的审核状态，后 4 个是警方发布的公开通告类型。
type Status string

const (
	StatusSubmitted   Status = "SUBMITTED"
	StatusReviewed    Status = "REVIEWED"
	StatusActioned    Status = "ACTIONED"
	StatusClosed      Status = "CLOSED"
	StatusRejected    Status = "REJECTED"
	StatusWanted      Status = "WANTED"
	StatusMissing     Status = "MISSING"
	StatusAlert       Status = "ALERT"
	StatusInfoSeeking Status = "INFO_SEEKING"

	// StatusUnpublish 只出现在 PUT /status 请求中（撤下公开通告），不会作为 lead 的落库状态返回。
	StatusUnpublish Status = "UNPUBLISH"
)

// Statuses 是后端返回的全部已知状态。
var Statuses = []Status{
	StatusSubmitted, StatusReviewed, StatusActioned, StatusClosed, StatusRejected,
	StatusWanted, StatusMissing, StatusAlert, StatusInfoSeeking,
}

// ParseStatus 大小写不敏感地解析状态；空串按 SUBMITTED 处理。
func ParseStatus(s string) (Status, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return StatusSubmitted, true
	}
	for _, st := range Statuses {
		if string(st) == s {
			return st, true
		}
	}
	return Status(s), false
}

// Priority 表示 lead 优先级。
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// ParsePriority 大小写不敏感；未知值原样（大写）返回且 ok=false。
func ParsePriority(s string) (Priority, bool) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return p, true
	}
	return p, false
}

// RewardStatus 表示悬赏状态。
type RewardStatus string

const (
	RewardNone        RewardStatus = "NONE"
	RewardActive      RewardStatus = "ACTIVE"
	RewardRecommended RewardStatus = "RECOMMENDED"
	RewardApproved    RewardStatus = "APPROVED"
	RewardClaimed     RewardStatus = "CLAIMED"
)

// IdentityMode 表示提交来源身份。
type IdentityMode string

const (
	IdentityAnonymous IdentityMode = "ANONYMOUS"
	IdentityNamed     IdentityMode = "NAMED"
	IdentityOfficial  IdentityMode = "OFFICIAL"
)

// NoticeKind 是 notice_type 字段的取值（后端用于区分公开通告类别）。
type NoticeKind string

const (
	NoticeWantedPerson  NoticeKind = "wanted_person"
	NoticeMissingPerson NoticeKind = "missing_person"
	NoticePublicAlert   NoticeKind = "public_alert"
)

// FlexString 兼容后端把同一字段有时编码为数字、有时编码为字符串的情况（如 reward_amount）。
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "" || raw == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(raw)
	return nil
}

// Lead 是后端 lead/notice 记录在本地的视图模型。
// 本仓库不落库 lead，只做透传与展示。
type Lead struct {
	ID                 string          `json:"id"`
	Token              string          `json:"token,omitempty"`
	Title              string          `json:"title,omitempty"`
	Description        string          `json:"description,omitempty"`
	Status             string          `json:"status,omitempty"`
	Priority           string          `json:"priority,omitempty"`
	NoticeType         string          `json:"notice_type,omitempty"`
	IdentityMode       string          `json:"identity_mode,omitempty"`
	IsPublic           bool            `json:"is_public"`
	IsAnonymous        bool            `json:"is_anonymous"`
	IsPinned           bool            `json:"is_pinned"`
	IntelligenceRating int             `json:"intelligence_rating,omitempty"`
	InternalNotes      string          `json:"internal_notes,omitempty"`
	RewardAmount       FlexString      `json:"reward_amount,omitempty"`
	RewardStatus       string          `json:"reward_status,omitempty"`
	CategoryID         string          `json:"category_id,omitempty"`
	JurisdictionID     string          `json:"jurisdiction_id,omitempty"`
	Location           string          `json:"location,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	Details            json.RawMessage `json:"details,omitempty"`
	Media              []MediaItem     `json:"media,omitempty"`
	ImageURL           string          `json:"image_url,omitempty"`
	ParentLeadID       string          `json:"parent_lead_id,omitempty"`
	Votes              int             `json:"votes,omitempty"`
}

// ParsedDetails 返回防御性解析后的 details（见 ParseDetails）。
func (l Lead) ParsedDetails() Details {
	return ParseDetails(l.Details)
}

// StatusValue 返回规范化后的状态。
func (l Lead) StatusValue() Status {
	st, _ := ParseStatus(l.Status)
	return st
}

// PriorityValue 返回规范化后的优先级。
func (l Lead) PriorityValue() Priority {
	p, _ := ParsePriority(l.Priority)
	return p
}

// HasActiveReward 悬赏金额非空且状态为 ACTIVE。
func (l Lead) HasActiveReward() bool {
	amt := strings.TrimSpace(string(l.RewardAmount))
	return amt != "" && amt != "0" && strings.EqualFold(l.RewardStatus, string(RewardActive))
}

// Ref 返回对外展示的案件编号：优先 token，其次 id。
func (l Lead) Ref() string {
	if t := strings.TrimSpace(l.Token); t != "" {
		return t
	}
	return l.ID
}
