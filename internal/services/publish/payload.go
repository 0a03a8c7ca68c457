package publish

import (
	"strings"
	"time"

	"satark-portal/internal/app"
	"satark-portal/internal/domain/model"
)

const (
	officerName    = "Officer (Self)"
	anonymousName  = "Anonymous Officer"
	officerContact = "OFFICIAL-CHANNEL"
)

// IncidentDetails 是 payload.incident_details。
type IncidentDetails struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Name        string `json:"name"`
	Contact     string `json:"contact"`
}

// Payload 是 POST /api/leads 的 payload 字段（JSON 字符串）。
type Payload struct {
	IncidentDetails IncidentDetails    `json:"incident_details"`
	IdentityMode    model.IdentityMode `json:"identity_mode"`
	JurisdictionID  string             `json:"jurisdiction_id"`
	IncidentTime    string             `json:"incident_time"`
	NoticeType      model.NoticeKind   `json:"notice_type,omitempty"`
	CategoryID      string             `json:"category_id"`
	Priority        model.Priority     `json:"priority"`
	Details         model.FormData     `json:"details"`
	IsPublic        bool               `json:"is_public"`
	Status          model.Status       `json:"status"`
	RewardAmount    *string            `json:"reward_amount"`
}

// isoTime 与浏览器 toISOString 的输出格式一致。
func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func rewardOf(d model.Details) *string {
	v := strings.TrimSpace(d.String("reward_amount"))
	if v == "" {
		return nil
	}
	return &v
}

// ComposePayload 按通告类型把草稿组装成提交 payload。
// 标题前缀、优先级和身份模式的映射是固定表，details 原样携带整个草稿。
func ComposePayload(n model.Notice, data model.FormData, now time.Time) Payload {
	d := data.Details()
	p := Payload{
		IncidentDetails: IncidentDetails{Name: officerName, Contact: officerContact},
		JurisdictionID:  app.DefaultJurisdictionID,
		IncidentTime:    isoTime(now),
		Details:         data.Clone(),
		IsPublic:        true,
	}

	switch n {
	case model.NoticeWanted:
		p.IncidentDetails.Title = "WANTED: " + orDefault(d.String("name"), "Unknown Subject")
		p.IncidentDetails.Description = d.String("description")
		if p.IncidentDetails.Description == "" {
			p.IncidentDetails.Description = "Wanted for: " + strings.Join(d.Strings("charges"), ", ")
		}
		p.IdentityMode = model.IdentityNamed
		p.IncidentTime = orDefault(d.String("crime_date"), p.IncidentTime)
		p.NoticeType = model.NoticeWantedPerson
		p.CategoryID = orDefault(d.String("category"), "other")
		p.Priority = model.PriorityHigh
		if d.String("risk") == "EXTREME" || d.Bool("armed_and_dangerous") {
			p.Priority = model.PriorityCritical
		}
		p.Status = model.StatusWanted
		p.RewardAmount = rewardOf(d)

	case model.NoticeMissing:
		p.IncidentDetails.Title = "MISSING: " + orDefault(d.String("name"), "Unknown Person")
		p.IncidentDetails.Description = strings.TrimSpace(
			"Missing since " + d.String("missing_date") + ". Last seen at " + d.String("missing_from") + ". " + d.String("remarks"))
		p.IdentityMode = model.IdentityNamed
		p.IncidentTime = orDefault(d.String("missing_date"), p.IncidentTime)
		p.NoticeType = model.NoticeMissingPerson
		p.CategoryID = orDefault(d.String("category"), "kidnapping")
		p.Priority = model.PriorityHigh
		p.Status = model.StatusMissing
		p.RewardAmount = rewardOf(d)

	case model.NoticeAlert:
		p.IncidentDetails.Title = "ALERT: " + orDefault(d.String("title"), "Safety Warning")
		p.IncidentDetails.Description = orDefault(d.String("description"), "Urgent public safety notification.")
		p.IdentityMode = model.IdentityOfficial
		p.NoticeType = model.NoticePublicAlert
		p.CategoryID = orDefault(d.String("category"), "other")
		p.Priority = model.PriorityHigh
		if d.String("severity") == "Critical" {
			p.Priority = model.PriorityCritical
		}
		p.Status = model.StatusAlert

	case model.NoticeSeeking:
		p.IncidentDetails.Title = "APPEAL: " + orDefault(d.String("incident_title"), "Information Request")
		p.IncidentDetails.Description = d.String("incident_description", "seeking_description")
		p.IdentityMode = model.IdentityOfficial
		p.IncidentTime = orDefault(d.String("incident_date"), p.IncidentTime)
		p.CategoryID = "other"
		p.Priority = model.PriorityHigh
		p.Status = model.StatusInfoSeeking

	default: // general
		anonymous := d.Bool("is_anonymous")
		p.IncidentDetails.Title = "INTEL: " + orDefault(d.String("title"), "Field Report")
		p.IncidentDetails.Description = orDefault(d.String("description"), "General intelligence submission.")
		p.IdentityMode = model.IdentityOfficial
		if anonymous {
			p.IncidentDetails.Name = anonymousName
			p.IdentityMode = model.IdentityAnonymous
		}
		p.IncidentTime = orDefault(d.String("observation_time"), p.IncidentTime)
		p.CategoryID = orDefault(strings.ToLower(d.String("category")), "other")
		p.Priority = model.Priority(strings.ToUpper(orDefault(d.String("priority"), "MEDIUM")))
		p.IsPublic = d.Bool("is_public")
		p.Status = model.StatusSubmitted
	}
	return p
}
