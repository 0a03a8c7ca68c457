// Package tips 处理市民线索提交（匿名 / 实名 / 公开）与按 token 查询进度。
package tips

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"satark-portal/internal/adapters/leadsapi"
	"satark-portal/internal/app"
	"satark-portal/internal/domain/model"
	"satark-portal/internal/domain/schema"
	"satark-portal/internal/platform/logging"
	"satark-portal/internal/services/privacy"
	"satark-portal/internal/services/publish"
)

// DefaultTitle 是未填写标题时的默认标题。
const DefaultTitle = "Portal Report"

// ErrNoToken 表示后端接受了请求但没有返回追踪 token。
var ErrNoToken = errors.New("submission accepted without a tracking token")

// API 是市民端用到的后端接口，*leadsapi.Client 实现了它。
type API interface {
	CreateLead(ctx context.Context, s leadsapi.Session, payload any, files []leadsapi.Attachment) (*leadsapi.CreateResult, error)
	GetPublicLead(ctx context.Context, id string) (*model.Lead, error)
	TrackLead(ctx context.Context, token string) (*model.Lead, error)
	UnitHierarchy(ctx context.Context) (model.UnitHierarchy, error)
}

// Report 是线索表单的内容。
type Report struct {
	Title        string
	Description  string
	Name         string
	Contact      string
	IncidentTime string // datetime-local，如 2026-05-01T10:30
	CategoryID   string
	UnitID       string
	Ref          string // 关联的公开案件 id
	Anonymous    bool
	Public       bool
	Files        []leadsapi.Attachment
}

// NewReport 按页面 URL 参数预填：mode=named|public、ref、title。
// 默认匿名、不公开。
func NewReport(mode, ref, title string) Report {
	r := Report{Anonymous: true}
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "named":
		r.Anonymous = false
	case "public":
		r.Anonymous = false
		r.Public = true
	}
	r.Title = strings.TrimSpace(title)
	if ref = strings.TrimSpace(ref); ref != "" {
		r.Ref = ref
		r.Description = fmt.Sprintf("Referencing Case ID: %s\n\n", ref)
	}
	return r
}

// Payload 是市民提交的 payload 字段。
type Payload struct {
	IncidentDetails publish.IncidentDetails `json:"incident_details"`
	IdentityMode    model.IdentityMode      `json:"identity_mode"`
	IsPublic        bool                    `json:"is_public"`
	JurisdictionID  string                  `json:"jurisdiction_id"`
	IncidentTime    string                  `json:"incident_time"`
	CategoryID      string                  `json:"category_id"`
	ParentLeadID    *string                 `json:"parent_lead_id"`
	Details         map[string]any          `json:"details"`
}

// Payload 组装提交内容。匿名模式不上送姓名与联系方式；
// 辖区不是合法 UUID 时使用默认辖区。
func (r Report) Payload() Payload {
	p := Payload{
		IncidentDetails: publish.IncidentDetails{
			Title:       strings.TrimSpace(r.Title),
			Description: r.Description,
		},
		IdentityMode:   model.IdentityNamed,
		IsPublic:       r.Public,
		JurisdictionID: jurisdiction(r.UnitID),
		IncidentTime:   incidentTime(r.IncidentTime),
		CategoryID:     strings.TrimSpace(r.CategoryID),
		Details:        map[string]any{},
	}
	if p.IncidentDetails.Title == "" {
		p.IncidentDetails.Title = DefaultTitle
	}
	if r.Anonymous {
		p.IdentityMode = model.IdentityAnonymous
	} else {
		p.IncidentDetails.Name = strings.TrimSpace(r.Name)
		p.IncidentDetails.Contact = strings.TrimSpace(r.Contact)
	}
	if ref := strings.TrimSpace(r.Ref); ref != "" {
		p.ParentLeadID = &ref
	}
	return p
}

func jurisdiction(unitID string) string {
	unitID = strings.TrimSpace(unitID)
	if _, err := uuid.Parse(unitID); err != nil {
		return app.DefaultJurisdictionID
	}
	return unitID
}

// incidentTime 把 datetime-local 转成 UTC ISO 时间；解析不了的原样上送。
func incidentTime(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
		}
	}
	return s
}

type Service struct {
	api API
	log *zap.Logger
}

func NewService(api API, logger *zap.Logger) *Service {
	return &Service{api: api, log: logging.OrNop(logger)}
}

// Units 拉取辖区层级；接口失败或返回空时使用内置层级，fallback=true。
func (s *Service) Units(ctx context.Context) (h model.UnitHierarchy, fallback bool) {
	h, err := s.api.UnitHierarchy(ctx)
	if err != nil || h.Empty() {
		if err != nil {
			s.log.Warn("unit hierarchy unavailable, using built-in list", zap.Error(err))
		}
		return schema.FallbackHierarchy(), true
	}
	return h, false
}

// Referenced 读取被引用的公开案件；失败返回 nil。
func (s *Service) Referenced(ctx context.Context, ref string) *model.Lead {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	l, err := s.api.GetPublicLead(ctx, ref)
	if err != nil {
		s.log.Warn("fetch referenced lead failed", zap.String("ref", ref), zap.Error(err))
		return nil
	}
	return l
}

// Submit 匿名调用创建接口，返回市民用于追踪的 token。
func (s *Service) Submit(ctx context.Context, r Report) (string, error) {
	res, err := s.api.CreateLead(ctx, leadsapi.Session{}, r.Payload(), r.Files)
	if err != nil {
		s.log.Warn("submit tip failed", zap.Error(err))
		return "", fmt.Errorf("submit tip: %w", err)
	}
	token := strings.TrimSpace(res.Lead.Token)
	if token == "" {
		s.log.Warn("submit tip returned no token", zap.String("lead_id", res.Lead.ID))
		return "", ErrNoToken
	}
	fields := []zap.Field{
		zap.String("token", privacy.MaskToken(token)),
		zap.Bool("anonymous", r.Anonymous),
		zap.Int("evidence", len(r.Files)),
	}
	if !r.Anonymous {
		fields = append(fields,
			zap.String("informant", privacy.MaskName(r.Name)),
			zap.String("contact", privacy.MaskContact(r.Contact)),
		)
	}
	s.log.Info("tip submitted", fields...)
	return token, nil
}

// Track 按 token 查询线索进度。
func (s *Service) Track(ctx context.Context, token string) (*model.Lead, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("token is required")
	}
	l, err := s.api.TrackLead(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("track %s: %w", privacy.MaskToken(token), err)
	}
	return l, nil
}
