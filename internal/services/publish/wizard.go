// Package publish 实现警员发布通告的三步向导：填表、附件、预览后提交。
package publish

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"satark-portal/internal/adapters/leadsapi"
	"satark-portal/internal/domain/model"
	"satark-portal/internal/domain/schema"
)

// Step 是向导步骤（1..3）。
type Step int

const (
	StepForm     Step = 1
	StepEvidence Step = 2
	StepPreview  Step = 3
)

// StepLabels 是步骤条上的文字。
var StepLabels = map[Step]string{
	StepForm:     "Details",
	StepEvidence: "Evidence",
	StepPreview:  "Preview",
}

// Draft 是向导草稿，只存在内存中。
type Draft struct {
	Data    model.FormData
	Pending map[string]string // tags 输入框里尚未回车的文本
	Files   []leadsapi.Attachment
	Mugshot *leadsapi.Attachment
}

// Wizard 是一次发布流程。
type Wizard struct {
	ID        string
	Owner     string // 会话 id
	Notice    model.Notice
	Step      Step
	Draft     Draft
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Creator 是提交所需的最小接口（leadsapi.Client 实现它）。
type Creator interface {
	CreateLead(ctx context.Context, s leadsapi.Session, payload any, files []leadsapi.Attachment) (*leadsapi.CreateResult, error)
}

// ErrEmptyResult 表示后端返回成功但没有可跳转的 id。
var ErrEmptyResult = errors.New("publish: created lead has no id")

// NewWizard 以字段表默认值初始化草稿。
func NewWizard(n model.Notice) *Wizard {
	now := time.Now()
	return &Wizard{
		Notice:    n,
		Step:      StepForm,
		Draft:     Draft{Data: schema.Defaults(n), Pending: map[string]string{}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Fields 返回当前通告类型的字段表。
func (w *Wizard) Fields() []model.Field {
	return schema.Fields(w.Notice)
}

// Set 是表单渲染器的 onChange：父级持有状态，渲染器只上报修改。
func (w *Wizard) Set(name string, value any) {
	if w.Draft.Data == nil {
		w.Draft.Data = model.FormData{}
	}
	w.Draft.Data[name] = value
}

// Next 前进一步，最多到预览。
func (w *Wizard) Next() {
	if w.Step < StepPreview {
		w.Step++
	}
	w.LastError = ""
}

// Back 后退一步。
func (w *Wizard) Back() {
	if w.Step > StepForm {
		w.Step--
	}
	w.LastError = ""
}

// AddFiles 追加附件；不做大小和类型校验。
func (w *Wizard) AddFiles(files ...leadsapi.Attachment) {
	for _, f := range files {
		if len(f.Data) == 0 && f.Name == "" {
			continue
		}
		w.Draft.Files = append(w.Draft.Files, f)
	}
}

// RemoveFile 按下标删除附件。
func (w *Wizard) RemoveFile(i int) {
	if i < 0 || i >= len(w.Draft.Files) {
		return
	}
	w.Draft.Files = append(w.Draft.Files[:i:i], w.Draft.Files[i+1:]...)
}

// SetMugshot 设置主照片；传 nil 清除。
func (w *Wizard) SetMugshot(a *leadsapi.Attachment) {
	w.Draft.Mugshot = a
}

// Evidence 返回提交时的 evidence 顺序：
// 通缉/失踪先附件后照片，其余类型照片在前。
func (w *Wizard) Evidence() []leadsapi.Attachment {
	out := make([]leadsapi.Attachment, 0, len(w.Draft.Files)+1)
	switch w.Notice {
	case model.NoticeWanted, model.NoticeMissing, model.NoticeSeeking:
		out = append(out, w.Draft.Files...)
		if w.Draft.Mugshot != nil {
			out = append(out, *w.Draft.Mugshot)
		}
	case model.NoticeAlert:
		out = append(out, w.Draft.Files...)
	default:
		if w.Draft.Mugshot != nil {
			out = append(out, *w.Draft.Mugshot)
		}
		out = append(out, w.Draft.Files...)
	}
	return out
}

// Payload 组装当前草稿的提交 payload。
func (w *Wizard) Payload(now time.Time) Payload {
	return ComposePayload(w.Notice, w.Draft.Data, now)
}

// Submit 提交草稿。失败时停留在当前步骤并记录 LastError，不重试也不保存半成品。
// 成功返回新建 lead 的 id（没有 id 时退回 token）。
func (w *Wizard) Submit(ctx context.Context, c Creator, s leadsapi.Session, now time.Time) (string, error) {
	res, err := c.CreateLead(ctx, s, w.Payload(now), w.Evidence())
	if err != nil {
		w.LastError = submitMessage(err)
		return "", fmt.Errorf("submit %s notice: %w", w.Notice, err)
	}
	ref := strings.TrimSpace(res.Lead.ID)
	if ref == "" {
		ref = strings.TrimSpace(res.Lead.Token)
	}
	if ref == "" {
		w.LastError = submitMessage(ErrEmptyResult)
		return "", ErrEmptyResult
	}
	w.LastError = ""
	return ref, nil
}

func submitMessage(err error) string {
	var apiErr *leadsapi.APIError
	switch {
	case errors.As(err, &apiErr):
		return "Failed to publish. Please check inputs. (" + apiErr.Message + ")"
	case errors.Is(err, leadsapi.ErrUnexpectedShape), errors.Is(err, ErrEmptyResult):
		return "Failed to publish. The server returned an unexpected response."
	default:
		return "Network error. The notice was not published."
	}
}

// PreviewLead 构造预览用的 lead，走与详情页相同的 canvas。
func (w *Wizard) PreviewLead(now time.Time) model.Lead {
	return PreviewLead(w.Notice, w.Draft, now)
}

// PreviewToken 是预览 lead 的占位编号。
const PreviewToken = "PREVIEW"

// PreviewLead 把草稿转换为 lead 视图。附件以 data URI 内联，不上传。
func PreviewLead(n model.Notice, d Draft, now time.Time) model.Lead {
	p := ComposePayload(n, d.Data, now)
	details := d.Data.Clone()
	if n == model.NoticeGeneral {
		if d.Data.Details().Bool("is_anonymous") {
			details["source"] = "Anonymous Source"
		} else {
			details["source"] = officerName
		}
	}
	raw, _ := json.Marshal(details)

	l := model.Lead{
		ID:           "preview",
		Token:        PreviewToken,
		Title:        p.IncidentDetails.Title,
		Description:  p.IncidentDetails.Description,
		Status:       string(p.Status),
		Priority:     string(p.Priority),
		NoticeType:   string(p.NoticeType),
		IdentityMode: string(p.IdentityMode),
		IsPublic:     p.IsPublic,
		CategoryID:   p.CategoryID,
		CreatedAt:    now,
		Details:      raw,
	}
	if p.RewardAmount != nil {
		l.RewardAmount = model.FlexString(*p.RewardAmount)
		l.RewardStatus = string(model.RewardActive)
	}
	if d.Mugshot != nil {
		l.ImageURL = dataURI(*d.Mugshot)
	}
	for _, f := range d.Files {
		l.Media = append(l.Media, model.MediaItem{
			FilePath: dataURI(f),
			FileType: previewType(f),
			FileName: f.Name,
		})
	}
	return l
}

func contentType(a leadsapi.Attachment) string {
	if ct := strings.TrimSpace(a.ContentType); ct != "" {
		return ct
	}
	return http.DetectContentType(a.Data)
}

func previewType(a leadsapi.Attachment) string {
	ct := strings.ToLower(contentType(a))
	switch {
	case strings.Contains(ct, "video"):
		return "VIDEO"
	case strings.Contains(ct, "pdf"):
		return "PDF"
	case strings.Contains(ct, "image"):
		return "IMAGE"
	}
	return "DOCUMENT"
}

func dataURI(a leadsapi.Attachment) string {
	return "data:" + contentType(a) + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}
