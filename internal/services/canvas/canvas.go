// Package canvas 把 lead 转换成各类通告的只读展示视图（通缉、失踪、警示、情报），
// 并渲染为 HTML。同一视图既用于详情页、发布预览，也用于导出 PDF。
package canvas

import (
	"bytes"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"satark-portal/internal/domain/model"
	"satark-portal/internal/services/dispatch"
)

// PlaceholderPath 是没有任何照片时使用的占位图。
const PlaceholderPath = "/static/badge.svg"

// Options 是 canvas 构建参数。
type Options struct {
	PublicBaseURL string // 二维码里的规范地址前缀
	MediaBaseURL  string // 后端返回相对路径时拼接的前缀
	Logger        *zap.Logger
	Now           func() time.Time
}

// Builder 无状态，可并发使用。
type Builder struct {
	opts Options
	md   goldmark.Markdown
}

func NewBuilder(opts Options) *Builder {
	if opts.PublicBaseURL == "" {
		opts.PublicBaseURL = "https://satark.delhipolice.gov.in"
	}
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	opts.MediaBaseURL = strings.TrimRight(opts.MediaBaseURL, "/")
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Builder{opts: opts, md: goldmark.New()}
}

// Item 是一个"标签: 值"展示项，值为空时模板显示占位符。
type Item struct {
	Label     string
	Value     string
	FullWidth bool
}

// Attachment 是证据区的一项。
type Attachment struct {
	Name string
	URL  template.URL
	Type string
	Kind model.MediaKind
}

// Base 是所有 canvas 共有的字段。
type Base struct {
	Kind        dispatch.Kind
	LeadID      string
	Ref         string
	Title       string
	Description string
	Status      string
	Priority    string
	IsPublic    bool
	IsPreview   bool

	Photo            template.URL
	PhotoPlaceholder bool
	Media            []Attachment

	CreatedAt  time.Time
	CreatedAgo string
	ReportURL  string
}

// View 是 dispatch 之后的结果，只有与 Kind 对应的那个指针非空。
type View struct {
	Kind    dispatch.Kind
	Wanted  *WantedView
	Missing *MissingView
	Alert   *AlertView
	Intel   *IntelView
}

// Common 返回公共字段。
func (v View) Common() Base {
	switch v.Kind {
	case dispatch.Wanted:
		return v.Wanted.Base
	case dispatch.Missing:
		return v.Missing.Base
	case dispatch.Alert:
		return v.Alert.Base
	case dispatch.Intelligence:
		return v.Intel.Base
	}
	return Base{}
}

// FileName 是"下载 PDF"的文件名，由案件编号决定。
func (v View) FileName() string {
	ref := v.Common().Ref
	switch v.Kind {
	case dispatch.Wanted:
		return "FUGITIVE-" + ref + ".pdf"
	case dispatch.Missing:
		if ref == "" {
			ref = "appeal"
		}
		return "MISSING - " + ref + ".pdf"
	case dispatch.Alert:
		return "ALERT-" + ref + ".pdf"
	case dispatch.Intelligence:
		return "INTEL-" + ref + ".pdf"
	}
	return "DOSSIER-" + ref + ".pdf"
}

// Build 按 status 选择 canvas 并构建视图。
func (b *Builder) Build(l model.Lead) View {
	kind := dispatch.ForLead(l, b.opts.Logger)
	d := l.ParsedDetails()
	base := b.base(kind, l)

	v := View{Kind: kind}
	switch kind {
	case dispatch.Wanted:
		v.Wanted = b.wanted(base, l, d)
	case dispatch.Missing:
		v.Missing = b.missing(base, l, d)
	case dispatch.Alert:
		v.Alert = b.alert(base, l, d)
	case dispatch.Intelligence:
		v.Intel = b.intel(base, l, d)
	}
	return v
}

func (b *Builder) base(kind dispatch.Kind, l model.Lead) Base {
	base := Base{
		Kind:        kind,
		LeadID:      l.ID,
		Ref:         l.Ref(),
		Title:       l.Title,
		Description: l.Description,
		Status:      string(l.StatusValue()),
		Priority:    string(l.PriorityValue()),
		IsPublic:    l.IsPublic,
		IsPreview:   l.Token == "PREVIEW",
		CreatedAt:   l.CreatedAt,
		ReportURL:   "/report?ref=" + l.ID,
	}
	if !l.CreatedAt.IsZero() {
		base.CreatedAgo = humanize.RelTime(l.CreatedAt, b.opts.Now(), "ago", "from now")
	}

	photo, placeholder := b.photo(l)
	base.Photo, base.PhotoPlaceholder = template.URL(photo), placeholder
	for i, m := range l.Media {
		name := m.DisplayName()
		if name == "" || (strings.HasPrefix(m.FilePath, "data:") && m.FileName == "") {
			name = "Evidence #" + strconv.Itoa(i+1)
		}
		base.Media = append(base.Media, Attachment{
			Name: name,
			URL:  template.URL(b.mediaURL(m.FilePath)),
			Type: m.FileType,
			Kind: m.Kind(),
		})
	}
	return base
}

// photo：image_url → 第一张图片类证据 → 占位图。
func (b *Builder) photo(l model.Lead) (string, bool) {
	if u := b.mediaURL(l.ImageURL); u != "" {
		return u, false
	}
	if p, ok := model.FirstImage(l.Media); ok {
		if u := b.mediaURL(p); u != "" {
			return u, false
		}
	}
	return PlaceholderPath, true
}

// mediaURL 只放行 http(s)、站内绝对路径和内联图片，其余一律丢弃。
func (b *Builder) mediaURL(p string) string {
	p = strings.TrimSpace(p)
	lower := strings.ToLower(p)
	switch {
	case p == "":
		return ""
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return p
	case strings.HasPrefix(lower, "data:image/"), strings.HasPrefix(lower, "data:video/"), strings.HasPrefix(lower, "data:application/pdf"):
		return p
	case strings.Contains(lower, ":"):
		return ""
	case strings.HasPrefix(p, "/") && b.opts.MediaBaseURL == "":
		return p
	}
	if b.opts.MediaBaseURL == "" {
		return "/" + p
	}
	return b.opts.MediaBaseURL + "/" + strings.TrimLeft(p, "/")
}

func (b *Builder) markdown(src string) string {
	var buf bytes.Buffer
	if err := b.md.Convert([]byte(src), &buf); err != nil {
		b.opts.Logger.Warn("render narrative markdown", zap.Error(err))
		return ""
	}
	return buf.String()
}

// Reward 统一加 ₹ 前缀；纯数字金额加千分位。
func Reward(amount string) string {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return ""
	}
	if strings.HasPrefix(amount, "₹") {
		return amount
	}
	if n, err := strconv.ParseInt(amount, 10, 64); err == nil {
		return "₹" + humanize.Comma(n)
	}
	return "₹" + amount
}

func orText(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
