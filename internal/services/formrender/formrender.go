// Package formrender 把字段表渲染成表单控件，并把提交回来的表单解码成字段级修改。
// 渲染器本身不持有也不修改表单状态：所有修改都通过 OnChange 交给调用方。
package formrender

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"

	"satark-portal/internal/domain/model"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

var formTmpl = template.Must(template.ParseFS(templateFS, "templates/form.gohtml"))

// OnChange 接收一次字段修改。
type OnChange func(name string, value any)

// Control 是单个字段渲染所需的全部数据。
type Control struct {
	Field   model.Field
	Value   any
	Pending string // 仅 tags 字段使用
}

// Text 返回文本类控件的当前值。
func (c Control) Text() string {
	switch v := c.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Checked 返回 checkbox 当前是否勾选。
func (c Control) Checked() bool {
	b, _ := c.Value.(bool)
	return b
}

// Tags 返回 tags 字段当前数组。
func (c Control) Tags() []string {
	ss, _ := c.Value.([]string)
	return ss
}

// Is 供模板判断控件类型。
func (c Control) Is(t string) bool {
	return string(c.Field.Type) == t
}

// Controls 为每个字段生成一个控件，值取自 data[name]，缺省时按类型给默认值。
func Controls(fields []model.Field, data model.FormData) []Control {
	out := make([]Control, 0, len(fields))
	for _, f := range fields {
		out = append(out, Control{Field: f, Value: valueFor(f, data)})
	}
	return out
}

func valueFor(f model.Field, data model.FormData) any {
	v, ok := data[f.Name]
	switch f.Type {
	case model.FieldCheckbox:
		b, _ := v.(bool)
		return b
	case model.FieldTags:
		switch t := v.(type) {
		case []string:
			return t
		case []any:
			ss := make([]string, 0, len(t))
			for _, x := range t {
				if s, ok := x.(string); ok {
					ss = append(ss, s)
				}
			}
			return ss
		}
		return []string{}
	default:
		if !ok || v == nil {
			return ""
		}
		return v
	}
}

// Render 渲染整组控件。pending 是各 tags 字段尚未回车的输入。
func Render(fields []model.Field, data model.FormData, pending map[string]string) (template.HTML, error) {
	controls := Controls(fields, data)
	for i := range controls {
		if controls[i].Field.Type == model.FieldTags {
			controls[i].Pending = pending[controls[i].Field.Name]
		}
	}
	var buf bytes.Buffer
	if err := formTmpl.Execute(&buf, controls); err != nil {
		return "", fmt.Errorf("render form: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Decode 把提交的表单转换成字段级修改，逐个回调 onChange。
// checkbox 未出现视为 false；tags 支持重复值或换行分隔的文本。
func Decode(fields []model.Field, form url.Values, onChange OnChange) {
	for _, f := range fields {
		switch f.Type {
		case model.FieldCheckbox:
			v := strings.ToLower(strings.TrimSpace(form.Get(f.Name)))
			onChange(f.Name, v == "on" || v == "true" || v == "1" || v == "yes")
		case model.FieldTags:
			if _, ok := form[f.Name]; !ok {
				continue
			}
			tags := []string{}
			for _, raw := range form[f.Name] {
				for _, line := range strings.Split(raw, "\n") {
					if line = strings.TrimSpace(line); line != "" {
						tags = append(tags, line)
					}
				}
			}
			onChange(f.Name, tags)
		case model.FieldNumber:
			if _, ok := form[f.Name]; !ok {
				continue
			}
			raw := strings.TrimSpace(form.Get(f.Name))
			if n, err := strconv.ParseFloat(raw, 64); err == nil {
				onChange(f.Name, n)
			} else {
				onChange(f.Name, raw)
			}
		default:
			if _, ok := form[f.Name]; !ok {
				continue
			}
			onChange(f.Name, form.Get(f.Name))
		}
	}
}
