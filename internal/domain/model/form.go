package model

import "strings"

// FieldType 是表单控件类型。
type FieldType string

const (
	FieldText          FieldType = "text"
	FieldSelect        FieldType = "select"
	FieldTextarea      FieldType = "textarea"
	FieldDate          FieldType = "date"
	FieldDatetimeLocal FieldType = "datetime-local"
	FieldCheckbox      FieldType = "checkbox"
	FieldTags          FieldType = "tags"
	FieldNumber        FieldType = "number"
)

// Option 是下拉选项。Label 为空时界面直接显示 Value。
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Text 返回展示文本。
func (o Option) Text() string {
	if o.Label != "" {
		return o.Label
	}
	return o.Value
}

// Field 是单个字段描述（纯声明式数据）。
type Field struct {
	Name        string    `json:"name" yaml:"name"`
	Label       string    `json:"label" yaml:"label"`
	Type        FieldType `json:"type" yaml:"type"`
	Required    bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Options     []Option  `json:"options,omitempty" yaml:"options,omitempty"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Rows        int       `json:"rows,omitempty" yaml:"rows,omitempty"`
	HelpText    string    `json:"help_text,omitempty" yaml:"help_text,omitempty"`
	FullWidth   bool      `json:"full_width,omitempty" yaml:"full_width,omitempty"`
	Default     any       `json:"default,omitempty" yaml:"default,omitempty"`
}

// Section 是表单中一组有标题的字段。
type Section struct {
	Key    string  `json:"key" yaml:"key"`
	Title  string  `json:"title" yaml:"title"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// FormData 是发布向导的草稿表单状态（仅存内存，提交时整体作为 details 发送）。
type FormData map[string]any

// Clone 浅拷贝一层；[]string 值单独复制，避免标签数组共享底层存储。
func (f FormData) Clone() FormData {
	out := make(FormData, len(f))
	for k, v := range f {
		if ss, ok := v.([]string); ok {
			cp := make([]string, len(ss))
			copy(cp, ss)
			out[k] = cp
			continue
		}
		out[k] = v
	}
	return out
}

// Details 以只读视图的方式复用 details 的取值辅助方法。
func (f FormData) Details() Details {
	return Details(f)
}

// Notice 是发布向导的通告类型。
type Notice string

const (
	NoticeWanted  Notice = "wanted"
	NoticeMissing Notice = "missing"
	NoticeAlert   Notice = "alert"
	NoticeSeeking Notice = "seeking"
	NoticeGeneral Notice = "general"
)

// Notices 按发布中心的展示顺序列出全部通告类型。
var Notices = []Notice{NoticeWanted, NoticeMissing, NoticeAlert, NoticeSeeking, NoticeGeneral}

// ParseNotice 大小写不敏感。
func ParseNotice(s string) (Notice, bool) {
	n := Notice(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range Notices {
		if v == n {
			return n, true
		}
	}
	return n, false
}
