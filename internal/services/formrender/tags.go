package formrender

import (
	"net/url"
	"strconv"
	"strings"

	"satark-portal/internal/domain/model"
)

// 表单里 tags 控件使用的约定字段名。
const (
	pendingSuffix = "__pending"
	tagAddKey     = "_tag_add"    // 值为字段名
	tagRemoveKey  = "_tag_remove" // 值为 "字段名:下标"
)

// TagInput 是单个 tags 字段的本地输入状态。
type TagInput struct {
	Field   string
	Pending string
}

// Enter 把 pending 文本 trim 后追加到 current 的副本上并清空 pending。
// 纯空白输入不做任何事，返回 false。
func (t *TagInput) Enter(current []string, onChange OnChange) bool {
	v := strings.TrimSpace(t.Pending)
	if v == "" {
		return false
	}
	next := make([]string, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, v)
	onChange(t.Field, next)
	t.Pending = ""
	return true
}

// Remove 按下标删除一个标签；越界时返回 false。
func (t *TagInput) Remove(current []string, i int, onChange OnChange) bool {
	if i < 0 || i >= len(current) {
		return false
	}
	next := make([]string, 0, len(current)-1)
	next = append(next, current[:i]...)
	next = append(next, current[i+1:]...)
	onChange(t.Field, next)
	return true
}

// PendingFrom 读出各 tags 字段未提交的输入框内容。
func PendingFrom(fields []model.Field, form url.Values) map[string]string {
	out := map[string]string{}
	for _, f := range fields {
		if f.Type != model.FieldTags {
			continue
		}
		if v := form.Get(f.Name + pendingSuffix); v != "" {
			out[f.Name] = v
		}
	}
	return out
}

// ApplyTagCommand 处理表单里的"添加标签/删除标签"按钮。
// 返回 true 表示本次提交只是标签编辑，调用方应重新渲染当前步骤而不是前进。
func ApplyTagCommand(fields []model.Field, form url.Values, data model.FormData, pending map[string]string, onChange OnChange) bool {
	byName := map[string]model.Field{}
	for _, f := range fields {
		if f.Type == model.FieldTags {
			byName[f.Name] = f
		}
	}
	current := func(name string) []string {
		ss, _ := valueFor(byName[name], data).([]string)
		return ss
	}

	if name := form.Get(tagAddKey); name != "" {
		if _, ok := byName[name]; !ok {
			return false
		}
		in := &TagInput{Field: name, Pending: pending[name]}
		in.Enter(current(name), onChange)
		if in.Pending == "" {
			delete(pending, name)
		}
		return true
	}

	if cmd := form.Get(tagRemoveKey); cmd != "" {
		name, idx, ok := strings.Cut(cmd, ":")
		if !ok {
			return false
		}
		if _, known := byName[name]; !known {
			return false
		}
		i, err := strconv.Atoi(idx)
		if err != nil {
			return false
		}
		in := &TagInput{Field: name}
		in.Remove(current(name), i, onChange)
		return true
	}
	return false
}

// EnterPending 对所有有待输入内容的 tags 字段执行一次 Enter。
// 输入框里按回车时浏览器提交的是表单的默认按钮，而不是某个字段的 Add，
// 所以默认按钮要走这里。返回是否有字段被追加。
func EnterPending(fields []model.Field, data model.FormData, pending map[string]string, onChange OnChange) bool {
	added := false
	for _, f := range fields {
		if f.Type != model.FieldTags {
			continue
		}
		in := &TagInput{Field: f.Name, Pending: pending[f.Name]}
		cur, _ := valueFor(f, data).([]string)
		if in.Enter(cur, onChange) {
			delete(pending, f.Name)
			added = true
		}
	}
	return added
}
