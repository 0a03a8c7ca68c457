package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Details 是 lead.details 解析后的键值表，结构随通告类型变化。
type Details map[string]any

// ParseDetails 防御性解析 details：
// - JSON 对象：直接解析
// - JSON 字符串且内容是对象：二次解析
// - 其它（null、数组、数字、非法 JSON、字符串内容非对象）：返回空表
//
// 任何输入都不会返回错误或 panic。
func ParseDetails(raw []byte) Details {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Details{}
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return Details{}
		}
		return ParseDetails([]byte(inner))
	}

	if raw[0] != '{' {
		return Details{}
	}
	var d Details
	if err := json.Unmarshal(raw, &d); err != nil || d == nil {
		return Details{}
	}
	return d
}

// String 返回第一个非空的别名字段，按字符串输出。
// 画布里大量 "a || b" 的字段回退统一用它表达。
func (d Details) String(keys ...string) string {
	for _, k := range keys {
		v, ok := d[k]
		if !ok || v == nil {
			continue
		}
		if s := strings.TrimSpace(stringify(v)); s != "" {
			return s
		}
	}
	return ""
}

// Bool 读取布尔字段，兼容 "true"/"on"/1 等表单残留写法。
func (d Details) Bool(key string) bool {
	switch v := d[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			return true
		}
	case float64:
		return v != 0
	}
	return false
}

// Strings 读取数组字段；单个字符串按一个元素处理，空白元素丢弃。
func (d Details) Strings(keys ...string) []string {
	for _, k := range keys {
		switch v := d[k].(type) {
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s := strings.TrimSpace(stringify(item)); s != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		case []string:
			out := make([]string, 0, len(v))
			for _, s := range v {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return []string{s}
			}
		}
	}
	return nil
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			if s := strings.TrimSpace(stringify(item)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(x)
	}
}
