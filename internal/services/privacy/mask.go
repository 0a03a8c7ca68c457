// Package privacy 对日志与审计里出现的线人信息做展示层脱敏（不改动提交给后端的原始数据）。
package privacy

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	reURLSchemeRE = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)
	rePhone       = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{6,}$`)
)

// MaskFileName 把绝对路径压缩为文件名，避免暴露本机目录结构。
func MaskFileName(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	return filepath.Base(p)
}

// MaskToken 对追踪 token 只保留头尾：SAT-8F3K2Q -> SAT-...2Q。
// 太短的 token 只给前两位。
func MaskToken(tok string) string {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return ""
	}
	if len(tok) <= 8 {
		return tok[:min(2, len(tok))] + "..."
	}
	return tok[:4] + "..." + tok[len(tok)-2:]
}

// MaskContact 识别邮箱 / 电话并做部分展示；其他内容一律 "<masked>"。
func MaskContact(c string) string {
	c = strings.TrimSpace(c)
	switch {
	case c == "":
		return ""
	case strings.Count(c, "@") == 1:
		local, domain, _ := strings.Cut(c, "@")
		if local == "" || domain == "" {
			return "<masked>"
		}
		return local[:1] + "***@" + domain
	case rePhone.MatchString(c):
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, c)
		if len(digits) < 4 {
			return "<masked>"
		}
		return "******" + digits[len(digits)-4:]
	default:
		return "<masked>"
	}
}

// MaskName 只保留姓名首字母：Ravi Kumar -> R. K.
func MaskName(n string) string {
	fields := strings.Fields(n)
	if len(fields) == 0 {
		return ""
	}
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		r := []rune(f)
		out = append(out, string(r[0])+".")
	}
	return strings.Join(out, " ")
}

// MaskURL 把 URL 降级为仅保留域名，避免泄露路径 / 参数。
// 输入不是合法 URL 时，返回 "<masked_url>"。
func MaskURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !reURLSchemeRE.MatchString(raw) {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "<masked_url>"
	}
	host := strings.TrimSpace(u.Hostname())
	if host == "" {
		return "<masked_url>"
	}
	return host
}
