package model

import "encoding/json"

// 以下结构对应本地 sqlite（会话、导出登记、审计），与后端 lead 数据无关。

// Session 是一次警员登录会话（sessions 表）。
// bearer token 只存服务端，浏览器只持有 session_id cookie。
type Session struct {
	SessionID string `json:"session_id"`
	Officer   string `json:"officer,omitempty"`
	Token     string `json:"-"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// ExportRecord 是一次 PDF 导出的登记（exports 表）。
type ExportRecord struct {
	ExportID  string `json:"export_id"`
	LeadID    string `json:"lead_id"`
	Token     string `json:"token,omitempty"`
	Canvas    string `json:"canvas"`
	Mode      string `json:"mode"` // raster|text
	FileName  string `json:"file_name"`
	FilePath  string `json:"file_path"`
	SHA256    string `json:"sha256"`
	SizeBytes int64  `json:"size_bytes"`
	Actor     string `json:"actor,omitempty"`
	CreatedAt int64  `json:"created_at"`

	// ContentSHA256 是导出时 canvas 文档的 hash；相同内容的公开下载直接复用。
	ContentSHA256 string `json:"content_sha256,omitempty"`
}

// AuditEvent 表示一条本地审计记录（audit_events 表），按 lead 维度链式 hash。
type AuditEvent struct {
	EventID       string          `json:"event_id"`
	LeadID        string          `json:"lead_id"`
	EventType     string          `json:"event_type"`
	Action        string          `json:"action"`
	Status        string          `json:"status"`
	Actor         string          `json:"actor,omitempty"`
	Source        string          `json:"source,omitempty"`
	DetailJSON    json.RawMessage `json:"detail_json,omitempty"`
	OccurredAt    int64           `json:"occurred_at"`
	ChainPrevHash string          `json:"chain_prev_hash,omitempty"`
	ChainHash     string          `json:"chain_hash"`
}
