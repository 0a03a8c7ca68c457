package leadsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"satark-portal/internal/domain/model"
)

// Attachment 是随 lead 一起上传的证据文件（内存中的草稿附件）。
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// CreateResult 是 POST /api/leads 的响应。
type CreateResult struct {
	Lead    model.Lead `json:"lead"`
	Message string     `json:"message,omitempty"`
}

// CreateLead 以 multipart 方式创建 lead：
// - payload：JSON 字符串
// - evidence：每个附件一段，同名重复
func (c *Client) CreateLead(ctx context.Context, s Session, payload any, files []Attachment) (*CreateResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("payload", string(raw)); err != nil {
		return nil, fmt.Errorf("write payload field: %w", err)
	}
	for i, f := range files {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			name = fmt.Sprintf("evidence-%d", i+1)
		}
		ct := strings.TrimSpace(f.ContentType)
		if ct == "" {
			ct = http.DetectContentType(f.Data)
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="evidence"; filename=%q`, name))
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("create evidence part: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("write evidence %s: %w", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/leads", nil), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out CreateResult
	if err := c.do(req, s, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Lead.ID) == "" && strings.TrimSpace(out.Lead.Token) == "" {
		return nil, fmt.Errorf("create lead: %w", ErrUnexpectedShape)
	}
	return &out, nil
}
