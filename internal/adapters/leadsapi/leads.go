package leadsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"satark-portal/internal/domain/model"
)

// ErrUnexpectedShape 表示列表接口返回的既不是数组也不是 {leads:[...]}。
var ErrUnexpectedShape = errors.New("unexpected response shape")

// FeedValues 把 FeedQuery 转成查询参数；空值一律跳过。
func FeedValues(q model.FeedQuery) url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val = strings.TrimSpace(val); val != "" {
			v.Set(k, val)
		}
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Limit > 0 || q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	set("status", q.Status)
	set("priority", q.Priority)
	set("category", q.Category)
	set("jurisdiction", q.Jurisdiction)
	set("search", q.Search)
	set("sort", q.Sort)
	return v
}

// decodeLeadList 兼容两种响应：裸数组，或 {"leads": [...]}。
func decodeLeadList(raw json.RawMessage) ([]model.Lead, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrUnexpectedShape
	}
	switch raw[0] {
	case '[':
		var out []model.Lead
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode lead list: %w", err)
		}
		return out, nil
	case '{':
		var wrap struct {
			Leads *[]model.Lead `json:"leads"`
		}
		if err := json.Unmarshal(raw, &wrap); err != nil {
			return nil, fmt.Errorf("decode lead list: %w", err)
		}
		if wrap.Leads == nil {
			return nil, ErrUnexpectedShape
		}
		return *wrap.Leads, nil
	}
	return nil, ErrUnexpectedShape
}

// decodeLead 兼容裸对象或 {"lead": {...}}；没有 id 视为无效。
func decodeLead(raw json.RawMessage) (*model.Lead, error) {
	var wrap struct {
		Lead *model.Lead `json:"lead"`
	}
	if err := json.Unmarshal(raw, &wrap); err == nil && wrap.Lead != nil && wrap.Lead.ID != "" {
		return wrap.Lead, nil
	}
	var l model.Lead
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("decode lead: %w", err)
	}
	if strings.TrimSpace(l.ID) == "" {
		return nil, ErrUnexpectedShape
	}
	return &l, nil
}

// ListPublicLeads GET /api/leads/public-leads。
func (c *Client) ListPublicLeads(ctx context.Context, q model.FeedQuery) ([]model.Lead, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, Session{}, http.MethodGet, "/api/leads/public-leads", FeedValues(q), nil, &raw); err != nil {
		return nil, err
	}
	return decodeLeadList(raw)
}

// GetPublicLead GET /api/leads/public-leads/:id。
func (c *Client) GetPublicLead(ctx context.Context, id string) (*model.Lead, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, Session{}, http.MethodGet, "/api/leads/public-leads/"+url.PathEscape(id), nil, nil, &raw); err != nil {
		return nil, err
	}
	return decodeLead(raw)
}

// TrackLead GET /api/leads/track/:token（市民用回执 token 查询进度）。
func (c *Client) TrackLead(ctx context.Context, token string) (*model.Lead, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, Session{}, http.MethodGet, "/api/leads/track/"+url.PathEscape(token), nil, nil, &raw); err != nil {
		return nil, err
	}
	return decodeLead(raw)
}

// GetLead GET /api/leads/:id（警员）。
func (c *Client) GetLead(ctx context.Context, s Session, id string) (*model.Lead, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, s, http.MethodGet, "/api/leads/"+url.PathEscape(id), nil, nil, &raw); err != nil {
		return nil, err
	}
	return decodeLead(raw)
}

// ListThread GET /api/leads/internal-leads?parent_lead_id=:id（警员）。
func (c *Client) ListThread(ctx context.Context, s Session, parentID string) ([]model.Lead, error) {
	q := url.Values{"parent_lead_id": []string{parentID}}
	var raw json.RawMessage
	if err := c.doJSON(ctx, s, http.MethodGet, "/api/leads/internal-leads", q, nil, &raw); err != nil {
		return nil, err
	}
	return decodeLeadList(raw)
}

// TogglePin PATCH /api/leads/:id/pin。
func (c *Client) TogglePin(ctx context.Context, s Session, id string) error {
	return c.doJSON(ctx, s, http.MethodPatch, "/api/leads/"+url.PathEscape(id)+"/pin", nil, nil, nil)
}

// Rate PATCH /api/leads/:id/rate，评分 1-5。
func (c *Client) Rate(ctx context.Context, s Session, id string, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating must be 1-5, got %d", rating)
	}
	body := map[string]int{"rating": rating}
	return c.doJSON(ctx, s, http.MethodPatch, "/api/leads/"+url.PathEscape(id)+"/rate", nil, body, nil)
}

// UpdateNotes PATCH /api/leads/:id/notes（整段替换内部备注）。
func (c *Client) UpdateNotes(ctx context.Context, s Session, id, notes string) error {
	body := map[string]string{"notes": notes}
	return c.doJSON(ctx, s, http.MethodPatch, "/api/leads/"+url.PathEscape(id)+"/notes", nil, body, nil)
}

// UpdateStatus PUT /api/leads/:id/status（撤下/领取悬赏等流程）。
func (c *Client) UpdateStatus(ctx context.Context, s Session, id string, upd model.StatusUpdate) error {
	if strings.TrimSpace(string(upd.Status)) == "" {
		return fmt.Errorf("status is required")
	}
	return c.doJSON(ctx, s, http.MethodPut, "/api/leads/"+url.PathEscape(id)+"/status", nil, upd, nil)
}

// Vote POST /api/leads/public-leads/:id/vote（匿名点赞），返回最新票数。
func (c *Client) Vote(ctx context.Context, id string) (int, error) {
	var out struct {
		Upvotes int `json:"upvotes"`
	}
	if err := c.doJSON(ctx, Session{}, http.MethodPost, "/api/leads/public-leads/"+url.PathEscape(id)+"/vote", nil, nil, &out); err != nil {
		return 0, err
	}
	return out.Upvotes, nil
}

// UnitHierarchy GET /api/units/hierarchy。
func (c *Client) UnitHierarchy(ctx context.Context) (model.UnitHierarchy, error) {
	var out model.UnitHierarchy
	if err := c.doJSON(ctx, Session{}, http.MethodGet, "/api/units/hierarchy", nil, nil, &out); err != nil {
		return model.UnitHierarchy{}, err
	}
	return out, nil
}

// LoginResult 是登录接口的响应。
type LoginResult struct {
	Token string `json:"token"`
	User  struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Role string `json:"role"`
	} `json:"user"`
}

// Login POST /api/auth/login。
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	body := map[string]string{"username": username, "password": password}
	var out LoginResult
	if err := c.doJSON(ctx, Session{}, http.MethodPost, "/api/auth/login", nil, body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Token) == "" {
		return nil, fmt.Errorf("login response missing token")
	}
	return &out, nil
}
