// Package auditverify 校验本地审计链（警员操作、PDF 导出留痕）是否被篡改。
package auditverify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sqliteadapter "satark-portal/internal/adapters/store/sqlite"
	"satark-portal/internal/domain/model"
)

// FailureItem 是一条校验失败的明细。
type FailureItem struct {
	Index   int    `json:"index"`
	EventID string `json:"event_id"`
	Action  string `json:"action"`

	PrevHashMismatch  bool   `json:"prev_hash_mismatch"`
	ChainHashMismatch bool   `json:"chain_hash_mismatch"`
	ExpectedChainHash string `json:"expected_chain_hash,omitempty"`
	ActualChainHash   string `json:"actual_chain_hash,omitempty"`
}

// Result 是某个 lead 审计链的校验结果。
type Result struct {
	LeadID        string        `json:"lead_id"`
	OK            bool          `json:"ok"`
	Total         int           `json:"total"`
	Failed        int           `json:"failed"`
	LastChainHash string        `json:"last_chain_hash,omitempty"`
	Failures      []FailureItem `json:"failures,omitempty"`
}

// Verify 逐条重算 chain_hash，并检查 chain_prev_hash 与上一条是否衔接。
// 链推进以库中记录的 chain_hash 为准，这样一处篡改不会把后面全部标红。
func Verify(events []model.AuditEvent) Result {
	res := Result{OK: true, Total: len(events)}
	if len(events) > 0 {
		res.LeadID = events[0].LeadID
	}

	prev := ""
	for i, ev := range events {
		expected := sqliteadapter.ChainHash(prev, ev.LeadID, ev.EventType, ev.Action, ev.Status, ev.OccurredAt, compactJSON(ev.DetailJSON))
		actual := strings.TrimSpace(ev.ChainHash)

		item := FailureItem{
			Index:             i,
			EventID:           ev.EventID,
			Action:            ev.Action,
			PrevHashMismatch:  strings.TrimSpace(ev.ChainPrevHash) != prev,
			ChainHashMismatch: actual != expected,
		}
		if item.PrevHashMismatch || item.ChainHashMismatch {
			if item.ChainHashMismatch {
				item.ExpectedChainHash = expected
				item.ActualChainHash = actual
			}
			res.OK = false
			res.Failed++
			res.Failures = append(res.Failures, item)
		}

		prev = actual
		res.LastChainHash = actual
	}
	return res
}

// VerifyLead 读取某个 lead 的全部审计记录并校验。
func VerifyLead(ctx context.Context, store *sqliteadapter.Store, leadID string) (Result, error) {
	events, err := store.ListAuditEvents(ctx, leadID, 5000)
	if err != nil {
		return Result{}, fmt.Errorf("list audit events: %w", err)
	}
	res := Verify(events)
	res.LeadID = leadID
	return res, nil
}

func compactJSON(in []byte) string {
	if len(bytes.TrimSpace(in)) == 0 {
		return "{}"
	}
	var b bytes.Buffer
	if err := json.Compact(&b, in); err == nil {
		return b.String()
	}
	return strings.TrimSpace(string(in))
}
