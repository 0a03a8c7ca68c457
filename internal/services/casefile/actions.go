package casefile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"satark-portal/internal/adapters/leadsapi"
	"satark-portal/internal/domain/model"
)

const auditSource = "casefile"

// TogglePin 切换时间线条目的置顶。成功后更新本地状态；失败只记日志。
func (s *Service) TogglePin(ctx context.Context, sess leadsapi.Session, c *Case, actor, id string) bool {
	err := s.api.TogglePin(ctx, sess, id)
	s.record(ctx, c, actor, "pin", id, err, nil)
	if err != nil {
		return false
	}
	c.patch(id, func(l *model.Lead) { l.IsPinned = !l.IsPinned })
	return true
}

// Rate 给条目打 1-5 星。
func (s *Service) Rate(ctx context.Context, sess leadsapi.Session, c *Case, actor, id string, rating int) bool {
	err := s.api.Rate(ctx, sess, id, rating)
	s.record(ctx, c, actor, "rate", id, err, map[string]any{"rating": rating})
	if err != nil {
		return false
	}
	c.patch(id, func(l *model.Lead) { l.IntelligenceRating = rating })
	return true
}

// UpdateNotes 整段替换内部备注。
func (s *Service) UpdateNotes(ctx context.Context, sess leadsapi.Session, c *Case, actor, id, notes string) bool {
	err := s.api.UpdateNotes(ctx, sess, id, notes)
	s.record(ctx, c, actor, "notes", id, err, map[string]any{"length": len(notes)})
	if err != nil {
		return false
	}
	c.patch(id, func(l *model.Lead) { l.InternalNotes = notes })
	return true
}

// Unpublish 撤下公开通告。失败时返回错误，由页面以横幅提示。
func (s *Service) Unpublish(ctx context.Context, sess leadsapi.Session, c *Case, actor string) error {
	if c == nil || c.Lead == nil {
		return errors.New("case not loaded")
	}
	err := s.api.UpdateStatus(ctx, sess, c.Lead.ID, model.StatusUpdate{Status: model.StatusUnpublish})
	s.record(ctx, c, actor, "unpublish", c.Lead.ID, err, nil)
	if err != nil {
		return fmt.Errorf("unpublish %s: %w", c.Lead.ID, err)
	}
	c.Lead.IsPublic = false
	return nil
}

// 领奖表单校验失败。
var (
	ErrNoActiveReward  = errors.New("no active reward on this case")
	ErrClaimIncomplete = errors.New("informant token and resolution remarks are required")
)

// ClaimRequest 是悬赏领取表单。
type ClaimRequest struct {
	InformantToken string
	Remarks        string
}

// ClaimReward 以线人 token 结案并领取悬赏（状态转为 ACTIONED）。
func (s *Service) ClaimReward(ctx context.Context, sess leadsapi.Session, c *Case, actor string, req ClaimRequest) error {
	if c == nil || c.Lead == nil {
		return errors.New("case not loaded")
	}
	if !c.Lead.HasActiveReward() {
		return ErrNoActiveReward
	}
	token := strings.TrimSpace(req.InformantToken)
	remarks := strings.TrimSpace(req.Remarks)
	if token == "" || remarks == "" {
		return ErrClaimIncomplete
	}

	err := s.api.UpdateStatus(ctx, sess, c.Lead.ID, model.StatusUpdate{
		Status:       model.StatusActioned,
		RewardAction: "CLAIM",
		RewardData:   map[string]any{"token": token, "remarks": remarks},
	})
	s.record(ctx, c, actor, "claim", c.Lead.ID, err, map[string]any{"informant_token": token})
	if err != nil {
		return fmt.Errorf("claim reward %s: %w", c.Lead.ID, err)
	}
	c.Lead.Status = string(model.StatusActioned)
	c.Lead.RewardStatus = string(model.RewardClaimed)
	return nil
}

// record 写审计并在失败时记 warn。审计按案件主 id 成链。
func (s *Service) record(ctx context.Context, c *Case, actor, action, targetID string, err error, detail map[string]any) {
	leadID := targetID
	if c != nil && c.ID != "" {
		leadID = c.ID
	}
	if detail == nil {
		detail = map[string]any{}
	}
	detail["target_id"] = targetID
	status := "success"
	if err != nil {
		status = "failed"
		detail["error"] = err.Error()
		s.log.Warn("officer action dropped",
			zap.String("action", action),
			zap.String("lead_id", targetID),
			zap.Error(err),
		)
	}
	if s.audit == nil {
		return
	}
	if aerr := s.audit.AppendAudit(ctx, leadID, "officer_action", action, status, actor, auditSource, detail); aerr != nil {
		s.log.Warn("append audit failed", zap.String("action", action), zap.Error(aerr))
	}
}
