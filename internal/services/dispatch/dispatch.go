// Package dispatch 决定某条 lead 用哪一种 canvas 展示。
package dispatch

import (
	"go.uber.org/zap"

	"satark-portal/internal/domain/model"
)

// Kind 是 canvas 种类。
type Kind int

const (
	Intelligence Kind = iota
	Wanted
	Missing
	Alert
)

func (k Kind) String() string {
	switch k {
	case Wanted:
		return "wanted"
	case Missing:
		return "missing"
	case Alert:
		return "alert"
	case Intelligence:
		return "intel"
	}
	return "intel"
}

// CanvasFor 大小写不敏感；空状态按 SUBMITTED 处理，未知状态回落到情报 canvas 并记一条 warn。
func CanvasFor(status string, logger *zap.Logger) Kind {
	st, ok := model.ParseStatus(status)
	if !ok {
		if logger != nil {
			logger.Warn("unexpected lead status, using intelligence canvas", zap.String("status", status))
		}
		return Intelligence
	}
	switch st {
	case model.StatusWanted:
		return Wanted
	case model.StatusMissing:
		return Missing
	case model.StatusAlert:
		return Alert
	case model.StatusInfoSeeking,
		model.StatusSubmitted, model.StatusReviewed, model.StatusActioned,
		model.StatusClosed, model.StatusRejected:
		return Intelligence
	case model.StatusUnpublish:
		// 不会作为落库状态出现
		return Intelligence
	}
	return Intelligence
}

// ForLead 是 CanvasFor(lead.Status) 的简写。
func ForLead(l model.Lead, logger *zap.Logger) Kind {
	return CanvasFor(l.Status, logger)
}
