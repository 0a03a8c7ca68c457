package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"satark-portal/internal/domain/model"
	"satark-portal/internal/platform/hash"
	"satark-portal/internal/platform/id"
)

// Store 封装与 SQLite 的读写逻辑。
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// GetSchemaMetaValue 查询 schema_meta 表指定 key 的 value。
func (s *Store) GetSchemaMetaValue(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `
		SELECT value
		FROM schema_meta
		WHERE key = ?
		LIMIT 1
	`, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("query schema_meta %s: %w", key, err)
	}
	return v, nil
}

// CreateSession 为登录成功的警员保存 bearer token，返回新的 session_id。
func (s *Store) CreateSession(ctx context.Context, officer, token string, ttl time.Duration) (*model.Session, error) {
	if token == "" {
		return nil, fmt.Errorf("token is required")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	now := s.now()
	sess := &model.Session{
		SessionID: id.New("sess"),
		Officer:   officer,
		Token:     token,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions(session_id, officer, token, created_at, expires_at)
		VALUES(?, ?, ?, ?, ?)
	`, sess.SessionID, nullIfEmpty(officer), token, sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// GetSession 读取未过期的会话；不存在或已过期返回 nil。
func (s *Store) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	var sess model.Session
	var officer sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id, officer, token, created_at, expires_at
		FROM sessions
		WHERE session_id = ? AND expires_at > ?
		LIMIT 1
	`, sessionID, s.now().Unix()).Scan(&sess.SessionID, &officer, &sess.Token, &sess.CreatedAt, &sess.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query session: %w", err)
	}
	sess.Officer = officer.String
	return &sess, nil
}

// DeleteSession 清除凭据（登出、或后端返回 401/403 时调用）。
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions 删除过期会话，返回删除条数。
func (s *Store) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// SaveExport 登记一次 PDF 导出。
func (s *Store) SaveExport(ctx context.Context, rec model.ExportRecord) (string, error) {
	if rec.ExportID == "" {
		rec.ExportID = id.New("export")
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = s.now().Unix()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exports(
			export_id, lead_id, token, canvas, mode, file_name, file_path,
			sha256, size_bytes, actor, created_at, content_sha256
		)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ExportID, rec.LeadID, nullIfEmpty(rec.Token), rec.Canvas, rec.Mode, rec.FileName, rec.FilePath,
		rec.SHA256, rec.SizeBytes, nullIfEmpty(rec.Actor), rec.CreatedAt, nullIfEmpty(rec.ContentSHA256))
	if err != nil {
		return "", fmt.Errorf("insert export: %w", err)
	}
	return rec.ExportID, nil
}

// GetExport 按 export_id 读取导出登记；不存在返回 nil。
func (s *Store) GetExport(ctx context.Context, exportID string) (*model.ExportRecord, error) {
	row := s.db.QueryRowContext(ctx, exportSelect+` WHERE export_id = ? LIMIT 1`, exportID)
	rec, err := scanExport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query export: %w", err)
	}
	return rec, nil
}

// ListExports 列出某个 lead 的导出历史（新的在前）；leadID 为空时列出全部。
func (s *Store) ListExports(ctx context.Context, leadID string, limit int) ([]model.ExportRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var (
		rows *sql.Rows
		err  error
	)
	if leadID == "" {
		rows, err = s.db.QueryContext(ctx, exportSelect+` ORDER BY created_at DESC, export_id DESC LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, exportSelect+` WHERE lead_id = ? ORDER BY created_at DESC, export_id DESC LIMIT ?`, leadID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	defer rows.Close()

	out := []model.ExportRecord{}
	for rows.Next() {
		rec, err := scanExport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exports: %w", err)
	}
	return out, nil
}

// LatestExportByContent 返回同一 lead、同一 canvas 内容 hash 的最近一次导出；没有返回 nil。
func (s *Store) LatestExportByContent(ctx context.Context, leadID, contentSHA256 string) (*model.ExportRecord, error) {
	if leadID == "" || contentSHA256 == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, exportSelect+`
		WHERE lead_id = ? AND content_sha256 = ?
		ORDER BY created_at DESC, export_id DESC LIMIT 1`, leadID, contentSHA256)
	rec, err := scanExport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query export by content: %w", err)
	}
	return rec, nil
}

const exportSelect = `
	SELECT export_id, lead_id, COALESCE(token, ''), canvas, mode, file_name, file_path,
		sha256, size_bytes, COALESCE(actor, ''), created_at, COALESCE(content_sha256, '')
	FROM exports`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExport(r rowScanner) (*model.ExportRecord, error) {
	var rec model.ExportRecord
	if err := r.Scan(
		&rec.ExportID, &rec.LeadID, &rec.Token, &rec.Canvas, &rec.Mode, &rec.FileName, &rec.FilePath,
		&rec.SHA256, &rec.SizeBytes, &rec.Actor, &rec.CreatedAt, &rec.ContentSHA256,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}

// AppendAudit 写入审计记录，并按 lead 维度生成链式 hash 以便后续校验完整性。
func (s *Store) AppendAudit(ctx context.Context, leadID, eventType, action, status, actor, source string, detail any) error {
	detailJSON := []byte("{}")
	if detail != nil {
		raw, err := json.Marshal(detail)
		if err == nil {
			detailJSON = raw
		}
	}

	prev := ""
	err := s.db.QueryRowContext(ctx, `
		SELECT chain_hash
		FROM audit_events
		WHERE lead_id = ?
		ORDER BY occurred_at DESC, event_id DESC
		LIMIT 1
	`, leadID).Scan(&prev)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("query previous chain hash: %w", err)
	}

	now := s.now().Unix()
	eventID := id.New("evt")
	chain := ChainHash(prev, leadID, eventType, action, status, now, string(detailJSON))

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_events(
			event_id, lead_id, event_type, action, status,
			actor, source, detail_json, occurred_at, chain_prev_hash, chain_hash
		)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, eventID, leadID, eventType, action, status, nullIfEmpty(actor), nullIfEmpty(source), string(detailJSON), now, nullIfEmpty(prev), chain)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ChainHash 是审计链 hash 公式，写入与校验必须共用。
func ChainHash(prev, leadID, eventType, action, status string, occurredAt int64, detailJSON string) string {
	return hash.Text(prev, leadID, eventType, action, status, fmt.Sprintf("%d", occurredAt), detailJSON)
}

// ListAuditEvents 按时间正序返回某个 lead 的审计记录。
func (s *Store) ListAuditEvents(ctx context.Context, leadID string, limit int) ([]model.AuditEvent, error) {
	if limit <= 0 {
		limit = 500
	}
	if limit > 5000 {
		limit = 5000
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			event_id,
			lead_id,
			event_type,
			action,
			status,
			COALESCE(actor, ''),
			COALESCE(source, ''),
			COALESCE(detail_json, '{}'),
			occurred_at,
			COALESCE(chain_prev_hash, ''),
			chain_hash
		FROM audit_events
		WHERE lead_id = ?
		ORDER BY occurred_at ASC, event_id ASC
		LIMIT ?
	`, leadID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	out := []model.AuditEvent{}
	for rows.Next() {
		var item model.AuditEvent
		var detail string
		if err := rows.Scan(
			&item.EventID,
			&item.LeadID,
			&item.EventType,
			&item.Action,
			&item.Status,
			&item.Actor,
			&item.Source,
			&detail,
			&item.OccurredAt,
			&item.ChainPrevHash,
			&item.ChainHash,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		item.DetailJSON = json.RawMessage(detail)
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
