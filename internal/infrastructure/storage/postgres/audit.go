package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"cartera/internal/core/appctx"
	"cartera/internal/core/id"
	"cartera/internal/domain"
)

// Compile-time check.
var _ domain.AuditRecorder = (*AuditService)(nil)

// CompressionAlgo specifies the snapshot compression algorithm.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// AuditEntry is one immutable record of an entity state transition.
type AuditEntry struct {
	ID                 id.ID           `db:"id"`
	EntityType         string          `db:"entity_type"`
	EntityID           string          `db:"entity_id"`
	Action             string          `db:"action"`
	UserID             string          `db:"user_id"`
	UserEmail          string          `db:"user_email"`
	Snapshot           json.RawMessage `db:"snapshot"`
	SnapshotCompressed []byte          `db:"snapshot_compressed"`
	CompressionAlgo    CompressionAlgo `db:"compression_algo"`
	CreatedAt          time.Time       `db:"created_at"`
}

// AuditService records payment and invoice state transitions to the
// sys_audit table. Large snapshots are zstd-compressed.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditService creates the audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// Record implements domain.AuditRecorder: it serializes the snapshot and
// stamps the acting user from context.
func (s *AuditService) Record(ctx context.Context, entity, entityID, action string, snapshot any) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal audit snapshot: %w", err)
	}

	entry := AuditEntry{
		ID:              id.New(),
		EntityType:      entity,
		EntityID:        entityID,
		Action:          action,
		Snapshot:        raw,
		CompressionAlgo: CompressionNone,
		CreatedAt:       time.Now().UTC(),
	}
	if actor := appctx.GetActor(ctx); actor != nil {
		entry.UserID = actor.UserID
		entry.UserEmail = actor.Email
	}

	if len(entry.Snapshot) > s.compressThreshold {
		entry.SnapshotCompressed = s.encoder.EncodeAll(entry.Snapshot, nil)
		entry.Snapshot = nil
		entry.CompressionAlgo = CompressionZstd
	}

	sql := `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, action, user_id, user_email,
			snapshot, snapshot_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.txManager.GetQuerier(ctx).Exec(ctx, sql,
		entry.ID, entry.EntityType, entry.EntityID, entry.Action,
		entry.UserID, entry.UserEmail,
		entry.Snapshot, entry.SnapshotCompressed, entry.CompressionAlgo,
		entry.CreatedAt,
	)
	return err
}

// History retrieves the audit trail of one entity, newest first.
func (s *AuditService) History(ctx context.Context, entity, entityID string, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	sql := `
		SELECT id, entity_type, entity_id, action, user_id, user_email,
		       snapshot, snapshot_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, sql, entity, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		err := rows.Scan(
			&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.UserID, &e.UserEmail,
			&e.Snapshot, &e.SnapshotCompressed, &e.CompressionAlgo, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		if e.CompressionAlgo == CompressionZstd && len(e.SnapshotCompressed) > 0 {
			decompressed, err := s.decoder.DecodeAll(e.SnapshotCompressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress audit snapshot: %w", err)
			}
			e.Snapshot = decompressed
			e.SnapshotCompressed = nil
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
