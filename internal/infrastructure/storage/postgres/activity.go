// Package postgres provides PostgreSQL infrastructure components.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	appctx "stockbook/internal/core/context"
	"stockbook/internal/core/id"
)

// ActivityAction represents the type of recorded operation.
type ActivityAction string

const (
	ActivityActionCreate   ActivityAction = "create"
	ActivityActionUpdate   ActivityAction = "update"
	ActivityActionDelete   ActivityAction = "delete"
	ActivityActionApply    ActivityAction = "apply"
	ActivityActionBalance  ActivityAction = "balance"
	ActivityActionTransition ActivityAction = "transition"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// ActivityRow is a single activity feed row. Details of large operations
// (full line item sets, balance diffs) are compressed before persisting.
type ActivityRow struct {
	ID                 id.ID           `db:"id"`
	EntityType         string          `db:"entity_type"`
	EntityID           id.ID           `db:"entity_id"`
	Action             ActivityAction  `db:"action"`
	Actor              string          `db:"actor"`
	Details            json.RawMessage `db:"details"`
	DetailsCompressed  []byte          `db:"details_compressed"`
	CompressionAlgo    CompressionAlgo `db:"compression_algo"`
	CreatedAt          time.Time       `db:"created_at"`
}

// ActivityStore persists the append-only activity feed.
type ActivityStore struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int // bytes, default 10KB
}

// NewActivityStore creates a new activity store.
func NewActivityStore(txManager *TxManager) (*ActivityStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &ActivityStore{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024, // 10KB
	}, nil
}

// Record persists an activity row. The actor defaults to the request actor
// from context when not set explicitly.
func (s *ActivityStore) Record(ctx context.Context, row ActivityRow) error {
	if row.Actor == "" {
		row.Actor = appctx.GetActorID(ctx)
	}

	if id.IsNil(row.ID) {
		row.ID = id.New()
	}

	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	// Compress large details
	row.CompressionAlgo = CompressionNone
	if len(row.Details) > s.compressThreshold {
		row.DetailsCompressed = s.encoder.EncodeAll(row.Details, nil)
		row.Details = nil
		row.CompressionAlgo = CompressionZstd
	}

	sql := `
		INSERT INTO sys_activity (
			id, entity_type, entity_id, action, actor,
			details, details_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	querier := s.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, sql,
		row.ID, row.EntityType, row.EntityID, row.Action, row.Actor,
		row.Details, row.DetailsCompressed, row.CompressionAlgo, row.CreatedAt,
	)

	return err
}

// RecordAction is a convenience method for recording an action with details.
func (s *ActivityStore) RecordAction(
	ctx context.Context,
	entityType string,
	entityID id.ID,
	action ActivityAction,
	details map[string]any,
) error {
	var detailsJSON json.RawMessage
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshal details: %w", err)
		}
		detailsJSON = raw
	}

	return s.Record(ctx, ActivityRow{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Details:    detailsJSON,
	})
}

// DomainActivityRecorder adapts the store to domain consumers, which take
// the action as a plain string rather than this package's ActivityAction.
type DomainActivityRecorder struct {
	Store *ActivityStore
}

// RecordAction records an activity row for a domain-level action.
func (r DomainActivityRecorder) RecordAction(ctx context.Context, entityType string, entityID id.ID, action string, details map[string]any) error {
	return r.Store.RecordAction(ctx, entityType, entityID, ActivityAction(action), details)
}

// EntityHistory retrieves the activity feed for an entity, newest first.
func (s *ActivityStore) EntityHistory(
	ctx context.Context,
	entityType string,
	entityID id.ID,
	limit int,
) ([]ActivityRow, error) {
	sql := `
		SELECT id, entity_type, entity_id, action, actor,
			   details, details_compressed, compression_algo, created_at
		FROM sys_activity
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, sql, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []ActivityRow
	for rows.Next() {
		var e ActivityRow
		err := rows.Scan(
			&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.Actor,
			&e.Details, &e.DetailsCompressed, &e.CompressionAlgo, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		// Decompress if needed
		if e.CompressionAlgo == CompressionZstd && len(e.DetailsCompressed) > 0 {
			decompressed, err := s.decoder.DecodeAll(e.DetailsCompressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress details: %w", err)
			}
			e.Details = decompressed
			e.DetailsCompressed = nil
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}
