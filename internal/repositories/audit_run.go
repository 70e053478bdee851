package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/opskit/internal/models"
	"github.com/desertthunder/opskit/internal/shared"
	"github.com/goccy/go-json"
)

// AuditRunRepository implements models.Repository[*models.AuditRun] for comparison history.
type AuditRunRepository struct {
	db *sql.DB
}

// NewAuditRunRepository creates a new AuditRunRepository with the given database connection
func NewAuditRunRepository(db *sql.DB) *AuditRunRepository {
	return &AuditRunRepository{db: db}
}

const auditRunColumns = `id, sequence, mode, client_id, site_id, building_id, level_scope,
	recordings, declared, observed, missing, missing_rows, created_at, updated_at, deleted_at`

// Create inserts a run with a generated ID and the next sequence number
func (r *AuditRunRepository) Create(run *models.AuditRun) error {
	sequence, err := NextSequence(r.db, "audit_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	run.SetID(id)
	run.SetSequence(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	rows, err := encodeRows(run.Rows())
	if err != nil {
		return err
	}

	query := `
		INSERT INTO audit_runs (id, sequence, mode, client_id, site_id, building_id, level_scope,
			recordings, declared, observed, missing, missing_rows, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		run.Mode(),
		run.ClientID(),
		run.SiteID(),
		run.BuildingID(),
		run.LevelScope(),
		run.Recordings(),
		run.Declared(),
		run.Observed(),
		run.Missing(),
		rows,
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *AuditRunRepository) Get(id string) (*models.AuditRun, error) {
	query := `SELECT ` + auditRunColumns + ` FROM audit_runs WHERE id = ? AND deleted_at IS NULL`

	run, err := scanAuditRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: audit run %s", shared.ErrNotFound, id)
	}
	return run, err
}

// GetBySequence retrieves a run by its sequence number, as shown by `history list`
func (r *AuditRunRepository) GetBySequence(sequence int) (*models.AuditRun, error) {
	query := `SELECT ` + auditRunColumns + ` FROM audit_runs WHERE sequence = ? AND deleted_at IS NULL`

	run, err := scanAuditRun(r.db.QueryRow(query, sequence))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: audit run #%d", shared.ErrNotFound, sequence)
	}
	return run, err
}

// Update rewrites the result rows and counts of an existing run
func (r *AuditRunRepository) Update(run *models.AuditRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	rows, err := encodeRows(run.Rows())
	if err != nil {
		return err
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE audit_runs
		SET recordings = ?, declared = ?, observed = ?, missing = ?, missing_rows = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		run.Recordings(),
		run.Declared(),
		run.Observed(),
		run.Missing(),
		rows,
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update audit run: %w", err)
	}

	return expectAffected(result, "audit run", run.ID())
}

// Delete soft-deletes a run by ID
func (r *AuditRunRepository) Delete(id string) error {
	query := `UPDATE audit_runs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete audit run: %w", err)
	}

	return expectAffected(result, "audit run", id)
}

// List retrieves runs matching the criteria, newest first.
//
// Supported criteria: "building_id" (string), "mode" (string) and "limit" (int).
func (r *AuditRunRepository) List(criteria map[string]any) ([]*models.AuditRun, error) {
	query := `SELECT ` + auditRunColumns + ` FROM audit_runs WHERE deleted_at IS NULL`
	args := []any{}

	if buildingID, ok := criteria["building_id"].(string); ok && buildingID != "" {
		query += " AND building_id = ?"
		args = append(args, buildingID)
	}

	if mode, ok := criteria["mode"].(string); ok && mode != "" {
		query += " AND mode = ?"
		args = append(args, mode)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.AuditRun
	for rows.Next() {
		run, err := scanAuditRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// scanner is satisfied by both [sql.Row] and [sql.Rows]
type scanner interface {
	Scan(dest ...any) error
}

func scanAuditRun(s scanner) (*models.AuditRun, error) {
	var (
		id, mode, clientID, siteID      string
		buildingID, levelScope, rowsRaw string
		sequence, missing               int
		recordings, declared, observed  int
		createdAt, updatedAt            time.Time
		deletedAt                       sql.NullTime
	)

	err := s.Scan(&id, &sequence, &mode, &clientID, &siteID, &buildingID, &levelScope,
		&recordings, &declared, &observed, &missing, &rowsRaw, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit run: %w", err)
	}

	var rows []models.MissingBeacon
	if err := json.Unmarshal([]byte(rowsRaw), &rows); err != nil {
		return nil, fmt.Errorf("failed to decode missing rows for %s: %w", id, err)
	}

	scope := models.AuditScope{ClientID: clientID, SiteID: siteID, BuildingID: buildingID, LevelScope: levelScope}
	run := models.NewAuditRun(sequence, mode, scope, rows)
	run.SetID(id)
	run.SetCounts(recordings, declared, observed)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}

func encodeRows(rows []models.MissingBeacon) (string, error) {
	if rows == nil {
		rows = []models.MissingBeacon{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("failed to encode missing rows: %w", err)
	}
	return string(data), nil
}

func expectAffected(result sql.Result, entity, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s %s not found or already deleted", shared.ErrNotFound, entity, id)
	}
	return nil
}
