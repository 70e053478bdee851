package models

import (
	"fmt"
	"time"
)

// Comparison modes recorded with an [AuditRun].
const (
	ModeList = "list"
	ModeMap  = "map"
)

// AllLevels is the level scope that compares every level of a building.
const AllLevels = "All"

// AuditRun is a persisted record of one unheard-beacon comparison.
type AuditRun struct {
	id         string
	sequence   int
	mode       string
	clientID   string
	siteID     string
	buildingID string
	levelScope string
	recordings int
	declared   int
	observed   int
	rows       []MissingBeacon
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// AuditScope identifies where in the hierarchy a comparison ran.
type AuditScope struct {
	ClientID   string
	SiteID     string
	BuildingID string
	LevelScope string
}

// NewAuditRun creates an unsaved run. The ID is assigned by the repository.
func NewAuditRun(sequence int, mode string, scope AuditScope, rows []MissingBeacon) *AuditRun {
	now := time.Now()
	return &AuditRun{
		sequence:   sequence,
		mode:       mode,
		clientID:   scope.ClientID,
		siteID:     scope.SiteID,
		buildingID: scope.BuildingID,
		levelScope: scope.LevelScope,
		rows:       rows,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (a *AuditRun) ID() string                   { return a.id }
func (a *AuditRun) Sequence() int                { return a.sequence }
func (a *AuditRun) Mode() string                 { return a.mode }
func (a *AuditRun) ClientID() string             { return a.clientID }
func (a *AuditRun) SiteID() string               { return a.siteID }
func (a *AuditRun) BuildingID() string           { return a.buildingID }
func (a *AuditRun) LevelScope() string           { return a.levelScope }
func (a *AuditRun) Recordings() int              { return a.recordings }
func (a *AuditRun) Declared() int                { return a.declared }
func (a *AuditRun) Observed() int                { return a.observed }
func (a *AuditRun) Missing() int                 { return len(a.rows) }
func (a *AuditRun) Rows() []MissingBeacon        { return a.rows }
func (a *AuditRun) CreatedAt() time.Time         { return a.createdAt }
func (a *AuditRun) UpdatedAt() time.Time         { return a.updatedAt }
func (a *AuditRun) DeletedAt() *time.Time        { return a.deletedAt }
func (a *AuditRun) SetID(id string)              { a.id = id }
func (a *AuditRun) SetSequence(seq int)          { a.sequence = seq }
func (a *AuditRun) SetUpdatedAt(t time.Time)     { a.updatedAt = t }
func (a *AuditRun) SetCreatedAt(t time.Time)     { a.createdAt = t }
func (a *AuditRun) SetDeletedAt(t *time.Time)    { a.deletedAt = t }
func (a *AuditRun) SetRows(rows []MissingBeacon) { a.rows = rows }

// SetCounts records the input sizes of the comparison.
func (a *AuditRun) SetCounts(recordings, declared, observed int) {
	a.recordings = recordings
	a.declared = declared
	a.observed = observed
}

// Validate implements [Model].
func (a *AuditRun) Validate() error {
	if a.id == "" {
		return fmt.Errorf("audit run ID is required")
	}
	if a.mode != ModeList && a.mode != ModeMap {
		return fmt.Errorf("unknown audit mode %q", a.mode)
	}
	if a.buildingID == "" {
		return fmt.Errorf("building ID is required")
	}
	if a.levelScope == "" {
		return fmt.Errorf("level scope is required")
	}
	if a.recordings < 0 || a.declared < 0 || a.observed < 0 {
		return fmt.Errorf("counts must be non-negative")
	}
	return nil
}
