package tasks

import (
	"context"
	"sync"

	"github.com/desertthunder/opskit/internal/beacons"
	"github.com/desertthunder/opskit/internal/models"
)

// ProfileOpts controls [AuditEngine.Profile].
type ProfileOpts struct {
	Geocode bool // Resolve the first GPS fix to a place name
}

// Profile is the basic summary of one recording.
type Profile struct {
	Recording *models.Recording
	Location  string // Place of the first GPS fix; empty without GPS data or geocoding
	Groups    []beacons.UUIDGroup
	Warnings  []beacons.Warning
}

// SensorCount, GPSCount and BeaconCount are the raw array lengths of the recording.
func (p *Profile) SensorCount() int { return len(p.Recording.SensorData) }
func (p *Profile) GPSCount() int    { return len(p.Recording.GPSData) }
func (p *Profile) BeaconCount() int { return len(p.Recording.BeaconData) }

// Profile summarizes rec: beacons grouped by UUID and major, plus the place of the first GPS fix.
func (e *AuditEngine) Profile(ctx context.Context, rec *models.Recording, opts ProfileOpts) *Profile {
	groups, warnings := beacons.Group(rec)
	warnings = append(beacons.HeaderWarnings(rec), warnings...)
	p := &Profile{Recording: rec, Groups: groups, Warnings: warnings}

	if fix, ok := rec.FirstFix(); ok && opts.Geocode && e.geocoder != nil {
		p.Location = e.geocoder.Locate(ctx, fix.Latitude, fix.Longitude)
	}

	e.logger.Debug("profiled recording",
		"name", rec.Name,
		"uuids", len(groups),
		"beacons", p.BeaconCount(),
		"skipped", len(warnings),
	)
	return p
}

// BulkProfileOpts contains configuration for profiling several recordings.
type BulkProfileOpts struct {
	ProfileOpts
	NumWorkers int // Concurrent workers (default: 4, max: 8)
}

// BulkProfile profiles recordings concurrently and returns the profiles in input order.
//
// Geocoding goes through the engine's geocoder, which applies its own rate limit, so extra
// workers only overlap parsing and grouping with lookups.
func (e *AuditEngine) BulkProfile(ctx context.Context, prog chan<- ProgressUpdate, recs []*models.Recording, opts BulkProfileOpts) ([]*Profile, error) {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}

	type job struct {
		index int
		rec   *models.Recording
	}
	type done struct {
		index   int
		profile *Profile
	}

	jobs := make(chan job, len(recs))
	results := make(chan done, len(recs))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				results <- done{index: j.index, profile: e.Profile(ctx, j.rec, opts.ProfileOpts)}
			}
		}()
	}

	for i, rec := range recs {
		jobs <- job{index: i, rec: rec}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	profiles := make([]*Profile, len(recs))
	completed := 0
	for res := range results {
		completed++
		profiles[res.index] = res.profile
		e.sendProgress(prog, profileCompletedUpdate(completed, len(recs), res.profile.Recording.Name))
	}

	if err := ctx.Err(); err != nil {
		return profiles, err
	}
	return profiles, nil
}
