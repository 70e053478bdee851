// Package models defines domain entities and persistence interfaces for the beacon operations toolkit.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): structs decoded from the planning API and recording files
//   - [Client], [Site], [Building], [Level] : venue hierarchy nodes
//   - [LevelGeoJSON], [FeatureCollection], [Feature] : level map data
//   - [BeaconType] : beacon hardware types registered for a site
//   - [Recording] : one upload from the mobile scanning app
//   - [BeaconIdentifier], [PlacedBeacon], [MissingBeacon] : the canonical beacon triple and its projections
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [AuditRun] : one unheard-beacon comparison and its result rows
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
