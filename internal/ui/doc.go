// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks the venue hierarchy and runs an unheard comparison for recordings loaded up front:
//  1. [ClientView] : Choose a client
//  2. [SiteView] : Choose one of its sites
//  3. [BuildingView] : Choose a building
//  4. [LevelView] : Choose one level or "All Levels"
//  5. [ConfirmView] : Confirm the comparison
//  6. [AuditView] : Monitor progress updates
//  7. [ResultView] : Missing beacons grouped by level, plus skipped-entry warnings
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Hierarchy fetches go through a [session.Session], so stepping back reuses cached options and
// choosing a different node clears everything below it.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
