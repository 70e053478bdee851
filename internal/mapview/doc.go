// Package mapview draws a level's map data with the beacons that were not heard.
//
// Venue geometry (points, line strings and polygon rings) is flattened into a grey context series
// and missing beacons are drawn on top as highlighted markers whose tooltip carries the
// UUID / Major / Minor triple. The page is a standalone go-echarts HTML document, served by the
// dashboard and written by `opskit unheard map --html`.
//
// [RenderConfig] selects the marker style and theme; [ClassicConfig] mirrors the yellow marker
// with a red border, [DarkConfig] is meant for dark dashboards.
package mapview
