package mapview

import (
	"errors"
	"fmt"
	"io"

	"github.com/desertthunder/opskit/internal/models"
	"github.com/desertthunder/opskit/internal/shared"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderConfig controls the look of a rendered map page.
type RenderConfig struct {
	PageTitle string
	Title     string
	Theme     string
	Width     string
	Height    string

	// AssetsHost overrides where the echarts script is loaded from. Empty uses the go-echarts CDN.
	AssetsHost string

	MarkerSymbol      string
	MarkerSize        int
	MarkerColor       string
	MarkerBorderColor string
	MarkerBorderWidth float32

	ContextColor string
	ContextSize  int

	// Padding is the fraction of the bounding box added on every side of the axes.
	Padding float64
}

// Theme names accepted by [ConfigForTheme].
const (
	ThemeClassic = "classic"
	ThemeDark    = "dark"
)

// ClassicConfig draws yellow markers with a red border on a light page.
func ClassicConfig() RenderConfig {
	return RenderConfig{
		PageTitle:         "Unheard Beacons",
		Title:             "Unheard Beacons",
		Theme:             "white",
		Width:             "800px",
		Height:            "600px",
		MarkerSymbol:      "circle",
		MarkerSize:        20,
		MarkerColor:       "yellow",
		MarkerBorderColor: "red",
		MarkerBorderWidth: 2,
		ContextColor:      "#9e9e9e",
		ContextSize:       3,
		Padding:           0.05,
	}
}

// DarkConfig draws red pins on the dark echarts theme.
func DarkConfig() RenderConfig {
	cfg := ClassicConfig()
	cfg.Theme = "dark"
	cfg.Width = "900px"
	cfg.Height = "900px"
	cfg.MarkerSymbol = "pin"
	cfg.MarkerSize = 24
	cfg.MarkerColor = "#ff5252"
	cfg.MarkerBorderColor = "#ffeb3b"
	cfg.MarkerBorderWidth = 1
	return cfg
}

// ConfigForTheme maps a theme name to its preset. Empty selects classic.
func ConfigForTheme(name string) (RenderConfig, error) {
	switch name {
	case "", ThemeClassic:
		return ClassicConfig(), nil
	case ThemeDark:
		return DarkConfig(), nil
	default:
		return RenderConfig{}, fmt.Errorf("%w: unknown theme %q", shared.ErrInvalidFlag, name)
	}
}

// MarkerLabel is the tooltip text of a missing beacon.
func MarkerLabel(b models.BeaconIdentifier) string {
	return fmt.Sprintf("UUID: %s / Major: %d / Minor: %d", b.UUID, b.Major, b.Minor)
}

// Render writes a standalone HTML page with the venue geometry of data and a marker for every
// missing row that carries coordinates.
//
// A level without usable geometry is still rendered around [FallbackBounds], with
// [shared.MsgNoGeometry] as the subtitle. Render only fails when the page cannot be written.
func Render(w io.Writer, data *models.LevelGeoJSON, missing []models.MissingBeacon, cfg RenderConfig) error {
	var fc models.FeatureCollection
	if data != nil {
		fc = data.GeoJSON
	}

	subtitle := fmt.Sprintf("%d missing", len(missing))
	box, err := Bounds(fc)
	noGeometry := errors.Is(err, shared.ErrNoGeometry)
	if noGeometry {
		subtitle = shared.MsgNoGeometry
	}

	venue := make([]opts.ScatterData, 0)
	for _, c := range Coordinates(fc) {
		venue = append(venue, opts.ScatterData{Name: "venue", Value: []any{c[0], c[1]}})
	}

	var (
		markers = make([]opts.ScatterData, 0, len(missing))
		points  [][2]float64
	)
	for _, m := range missing {
		if m.Coordinates == nil {
			continue
		}
		c := *m.Coordinates
		points = append(points, c)
		markers = append(markers, opts.ScatterData{
			Name:  MarkerLabel(m.BeaconIdentifier),
			Value: []any{c[0], c[1]},
		})
	}

	if noGeometry && len(points) > 0 {
		box = emptyBox()
	}
	for _, c := range points {
		box.Extend(c)
	}

	axes := box.Pad(cfg.Padding)
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  cfg.PageTitle,
			Theme:      cfg.Theme,
			Width:      cfg.Width,
			Height:     cfg.Height,
			AssetsHost: cfg.AssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{Title: cfg.Title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item", Formatter: "{b}"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: axes.MinLon, Max: axes.MaxLon, Name: "Longitude", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: axes.MinLat, Max: axes.MaxLat, Name: "Latitude", NameLocation: "middle", NameGap: 40}),
	)

	scatter.AddSeries("venue", venue,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: cfg.ContextSize}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: cfg.ContextColor}),
	)
	scatter.AddSeries("missing", markers,
		charts.WithScatterChartOpts(opts.ScatterChart{Symbol: cfg.MarkerSymbol, SymbolSize: cfg.MarkerSize}),
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:       cfg.MarkerColor,
			BorderColor: cfg.MarkerBorderColor,
			BorderWidth: cfg.MarkerBorderWidth,
		}),
	)

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("failed to render map: %w", err)
	}
	return nil
}
