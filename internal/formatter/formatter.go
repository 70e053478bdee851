// package formatter renders comparison results and recording profiles as CSV, Markdown and text
// tables
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/opskit/internal/models"
	"github.com/desertthunder/opskit/internal/shared"
)

// CSV headers of the two missing-beacon layouts.
var (
	listHeaders = []string{"Level", "UUID", "Major", "Minor"}
	mapHeaders  = []string{"UUID", "Major", "Minor", "Coordinates"}
)

// MissingToCSV converts missing rows to the list layout: Level, UUID, Major, Minor
func MissingToCSV(rows []models.MissingBeacon) ([]byte, error) {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{r.Level, r.UUID, strconv.Itoa(r.Major), strconv.Itoa(r.Minor)})
	}
	return writeCSV(listHeaders, records)
}

// MissingMapToCSV converts missing rows to the map layout: UUID, Major, Minor, Coordinates.
// Coordinates are written as "[lon, lat]"; rows without a position get an empty cell.
func MissingMapToCSV(rows []models.MissingBeacon) ([]byte, error) {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		coords := ""
		if r.Coordinates != nil {
			coords = FormatCoordinates(*r.Coordinates)
		}
		records = append(records, []string{r.UUID, strconv.Itoa(r.Major), strconv.Itoa(r.Minor), coords})
	}
	return writeCSV(mapHeaders, records)
}

// ParseMissingCSV reads either layout back into rows, in file order.
func ParseMissingCSV(r io.Reader) ([]models.MissingBeacon, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty CSV", shared.ErrInvalidInput)
	}

	header := strings.Join(records[0], ",")
	isMap := false
	switch header {
	case strings.Join(listHeaders, ","):
	case strings.Join(mapHeaders, ","):
		isMap = true
	default:
		return nil, fmt.Errorf("%w: unexpected CSV header %q", shared.ErrInvalidInput, header)
	}

	rows := make([]models.MissingBeacon, 0, len(records)-1)
	for i, rec := range records[1:] {
		var (
			row  models.MissingBeacon
			err  error
			line = i + 2
		)
		if isMap {
			row.UUID = rec[0]
			row.Major, row.Minor, err = parsePair(rec[1], rec[2])
			if err == nil && rec[3] != "" {
				var coords [2]float64
				coords, err = ParseCoordinates(rec[3])
				row.Coordinates = &coords
			}
		} else {
			row.Level, row.UUID = rec[0], rec[1]
			row.Major, row.Minor, err = parsePair(rec[2], rec[3])
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", shared.ErrInvalidInput, line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parsePair(major, minor string) (int, int, error) {
	a, err := strconv.Atoi(major)
	if err != nil {
		return 0, 0, fmt.Errorf("major %q: %w", major, err)
	}
	b, err := strconv.Atoi(minor)
	if err != nil {
		return 0, 0, fmt.Errorf("minor %q: %w", minor, err)
	}
	return a, b, nil
}

// FormatCoordinates renders a position as "[lon, lat]", keeping a decimal point on whole numbers.
func FormatCoordinates(c [2]float64) string {
	return fmt.Sprintf("[%s, %s]", formatFloat(c[0]), formatFloat(c[1]))
}

// ParseCoordinates reads the output of [FormatCoordinates].
func ParseCoordinates(s string) ([2]float64, error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "["), "]")
	parts := strings.Split(inner, ",")
	if len(parts) != 2 {
		return [2]float64{}, fmt.Errorf("coordinates %q: want [lon, lat]", s)
	}

	var out [2]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return [2]float64{}, fmt.Errorf("coordinates %q: %w", s, err)
		}
		out[i] = f
	}
	return out, nil
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// MissingToMarkdown renders a report with one table per level.
func MissingToMarkdown(title string, rows []models.MissingBeacon) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	if len(rows) == 0 {
		buf.WriteString(shared.MsgNoneMissing + "\n")
		return buf.Bytes()
	}

	buf.WriteString(fmt.Sprintf("**Missing**: %d\n\n", len(rows)))
	for _, group := range GroupByLevel(rows) {
		buf.WriteString(fmt.Sprintf("## %s\n\n", group.Level))
		buf.WriteString("| UUID | Major | Minor |\n|------|-------|-------|\n")
		for _, r := range group.Rows {
			buf.WriteString(fmt.Sprintf("| %s | %d | %d |\n", r.UUID, r.Major, r.Minor))
		}
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

// LevelGroup is the missing rows of one level.
type LevelGroup struct {
	Level string
	Rows  []models.MissingBeacon
}

// GroupByLevel splits rows by level, keeping the order in which levels first appear.
func GroupByLevel(rows []models.MissingBeacon) []LevelGroup {
	var (
		groups []LevelGroup
		index  = make(map[string]int)
	)
	for _, r := range rows {
		i, ok := index[r.Level]
		if !ok {
			i = len(groups)
			index[r.Level] = i
			groups = append(groups, LevelGroup{Level: r.Level})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}
	return groups
}

// WriteFile writes rendered output to path, creating or truncating it.
func WriteFile(path string, data []byte) error {
	if path == "" {
		return fmt.Errorf("%w: output path", shared.ErrMissingArgument)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writeCSV(headers []string, records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}
