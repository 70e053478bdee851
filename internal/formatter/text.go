package formatter

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/opskit/internal/beacons"
	"github.com/desertthunder/opskit/internal/models"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// MissingTable renders missing rows as a text table per level, in row order.
func MissingTable(rows []models.MissingBeacon) string {
	var b strings.Builder
	for i, group := range GroupByLevel(rows) {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Level " + group.Level + "\n")

		t := newTable("UUID", "Major", "Minor", "Coordinates")
		for _, r := range group.Rows {
			coords := ""
			if r.Coordinates != nil {
				coords = FormatCoordinates(*r.Coordinates)
			}
			t.Row(r.UUID, strconv.Itoa(r.Major), strconv.Itoa(r.Minor), coords)
		}
		b.WriteString(t.String() + "\n")
	}
	return b.String()
}

// RowsTable renders Item/Value rows, with custom headers.
func RowsTable(item, value string, rows []Row) string {
	t := newTable(item, value)
	for _, r := range rows {
		t.Row(r.Item, r.Value)
	}
	return t.String()
}

// GroupsTable renders grouped beacons with columns UUID, Major, Minors.
func GroupsTable(groups []beacons.UUIDGroup) string {
	t := newTable("UUID", "Major", "Minors")
	for _, g := range groups {
		for _, m := range g.Majors {
			t.Row(g.UUID, strconv.Itoa(m.Major), JoinMinors(m.Minors))
		}
	}
	return t.String()
}

// NodesTable renders hierarchy nodes with columns ID, Name.
func NodesTable[T models.Node](nodes []T) string {
	t := newTable("ID", "Name")
	for _, n := range nodes {
		t.Row(n.NodeID(), n.NodeName())
	}
	return t.String()
}

// LevelsTable renders levels with columns ID, Short, Long, Placed.
func LevelsTable(levels []models.Level) string {
	t := newTable("ID", "Short", "Long", "Placed")
	for _, l := range levels {
		t.Row(l.ID, l.ShortName, l.LongName, strconv.Itoa(len(l.PlacedBeacons)))
	}
	return t.String()
}

// RunsTable renders recorded comparison runs, one line each.
func RunsTable(runs []*models.AuditRun) string {
	t := newTable("#", "ID", "Mode", "Building", "Levels", "Recordings", "Missing", "Created")
	for _, run := range runs {
		t.Row(
			strconv.Itoa(run.Sequence()),
			run.ID(),
			run.Mode(),
			run.BuildingID(),
			run.LevelScope(),
			strconv.Itoa(run.Recordings()),
			strconv.Itoa(run.Missing()),
			run.CreatedAt().Format(time.DateTime),
		)
	}
	return t.String()
}
