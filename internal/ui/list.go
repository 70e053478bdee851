package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/opskit/internal/models"
	"github.com/desertthunder/opskit/internal/session"
)

var (
	_ list.Item = nodeItem{}
	_ list.Item = levelItem{}
)

// nodeItem wraps a client, site or building to implement [list.Item].
type nodeItem struct {
	node models.Node
}

func (i nodeItem) FilterValue() string { return i.node.NodeName() }
func (i nodeItem) Title() string       { return i.node.NodeName() }
func (i nodeItem) Description() string { return i.node.NodeID() }

// levelItem is one level selector entry, either a short name or [models.AllLevels].
type levelItem struct {
	option string
	level  *models.Level
	count  int
}

func (i levelItem) FilterValue() string { return i.option }
func (i levelItem) Title() string       { return i.option }
func (i levelItem) Description() string {
	if i.level == nil {
		return fmt.Sprintf("%d levels", i.count)
	}
	if i.level.LongName != "" {
		return fmt.Sprintf("%s • %d placed", i.level.LongName, len(i.level.PlacedBeacons))
	}
	return fmt.Sprintf("%d placed", len(i.level.PlacedBeacons))
}

func nodeItems[T models.Node](nodes []T) []list.Item {
	items := make([]list.Item, len(nodes))
	for i, n := range nodes {
		items[i] = nodeItem{node: n}
	}
	return items
}

func levelItems(levels []models.Level) []list.Item {
	opts := session.LevelOptions(levels, models.ModeList)
	items := make([]list.Item, 0, len(opts))
	for _, opt := range opts {
		item := levelItem{option: opt, count: len(levels)}
		if l, ok := session.ResolveLevel(levels, opt); ok {
			item.level = &l
		}
		items = append(items, item)
	}
	return items
}
