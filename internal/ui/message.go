package ui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/opskit/internal/models"
	"github.com/desertthunder/opskit/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgOptionsFetched MsgKind = iota
	MsgProgressUpdate
	MsgAuditComplete
	MsgRunRecorded
)

type optionsFetched struct {
	view  ViewState
	title string
	items []list.Item
	err   error
}

type auditComplete struct {
	result *tasks.AuditResult
	err    error
}

type runRecorded struct {
	run *models.AuditRun
	err error
}

// optionsFetchedMsg is the constructor for [MsgOptionsFetched]
func optionsFetchedMsg(view ViewState, title string, items []list.Item, err error) Msg {
	return Msg{kind: MsgOptionsFetched, data: optionsFetched{view, title, items, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// auditCompleteMsg is the constructor for [MsgAuditComplete]
func auditCompleteMsg(result *tasks.AuditResult, err error) Msg {
	return Msg{kind: MsgAuditComplete, data: auditComplete{result, err}}
}

// runRecordedMsg is the constructor for [MsgRunRecorded]
func runRecordedMsg(run *models.AuditRun, err error) Msg {
	return Msg{kind: MsgRunRecorded, data: runRecorded{run, err}}
}
