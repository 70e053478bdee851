package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/opskit/internal/models"
	"github.com/desertthunder/opskit/internal/session"
	"github.com/desertthunder/opskit/internal/shared"
	"github.com/desertthunder/opskit/internal/tasks"
	tu "github.com/desertthunder/opskit/internal/testing"
)

type fakeRecorder struct {
	runs []*models.AuditRun
}

func (f *fakeRecorder) Create(run *models.AuditRun) error {
	f.runs = append(f.runs, run)
	run.SetID("run-1")
	run.SetSequence(len(f.runs))
	return nil
}

func newTestModel(t *testing.T, dir *tu.MockDirectory, recs ...*models.Recording) (*Model, *fakeRecorder) {
	t.Helper()
	logger := shared.NewLogger(io.Discard)
	recorder := &fakeRecorder{}
	engine := tasks.NewAuditEngine(nil, recorder, logger)
	m := NewModel(context.Background(), session.New(dir, nil, logger), engine, recs)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, recorder
}

// drive runs cmd and feeds every resulting TUI message back into m until the chain ends.
func drive(m *Model, cmd tea.Cmd) tea.Cmd {
	for cmd != nil {
		msg := cmd()
		if _, ok := msg.(Msg); !ok {
			return cmd
		}
		_, cmd = m.Update(msg)
	}
	return nil
}

func press(m *Model, k tea.KeyMsg) tea.Cmd {
	_, cmd := m.Update(k)
	return drive(m, cmd)
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	down  = tea.KeyMsg{Type: tea.KeyDown}
)

func titles(m *Model) []string {
	var out []string
	for _, item := range m.list.Items() {
		switch it := item.(type) {
		case nodeItem:
			out = append(out, it.Title())
		case levelItem:
			out = append(out, it.Title())
		}
	}
	return out
}

// toLevels walks Acme › Campus › Main.
func toLevels(t *testing.T, m *Model) {
	t.Helper()
	drive(m, m.Init())
	press(m, enter)
	press(m, enter)
	press(m, enter)
	if m.view != LevelView {
		t.Fatalf("expected level view, got %v (notice %q, err %v)", m.view, m.notice, m.err)
	}
}

func TestModel(t *testing.T) {
	a, b := tu.Beacon(tu.UUIDA, 1, 1), tu.Beacon(tu.UUIDA, 1, 2)

	t.Run("Drill Down To Result", func(t *testing.T) {
		m, _ := newTestModel(t, tu.NewMockDirectory(tu.SampleHierarchy()), tu.Recording("r1", a))

		drive(m, m.Init())
		if m.view != ClientView || strings.Join(titles(m), ",") != "Acme,Beta" {
			t.Fatalf("expected client list, got %v %v", m.view, titles(m))
		}

		press(m, enter)
		if m.view != SiteView || strings.Join(titles(m), ",") != "Campus,Depot" {
			t.Fatalf("expected site list, got %v %v", m.view, titles(m))
		}

		press(m, enter)
		press(m, enter)
		if got := strings.Join(titles(m), ","); got != models.AllLevels+",L1,L2" {
			t.Fatalf("unexpected level options: %s", got)
		}
		if !strings.Contains(m.View(), "Acme › Campus › Main") {
			t.Errorf("expected breadcrumb in view, got %q", m.View())
		}

		press(m, enter)
		if m.view != ConfirmView {
			t.Fatalf("expected confirm view, got %v", m.view)
		}
		if len(m.scope.Levels) != 2 {
			t.Errorf("expected both levels in scope, got %d", len(m.scope.Levels))
		}
		if !strings.Contains(m.View(), "Compare 1 recording(s)") {
			t.Errorf("unexpected confirm view: %q", m.View())
		}

		press(m, runes("y"))
		if m.view != ResultView || m.err != nil {
			t.Fatalf("expected result view, got %v (err %v)", m.view, m.err)
		}
		if len(m.result.Rows) != 3 {
			t.Errorf("expected 3 missing rows, got %d", len(m.result.Rows))
		}
		if view := m.View(); !strings.Contains(view, "Unheard Beacons") || !strings.Contains(view, "3 missing beacon(s)") {
			t.Errorf("unexpected result view: %q", view)
		}
	})

	t.Run("Single Level Fully Heard", func(t *testing.T) {
		m, _ := newTestModel(t, tu.NewMockDirectory(tu.SampleHierarchy()), tu.Recording("r1", a, b))
		toLevels(t, m)

		press(m, down)
		press(m, enter)
		if m.option != "L1" {
			t.Fatalf("expected L1 selected, got %q", m.option)
		}

		press(m, runes("y"))
		if !m.result.Empty() {
			t.Errorf("expected no missing beacons, got %v", m.result.Rows)
		}
		if !strings.Contains(m.View(), shared.MsgNoneMissing) {
			t.Errorf("expected none-missing message, got %q", m.View())
		}
	})

	t.Run("Empty Site Keeps Current List", func(t *testing.T) {
		m, _ := newTestModel(t, tu.NewMockDirectory(tu.SampleHierarchy()), tu.Recording("r1", a))
		drive(m, m.Init())
		press(m, enter)

		press(m, down)
		press(m, enter)
		if m.view != SiteView {
			t.Errorf("expected to stay on site view, got %v", m.view)
		}
		if m.notice != shared.MsgNoBuildings {
			t.Errorf("expected %q, got %q", shared.MsgNoBuildings, m.notice)
		}
	})

	t.Run("Back Uses Cached Options", func(t *testing.T) {
		dir := tu.NewMockDirectory(tu.SampleHierarchy())
		m, _ := newTestModel(t, dir, tu.Recording("r1", a))
		toLevels(t, m)

		press(m, esc)
		if m.view != BuildingView {
			t.Fatalf("expected building view, got %v", m.view)
		}
		press(m, esc)
		if m.view != SiteView || strings.Join(titles(m), ",") != "Campus,Depot" {
			t.Fatalf("expected cached sites, got %v %v", m.view, titles(m))
		}
		press(m, esc)
		if m.view != ClientView {
			t.Fatalf("expected client view, got %v", m.view)
		}

		for _, method := range []string{"Clients", "Sites", "Buildings", "Levels"} {
			if n := dir.Calls(method); n != 1 {
				t.Errorf("expected one %s call, got %d", method, n)
			}
		}
	})

	t.Run("Cancel Confirmation", func(t *testing.T) {
		m, _ := newTestModel(t, tu.NewMockDirectory(tu.SampleHierarchy()), tu.Recording("r1", a))
		toLevels(t, m)
		press(m, enter)

		press(m, runes("n"))
		if m.view != LevelView || m.option != "" {
			t.Errorf("expected level view with cleared option, got %v %q", m.view, m.option)
		}
	})

	t.Run("Client Fetch Failure", func(t *testing.T) {
		dir := tu.NewMockDirectory(tu.SampleHierarchy())
		dir.Err = errors.New("planner down")
		m, _ := newTestModel(t, dir)

		drive(m, m.Init())
		if m.err == nil || !strings.Contains(m.View(), "planner down") {
			t.Errorf("expected fetch error in view, got %q", m.View())
		}
	})

	t.Run("Comparison Failure", func(t *testing.T) {
		m, _ := newTestModel(t, tu.NewMockDirectory(tu.SampleHierarchy()))
		toLevels(t, m)
		press(m, enter)

		press(m, runes("y"))
		if m.view != ResultView || m.err == nil {
			t.Fatalf("expected failed result, got %v %v", m.view, m.err)
		}
		if !strings.Contains(m.View(), "Comparison failed") {
			t.Errorf("unexpected view: %q", m.View())
		}
		if cmd := press(m, runes("s")); cmd != nil {
			t.Error("expected save to be ignored after a failure")
		}
	})

	t.Run("Save Run", func(t *testing.T) {
		m, recorder := newTestModel(t, tu.NewMockDirectory(tu.SampleHierarchy()), tu.Recording("r1", a))
		toLevels(t, m)
		press(m, enter)
		press(m, runes("y"))

		press(m, runes("s"))
		if len(recorder.runs) != 1 {
			t.Fatalf("expected one recorded run, got %d", len(recorder.runs))
		}
		if m.notice != "Saved run #1 (run-1)" {
			t.Errorf("unexpected notice %q", m.notice)
		}
		if got := recorder.runs[0].LevelScope(); got != models.AllLevels {
			t.Errorf("expected level scope %q, got %q", models.AllLevels, got)
		}

		press(m, runes("s"))
		if len(recorder.runs) != 1 {
			t.Errorf("expected the run to be saved once, got %d", len(recorder.runs))
		}
	})

	t.Run("Restart Refetches Clients", func(t *testing.T) {
		dir := tu.NewMockDirectory(tu.SampleHierarchy())
		m, _ := newTestModel(t, dir, tu.Recording("r1", a))
		toLevels(t, m)
		press(m, enter)
		press(m, runes("y"))

		press(m, runes("r"))
		if m.view != ClientView || m.result != nil {
			t.Errorf("expected fresh client view, got %v", m.view)
		}
		if n := dir.Calls("Clients"); n != 2 {
			t.Errorf("expected clients to be refetched, got %d calls", n)
		}
	})

	t.Run("Quit", func(t *testing.T) {
		m, _ := newTestModel(t, tu.NewMockDirectory(tu.SampleHierarchy()))
		drive(m, m.Init())

		_, cmd := m.Update(runes("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestItems(t *testing.T) {
	levels := tu.SampleHierarchy().Levels["b1"]
	items := levelItems(levels)

	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if got := items[0].(levelItem).Description(); got != "2 levels" {
		t.Errorf("unexpected all-levels description %q", got)
	}
	if got := items[1].(levelItem).Description(); !strings.HasSuffix(got, "2 placed") {
		t.Errorf("unexpected level description %q", got)
	}

	node := nodeItem{node: models.Client{ID: "c1", Name: "Acme"}}
	if node.Title() != "Acme" || node.Description() != "c1" || node.FilterValue() != "Acme" {
		t.Errorf("unexpected node item %+v", node)
	}
}

func TestBreadcrumb(t *testing.T) {
	if got := styles.Breadcrumb("", "", ""); got != "" {
		t.Errorf("expected empty breadcrumb, got %q", got)
	}
	if got := styles.Breadcrumb("Acme", "Campus", ""); !strings.Contains(got, "Acme › Campus") {
		t.Errorf("unexpected breadcrumb %q", got)
	}
}
