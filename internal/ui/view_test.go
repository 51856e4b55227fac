package ui

import (
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
)

type mockController struct {
	mu          sync.Mutex
	logins      []string
	registers   []string
	starts      []string
	stops       []string
	deletes     []string
	filters     []string
	limits      []int
	resets      int
	logoutCalls int
	quitCalls   int
	navigates   []Screen
}

func (m *mockController) OnSubmitLogin(u, p string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins = append(m.logins, u)
}

func (m *mockController) OnSubmitRegister(u, p, d string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registers = append(m.registers, u)
}

func (m *mockController) OnLogout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logoutCalls++
}

func (m *mockController) OnNavigate(s Screen) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.navigates = append(m.navigates, s)
}

func (m *mockController) OnStartInstance(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts = append(m.starts, key)
}

func (m *mockController) OnStopInstance(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops = append(m.stops, key)
}

func (m *mockController) OnCopyURL(string)     {}
func (m *mockController) OnCopyConnect(string) {}

func (m *mockController) OnSetFilter(cat string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, cat)
}

func (m *mockController) OnSearch(string)       {}
func (m *mockController) OnRefreshChallenges()  {}
func (m *mockController) OnRefreshScoreboard()  {}
func (m *mockController) OnRefreshUsers()       {}
func (m *mockController) OnToggleRole(string)   {}

func (m *mockController) OnDeleteUser(u string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, u)
}

func (m *mockController) OnSaveInstanceLimit(l int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits = append(m.limits, l)
}

func (m *mockController) OnResetScoreboard() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
}

func (m *mockController) OnClearLog() {}

func (m *mockController) OnQuit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quitCalls++
}

func press(v *Root, code rune, mod tea.KeyMod, text string) {
	_, _ = v.Update(tea.KeyPressMsg{Code: code, Mod: mod, Text: text})
}

func typeText(v *Root, text string) {
	for _, ch := range text {
		press(v, ch, 0, string(ch))
	}
}

func waitForCtrl(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("controller was never called")
}

func newBoardView(ctrl Controller) *Root {
	v := New(Options{})
	v.SetController(ctrl)
	v.SetScreen(ScreenChallenges)
	v.SetChallenges(ChallengesState{Cards: []ChallengeCard{
		{Key: "pwn1", Title: "Stack Zero", Category: "pwn", Score: 100, Phase: "idle"},
		{Key: "web1", Title: "Reflected", Category: "web", Score: 150, Phase: "running", InstanceURL: "http://h:1"},
	}, Filter: "all"})
	return v
}

func TestLoginEnterSubmitsCredentials(t *testing.T) {
	ctrl := &mockController{}
	v := New(Options{})
	v.SetController(ctrl)
	v.SetScreen(ScreenLogin)

	typeText(v, "guest01")
	press(v, tea.KeyTab, 0, "")
	typeText(v, "hunter2")
	press(v, tea.KeyEnter, 0, "")

	waitForCtrl(t, func() bool {
		ctrl.mu.Lock()
		defer ctrl.mu.Unlock()
		return len(ctrl.logins) == 1
	})
	if ctrl.logins[0] != "guest01" {
		t.Fatalf("login username = %q", ctrl.logins[0])
	}
}

func TestLoginEmptyFieldsShowLocalError(t *testing.T) {
	ctrl := &mockController{}
	v := New(Options{})
	v.SetController(ctrl)
	v.SetScreen(ScreenLogin)

	press(v, tea.KeyEnter, 0, "")
	time.Sleep(20 * time.Millisecond)
	ctrl.mu.Lock()
	calls := len(ctrl.logins)
	ctrl.mu.Unlock()
	if calls != 0 {
		t.Fatalf("empty submit must not reach the controller")
	}
	if v.authMsg == "" || !v.authErr {
		t.Fatalf("expected a local validation message")
	}
}

func TestF2TogglesRegisterTab(t *testing.T) {
	v := New(Options{})
	v.SetScreen(ScreenLogin)
	if v.authTab != authTabLogin {
		t.Fatalf("login tab should be the default")
	}
	press(v, tea.KeyF2, 0, "")
	if v.authTab != authTabRegister {
		t.Fatalf("F2 should switch to register")
	}
	press(v, tea.KeyF2, 0, "")
	if v.authTab != authTabLogin {
		t.Fatalf("F2 should switch back to login")
	}
}

func TestStartKeyTargetsSelectedCard(t *testing.T) {
	ctrl := &mockController{}
	v := newBoardView(ctrl)

	press(v, 's', 0, "s")
	waitForCtrl(t, func() bool {
		ctrl.mu.Lock()
		defer ctrl.mu.Unlock()
		return len(ctrl.starts) == 1
	})
	if ctrl.starts[0] != "pwn1" {
		t.Fatalf("start key = %q", ctrl.starts[0])
	}

	press(v, tea.KeyDown, 0, "")
	press(v, 'x', 0, "x")
	waitForCtrl(t, func() bool {
		ctrl.mu.Lock()
		defer ctrl.mu.Unlock()
		return len(ctrl.stops) == 1
	})
	if ctrl.stops[0] != "web1" {
		t.Fatalf("stop key = %q", ctrl.stops[0])
	}
}

func TestFilterKeyCyclesCategories(t *testing.T) {
	ctrl := &mockController{}
	v := newBoardView(ctrl)

	press(v, 'f', 0, "f")
	waitForCtrl(t, func() bool {
		ctrl.mu.Lock()
		defer ctrl.mu.Unlock()
		return len(ctrl.filters) == 1
	})
	if ctrl.filters[0] != "pwn" {
		t.Fatalf("filter after all = %q", ctrl.filters[0])
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	ctrl := &mockController{}
	v := New(Options{})
	v.SetController(ctrl)
	v.SetScreen(ScreenAdmin)
	v.SetAdmin(AdminState{Users: []AdminUserRow{{Username: "guest02", Role: "user"}}})

	press(v, 'd', 0, "d")
	if !v.deleteOpen {
		t.Fatalf("expected confirm overlay")
	}
	// Enter on the default Cancel row must not delete.
	press(v, tea.KeyEnter, 0, "")
	time.Sleep(20 * time.Millisecond)
	ctrl.mu.Lock()
	deletes := len(ctrl.deletes)
	ctrl.mu.Unlock()
	if deletes != 0 {
		t.Fatalf("cancel must not delete")
	}

	press(v, 'd', 0, "d")
	press(v, tea.KeyRight, 0, "")
	press(v, tea.KeyEnter, 0, "")
	waitForCtrl(t, func() bool {
		ctrl.mu.Lock()
		defer ctrl.mu.Unlock()
		return len(ctrl.deletes) == 1
	})
	if ctrl.deletes[0] != "guest02" {
		t.Fatalf("deleted %q", ctrl.deletes[0])
	}
}

func TestLimitOverlayValidatesInput(t *testing.T) {
	ctrl := &mockController{}
	v := New(Options{})
	v.SetController(ctrl)
	v.SetScreen(ScreenAdmin)
	v.SetAdmin(AdminState{InstanceLimit: 2})

	press(v, 'l', 0, "l")
	if !v.limitOpen {
		t.Fatalf("expected limit overlay")
	}
	v.limitInput.SetValue("abc")
	press(v, tea.KeyEnter, 0, "")
	if !v.limitOpen || !v.adminErr {
		t.Fatalf("non-numeric limit should be refused locally")
	}

	v.limitInput.SetValue("5")
	press(v, tea.KeyEnter, 0, "")
	waitForCtrl(t, func() bool {
		ctrl.mu.Lock()
		defer ctrl.mu.Unlock()
		return len(ctrl.limits) == 1
	})
	if ctrl.limits[0] != 5 {
		t.Fatalf("limit = %d", ctrl.limits[0])
	}
}

func TestEscClosesDetailOverlay(t *testing.T) {
	ctrl := &mockController{}
	v := newBoardView(ctrl)

	press(v, tea.KeyEnter, 0, "")
	if !v.detailOpen {
		t.Fatalf("enter should open the detail overlay")
	}
	press(v, tea.KeyEsc, 0, "")
	if v.detailOpen {
		t.Fatalf("esc should close the detail overlay")
	}
}

func TestCtrlQQuitsFromAnyScreen(t *testing.T) {
	ctrl := &mockController{}
	v := newBoardView(ctrl)

	press(v, 'q', tea.ModCtrl, "")
	waitForCtrl(t, func() bool {
		ctrl.mu.Lock()
		defer ctrl.mu.Unlock()
		return ctrl.quitCalls == 1
	})
}

func TestViewImplementsInterfaceCompileTime(t *testing.T) {
	var _ View = New(Options{})
}
