package ui

import (
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
	clog "github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"
)

type applyMsg struct {
	fn func(*Root)
}

type drawMsg struct{}
type clockMsg time.Time
type animateMsg time.Time

type boardKeyMap struct {
	Challenges key.Binding
	Scoreboard key.Binding
	Admin      key.Binding
	Refresh    key.Binding
	Activity   key.Binding
	Logout     key.Binding
}

func (k boardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Challenges, k.Scoreboard, k.Admin, k.Refresh, k.Activity, k.Logout}
}

func (k boardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Challenges, k.Scoreboard, k.Admin}, {k.Refresh, k.Activity, k.Logout}}
}

var filterCycle = []string{"all", "pwn", "web", "rev", "crypto", "misc"}

const (
	authTabLogin = iota
	authTabRegister
)

type Root struct {
	theme        Theme
	ascii        bool
	debug        bool
	ctrl         Controller
	styleVariant string
	motionLevel  string

	mu      sync.Mutex
	program *tea.Program
	running bool

	screen Screen
	layout LayoutMode
	cols   int
	rows   int

	session     SessionState
	apiStatus   APIStatus
	statusFlash string
	busy        bool

	challenges ChallengesState
	cardIndex  int

	board      ScoreboardState
	boardIndex int

	admin      AdminState
	adminIndex int

	authTab   int
	authFocus int
	authMsg   string
	authErr   bool
	adminMsg  string
	adminErr  bool

	userInput   textinput.Model
	passInput   textinput.Model
	nameInput   textinput.Model
	searchInput textinput.Model
	limitInput  textinput.Model

	searchFocused bool
	detailOpen    bool
	activityOpen  bool
	deleteOpen    bool
	resetOpen     bool
	limitOpen     bool
	deleteIndex   int
	resetIndex    int

	activity []ActivityLine

	help     help.Model
	keymap   boardKeyMap
	spin     spinner.Model
	markdown *glamour.TermRenderer
	logger   *clog.Logger

	overlayPos float64
	overlayVel float64
	spring     harmonica.Spring

	drawPending atomic.Bool

	lastInputEvent string
}

type Options struct {
	ASCIIOnly    bool
	Debug        bool
	StyleVariant string
	MotionLevel  string
}

func New(opts Options) *Root {
	logger := clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "hexactf-ui", Level: clog.WarnLevel})
	if opts.Debug {
		logger.SetLevel(clog.DebugLevel)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(78),
	)
	if err != nil {
		renderer = nil
	}

	h := help.New()
	h.Styles = help.DefaultDarkStyles()
	motionLevel := normalizeMotionLevel(opts.MotionLevel)
	styleVariant := normalizeStyleVariant(opts.StyleVariant)
	theme := ThemeForVariant(styleVariant)
	spring := harmonica.NewSpring(harmonica.FPS(60), 10.0, 0.8)
	switch motionLevel {
	case "reduced":
		spring = harmonica.NewSpring(harmonica.FPS(30), 9.0, 0.92)
	case "off":
		spring = harmonica.NewSpring(harmonica.FPS(60), 1000.0, 1.0)
	}
	spin := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(theme.Accent),
	)

	r := &Root{
		theme:        theme,
		ascii:        opts.ASCIIOnly,
		debug:        opts.Debug,
		styleVariant: styleVariant,
		motionLevel:  motionLevel,
		screen:       ScreenLogin,
		layout:       LayoutWide,
		cols:         120,
		rows:         30,
		help:         h,
		spin:         spin,
		markdown:     renderer,
		logger:       logger,
		spring:       spring,
	}
	r.keymap = boardKeyMap{
		Challenges: key.NewBinding(key.WithKeys("f1"), key.WithHelp("F1", "Challenges")),
		Scoreboard: key.NewBinding(key.WithKeys("f2"), key.WithHelp("F2", "Scoreboard")),
		Admin:      key.NewBinding(key.WithKeys("f3"), key.WithHelp("F3", "Admin")),
		Refresh:    key.NewBinding(key.WithKeys("f5"), key.WithHelp("F5", "Refresh")),
		Activity:   key.NewBinding(key.WithKeys("f8"), key.WithHelp("F8", "Activity")),
		Logout:     key.NewBinding(key.WithKeys("f10"), key.WithHelp("F10", "Logout")),
	}

	r.userInput = newInput("username", 64)
	r.passInput = newInput("password", 128)
	r.passInput.EchoMode = textinput.EchoPassword
	r.nameInput = newInput("display name (optional)", 64)
	r.searchInput = newInput("search challenges", 64)
	r.searchInput.Prompt = "/ "
	r.limitInput = newInput("limit (0 = unlimited)", 4)
	r.userInput.Focus()
	return r
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.SetWidth(32)
	return ti
}

func (r *Root) Init() tea.Cmd {
	return tea.Batch(clockTickCmd(), animateTickCmd(), spinnerTickCmd(r.spin), textinput.Blink)
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec, msg)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		r.layout = DetermineLayoutMode(r.cols, r.rows)
		return r, nil
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, r.animateIfNeeded()
	case drawMsg:
		r.drawPending.Store(false)
		return r, nil
	case clockMsg:
		return r, clockTickCmd()
	case animateMsg:
		target := 0.0
		if r.detailOpen {
			target = 1.0
		}
		r.overlayPos, r.overlayVel = r.spring.Update(r.overlayPos, r.overlayVel, target)
		if r.shouldAnimate(target) {
			return r, animateTickCmd()
		}
		if target == 0 {
			r.overlayPos = 0
		} else {
			r.overlayPos = 1
		}
		r.overlayVel = 0
		return r, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		r.spin, cmd = r.spin.Update(msg)
		return r, cmd
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	return r, nil
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec, nil)
			width := max(1, r.cols)
			msg := "UI recovered from a rendering panic. Check logs."
			if r.statusFlash == "" {
				r.statusFlash = "Recovered UI panic"
			}
			view = tea.NewView(r.theme.Bad.Width(width).Render(trimForWidth(msg, max(1, width-1))))
		}
	}()

	if r.cols < 1 {
		r.cols = 120
	}
	if r.rows < 1 {
		r.rows = 30
	}

	var base string
	switch r.screen {
	case ScreenLogin:
		base = r.renderLogin()
	case ScreenScoreboard:
		base = r.renderScoreboard()
	case ScreenAdmin:
		base = r.renderAdmin()
	default:
		base = r.renderChallenges()
	}

	if overlay := r.renderOverlay(); overlay != "" {
		base = composeOverlay(base, overlay, r.cols, r.rows)
	}
	v := tea.NewView(base)
	v.AltScreen = true
	return v
}

func (r *Root) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r)
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) SetController(c Controller) {
	r.ctrl = c
}

func (r *Root) SetScreen(screen Screen) {
	r.apply(func(m *Root) {
		m.screen = screen
		m.closeAllOverlays()
		m.searchFocused = false
		m.searchInput.Blur()
		if screen == ScreenLogin {
			m.authFocus = 0
			m.focusAuthField()
		}
	})
}

func (r *Root) SetSession(state SessionState) {
	r.apply(func(m *Root) {
		m.session = state
	})
}

func (r *Root) SetChallenges(state ChallengesState) {
	r.apply(func(m *Root) {
		m.challenges = state
		if m.cardIndex >= len(state.Cards) {
			m.cardIndex = max(0, len(state.Cards)-1)
		}
	})
}

func (r *Root) SetScoreboard(state ScoreboardState) {
	r.apply(func(m *Root) {
		m.board = state
		if m.boardIndex >= len(state.Rows) {
			m.boardIndex = max(0, len(state.Rows)-1)
		}
	})
}

func (r *Root) SetAdmin(state AdminState) {
	r.apply(func(m *Root) {
		m.admin = state
		if m.adminIndex >= len(state.Users) {
			m.adminIndex = max(0, len(state.Users)-1)
		}
	})
}

func (r *Root) SetAPIStatus(status APIStatus) {
	r.apply(func(m *Root) {
		m.apiStatus = status
	})
}

func (r *Root) SetAuthMessage(msg string, isError bool) {
	r.apply(func(m *Root) {
		m.authMsg = msg
		m.authErr = isError
	})
}

func (r *Root) SetAdminMessage(msg string, isError bool) {
	r.apply(func(m *Root) {
		m.adminMsg = msg
		m.adminErr = isError
	})
}

func (r *Root) SetActivity(lines []ActivityLine) {
	r.apply(func(m *Root) {
		m.activity = append([]ActivityLine(nil), lines...)
	})
}

func (r *Root) SetBusy(busy bool) {
	r.apply(func(m *Root) {
		m.busy = busy
	})
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(m *Root) {
		m.statusFlash = msg
	})
}

func (r *Root) RequestDraw() {
	r.mu.Lock()
	p := r.program
	running := r.running
	r.mu.Unlock()
	if !running || p == nil {
		return
	}
	if !r.drawPending.CompareAndSwap(false, true) {
		return
	}
	time.AfterFunc(16*time.Millisecond, func() {
		r.mu.Lock()
		p := r.program
		running := r.running
		r.mu.Unlock()
		if !running || p == nil {
			r.drawPending.Store(false)
			return
		}
		p.Send(drawMsg{})
	})
}

func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil || r.ctrl == nil {
		return
	}
	ctrl := r.ctrl
	go fn(ctrl)
}

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("key:%v mod:%v text:%q", msg.Code, msg.Mod, msg.Text))

	if key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+q"))) {
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	}

	if r.overlayActive() {
		return r.handleOverlayKey(msg)
	}

	switch r.screen {
	case ScreenLogin:
		return r.handleLoginKey(msg)
	case ScreenScoreboard:
		return r.handleScoreboardKey(msg)
	case ScreenAdmin:
		return r.handleAdminKey(msg)
	default:
		return r.handleChallengesKey(msg)
	}
}

func (r *Root) handleLoginKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.Code {
	case tea.KeyEsc:
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	case tea.KeyF2:
		r.switchAuthTab()
		return r, nil
	case tea.KeyTab:
		if msg.Mod&tea.ModShift != 0 {
			r.authFocus = wrapIndex(r.authFocus-1, r.authFieldCount())
		} else {
			r.authFocus = wrapIndex(r.authFocus+1, r.authFieldCount())
		}
		r.focusAuthField()
		return r, nil
	case tea.KeyEnter:
		r.submitAuth()
		return r, nil
	case tea.KeyUp:
		r.authFocus = wrapIndex(r.authFocus-1, r.authFieldCount())
		r.focusAuthField()
		return r, nil
	case tea.KeyDown:
		r.authFocus = wrapIndex(r.authFocus+1, r.authFieldCount())
		r.focusAuthField()
		return r, nil
	}

	var cmd tea.Cmd
	switch r.authFocus {
	case 0:
		r.userInput, cmd = r.userInput.Update(msg)
	case 1:
		r.passInput, cmd = r.passInput.Update(msg)
	case 2:
		r.nameInput, cmd = r.nameInput.Update(msg)
	}
	return r, cmd
}

func (r *Root) authFieldCount() int {
	if r.authTab == authTabRegister {
		return 3
	}
	return 2
}

func (r *Root) switchAuthTab() {
	if r.authTab == authTabLogin {
		r.authTab = authTabRegister
	} else {
		r.authTab = authTabLogin
	}
	r.authMsg = ""
	if r.authFocus >= r.authFieldCount() {
		r.authFocus = 0
	}
	r.focusAuthField()
}

func (r *Root) focusAuthField() {
	r.userInput.Blur()
	r.passInput.Blur()
	r.nameInput.Blur()
	switch r.authFocus {
	case 0:
		r.userInput.Focus()
	case 1:
		r.passInput.Focus()
	case 2:
		r.nameInput.Focus()
	}
}

func (r *Root) submitAuth() {
	username := strings.TrimSpace(r.userInput.Value())
	password := r.passInput.Value()
	if username == "" || password == "" {
		r.authMsg = "Username and password are required."
		r.authErr = true
		return
	}
	if r.authTab == authTabRegister {
		display := strings.TrimSpace(r.nameInput.Value())
		r.dispatchController(func(c Controller) { c.OnSubmitRegister(username, password, display) })
		return
	}
	r.dispatchController(func(c Controller) { c.OnSubmitLogin(username, password) })
}

func (r *Root) handleChallengesKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if r.searchFocused {
		switch msg.Code {
		case tea.KeyEsc:
			r.searchFocused = false
			r.searchInput.Blur()
			return r, nil
		case tea.KeyEnter:
			query := strings.TrimSpace(r.searchInput.Value())
			r.searchFocused = false
			r.searchInput.Blur()
			r.dispatchController(func(c Controller) { c.OnSearch(query) })
			return r, nil
		}
		var cmd tea.Cmd
		r.searchInput, cmd = r.searchInput.Update(msg)
		return r, cmd
	}

	if cmd, handled := r.handleNavKey(msg); handled {
		return r, cmd
	}

	cards := r.challenges.Cards
	switch msg.Code {
	case tea.KeyUp:
		r.cardIndex = wrapIndex(r.cardIndex-1, len(cards))
		return r, nil
	case tea.KeyDown, tea.KeyTab:
		r.cardIndex = wrapIndex(r.cardIndex+1, len(cards))
		return r, nil
	case tea.KeyEnter:
		if len(cards) > 0 {
			r.detailOpen = true
		}
		return r, r.animateIfNeeded()
	case '/':
		r.searchFocused = true
		r.searchInput.Focus()
		return r, textinput.Blink
	}

	card, ok := r.selectedCard()
	if msg.Mod != 0 {
		return r, nil
	}
	switch msg.Code {
	case 's':
		if ok {
			key := card.Key
			r.dispatchController(func(c Controller) { c.OnStartInstance(key) })
		}
	case 'x':
		if ok {
			key := card.Key
			r.dispatchController(func(c Controller) { c.OnStopInstance(key) })
		}
	case 'u':
		if ok {
			key := card.Key
			r.dispatchController(func(c Controller) { c.OnCopyURL(key) })
		}
	case 'c':
		if ok {
			key := card.Key
			r.dispatchController(func(c Controller) { c.OnCopyConnect(key) })
		}
	case 'f':
		next := nextFilter(r.challenges.Filter)
		r.dispatchController(func(c Controller) { c.OnSetFilter(next) })
	case 'r':
		r.dispatchController(func(c Controller) { c.OnRefreshChallenges() })
	}
	return r, nil
}

// handleNavKey covers the function keys shared by the signed-in screens.
func (r *Root) handleNavKey(msg tea.KeyPressMsg) (tea.Cmd, bool) {
	switch msg.Code {
	case tea.KeyF1:
		r.dispatchController(func(c Controller) { c.OnNavigate(ScreenChallenges) })
		return nil, true
	case tea.KeyF2:
		r.dispatchController(func(c Controller) { c.OnNavigate(ScreenScoreboard) })
		return nil, true
	case tea.KeyF3:
		r.dispatchController(func(c Controller) { c.OnNavigate(ScreenAdmin) })
		return nil, true
	case tea.KeyF8:
		r.activityOpen = true
		return nil, true
	case tea.KeyF10:
		r.dispatchController(func(c Controller) { c.OnLogout() })
		return nil, true
	}
	return nil, false
}

func (r *Root) handleScoreboardKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if cmd, handled := r.handleNavKey(msg); handled {
		return r, cmd
	}
	switch msg.Code {
	case tea.KeyUp:
		r.boardIndex = wrapIndex(r.boardIndex-1, len(r.board.Rows))
	case tea.KeyDown:
		r.boardIndex = wrapIndex(r.boardIndex+1, len(r.board.Rows))
	case 'r':
		if msg.Mod == 0 {
			r.dispatchController(func(c Controller) { c.OnRefreshScoreboard() })
		}
	case tea.KeyEsc:
		r.dispatchController(func(c Controller) { c.OnNavigate(ScreenChallenges) })
	}
	return r, nil
}

func (r *Root) handleAdminKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if cmd, handled := r.handleNavKey(msg); handled {
		return r, cmd
	}
	users := r.admin.Users
	switch msg.Code {
	case tea.KeyUp:
		r.adminIndex = wrapIndex(r.adminIndex-1, len(users))
		return r, nil
	case tea.KeyDown, tea.KeyTab:
		r.adminIndex = wrapIndex(r.adminIndex+1, len(users))
		return r, nil
	case tea.KeyEsc:
		r.dispatchController(func(c Controller) { c.OnNavigate(ScreenChallenges) })
		return r, nil
	}
	if msg.Mod == tea.ModShift && msg.Code == 'r' {
		r.resetOpen = true
		r.resetIndex = 0
		return r, nil
	}
	if msg.Mod != 0 {
		return r, nil
	}
	switch msg.Code {
	case 't':
		if u, ok := r.selectedUser(); ok {
			username := u.Username
			r.dispatchController(func(c Controller) { c.OnToggleRole(username) })
		}
	case 'd':
		if _, ok := r.selectedUser(); ok {
			r.deleteOpen = true
			r.deleteIndex = 0
		}
	case 'l':
		r.limitOpen = true
		r.limitInput.SetValue(strconv.Itoa(r.admin.InstanceLimit))
		r.limitInput.Focus()
		return r, textinput.Blink
	case 'r':
		r.dispatchController(func(c Controller) { c.OnRefreshUsers() })
	case 'R':
		r.resetOpen = true
		r.resetIndex = 0
	}
	return r, nil
}

func (r *Root) handleOverlayKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	top := r.topOverlay()

	if msg.Code == tea.KeyEsc || (msg.Mod == 0 && msg.Code == 'q' && top != "limit") {
		r.closeTopOverlay()
		return r, r.animateIfNeeded()
	}

	switch top {
	case "delete":
		switch msg.Code {
		case tea.KeyLeft, tea.KeyUp:
			r.deleteIndex = 0
		case tea.KeyRight, tea.KeyDown, tea.KeyTab:
			r.deleteIndex = 1
		case tea.KeyEnter:
			confirmed := r.deleteIndex == 1
			r.deleteOpen = false
			if confirmed {
				if u, ok := r.selectedUser(); ok {
					username := u.Username
					r.dispatchController(func(c Controller) { c.OnDeleteUser(username) })
				}
			}
		}
	case "reset":
		switch msg.Code {
		case tea.KeyLeft, tea.KeyUp:
			r.resetIndex = 0
		case tea.KeyRight, tea.KeyDown, tea.KeyTab:
			r.resetIndex = 1
		case tea.KeyEnter:
			confirmed := r.resetIndex == 1
			r.resetOpen = false
			if confirmed {
				r.dispatchController(func(c Controller) { c.OnResetScoreboard() })
			}
		}
	case "limit":
		if msg.Code == tea.KeyEnter {
			raw := strings.TrimSpace(r.limitInput.Value())
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 0 {
				r.adminMsg = "Limit must be a number >= 0."
				r.adminErr = true
				return r, nil
			}
			r.limitOpen = false
			r.limitInput.Blur()
			r.dispatchController(func(c Controller) { c.OnSaveInstanceLimit(limit) })
			return r, nil
		}
		var cmd tea.Cmd
		r.limitInput, cmd = r.limitInput.Update(msg)
		return r, cmd
	case "detail":
		if msg.Mod == 0 {
			switch msg.Code {
			case 'u':
				if card, ok := r.selectedCard(); ok {
					key := card.Key
					r.dispatchController(func(c Controller) { c.OnCopyURL(key) })
				}
			case 'c', 'y':
				if card, ok := r.selectedCard(); ok {
					key := card.Key
					r.dispatchController(func(c Controller) { c.OnCopyConnect(key) })
				}
			case 's':
				if card, ok := r.selectedCard(); ok {
					key := card.Key
					r.dispatchController(func(c Controller) { c.OnStartInstance(key) })
				}
			case 'x':
				if card, ok := r.selectedCard(); ok {
					key := card.Key
					r.dispatchController(func(c Controller) { c.OnStopInstance(key) })
				}
			}
		}
	case "activity":
		if msg.Mod == 0 && msg.Code == 'c' {
			r.dispatchController(func(c Controller) { c.OnClearLog() })
		}
	}
	return r, nil
}

func (r *Root) overlayActive() bool {
	return r.topOverlay() != ""
}

func (r *Root) topOverlay() string {
	switch {
	case r.deleteOpen:
		return "delete"
	case r.resetOpen:
		return "reset"
	case r.limitOpen:
		return "limit"
	case r.activityOpen:
		return "activity"
	case r.detailOpen:
		return "detail"
	}
	return ""
}

func (r *Root) closeTopOverlay() {
	switch r.topOverlay() {
	case "delete":
		r.deleteOpen = false
	case "reset":
		r.resetOpen = false
	case "limit":
		r.limitOpen = false
		r.limitInput.Blur()
	case "activity":
		r.activityOpen = false
	case "detail":
		r.detailOpen = false
	}
}

func (r *Root) closeAllOverlays() {
	r.deleteOpen = false
	r.resetOpen = false
	r.limitOpen = false
	r.activityOpen = false
	r.detailOpen = false
	r.limitInput.Blur()
}

func (r *Root) selectedCard() (ChallengeCard, bool) {
	if r.cardIndex < 0 || r.cardIndex >= len(r.challenges.Cards) {
		return ChallengeCard{}, false
	}
	return r.challenges.Cards[r.cardIndex], true
}

func (r *Root) selectedUser() (AdminUserRow, bool) {
	if r.adminIndex < 0 || r.adminIndex >= len(r.admin.Users) {
		return AdminUserRow{}, false
	}
	return r.admin.Users[r.adminIndex], true
}

func nextFilter(current string) string {
	for i, f := range filterCycle {
		if f == current {
			return filterCycle[(i+1)%len(filterCycle)]
		}
	}
	return filterCycle[0]
}

func (r *Root) renderLogin() string {
	w, h := r.cols, r.rows
	header := r.theme.Header.Width(max(1, w)).Render(r.headerText())

	tabLogin := "  Login  "
	tabRegister := "  Register  "
	if r.authTab == authTabLogin {
		tabLogin = "[ Login ]"
	} else {
		tabRegister = "[ Register ]"
	}

	lines := []string{
		tabLogin + "  " + tabRegister + "   (F2 switches)",
		"",
		"Username",
		r.userInput.View(),
		"",
		"Password",
		r.passInput.View(),
	}
	if r.authTab == authTabRegister {
		lines = append(lines,
			"",
			"Display name",
			r.nameInput.View(),
		)
	}
	lines = append(lines, "")
	if r.busy {
		lines = append(lines, strings.TrimSpace(r.spin.View())+" Working...")
	} else if r.authMsg != "" {
		style := r.theme.Info
		if r.authErr {
			style = r.theme.Bad
		}
		lines = append(lines, style.Render(trimForWidth(r.authMsg, 52)))
	} else {
		lines = append(lines, r.theme.Muted.Render("Enter submits. Tab moves between fields."))
	}

	panelW := min(60, max(40, w/2))
	panelH := len(lines) + 2
	panel := r.drawPanel("HexaCTF Sign In", lines, panelW, panelH)
	body := lipgloss.Place(w, max(1, h-2), lipgloss.Center, lipgloss.Center, panel)
	return header + "\n" + body + "\n" + r.statusBar("F2 Switch tab  Enter Submit  Ctrl+Q Quit")
}

func (r *Root) renderChallenges() string {
	w, h := r.cols, r.rows
	header := r.theme.Header.Width(max(1, w)).Render(r.headerText())
	bodyH := max(3, h-2)

	listLines := r.challengeListLines()
	if r.layout == LayoutWide {
		listW := min(64, max(40, w/2))
		detailW := max(24, w-listW)
		left := r.drawPanel(r.challengesTitle(), listLines, listW, bodyH)
		right := r.drawPanel("Details", r.cardDetailLines(detailW-4), detailW, bodyH)
		body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
		return header + "\n" + body + "\n" + r.statusBar("")
	}
	body := r.drawPanel(r.challengesTitle(), listLines, w, bodyH)
	return header + "\n" + body + "\n" + r.statusBar("")
}

func (r *Root) challengesTitle() string {
	title := "Challenges"
	if r.challenges.Filter != "" && r.challenges.Filter != "all" {
		title += " [" + r.challenges.Filter + "]"
	}
	if r.challenges.Degraded {
		title += " (offline data)"
	}
	return title
}

func (r *Root) challengeListLines() []string {
	var lines []string
	if r.searchFocused || strings.TrimSpace(r.searchInput.Value()) != "" {
		lines = append(lines, r.searchInput.View(), "")
	}
	cards := r.challenges.Cards
	if len(cards) == 0 {
		lines = append(lines, "No challenges match.")
		if r.challenges.Suggestion != "" {
			lines = append(lines, "", "Did you mean: "+r.challenges.Suggestion+"?")
		}
		return lines
	}
	for i, card := range cards {
		prefix := "  "
		if i == r.cardIndex {
			prefix = "> "
		}
		badge := "[" + card.Category + "]"
		state := ""
		switch card.Phase {
		case "running":
			state = " *running*"
		case "starting":
			state = " *starting*"
		case "stopping":
			state = " *stopping*"
		}
		if card.Locked {
			state = " (locked)"
		}
		lines = append(lines, fmt.Sprintf("%s%-8s %s  %dpts%s", prefix, badge, card.Title, card.Score, state))
	}
	return lines
}

func (r *Root) cardDetailLines(width int) []string {
	card, ok := r.selectedCard()
	if !ok {
		return []string{"Select a challenge."}
	}
	width = max(20, width)
	lines := []string{
		trimForWidth(card.Title, width),
		trimForWidth(fmt.Sprintf("%s | %d pts | %s", card.Category, card.Score, strings.Join(card.Tags, " ")), width),
		"",
	}
	for _, chunk := range strings.Split(card.Description, "\n") {
		lines = append(lines, trimForWidth(chunk, width))
	}
	lines = append(lines, "")
	switch {
	case card.Locked:
		lines = append(lines, "Locked. Solve earlier challenges first.")
	case card.Busy:
		lines = append(lines, strings.TrimSpace(r.spin.View())+" "+card.Phase+"...")
	case card.Phase == "running":
		lines = append(lines,
			"Instance: "+trimForWidth(card.InstanceURL, width-10),
			"Connect:  "+trimForWidth(card.ConnectHint, width-10),
			"",
			"x Stop  u Copy URL  c Copy connect")
	default:
		lines = append(lines, "s Start instance")
	}
	if len(card.Downloads) > 0 {
		lines = append(lines, "", "Files")
		for _, d := range card.Downloads {
			entry := "- " + d.Label
			if d.SizeLabel != "" {
				entry += " (" + d.SizeLabel + ")"
			}
			lines = append(lines, trimForWidth(entry, width))
		}
	}
	lines = append(lines, "", "Enter opens the full description.")
	return lines
}

func (r *Root) renderScoreboard() string {
	w, h := r.cols, r.rows
	header := r.theme.Header.Width(max(1, w)).Render(r.headerText())
	bodyH := max(3, h-2)

	title := "Scoreboard"
	if r.board.Degraded {
		title += " (offline data)"
	}
	lines := []string{fmt.Sprintf("%-6s %-20s %-8s %s", "Rank", "User", "Score", "Solved"), ""}
	if len(r.board.Rows) == 0 {
		lines = append(lines, "No entries.")
	}
	for i, row := range r.board.Rows {
		prefix := "  "
		if i == r.boardIndex {
			prefix = "> "
		}
		name := row.Username
		if row.DisplayName != "" {
			name = row.DisplayName + " (" + row.Username + ")"
		}
		lines = append(lines, fmt.Sprintf("%s%-4d %-20s %-8d %d", prefix, row.Rank, trimForWidth(name, 20), row.Score, row.SolvedCount))
	}
	body := r.drawPanel(title, lines, min(72, w), bodyH)
	body = lipgloss.Place(w, bodyH, lipgloss.Center, lipgloss.Top, body)
	return header + "\n" + body + "\n" + r.statusBar("r Refresh  F1 Challenges")
}

func (r *Root) renderAdmin() string {
	w, h := r.cols, r.rows
	header := r.theme.Header.Width(max(1, w)).Render(r.headerText())
	bodyH := max(3, h-2)

	userLines := []string{fmt.Sprintf("%-20s %-8s %s", "User", "Role", "Score"), ""}
	if len(r.admin.Users) == 0 {
		userLines = append(userLines, "No users loaded. Press r to refresh.")
	}
	for i, u := range r.admin.Users {
		prefix := "  "
		if i == r.adminIndex {
			prefix = "> "
		}
		name := u.Username
		if u.DisplayName != "" {
			name = u.DisplayName + " (" + u.Username + ")"
		}
		userLines = append(userLines, fmt.Sprintf("%s%-18s %-8s %d", prefix, trimForWidth(name, 18), u.Role, u.Score))
	}

	settingsLines := []string{
		fmt.Sprintf("Instance limit per user: %d", r.admin.InstanceLimit),
		"",
		"t Toggle role    d Delete user",
		"l Edit limit     R Reset scoreboard",
		"r Refresh users",
	}
	if r.adminMsg != "" {
		style := r.theme.Info
		if r.adminErr {
			style = r.theme.Bad
		}
		settingsLines = append(settingsLines, "", style.Render(trimForWidth(r.adminMsg, 48)))
	}

	leftW := min(64, max(40, w/2))
	left := r.drawPanel("Users", userLines, leftW, bodyH)
	right := r.drawPanel("Settings", settingsLines, max(24, w-leftW), bodyH)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return header + "\n" + body + "\n" + r.statusBar("")
}

func (r *Root) renderOverlay() string {
	spec, ok := r.overlaySpec(r.topOverlay())
	if !ok {
		return ""
	}
	return r.drawPanel(spec.title, spec.lines, spec.width, spec.height)
}

type overlaySpec struct {
	title  string
	lines  []string
	width  int
	height int
}

func (r *Root) overlaySpec(top string) (overlaySpec, bool) {
	if top == "" {
		return overlaySpec{}, false
	}
	w := min(max(56, r.cols-12), r.cols)
	h := min(max(10, r.rows/2), max(8, r.rows-4))

	var title string
	var lines []string
	switch top {
	case "delete":
		u, _ := r.selectedUser()
		title = "Confirm Delete"
		lines = []string{fmt.Sprintf("Delete account %q? This cannot be undone.", u.Username), ""}
		for i, label := range []string{"Cancel", "Delete"} {
			prefix := "  "
			if i == r.deleteIndex {
				prefix = "> "
			}
			lines = append(lines, prefix+label)
		}
	case "reset":
		title = "Confirm Scoreboard Reset"
		lines = []string{"Reset wipes every score and solve count. Continue?", ""}
		for i, label := range []string{"Cancel", "Reset"} {
			prefix := "  "
			if i == r.resetIndex {
				prefix = "> "
			}
			lines = append(lines, prefix+label)
		}
	case "limit":
		title = "Instance Limit"
		lines = []string{
			"Maximum running instances per user (0 = unlimited):",
			"",
			r.limitInput.View(),
			"",
			"Enter: Save   Esc: Cancel",
		}
	case "activity":
		title = "Activity"
		if len(r.activity) == 0 {
			lines = []string{"Nothing logged yet."}
		}
		for _, line := range r.activity {
			lines = append(lines, fmt.Sprintf("%s  %s", line.TS.Local().Format("15:04:05"), line.Text))
		}
		lines = append(lines, "", "c: Clear   Esc: Close")
	case "detail":
		card, ok := r.selectedCard()
		if !ok {
			return overlaySpec{}, false
		}
		title = card.Title
		lines = strings.Split(strings.TrimSuffix(r.detailMarkdown(card), "\n"), "\n")
		lines = append(lines, "", "s Start  x Stop  u Copy URL  c Copy connect  Esc Close")
	default:
		return overlaySpec{}, false
	}
	if len(lines) == 0 {
		lines = []string{"(empty)"}
	}
	needH := len(lines) + 2
	maxH := max(8, r.rows-4)
	if needH > h {
		h = min(needH, maxH)
	}
	return overlaySpec{title: title, lines: lines, width: w, height: h}, true
}

// detailMarkdown renders the challenge description through glamour with a
// plain-text fallback when the renderer is unavailable.
func (r *Root) detailMarkdown(card ChallengeCard) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("**%s** | %d pts | %s\n\n", card.Category, card.Score, strings.Join(card.Tags, " ")))
	b.WriteString(card.Description)
	b.WriteString("\n")
	if card.Phase == "running" {
		b.WriteString(fmt.Sprintf("\n- Instance: %s\n- Connect: `%s`\n", card.InstanceURL, card.ConnectHint))
	}
	for _, d := range card.Downloads {
		entry := fmt.Sprintf("\n- File: %s", d.Label)
		if d.SizeLabel != "" {
			entry += " (" + d.SizeLabel + ")"
		}
		b.WriteString(entry + "\n")
	}
	if r.markdown == nil {
		return b.String()
	}
	out, err := r.markdown.Render(b.String())
	if err != nil {
		return b.String()
	}
	return out
}

func (r *Root) headerText() string {
	width := max(1, r.cols-1)
	parts := []string{"HexaCTF"}
	if r.session.Authenticated {
		label := r.session.Label()
		if r.session.Role == "admin" {
			label += " (admin)"
		}
		if r.session.Provisional {
			label += "?"
		}
		parts = append(parts, label)
	}
	parts = append(parts, "API: "+r.apiStatusLabel())
	txt := strings.Join(parts, " | ")
	txt = trimForWidth(txt, width)
	if r.debug {
		txt = fmt.Sprintf("%s | %dx%d %v", txt, r.cols, r.rows, r.layout)
		txt = trimForWidth(txt, width)
	}
	return txt
}

func (r *Root) apiStatusLabel() string {
	switch r.apiStatus {
	case APIOnline:
		return "online"
	case APIDegraded:
		return "degraded"
	case APIOffline:
		return "offline"
	default:
		return "?"
	}
}

func (r *Root) statusBar(override string) string {
	keys := override
	if keys == "" {
		keys = r.help.View(r.keymap)
	}
	if keys == "" {
		keys = "F1 Challenges  F2 Scoreboard  F3 Admin  F5 Refresh  F8 Activity  F10 Logout"
	}
	if r.busy {
		keys += " | " + r.theme.Accent.Render(strings.TrimSpace(r.spin.View())+" Working...")
	}
	if r.statusFlash != "" {
		keys += " | " + r.statusFlash
	}
	keys = trimForWidth(keys, max(1, r.cols-1))
	return r.theme.Status.Width(max(1, r.cols)).Render(keys)
}

func (r *Root) drawPanel(title string, lines []string, width, height int) string {
	width = max(4, width)
	height = max(3, height)
	innerW := width - 2
	innerH := height - 2

	h := "─"
	v := "│"
	tl := "┌"
	tr := "┐"
	bl := "└"
	br := "┘"
	if r.ascii {
		h = "-"
		v = "|"
		tl, tr, bl, br = "+", "+", "+", "+"
	}

	top := tl + strings.Repeat(h, innerW) + tr
	if title != "" && innerW > 2 {
		t := " " + title + " "
		runes := []rune(top)
		start := 1
		for i, ch := range []rune(t) {
			pos := start + i
			if pos >= len(runes)-1 {
				break
			}
			runes[pos] = ch
		}
		top = string(runes)
	}

	out := make([]string, 0, height)
	out = append(out, r.theme.PanelBorder.Render(top))
	for row := 0; row < innerH; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		line = padRune(line, innerW)
		out = append(out, r.theme.PanelBorder.Render(v)+r.theme.PanelBody.Render(line)+r.theme.PanelBorder.Render(v))
	}
	out = append(out, r.theme.PanelBorder.Render(bl+strings.Repeat(h, innerW)+br))
	return strings.Join(out, "\n")
}

func (r *Root) animateIfNeeded() tea.Cmd {
	target := 0.0
	if r.detailOpen {
		target = 1.0
	}
	if r.shouldAnimate(target) {
		return animateTickCmd()
	}
	return nil
}

func (r *Root) shouldAnimate(target float64) bool {
	if r.motionLevel == "off" {
		return false
	}
	if target > 0 {
		return r.overlayPos < 0.999 || abs(r.overlayVel) > 0.001
	}
	return r.overlayPos > 0.001 || abs(r.overlayVel) > 0.001
}

func clockTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return clockMsg(t) })
}

func animateTickCmd() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return animateMsg(t) })
}

func spinnerTickCmd(model spinner.Model) tea.Cmd {
	return func() tea.Msg {
		return model.Tick()
	}
}

func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i < 0 {
		i = n - 1
	}
	if i >= n {
		i = 0
	}
	return i
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func padRune(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(s, "\t", "    "))
	if len(r) > width {
		r = r[:width]
	}
	if len(r) < width {
		r = append(r, []rune(strings.Repeat(" ", width-len(r)))...)
	}
	return string(r)
}

func composeOverlay(base, overlay string, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return base
	}
	base = ansi.Strip(base)
	overlay = ansi.Strip(overlay)
	baseLines := strings.Split(base, "\n")
	if len(baseLines) < rows {
		pad := make([]string, rows-len(baseLines))
		baseLines = append(baseLines, pad...)
	}
	for i := 0; i < rows; i++ {
		baseLines[i] = padRune(baseLines[i], cols)
	}

	overlayLines := strings.Split(strings.TrimRight(overlay, "\n"), "\n")
	if len(overlayLines) == 0 {
		return strings.Join(baseLines[:rows], "\n")
	}
	ow := 1
	for _, line := range overlayLines {
		lw := len([]rune(line))
		if lw > ow {
			ow = lw
		}
	}
	if ow > cols {
		ow = cols
	}
	oh := len(overlayLines)
	if oh > rows {
		oh = rows
	}
	startRow := (rows - oh) / 2
	startCol := (cols - ow) / 2
	if startCol < 0 {
		startCol = 0
	}

	for i := 0; i < oh; i++ {
		row := startRow + i
		if row < 0 || row >= rows {
			continue
		}
		dst := []rune(baseLines[row])
		src := []rune(overlayLines[i])
		if len(src) > ow {
			src = src[:ow]
		}
		for j := 0; j < ow && startCol+j < len(dst); j++ {
			dst[startCol+j] = ' '
		}
		for j := 0; j < len(src) && startCol+j < len(dst); j++ {
			dst[startCol+j] = src[j]
		}
		baseLines[row] = string(dst)
	}
	return strings.Join(baseLines[:rows], "\n")
}

func trimForWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(ansi.Strip(s), "\n", " "))
	if len(r) <= width {
		return string(r)
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

func normalizeStyleVariant(v string) string {
	switch strings.TrimSpace(v) {
	case "hex_dark", "paper_light", "terminal_green":
		return strings.TrimSpace(v)
	default:
		return "hex_dark"
	}
}

func normalizeMotionLevel(v string) string {
	switch strings.TrimSpace(v) {
	case "off", "reduced", "full":
		return strings.TrimSpace(v)
	default:
		return "full"
	}
}

func (r *Root) recordInputEvent(event string) {
	r.lastInputEvent = trimForWidth(strings.TrimSpace(event), 160)
}

func (r *Root) onModelPanic(where string, recovered any, msg tea.Msg) {
	if r.statusFlash == "" {
		r.statusFlash = "Recovered UI panic"
	}

	message := fmt.Sprintf("%v", recovered)
	msgType := ""
	if msg != nil {
		msgType = fmt.Sprintf("%T", msg)
	}
	r.logger.Error("ui.panic_recovered", map[string]any{
		"where":       where,
		"panic":       message,
		"messageType": msgType,
		"screen":      r.screen,
		"layout":      r.layout,
		"cols":        r.cols,
		"rows":        r.rows,
		"overlay":     r.topOverlay(),
		"last_input":  r.lastInputEvent,
		"stack":       string(debug.Stack()),
	})
}

var _ tea.Model = (*Root)(nil)
var _ View = (*Root)(nil)
