package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"hexactf/internal/admin"
	"hexactf/internal/api"
	"hexactf/internal/catalog"
	"hexactf/internal/clipboard"
	"hexactf/internal/devtools"
	"hexactf/internal/instances"
	"hexactf/internal/routes"
	"hexactf/internal/scoreboard"
	"hexactf/internal/session"
	"hexactf/internal/state"
	"hexactf/internal/telemetry"
	"hexactf/internal/ui"

	"github.com/google/uuid"
)

const activityViewCap = 100

// backendTransport is the union of the transport slices the stores consume.
// The real API client and the demo backend both satisfy it.
type backendTransport interface {
	GetRaw(ctx context.Context, path string, out any) error
	GetJSON(ctx context.Context, path string, out any) error
	PostJSON(ctx context.Context, path string, body, out any) error
	PostJSONHeaders(ctx context.Context, path string, body, out any, hdr http.Header) error
	DeleteJSON(ctx context.Context, path string, out any) error
	SetToken(tok string)
	CSRFToken() string
}

// App wires the stores to the view and implements the controller side of the
// UI contract. Controller methods arrive on their own goroutines, so every
// shared field sits behind the mutex.
type App struct {
	cfg Config

	logger *telemetry.Logger
	store  *state.SQLiteStore
	api    backendTransport
	sess   *session.Store
	cat    *catalog.Store
	inst   *instances.Store
	board  *scoreboard.Service
	adm    *admin.Service
	view   ui.View

	sessionID string

	mu        sync.Mutex
	page      routes.Page
	filter    string
	query     string
	apiStatus ui.APIStatus
	actLines  []ui.ActivityLine
}

func New(cfg Config) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}

	logger, err := telemetry.NewLogger(cfg.LogPath)
	if err != nil {
		return nil, err
	}

	store, err := state.NewSQLite(filepath.Join(cfg.DataDir, "state.db"))
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	if err := store.EnsureSchema(context.Background()); err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, err
	}

	var transport backendTransport
	if cfg.Demo {
		transport = devtools.NewBackend()
	} else {
		client, err := api.New(cfg.BaseURL, cfg.Timeout)
		if err != nil {
			_ = store.Close()
			_ = logger.Close()
			return nil, err
		}
		transport = client
	}

	view := ui.New(ui.Options{
		ASCIIOnly:    cfg.ASCIIOnly,
		Debug:        cfg.Debug,
		StyleVariant: cfg.UI.StyleVariant,
		MotionLevel:  cfg.UI.MotionLevel,
	})

	a := &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		api:       transport,
		sess:      session.NewStore(transport, profilePersister{store: store}),
		cat:       catalog.NewStore(transport),
		inst:      instances.NewStore(transport),
		board:     scoreboard.NewService(transport),
		adm:       admin.NewService(transport),
		view:      view,
		sessionID: uuid.NewString(),
		page:      routes.PageLogin,
		filter:    "all",
	}
	view.SetController(a)
	return a, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("app.start", map[string]any{"session": a.sessionID, "base_url": a.cfg.BaseURL})

	a.sess.Subscribe(a.onSessionChange)

	if settings, err := a.store.LoadSettings(ctx); err == nil {
		if f, ok := settings["filter"]; ok && f != "" {
			a.mu.Lock()
			a.filter = f
			a.mu.Unlock()
		}
	}
	if recent, err := a.store.RecentActivity(ctx, activityViewCap); err == nil {
		a.mu.Lock()
		for i := len(recent) - 1; i >= 0; i-- {
			a.actLines = append(a.actLines, ui.ActivityLine{TS: recent[i].TS, Text: recent[i].Line})
		}
		a.mu.Unlock()
		a.pushActivity()
	}

	// Show the persisted profile immediately; the probe below confirms or
	// clears it.
	if a.sess.Restore(ctx) {
		a.pushSession(a.sess.Snapshot(), true)
	}
	a.navigate(a.currentPage())

	go a.bootstrap(ctx)
	if a.cfg.PollInterval > 0 {
		go a.poll(ctx)
	}

	return a.view.Run()
}

func (a *App) Close() {
	_ = a.store.Close()
	_ = a.logger.Close()
}

// bootstrap runs the startup sequence off the UI goroutine: confirm the
// session, then load the catalog and reconcile instances.
func (a *App) bootstrap(ctx context.Context) {
	confirmed := a.sess.ProbeIdentity(ctx)
	if confirmed {
		a.pushSession(a.sess.Snapshot(), false)
	}
	a.reloadChallenges(ctx)
	if confirmed && a.sess.Snapshot().User.IsAdmin() {
		a.refreshAdmin(ctx)
	}
	a.view.RequestDraw()
}

func (a *App) poll(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !a.sess.Snapshot().Authenticated {
				continue
			}
			if _, err := a.inst.Reconcile(ctx); err != nil {
				a.setAPIStatus(ui.APIOffline)
			} else {
				a.setAPIStatus(ui.APIOnline)
			}
			a.pushChallenges()
			a.view.RequestDraw()
		}
	}
}

// onSessionChange keeps the visible screen legal for the new session state.
// It runs synchronously inside the session store's notify.
func (a *App) onSessionChange(snap session.Snapshot) {
	a.pushSession(snap, false)
	a.navigate(a.currentPage())
}

func (a *App) pushSession(snap session.Snapshot, provisional bool) {
	a.view.SetSession(ui.SessionState{
		Authenticated: snap.Authenticated,
		Provisional:   provisional,
		Username:      snap.User.Username,
		DisplayName:   snap.User.DisplayName,
		Role:          snap.User.Role,
	})
}

func (a *App) currentPage() routes.Page {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.page
}

// navigate resolves the requested page against the route guard and shows
// whatever the guard decides.
func (a *App) navigate(page routes.Page) {
	snap := a.sess.Snapshot()
	st := routes.StateFor(snap.Authenticated, snap.User.Role)
	resolved := routes.Resolve(st, page)

	a.mu.Lock()
	a.page = resolved
	a.mu.Unlock()

	a.view.SetScreen(screenForPage(resolved))
	a.view.RequestDraw()
}

func screenForPage(p routes.Page) ui.Screen {
	switch p {
	case routes.PageChallenges:
		return ui.ScreenChallenges
	case routes.PageScoreboard:
		return ui.ScreenScoreboard
	case routes.PageAdmin:
		return ui.ScreenAdmin
	default:
		return ui.ScreenLogin
	}
}

func pageForScreen(s ui.Screen) routes.Page {
	switch s {
	case ui.ScreenChallenges:
		return routes.PageChallenges
	case ui.ScreenScoreboard:
		return routes.PageScoreboard
	case ui.ScreenAdmin:
		return routes.PageAdmin
	default:
		return routes.PageLogin
	}
}

// activity records a user-visible event in the log file, the persistent
// store, and the view.
func (a *App) activity(line string) {
	now := time.Now().UTC()
	a.logger.Activity(line)
	_ = a.store.AppendActivity(context.Background(), now, line)

	a.mu.Lock()
	a.actLines = append(a.actLines, ui.ActivityLine{TS: now, Text: line})
	if len(a.actLines) > activityViewCap {
		a.actLines = a.actLines[len(a.actLines)-activityViewCap:]
	}
	a.mu.Unlock()
	a.pushActivity()
}

func (a *App) pushActivity() {
	a.mu.Lock()
	lines := make([]ui.ActivityLine, len(a.actLines))
	for i, l := range a.actLines {
		lines[len(a.actLines)-1-i] = l
	}
	a.mu.Unlock()
	a.view.SetActivity(lines)
}

func (a *App) setAPIStatus(status ui.APIStatus) {
	a.mu.Lock()
	changed := a.apiStatus != status
	a.apiStatus = status
	a.mu.Unlock()
	if changed {
		a.view.SetAPIStatus(status)
	}
}

func (a *App) reloadChallenges(ctx context.Context) {
	if _, err := a.cat.Load(ctx); err != nil {
		a.logger.Error("catalog.load_failed", map[string]any{"error": err.Error()})
	}
	if a.cat.Degraded() {
		a.setAPIStatus(ui.APIDegraded)
	} else {
		a.setAPIStatus(ui.APIOnline)
	}
	if a.sess.Snapshot().Authenticated {
		if _, err := a.inst.Reconcile(ctx); err != nil {
			a.logger.Error("instances.reconcile_failed", map[string]any{"error": err.Error()})
		}
	}
	a.pushChallenges()
}

// buildCards joins the catalog with instance state the way the challenge
// board renders it.
func (a *App) buildCards() ([]ui.ChallengeCard, string) {
	a.mu.Lock()
	filter, query := a.filter, a.query
	a.mu.Unlock()

	matches := a.cat.Filter(filter, query)
	cards := make([]ui.ChallengeCard, 0, len(matches))
	for _, ch := range matches {
		card := ui.ChallengeCard{
			Key:         ch.Key,
			Title:       ch.Title,
			Category:    string(ch.Category),
			Score:       ch.Score,
			Tags:        ch.Tags,
			Locked:      ch.Locked,
			Description: ch.Description,
			Phase:       string(a.inst.PhaseOf(ch.Key)),
			Busy:        a.inst.Busy(ch.Key),
		}
		if inst, ok := a.inst.Get(ch.Key); ok {
			card.InstanceURL = inst.URL
			card.ConnectHint = catalog.ConnectHint(ch.Category, inst.URL)
		}
		for _, d := range ch.Downloads {
			card.Downloads = append(card.Downloads, ui.DownloadRow{
				Label:     d.Label,
				URL:       d.URL,
				SizeLabel: catalog.FormatBytes(d.Size),
			})
		}
		cards = append(cards, card)
	}

	suggestion := ""
	if len(cards) == 0 && query != "" {
		suggestion = a.cat.Suggest(query)
	}
	return cards, suggestion
}

func (a *App) pushChallenges() {
	cards, suggestion := a.buildCards()
	a.mu.Lock()
	filter, query := a.filter, a.query
	a.mu.Unlock()
	a.view.SetChallenges(ui.ChallengesState{
		Cards:      cards,
		Filter:     filter,
		Query:      query,
		Suggestion: suggestion,
		Degraded:   a.cat.Degraded(),
	})
}

func (a *App) refreshScoreboard(ctx context.Context) {
	rows, degraded := a.board.Load(ctx)
	out := make([]ui.ScoreRow, len(rows))
	for i, r := range rows {
		out[i] = ui.ScoreRow{
			Rank:        r.Rank,
			Username:    r.Username,
			DisplayName: r.DisplayName,
			Score:       r.Score,
			SolvedCount: r.SolvedCount,
		}
	}
	if degraded {
		a.setAPIStatus(ui.APIDegraded)
	}
	a.view.SetScoreboard(ui.ScoreboardState{Rows: out, Degraded: degraded})
	a.view.RequestDraw()
}

func (a *App) refreshAdmin(ctx context.Context) {
	users, err := a.adm.Users(ctx)
	if err != nil {
		a.view.SetAdminMessage(errText(err), true)
		a.view.RequestDraw()
		return
	}
	limit, err := a.adm.InstanceLimit(ctx)
	if err != nil {
		a.logger.Error("admin.settings_failed", map[string]any{"error": err.Error()})
	}
	rows := make([]ui.AdminUserRow, len(users))
	for i, u := range users {
		rows[i] = ui.AdminUserRow{
			Username:    u.Username,
			DisplayName: u.DisplayName,
			Role:        u.Role,
			Score:       u.Score,
		}
	}
	a.view.SetAdmin(ui.AdminState{Users: rows, InstanceLimit: limit})
	a.view.RequestDraw()
}

// errText prefers the backend's human-readable detail over Go error prose.
func errText(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if api.IsTimeout(err) {
			return "Request timed out."
		}
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
	}
	return err.Error()
}

// --- ui.Controller ---

func (a *App) OnSubmitLogin(username, password string) {
	ctx := context.Background()
	a.view.SetBusy(true)
	err := a.sess.Login(ctx, username, password)
	a.view.SetBusy(false)
	if err != nil {
		a.view.SetAuthMessage(errText(err), true)
		a.view.RequestDraw()
		return
	}
	a.view.SetAuthMessage("", false)
	a.activity("Signed in as " + username)
	a.reloadChallenges(ctx)
	if a.sess.Snapshot().User.IsAdmin() {
		a.refreshAdmin(ctx)
	}
	a.view.RequestDraw()
}

func (a *App) OnSubmitRegister(username, password, displayName string) {
	ctx := context.Background()
	a.view.SetBusy(true)
	err := a.sess.Register(ctx, username, password, displayName)
	a.view.SetBusy(false)
	if err != nil {
		a.view.SetAuthMessage(errText(err), true)
		a.view.RequestDraw()
		return
	}
	a.view.SetAuthMessage("Account created. You can sign in now.", false)
	a.activity("Registered account " + username)
	a.view.RequestDraw()
}

func (a *App) OnLogout() {
	username := a.sess.Snapshot().User.Username
	a.sess.Logout(context.Background())
	if username != "" {
		a.activity("Signed out " + username)
	}
	a.view.RequestDraw()
}

func (a *App) OnNavigate(screen ui.Screen) {
	page := pageForScreen(screen)
	a.navigate(page)
	ctx := context.Background()
	switch a.currentPage() {
	case routes.PageScoreboard:
		a.refreshScoreboard(ctx)
	case routes.PageAdmin:
		a.refreshAdmin(ctx)
	}
}

func (a *App) OnStartInstance(key string) {
	ch, ok := a.cat.Get(key)
	if !ok {
		return
	}
	if ch.Locked {
		a.view.FlashStatus("Challenge is locked.")
		a.logger.Info("instances.start_refused", map[string]any{"key": key, "reason": instances.ErrLocked.Error()})
		a.view.RequestDraw()
		return
	}
	a.pushChallenges()
	a.view.RequestDraw()

	inst, err := a.inst.Start(context.Background(), key)
	if err != nil {
		switch {
		case errors.Is(err, instances.ErrPending), errors.Is(err, instances.ErrAlreadyRunning):
			a.view.FlashStatus(err.Error())
		default:
			a.view.FlashStatus("Start failed: " + errText(err))
			a.activity("Start failed for " + key + ": " + errText(err))
		}
		a.pushChallenges()
		a.view.RequestDraw()
		return
	}
	a.activity("Started " + key + " at " + inst.URL)
	a.pushChallenges()
	a.view.RequestDraw()
}

func (a *App) OnStopInstance(key string) {
	a.pushChallenges()
	a.view.RequestDraw()

	if err := a.inst.Stop(context.Background(), key); err != nil {
		if !errors.Is(err, instances.ErrPending) {
			a.view.FlashStatus("Stop failed: " + errText(err))
			a.activity("Stop failed for " + key + ": " + errText(err))
		}
		a.pushChallenges()
		a.view.RequestDraw()
		return
	}
	a.activity("Stopped " + key)
	a.pushChallenges()
	a.view.RequestDraw()
}

func (a *App) copyText(text, label string) {
	if text == "" || text == "-" {
		a.view.FlashStatus("Nothing to copy.")
		a.view.RequestDraw()
		return
	}
	method, err := clipboard.Copy(text)
	if err != nil {
		a.view.FlashStatus("Copy failed: " + err.Error())
	} else {
		a.view.FlashStatus(fmt.Sprintf("Copied %s (%s)", label, method))
	}
	a.view.RequestDraw()
}

func (a *App) OnCopyURL(key string) {
	inst, ok := a.inst.Get(key)
	if !ok {
		a.view.FlashStatus("No running instance.")
		a.view.RequestDraw()
		return
	}
	a.copyText(inst.URL, "URL")
}

func (a *App) OnCopyConnect(key string) {
	ch, okCh := a.cat.Get(key)
	inst, okInst := a.inst.Get(key)
	if !okCh || !okInst {
		a.view.FlashStatus("No running instance.")
		a.view.RequestDraw()
		return
	}
	a.copyText(catalog.ConnectHint(ch.Category, inst.URL), "connect hint")
}

func (a *App) OnSetFilter(category string) {
	a.mu.Lock()
	a.filter = category
	a.mu.Unlock()
	_ = a.store.SaveSettings(context.Background(), map[string]string{"filter": category})
	a.pushChallenges()
	a.view.RequestDraw()
}

func (a *App) OnSearch(query string) {
	a.mu.Lock()
	a.query = query
	a.mu.Unlock()
	a.pushChallenges()
	a.view.RequestDraw()
}

func (a *App) OnRefreshChallenges() {
	a.reloadChallenges(context.Background())
	a.view.FlashStatus("Challenges refreshed.")
	a.view.RequestDraw()
}

func (a *App) OnRefreshScoreboard() {
	a.refreshScoreboard(context.Background())
}

func (a *App) OnRefreshUsers() {
	a.refreshAdmin(context.Background())
}

func (a *App) OnToggleRole(username string) {
	ctx := context.Background()
	users, err := a.adm.Users(ctx)
	if err != nil {
		a.view.SetAdminMessage(errText(err), true)
		a.view.RequestDraw()
		return
	}
	role := "admin"
	for _, u := range users {
		if u.Username == username && u.Role == "admin" {
			role = "user"
			break
		}
	}
	if err := a.adm.SetRole(ctx, username, role); err != nil {
		a.view.SetAdminMessage(errText(err), true)
		a.view.RequestDraw()
		return
	}
	a.activity("Set role of " + username + " to " + role)
	a.view.SetAdminMessage(fmt.Sprintf("%s is now %s.", username, role), false)
	a.refreshAdmin(ctx)
}

func (a *App) OnDeleteUser(username string) {
	ctx := context.Background()
	current := a.sess.Snapshot().User.Username
	if err := a.adm.DeleteUser(ctx, username, current); err != nil {
		a.view.SetAdminMessage(errText(err), true)
		a.view.RequestDraw()
		return
	}
	a.activity("Deleted account " + username)
	a.view.SetAdminMessage("Deleted "+username+".", false)
	a.refreshAdmin(ctx)
}

func (a *App) OnSaveInstanceLimit(limit int) {
	ctx := context.Background()
	if err := a.adm.SetInstanceLimit(ctx, limit); err != nil {
		a.view.SetAdminMessage(errText(err), true)
		a.view.RequestDraw()
		return
	}
	a.activity(fmt.Sprintf("Set instance limit to %d", limit))
	a.view.SetAdminMessage(fmt.Sprintf("Instance limit saved (%d).", limit), false)
	a.refreshAdmin(ctx)
}

func (a *App) OnResetScoreboard() {
	ctx := context.Background()
	if err := a.adm.ResetScoreboard(ctx); err != nil {
		a.view.SetAdminMessage(errText(err), true)
		a.view.RequestDraw()
		return
	}
	a.activity("Scoreboard reset")
	a.view.SetAdminMessage("Scoreboard reset.", false)
	a.refreshScoreboard(ctx)
}

func (a *App) OnClearLog() {
	a.logger.Clear()
	a.mu.Lock()
	a.actLines = nil
	a.mu.Unlock()
	a.view.SetActivity(nil)
	a.view.RequestDraw()
}

func (a *App) OnQuit() {
	a.view.Stop()
}

var _ ui.Controller = (*App)(nil)
