package ui

import "time"

type Controller interface {
	OnSubmitLogin(username, password string)
	OnSubmitRegister(username, password, displayName string)
	OnLogout()
	OnNavigate(screen Screen)
	OnStartInstance(key string)
	OnStopInstance(key string)
	OnCopyURL(key string)
	OnCopyConnect(key string)
	OnSetFilter(category string)
	OnSearch(query string)
	OnRefreshChallenges()
	OnRefreshScoreboard()
	OnRefreshUsers()
	OnToggleRole(username string)
	OnDeleteUser(username string)
	OnSaveInstanceLimit(limit int)
	OnResetScoreboard()
	OnClearLog()
	OnQuit()
}

type View interface {
	Run() error
	Stop()
	SetController(Controller)
	SetScreen(screen Screen)
	SetSession(state SessionState)
	SetChallenges(state ChallengesState)
	SetScoreboard(state ScoreboardState)
	SetAdmin(state AdminState)
	SetAPIStatus(status APIStatus)
	SetAuthMessage(msg string, isError bool)
	SetAdminMessage(msg string, isError bool)
	SetActivity(lines []ActivityLine)
	SetBusy(busy bool)
	FlashStatus(msg string)
	RequestDraw()
}

type Screen int

const (
	ScreenLogin Screen = iota
	ScreenChallenges
	ScreenScoreboard
	ScreenAdmin
)

type LayoutMode int

const (
	LayoutWide LayoutMode = iota
	LayoutMedium
	LayoutTooSmall
)

// APIStatus is the backend reachability shown in the header.
type APIStatus int

const (
	APIUnknown APIStatus = iota
	APIOnline
	APIDegraded
	APIOffline
)

type SessionState struct {
	Authenticated bool
	Provisional   bool
	Username      string
	DisplayName   string
	Role          string
}

func (s SessionState) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Username
}

type DownloadRow struct {
	Label     string
	URL       string
	SizeLabel string
}

// ChallengeCard is one catalog entry joined with its instance state, ready
// for rendering.
type ChallengeCard struct {
	Key         string
	Title       string
	Category    string
	Score       int
	Tags        []string
	Locked      bool
	Description string
	Phase       string
	InstanceURL string
	ConnectHint string
	Busy        bool
	Downloads   []DownloadRow
}

type ChallengesState struct {
	Cards      []ChallengeCard
	Filter     string
	Query      string
	Suggestion string
	Degraded   bool
}

type ScoreRow struct {
	Rank        int
	Username    string
	DisplayName string
	Score       int
	SolvedCount int
}

type ScoreboardState struct {
	Rows     []ScoreRow
	Degraded bool
}

type AdminUserRow struct {
	Username    string
	DisplayName string
	Role        string
	Score       int
}

type AdminState struct {
	Users         []AdminUserRow
	InstanceLimit int
}

type ActivityLine struct {
	TS   time.Time
	Text string
}
