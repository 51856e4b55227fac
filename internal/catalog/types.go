package catalog

// Category drives how a connection hint is rendered for a challenge.
type Category string

const (
	CatPwn    Category = "pwn"
	CatWeb    Category = "web"
	CatRev    Category = "rev"
	CatCrypto Category = "crypto"
	CatMisc   Category = "misc"
)

// Download is one fetchable artifact attached to a challenge.
type Download struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
	Size  int64  `yaml:"size"`
}

// Challenge is an immutable snapshot entry from the server catalog.
// Only the Locked flag changes during a session, and only the server
// decides that.
type Challenge struct {
	Key         string     `yaml:"key"`
	Title       string     `yaml:"title"`
	Category    Category   `yaml:"category"`
	RawType     string     `yaml:"-"`
	Score       int        `yaml:"score"`
	Description string     `yaml:"desc"`
	Tags        []string   `yaml:"tags"`
	Locked      bool       `yaml:"locked"`
	Downloads   []Download `yaml:"downloads"`
}
