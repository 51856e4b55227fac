package catalog

import "testing"

func TestConnectHintPwnRendersNetcat(t *testing.T) {
	if got := ConnectHint(CatPwn, "http://10.0.0.5:9001"); got != "nc 10.0.0.5 9001" {
		t.Fatalf("unexpected pwn hint: %q", got)
	}
	if got := ConnectHint(CatCrypto, "https://crypto.example.com"); got != "nc crypto.example.com 443" {
		t.Fatalf("unexpected crypto hint: %q", got)
	}
}

func TestConnectHintWebReturnsURLVerbatim(t *testing.T) {
	if got := ConnectHint(CatWeb, "https://x.test/chal"); got != "https://x.test/chal" {
		t.Fatalf("unexpected web hint: %q", got)
	}
}

func TestConnectHintRevIsFixedLiteral(t *testing.T) {
	for _, u := range []string{"http://a:1", "garbage", ""} {
		if u == "" {
			continue
		}
		if got := ConnectHint(CatRev, u); got != NoServiceHint {
			t.Fatalf("rev hint for %q = %q", u, got)
		}
	}
}

func TestConnectHintMiscPassesURLThrough(t *testing.T) {
	if got := ConnectHint(CatMisc, "tcp://box:31337/x"); got != "tcp://box:31337/x" {
		t.Fatalf("unexpected misc hint: %q", got)
	}
}

func TestConnectHintNeverFailsOnMalformedURL(t *testing.T) {
	// No scheme: the strict parser refuses this, the fallback split applies.
	if got := ConnectHint(CatPwn, "10.0.0.5:9001"); got != "nc 10.0.0.5 9001" {
		t.Fatalf("fallback host:port split broke: %q", got)
	}
	// No port at all and no scheme: degrade to nc <url>.
	if got := ConnectHint(CatPwn, "justahost"); got != "nc justahost" {
		t.Fatalf("portless fallback broke: %q", got)
	}
	if got := ConnectHint(CatPwn, ""); got != "-" {
		t.Fatalf("empty url should render placeholder, got %q", got)
	}
}

func TestParseHostPortDefaultsBySchemeOnly(t *testing.T) {
	host, port := parseHostPort("http://svc.example.com/path")
	if host != "svc.example.com" || port != "80" {
		t.Fatalf("got %q %q", host, port)
	}
	host, port = parseHostPort("https://svc.example.com")
	if host != "svc.example.com" || port != "443" {
		t.Fatalf("got %q %q", host, port)
	}
	// Fallback path must not invent a port.
	_, port = parseHostPort("svc.example.com/path")
	if port != "" {
		t.Fatalf("fallback invented port %q", port)
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, ""},
		{-5, ""},
		{512, "512 B"},
		{2048, "2.0 KB"},
		{1536, "1.5 KB"},
		{10 * 1024 * 1024, "10 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}
	for _, c := range cases {
		if got := FormatBytes(c.in); got != c.want {
			t.Fatalf("FormatBytes(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}
