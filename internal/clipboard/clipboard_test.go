package clipboard

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteOSC52EmitsEscapeSequence(t *testing.T) {
	var buf bytes.Buffer
	if err := writeOSC52(&buf, "nc 10.0.0.5 9001"); err != nil {
		t.Fatalf("write osc52: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "\x1b]52;") {
		t.Fatalf("output does not start an OSC 52 sequence: %q", out)
	}
	if !strings.Contains(out, "bmMgMTAuMC4wLjUgOTAwMQ==") {
		t.Fatalf("payload is not the base64 text: %q", out)
	}
}
