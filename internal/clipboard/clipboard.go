// Package clipboard copies text through the system clipboard when one is
// reachable and falls back to an OSC 52 escape so copying still works over
// SSH and inside terminal multiplexers.
package clipboard

import (
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
)

// Method reports which mechanism carried the copy.
type Method string

const (
	MethodSystem Method = "system"
	MethodOSC52  Method = "osc52"
)

// Copy puts text on the clipboard and reports how.
func Copy(text string) (Method, error) {
	if !clipboard.Unsupported {
		if err := clipboard.WriteAll(text); err == nil {
			return MethodSystem, nil
		}
	}
	if err := writeOSC52(os.Stderr, text); err != nil {
		return "", err
	}
	return MethodOSC52, nil
}

func writeOSC52(w io.Writer, text string) error {
	_, err := osc52.New(text).WriteTo(w)
	return err
}
