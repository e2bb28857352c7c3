package lifecycle

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Opener routes a URL to the system browser.
type Opener interface {
	OpenExternal(url string) error
}

// SystemOpener shells out to the platform's URL opener.
type SystemOpener struct{}

// OpenExternal launches the default browser for url. The browser
// process is not waited on.
func (SystemOpener) OpenExternal(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open external url: %w", err)
	}
	go cmd.Wait()
	return nil
}

// NopOpener accepts every URL without doing anything.
type NopOpener struct{}

func (NopOpener) OpenExternal(url string) error { return nil }
