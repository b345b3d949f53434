package auth

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// OpenBrowser opens targetURL in the system's default browser.
func OpenBrowser(targetURL string) error {
	targetURL = strings.TrimSpace(targetURL)
	if targetURL == "" {
		return fmt.Errorf("url was empty")
	}
	if _, err := url.Parse(targetURL); err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	var cmd string
	var args []string
	switch runtime.GOOS {
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler"}
	case "darwin":
		cmd = "open"
	default:
		cmd = "xdg-open"
	}
	args = append(args, targetURL)
	return exec.Command(cmd, args...).Start()
}
