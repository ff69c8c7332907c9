// Package startup registers the keyboard to open when the user logs in.
package startup

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Entry is what gets launched at login
type Entry struct {
	ID   string   // reverse-DNS identifier, e.g. "com.pixpmusic.gopherkeys"
	Name string   // display name
	Args []string // extra arguments, e.g. "-profile", "Bass"
}

// Enable registers the entry to launch at system startup
func (e Entry) Enable() error {
	execPath, err := os.Executable()
	if err != nil {
		return err
	}

	switch runtime.GOOS {
	case "darwin":
		return writeFile(e.plistPath(), e.plist(execPath))
	case "linux":
		return writeFile(e.desktopPath(), e.desktopEntry(execPath))
	case "windows":
		return exec.Command("reg", "add", windowsRunKey,
			"/v", e.Name,
			"/t", "REG_SZ",
			"/d", e.commandLine(execPath),
			"/f").Run()
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// Disable removes the entry from system startup
func (e Entry) Disable() error {
	switch runtime.GOOS {
	case "darwin":
		return removeFile(e.plistPath())
	case "linux":
		return removeFile(e.desktopPath())
	case "windows":
		out, err := exec.Command("reg", "delete", windowsRunKey, "/v", e.Name, "/f").CombinedOutput()
		if err != nil && !strings.Contains(string(out), "unable to find") {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// IsEnabled checks if the entry is registered for startup
func (e Entry) IsEnabled() bool {
	switch runtime.GOOS {
	case "darwin":
		return exists(e.plistPath())
	case "linux":
		return exists(e.desktopPath())
	case "windows":
		return exec.Command("reg", "query", windowsRunKey, "/v", e.Name).Run() == nil
	default:
		return false
	}
}

// --- macOS ---

func (e Entry) plistPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Library", "LaunchAgents", e.ID+".plist")
}

func (e Entry) plist(execPath string) string {
	var args strings.Builder
	for _, a := range append([]string{execPath}, e.Args...) {
		fmt.Fprintf(&args, "        <string>%s</string>\n", xmlEscape(a))
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>%s</string>
    <key>ProgramArguments</key>
    <array>
%s    </array>
    <key>RunAtLoad</key>
    <true/>
</dict>
</plist>
`, xmlEscape(e.ID), args.String())
}

func xmlEscape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}

// --- Linux ---

func (e Entry) desktopPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "autostart", e.ID+".desktop")
}

func (e Entry) desktopEntry(execPath string) string {
	return fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=%s
Exec=%s
Hidden=false
NoDisplay=false
X-GNOME-Autostart-enabled=true
`, e.Name, e.commandLine(execPath))
}

// --- Windows ---

const windowsRunKey = `HKCU\Software\Microsoft\Windows\CurrentVersion\Run`

// commandLine quotes every argument that contains a space
func (e Entry) commandLine(execPath string) string {
	parts := append([]string{execPath}, e.Args...)
	for i, p := range parts {
		if strings.ContainsAny(p, " \t") {
			parts[i] = `"` + p + `"`
		}
	}
	return strings.Join(parts, " ")
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

func removeFile(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil // already disabled
	}
	return err
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
