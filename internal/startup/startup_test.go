package startup

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var entry = Entry{
	ID:   "com.example.keys",
	Name: "Keys",
	Args: []string{"-profile", "Grand Piano"},
}

func TestDesktopEntry(t *testing.T) {
	got := entry.desktopEntry("/usr/bin/gopher-keys")
	assert.Contains(t, got, "Name=Keys\n")
	assert.Contains(t, got, `Exec=/usr/bin/gopher-keys -profile "Grand Piano"`)
}

func TestPlist(t *testing.T) {
	got := entry.plist("/Applications/Keys & Co/keys")
	assert.Contains(t, got, "<string>com.example.keys</string>")
	assert.Contains(t, got, "<string>/Applications/Keys &amp; Co/keys</string>")
	assert.Contains(t, got, "<string>Grand Piano</string>")
}

func TestEnableDisableLinux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("autostart files are only used on linux")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	assert.False(t, entry.IsEnabled())
	require.NoError(t, entry.Enable())
	assert.FileExists(t, filepath.Join(dir, "autostart", "com.example.keys.desktop"))
	assert.True(t, entry.IsEnabled())

	require.NoError(t, entry.Disable())
	assert.False(t, entry.IsEnabled())
	require.NoError(t, entry.Disable())
}
