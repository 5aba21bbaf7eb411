// Package driver implements the per-platform behavioral strategy a
// device swaps in once its operating system is known: login follow-up,
// pager handling, privilege escalation, reload, and the text-parsing
// discovery commands. Ported from condoor/drivers/*.py.
package driver

import (
	"regexp"
	"time"

	"github.com/decolnz/condoor/fsm"
	"github.com/decolnz/condoor/protocol"
)

// Driver is the full per-platform strategy surface a Device drives
// discovery and command execution through.
type Driver interface {
	// Pattern accessors satisfy protocol.Driver so the same value can
	// run a connect/authenticate dialog and a device-level wait_for_string.
	protocol.Driver

	Platform() string
	InventoryCmd() string
	UsersCmd() string
	ReloadCmd() string
	TargetPromptComponents() []string
	PrepareTerminalSessionCmds() []string
	Families() map[string]string

	GetVersionText() (string, error)
	GetOSType(versionText string) string
	GetOSVersion(versionText string) string
	GetHWFamily(versionText string) string
	GetHWPlatform(versionText string) string
	IsConsole(usersText string) bool

	UpdateDriver(prompt string)
	WaitForString(expected fsm.Event, timeout time.Duration) error
	Enable(enablePassword string) error
	Reload(timeout time.Duration, saveConfig bool) error
	AfterConnect() (bool, error)
	BasePrompt(prompt string) string
	MakeDynamicPrompt(prompt string) string
	UpdateConfigMode(prompt string) string
}

// New returns the driver for platform, the static dispatch table
// standing in for device.py's make_driver dynamic import. Unknown
// platforms fall back to generic, matching the original's behavior of
// defaulting driver_name to "generic".
func New(platform string, dev protocol.Hop, patterns PatternSource) Driver {
	switch platform {
	case "IOS":
		return newIOS(dev, patterns)
	case "XE":
		return newXE(dev, patterns)
	case "XR":
		return newXR(dev, patterns)
	case "XRv":
		return newXRv(dev, patterns)
	case "eXR":
		return newEXR(dev, patterns)
	case "Calvados":
		return newCalvados(dev, patterns)
	case "NX-OS":
		return newNXOS(dev, patterns)
	case "Windriver":
		return newWindriver(dev, patterns)
	case "jumphost":
		return newJumphost(dev, patterns)
	default:
		return newGeneric(dev, patterns)
	}
}

// PatternSource is the subset of *pattern.Registry a driver needs,
// declared locally so this package doesn't have to import pattern
// directly (keeps driver's only upward dependency on fsm/protocol).
type PatternSource interface {
	Pattern(platform, name string) (*regexp.Regexp, error)
	Text(platform, name string) (string, error)
}
