package driver

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	cerrors "github.com/decolnz/condoor/errors"
	"github.com/decolnz/condoor/fsm"
	"github.com/decolnz/condoor/protocol"
)

// Generic is the fallback driver every platform-specific driver embeds
// and specializes. Ported from condoor/drivers/generic.py's Driver
// class: it pulls every named pattern the dialog engines need once, at
// construction, rather than looking them up by name on every use.
type Generic struct {
	dev      protocol.Hop
	patterns PatternSource
	platform string

	promptRe             *regexp.Regexp
	syntaxErrorRe        *regexp.Regexp
	connectionClosedRe   *regexp.Regexp
	pressReturnRe        *regexp.Regexp
	moreRe               *regexp.Regexp
	rommonRe             *regexp.Regexp
	bufferOverflowRe     *regexp.Regexp
	usernameRe           *regexp.Regexp
	passwordRe           *regexp.Regexp
	authenticationErrRe  *regexp.Regexp
	unableToConnectRe    *regexp.Regexp
	timeoutRe            *regexp.Regexp
	standbyRe            *regexp.Regexp
	vtyRe                *regexp.Regexp
	consoleRe            *regexp.Regexp
	platformTextRe       string
	versionTextRe        string

	lastCommandResult string
}

func mustCompiled(ps PatternSource, platform, name string) *regexp.Regexp {
	re, err := ps.Pattern(platform, name)
	if err != nil {
		// A missing pattern is a registry authoring bug, not a runtime
		// condition callers can recover from.
		panic(fmt.Sprintf("driver: %s.%s: %v", platform, name, err))
	}
	return re
}

func mustText(ps PatternSource, platform, name string) string {
	text, err := ps.Text(platform, name)
	if err != nil {
		panic(fmt.Sprintf("driver: %s.%s: %v", platform, name, err))
	}
	return text
}

func newGeneric(dev protocol.Hop, ps PatternSource) *Generic {
	return newGenericFor("generic", dev, ps)
}

func newGenericFor(platform string, dev protocol.Hop, ps PatternSource) *Generic {
	return &Generic{
		dev:                 dev,
		patterns:            ps,
		platform:            platform,
		promptRe:            mustCompiled(ps, platform, "prompt"),
		syntaxErrorRe:       mustCompiled(ps, platform, "syntax_error"),
		connectionClosedRe:  mustCompiled(ps, platform, "connection_closed"),
		pressReturnRe:       mustCompiled(ps, platform, "press_return"),
		moreRe:              mustCompiled(ps, platform, "more"),
		rommonRe:            mustCompiled(ps, platform, "rommon"),
		bufferOverflowRe:    mustCompiled(ps, platform, "buffer_overflow"),
		usernameRe:          mustCompiled(ps, platform, "username"),
		passwordRe:          mustCompiled(ps, platform, "password"),
		authenticationErrRe: mustCompiled(ps, platform, "authentication_error"),
		unableToConnectRe:   mustCompiled(ps, platform, "unable_to_connect"),
		timeoutRe:           mustCompiled(ps, platform, "timeout"),
		standbyRe:           mustCompiled(ps, platform, "standby"),
		vtyRe:               mustCompiled(ps, platform, "vty"),
		consoleRe:           mustCompiled(ps, platform, "console"),
		platformTextRe:      mustText(ps, platform, "platform"),
		versionTextRe:       mustText(ps, platform, "version"),
	}
}

func (g *Generic) Device() protocol.Hop { return g.dev }
func (g *Generic) Platform() string     { return g.platform }

func (g *Generic) InventoryCmd() string                 { return "show inventory" }
func (g *Generic) UsersCmd() string                     { return "show users" }
func (g *Generic) ReloadCmd() string                    { return "" }
func (g *Generic) TargetPromptComponents() []string      { return []string{"prompt_dynamic", "prompt_default"} }
func (g *Generic) PrepareTerminalSessionCmds() []string   { return nil }
func (g *Generic) Families() map[string]string           { return map[string]string{} }

// protocol.Driver pattern accessors.
func (g *Generic) PromptPattern() fsm.Event             { return g.promptRe }
func (g *Generic) UsernamePattern() fsm.Event           { return g.usernameRe }
func (g *Generic) PasswordPattern() fsm.Event           { return g.passwordRe }
func (g *Generic) AuthenticationErrorPattern() fsm.Event { return g.authenticationErrRe }
func (g *Generic) MorePattern() fsm.Event               { return g.moreRe }
func (g *Generic) PressReturnPattern() fsm.Event        { return g.pressReturnRe }
func (g *Generic) RommonPattern() fsm.Event             { return g.rommonRe }
func (g *Generic) UnableToConnectPattern() fsm.Event    { return g.unableToConnectRe }
func (g *Generic) StandbyPattern() fsm.Event            { return g.standbyRe }

// GetVersionText tries "show version brief" first, the IOS-family
// shortcut, and falls back to "show version" if the device rejects it.
// Mirrors Driver.get_version_text.
func (g *Generic) GetVersionText() (string, error) {
	text, err := g.sendAndCapture("show version brief")
	if err != nil {
		var syn *cerrors.CommandSyntaxError
		if !asCommandSyntaxError(err, &syn) {
			return "", err
		}
		return g.sendAndCapture("show version")
	}
	return text, nil
}

func asCommandSyntaxError(err error, target **cerrors.CommandSyntaxError) bool {
	se, ok := err.(*cerrors.CommandSyntaxError)
	if ok {
		*target = se
	}
	return ok
}

func (g *Generic) sendAndCapture(cmd string) (string, error) {
	if err := g.dev.Ctrl().SendLine(cmd); err != nil {
		return "", err
	}
	if err := g.WaitForString(g.promptRe, 30*time.Second); err != nil {
		return "", err
	}
	return strings.ReplaceAll(g.dev.Ctrl().Before(), "\r", ""), nil
}

// GetOSType classifies version banner text into a platform name, then
// disambiguates XR's two personalities. Mirrors Driver.get_os_type.
func (g *Generic) GetOSType(versionText string) string {
	switch {
	case strings.Contains(versionText, "IOS XR"):
		if strings.Contains(versionText, "Build Information") {
			return "eXR"
		}
		if strings.Contains(versionText, "XR Admin Software") {
			return "Calvados"
		}
		return "XR"
	case strings.Contains(versionText, "IOS XE"):
		return "XE"
	case strings.Contains(versionText, "NX-OS"):
		return "NX-OS"
	default:
		return "IOS"
	}
}

var osVersionRe = regexp.MustCompile(`[Vv]ersion\s+([A-Za-z0-9.()]+)`)

// GetOSVersion mirrors Driver.get_os_version.
func (g *Generic) GetOSVersion(versionText string) string {
	m := osVersionRe.FindStringSubmatch(versionText)
	if m == nil {
		return ""
	}
	return m[1]
}

// GetHWFamily maps a hardware PID prefix onto the driver's declared
// family table. Mirrors Driver.get_hw_family.
func (g *Generic) GetHWFamily(versionText string) string {
	for prefix, family := range g.Families() {
		if strings.Contains(versionText, prefix) {
			return family
		}
	}
	return ""
}

var hwPlatformRe = regexp.MustCompile(`cisco\s+(\S+)`)

// GetHWPlatform mirrors Driver.get_hw_platform.
func (g *Generic) GetHWPlatform(versionText string) string {
	m := hwPlatformRe.FindStringSubmatch(versionText)
	if m == nil {
		return ""
	}
	return m[1]
}

// IsConsole scans "show users" output for the line carrying a "*"
// marker and checks whether it is a vty or a console line. Mirrors
// Driver.is_console.
func (g *Generic) IsConsole(usersText string) bool {
	for _, line := range strings.Split(usersText, "\n") {
		if !strings.Contains(line, "*") {
			continue
		}
		if g.vtyRe.MatchString(line) {
			return false
		}
		if g.consoleRe.MatchString(line) {
			return true
		}
	}
	return false
}

// UpdateDriver classifies prompt against the pattern registry's
// detection order. Mirrors Driver.update_driver, which just delegates
// to the pattern manager; platform-specific overrides live in the
// eXR/Calvados/XE/NX-OS files where a prompt alone is ambiguous.
func (g *Generic) UpdateDriver(prompt string) {
	g.dev.UpdateDriver(prompt)
}

// BasePrompt extracts the stable portion of a dynamic prompt. Mirrors
// Driver.base_prompt.
func (g *Generic) BasePrompt(prompt string) string {
	return strings.TrimRight(prompt, "#>") + "#"
}

// MakeDynamicPrompt builds a regex matching any of
// TargetPromptComponents against the current base prompt text. Mirrors
// Driver.make_dynamic_prompt.
func (g *Generic) MakeDynamicPrompt(prompt string) string {
	escaped := regexp.QuoteMeta(strings.TrimRight(prompt, "#>"))
	parts := make([]string, 0, len(g.TargetPromptComponents()))
	for _, name := range g.TargetPromptComponents() {
		text, err := g.patterns.Text(g.platform, name)
		if err != nil {
			continue
		}
		parts = append(parts, strings.ReplaceAll(text, "{prompt}", escaped))
	}
	return strings.Join(parts, "|")
}

// UpdateConfigMode classifies a prompt by substring, matching
// Driver.update_config_mode's "config"/"admin"/else-"global" rule.
func (g *Generic) UpdateConfigMode(prompt string) string {
	switch {
	case strings.Contains(prompt, "config"):
		return "config"
	case strings.Contains(prompt, "admin"):
		return "admin"
	default:
		return "global"
	}
}

// AfterConnect is a no-op for most platforms. Mirrors Driver.after_connect.
func (g *Generic) AfterConnect() (bool, error) { return false, nil }

// Enable logs and does nothing: most platforms condoor targets have no
// separate privileged mode. Mirrors Driver.enable.
func (g *Generic) Enable(enablePassword string) error {
	fsm.Logger.Sugar().Debugw("privileged mode not supported", "platform", g.platform)
	return nil
}

// Reload is a no-op for platforms without a documented reload dialog.
// Mirrors Driver.reload.
func (g *Generic) Reload(timeout time.Duration, saveConfig bool) error {
	fsm.Logger.Sugar().Debugw("reload not implemented", "platform", g.platform)
	return nil
}

// WaitForString runs the base "WAIT-4-STRING" dialog every driver's
// command execution blocks on: syntax errors, a lost connection, paging,
// and the caller's expected string are all live transitions, plus one
// per previously-seen hop prompt (to catch an unexpected bounce back to
// a jumphost). Mirrors Driver.wait_for_string.
func (g *Generic) WaitForString(expected fsm.Event, timeout time.Duration) error {
	prevPrompts := g.dev.PreviousPrompts()

	events := []fsm.Event{
		g.syntaxErrorRe,
		g.connectionClosedRe,
		g.moreRe,
		expected,
		g.pressReturnRe,
		g.bufferOverflowRe,
		fsm.Timeout,
		fsm.EOF,
	}
	rows := []fsm.Row{
		{Event: g.syntaxErrorRe, States: []int{0}, Next: -1, Action: fsm.RaiseErr(cerrors.NewCommandSyntaxError("syntax error", g.dev.Hostname(), ""))},
		{Event: g.connectionClosedRe, States: []int{0}, Next: 1, Action: fsm.Do(fsm.AConnectionClosed)},
		{Event: g.moreRe, States: []int{0}, Next: 0, Action: fsm.Do(fsm.ASend(" "))},
		{Event: expected, States: []int{0, 1}, Next: -1, Action: fsm.Do(fsm.AStaysConnected)},
		{Event: g.pressReturnRe, States: []int{0}, Next: 0, Action: fsm.Do(fsm.ASendLine(""))},
		{Event: g.bufferOverflowRe, States: []int{0}, Next: -1, Action: fsm.RaiseErr(cerrors.NewCommandError("buffer overflow", g.dev.Hostname(), ""))},
		{Event: fsm.Timeout, States: []int{0}, Next: -1, Action: fsm.RaiseErr(cerrors.NewCommandTimeoutError("command timed out", g.dev.Hostname(), ""))},
		{Event: fsm.EOF, States: []int{0, 1}, Next: -1},
	}
	for _, prompt := range prevPrompts {
		events = append(events, prompt)
		rows = append(rows, fsm.Row{Event: prompt, States: []int{0}, Next: -1, Action: fsm.Do(fsm.AUnexpectedPrompt)})
	}

	eng := fsm.New("WAIT-4-STRING", g.dev, events, rows, timeout)
	ok, err := eng.Run()
	if err != nil {
		return err
	}
	if !ok {
		return cerrors.NewCommandError("command failed", g.dev.Hostname(), "")
	}
	return nil
}
