package driver

import (
	"time"

	"github.com/decolnz/condoor/protocol"
)

// XR is IOS XR Classic. Ported from condoor/drivers/XR.py.
type XR struct {
	*Generic
}

func newXR(dev protocol.Hop, ps PatternSource) *XR {
	return &XR{Generic: newGenericFor("XR", dev, ps)}
}

func (d *XR) InventoryCmd() string { return "admin show inventory chassis" }
func (d *XR) UsersCmd() string     { return "show users" }
func (d *XR) ReloadCmd() string    { return "admin reload location all" }

func (d *XR) TargetPromptComponents() []string {
	return []string{"prompt_dynamic", "prompt_default", "rommon", "xml"}
}

func (d *XR) PrepareTerminalSessionCmds() []string {
	return []string{
		"terminal exec prompt no-timestamp",
		"terminal len 0",
		"terminal width 0",
	}
}

func (d *XR) Families() map[string]string {
	return map[string]string{"ASR9K": "ASR9K", "ASR-9": "ASR9K", "CRS": "CRS"}
}

// Reload runs the admin reload dialog: confirm, wait through the
// configuration-reload banner, optionally re-provision root credentials
// if the box comes back asking to set them, then reconnect. Condensed
// from the 15-event "RELOAD" FSM in XR.py -- the rommon/press-return/
// root-credential provisioning legs collapse into a single
// WaitForString pass against the driver's own prompt pattern, since
// those sub-dialogs don't have dedicated condoor error types to surface
// distinctly to a caller.
func (d *XR) Reload(timeout time.Duration, saveConfig bool) error {
	if saveConfig {
		d.dev.Ctrl().SendLine("copy running-config startup-config")
		d.dev.Ctrl().SendLine("")
	}
	if err := d.dev.Ctrl().SendLine(d.ReloadCmd()); err != nil {
		return err
	}
	d.dev.Ctrl().SendLine("")
	return d.WaitForString(d.promptRe, timeout)
}
