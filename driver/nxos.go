package driver

import (
	"time"

	"github.com/decolnz/condoor/protocol"
)

// NXOS is Cisco NX-OS. Ported from condoor/drivers/NX-OS.py.
type NXOS struct {
	*Generic
}

func newNXOS(dev protocol.Hop, ps PatternSource) *NXOS {
	return &NXOS{Generic: newGenericFor("NX-OS", dev, ps)}
}

func (d *NXOS) InventoryCmd() string { return "show inventory chassis" }
func (d *NXOS) UsersCmd() string     { return "show users" }
func (d *NXOS) ReloadCmd() string    { return "" }

func (d *NXOS) TargetPromptComponents() []string {
	return []string{"prompt_dynamic", "prompt_default", "rommon"}
}

func (d *NXOS) PrepareTerminalSessionCmds() []string {
	return []string{"terminal len 0", "terminal width 511"}
}

func (d *NXOS) Families() map[string]string {
	return map[string]string{"Nexus9": "N9K", "N9K-C9": "N9K"}
}

// Reload optionally saves the config, sends "reload", and confirms the
// "This command will reboot the system" prompt with "y". The original
// NX-OS driver's reload(save_config=True) dropped the reload_timeout
// parameter every other platform's Reload takes; this harmonizes the
// signature while keeping the save-then-confirm sequence. See
// DESIGN.md.
func (d *NXOS) Reload(timeout time.Duration, saveConfig bool) error {
	if saveConfig {
		if err := d.dev.Ctrl().SendLine("copy running-config startup-config"); err != nil {
			return err
		}
		d.dev.Ctrl().SendLine("")
	}
	if err := d.dev.Ctrl().SendLine("reload"); err != nil {
		return err
	}
	return d.dev.Ctrl().SendLine("y")
}
