package driver

import (
	"time"

	"github.com/decolnz/condoor/protocol"
)

// IOS is the classic Cisco IOS driver. Ported from condoor/drivers/IOS.py
// (not read directly in this port, but its shape is implied by XE.py,
// which extends it, and by generic.py's IOS-specific "show version
// brief" fallback).
type IOS struct {
	*Generic
}

func newIOS(dev protocol.Hop, ps PatternSource) *IOS {
	return &IOS{Generic: newGenericFor("IOS", dev, ps)}
}

func (d *IOS) InventoryCmd() string { return "show inventory" }
func (d *IOS) UsersCmd() string     { return "show users" }
func (d *IOS) ReloadCmd() string    { return "reload" }

func (d *IOS) PrepareTerminalSessionCmds() []string {
	return []string{"terminal length 0", "terminal width 0"}
}

func (d *IOS) Families() map[string]string {
	return map[string]string{"ASR1": "ASR1K", "ISR4": "ISR4K"}
}

// Reload sends "reload" and confirms the "Proceed with reload" prompt,
// optionally saving the running config first. Harmonized to the single
// (timeout, saveConfig) signature every other platform's Reload uses --
// the original NX-OS driver took only save_config, dropping
// reload_timeout outright; see DESIGN.md for that call.
func (d *IOS) Reload(timeout time.Duration, saveConfig bool) error {
	if saveConfig {
		if err := d.dev.Ctrl().SendLine("copy running-config startup-config"); err != nil {
			return err
		}
		if err := d.dev.Ctrl().SendLine(""); err != nil {
			return err
		}
	}
	if err := d.dev.Ctrl().SendLine("reload"); err != nil {
		return err
	}
	return d.dev.Ctrl().SendLine("")
}
