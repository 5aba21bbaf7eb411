package driver

import "github.com/decolnz/condoor/protocol"

// Jumphost is the driver assigned to every non-target hop in a chain: a
// bare Unix shell (or a vendor CLI the chain only passes through), whose
// only job is proving the prompt resolved. Ported from
// condoor/drivers/jumphost.py.
type Jumphost struct {
	*Generic
}

func newJumphost(dev protocol.Hop, ps PatternSource) *Jumphost {
	return &Jumphost{Generic: newGenericFor("jumphost", dev, ps)}
}

func (d *Jumphost) InventoryCmd() string { return "" }

func (d *Jumphost) TargetPromptComponents() []string { return []string{"prompt_dynamic"} }

func (d *Jumphost) PrepareTerminalSessionCmds() []string { return nil }

// GetVersionText uses "uname -sr" rather than any vendor "show version"
// equivalent. Mirrors Jumphost.get_version_text.
func (d *Jumphost) GetVersionText() (string, error) {
	return d.sendAndCapture("uname -sr")
}

// GetHostnameText sends "hostname", swallowing a command error as "not
// available" rather than surfacing it -- a jumphost is not required to
// support the command. Mirrors Jumphost.get_hostname_text.
func (d *Jumphost) GetHostnameText() (string, bool) {
	text, err := d.sendAndCapture("hostname")
	if err != nil {
		return "", false
	}
	return text, true
}
