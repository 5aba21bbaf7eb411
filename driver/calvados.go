package driver

import "github.com/decolnz/condoor/protocol"

// Calvados is the eXR host-OS admin shell: a separate login on its own
// from the eXR XR personality, reachable via "admin show inventory
// chassis" and prone to accidental detours from Driver.after_connect's
// "show users" probe. Ported from condoor/drivers/Calvados.py.
type Calvados struct {
	*Generic
}

func newCalvados(dev protocol.Hop, ps PatternSource) *Calvados {
	return &Calvados{Generic: newGenericFor("Calvados", dev, ps)}
}

func (d *Calvados) InventoryCmd() string { return "show inventory chassis" }

func (d *Calvados) TargetPromptComponents() []string {
	return []string{"prompt_dynamic", "prompt_default", "exr", "windriver"}
}

// AfterConnect detects an accidental connection into the admin shell by
// checking whether "show users" output matches the connected_locally
// pattern, and if so exits back out. Mirrors Calvados.after_connect.
func (d *Calvados) AfterConnect() (bool, error) {
	if err := d.dev.Ctrl().SendLine("show users"); err != nil {
		return false, err
	}
	re, err := d.patterns.Pattern(d.platform, "connected_locally")
	if err != nil {
		return false, nil
	}
	if re.MatchString(d.dev.Ctrl().Before()) {
		d.dev.Ctrl().SendLine("exit")
		return true, nil
	}
	return false, nil
}
