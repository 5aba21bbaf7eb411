package driver

import "github.com/decolnz/condoor/protocol"

// Windriver is the Wind River Linux shell some Calvados line cards
// expose. Ported from condoor/drivers/Windriver.py.
type Windriver struct {
	*Generic
}

func newWindriver(dev protocol.Hop, ps PatternSource) *Windriver {
	return &Windriver{Generic: newGenericFor("Windriver", dev, ps)}
}

func (d *Windriver) InventoryCmd() string { return "" }

func (d *Windriver) TargetPromptComponents() []string {
	return []string{"prompt_dynamic", "prompt_default", "calvados", "lc"}
}

// GetVersionText sends "cat /etc/issue" in place of a "show version"
// equivalent, since this is a bare Linux shell. Mirrors
// Windriver.get_version_text.
func (d *Windriver) GetVersionText() (string, error) {
	return d.sendAndCapture("cat /etc/issue")
}

// GetOSType always reports Windriver -- there is no other personality
// this shell could be. Mirrors Windriver.get_os_type.
func (d *Windriver) GetOSType(versionText string) string { return "Windriver" }
