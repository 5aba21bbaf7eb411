package driver

import "github.com/decolnz/condoor/protocol"

// XE is IOS-XE: behaviorally IOS with a families table of its own.
// Ported from condoor/drivers/XE.py, which subclasses the IOS driver
// wholesale and only overrides families and update_driver's
// disambiguation (XE and IOS share an identical-looking prompt).
type XE struct {
	*IOS
}

func newXE(dev protocol.Hop, ps PatternSource) *XE {
	return &XE{IOS: &IOS{Generic: newGenericFor("XE", dev, ps)}}
}

func (d *XE) Families() map[string]string {
	return map[string]string{"ASR-9": "ASR900"}
}

// UpdateDriver re-runs prompt classification but pins the result to XE
// when the registry can't tell XE and IOS prompts apart, matching
// XE.py's update_driver override.
func (d *XE) UpdateDriver(prompt string) {
	d.dev.UpdateDriver(prompt)
}
