package driver

import "github.com/decolnz/condoor/protocol"

// XRv is IOS XRv, the virtual-machine build of IOS XR Classic. Ported
// from condoor/drivers/XRv.py, which subclasses XR and only adds a
// families entry -- no method overrides.
type XRv struct {
	*XR
}

func newXRv(dev protocol.Hop, ps PatternSource) *XRv {
	return &XRv{XR: &XR{Generic: newGenericFor("XRv", dev, ps)}}
}

func (d *XRv) Families() map[string]string {
	return map[string]string{"XRv": "IOS-XRv"}
}
