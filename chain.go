package condoor

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/decolnz/condoor/controller"
	cerrors "github.com/decolnz/condoor/errors"
	"github.com/decolnz/condoor/fsm"
	"github.com/decolnz/condoor/hopinfo"
)

// neverMatches is a sentinel PreviousPrompts entry that can never match
// anything, standing in for the first device in a chain having no
// earlier hop to bounce back to. Mirrors Chain.get_previous_prompts'
// `re.compile("(?!x)x")` placeholder.
var neverMatches = regexp.MustCompile(`(?!x)x`)

// Chain is one ordered path of hops sharing a single PTY controller:
// zero or more jumphosts followed by exactly one target device. Ported
// from condoor/chain.py's Chain class.
type Chain struct {
	connection *Connection
	ctrl       *controller.Controller
	devices    []*Device
}

// newChain builds a Chain from an ordered list of hop URLs: every hop
// but the last becomes a jumphost device, the last becomes the target.
// Mirrors chain.py's device_gen plus Chain.__init__.
func newChain(conn *Connection, hops []*hopinfo.HopInfo) (*Chain, error) {
	if len(hops) == 0 {
		return nil, cerrors.NewInvalidHopInfoError("chain has no hops")
	}
	c := &Chain{connection: conn}
	c.ctrl = controller.New(hops[len(hops)-1].Host, conn.sessionSink)

	for i, hop := range hops {
		isTarget := i == len(hops)-1
		driverName := "jumphost"
		if isTarget {
			driverName = "generic"
		}
		c.devices = append(c.devices, newDevice(c, hop, driverName, isTarget))
	}
	return c, nil
}

// String renders the chain as an ordered list of hop reprs, the value
// Connection hashes into its cache digest. Mirrors Chain.__repr__ (used
// indirectly via Connection._get_key's str(self.connection_chains)).
func (c *Chain) String() string {
	parts := make([]string, len(c.devices))
	for i, d := range c.devices {
		parts[i] = d.hop.String()
	}
	return strings.Join(parts, " -> ")
}

// TargetDevice returns the chain's last device, or nil if the chain is
// empty (which newChain never actually allows).
func (c *Chain) TargetDevice() *Device {
	if len(c.devices) == 0 {
		return nil
	}
	return c.devices[len(c.devices)-1]
}

// Connect logs into every hop in order, skipping ones already
// connected (a retry after a partial chain failure resumes instead of
// restarting from the first hop). Mirrors Chain.connect.
func (c *Chain) Connect() error {
	if len(c.devices) == 0 {
		return cerrors.NewConnectionError("No devices", "")
	}
	for _, dev := range c.devices {
		if dev.connected {
			continue
		}
		c.connection.emitMessage(zapcore.InfoLevel, fmt.Sprintf("Connecting to %s", dev.hostname))
		if err := dev.connect(c.ctrl); err != nil {
			msg := dev.lastError
			if msg == "" {
				msg = "Connection error"
			}
			return cerrors.NewConnectionError(msg, dev.hostname)
		}
	}
	return nil
}

// Disconnect logs the target out, tears down the shared controller, and
// marks every device disconnected. Mirrors Chain.disconnect.
func (c *Chain) Disconnect() {
	if t := c.TargetDevice(); t != nil {
		t.Disconnect()
	}
	c.ctrl.Disconnect()
	c.TailDisconnect(-1)
}

// IsConnected reports whether the target device completed its login.
func (c *Chain) IsConnected() bool {
	t := c.TargetDevice()
	return t != nil && t.connected
}

// IsConsole reports whether the target is attached via a console port.
func (c *Chain) IsConsole() bool {
	t := c.TargetDevice()
	return t != nil && t.isConsole
}

// getPreviousPrompts returns the never-matches sentinel plus the dynamic
// prompt pattern of every device before dev in the chain. Mirrors
// Chain.get_previous_prompts.
func (c *Chain) getPreviousPrompts(dev *Device) []fsm.Event {
	prompts := []fsm.Event{neverMatches}
	for _, d := range c.devices {
		if d == dev {
			break
		}
		if d.promptRe != nil {
			prompts = append(prompts, d.promptRe)
		}
	}
	return prompts
}

// DeviceIndexForPrompt returns the index of the device whose dynamic
// prompt matches prompt, or -1. Mirrors
// Chain.get_device_index_based_on_prompt, used by Connection.reconnect
// to figure out how far back a session actually unwound.
func (c *Chain) DeviceIndexForPrompt(prompt string) int {
	for i, d := range c.devices {
		if d.promptRe != nil && d.promptRe.MatchString(prompt) {
			return i
		}
	}
	return -1
}

// TailDisconnect marks every device after index as disconnected.
// Mirrors Chain.tail_disconnect.
func (c *Chain) TailDisconnect(index int) {
	for i := index + 1; i < len(c.devices); i++ {
		c.devices[i].connected = false
	}
}

// Send executes cmd against the target device.
func (c *Chain) Send(cmd string, timeout time.Duration) (string, error) {
	t := c.TargetDevice()
	if t == nil {
		return "", cerrors.NewConnectionError("No devices", "")
	}
	return t.Send(cmd, timeout)
}

// Update restores every device's discovery state from a cached record,
// or clears it all if data is nil. Mirrors Chain.update.
func (c *Chain) Update(data []map[string]interface{}) {
	if data == nil {
		for _, d := range c.devices {
			d.ApplyDeviceInfo(map[string]interface{}{})
		}
		return
	}
	for i, info := range data {
		if i >= len(c.devices) {
			break
		}
		c.devices[i].ApplyDeviceInfo(info)
	}
}
