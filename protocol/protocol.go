// Package protocol implements the per-transport connect/authenticate
// dialogs a chain hop runs once its controller has a live PTY. Ported
// from condoor/protocols/{base,telnet,ssh}.py.
package protocol

import (
	"fmt"

	"github.com/decolnz/condoor/fsm"
)

// Hop is the subset of device state a protocol adapter needs: enough to
// build its spawn command and run its connect/authenticate FSMs without
// importing the root package (which would create an import cycle).
type Hop interface {
	fsm.Device
	Username() string
	Password() string
	Port() int
	IsTarget() bool
}

// Adapter drives one transport's connect and authenticate dialogs.
// telnet.go and ssh.go (plus their *_console.go variants) implement it.
type Adapter interface {
	// Command returns the shell command SpawnSession should run to reach
	// this hop, e.g. "ssh -p 22 user@host" or "telnet host 23".
	Command() string
	// Connect runs the transport-level connect FSM (escape sequences,
	// banner handling, standby/unreachable detection).
	Connect(drv Driver) error
	// Authenticate runs the username/password dialog, reusing whatever
	// prompt Connect already matched via LastPattern.
	Authenticate(drv Driver) error
	// Disconnect sends the transport's graceful hangup sequence.
	Disconnect(drv Driver)
	// LastPattern is the pattern Connect matched last, handed to
	// Authenticate as its FSM's init_pattern so it doesn't have to wait
	// on the same prompt twice.
	LastPattern() fsm.Event
}

// Driver is the subset of driver.Driver a protocol adapter needs: its
// patterns and its owning device's controller. Declared here (rather
// than imported from package driver) to keep protocol free of any
// dependency on driver, matching the fsm-centered layering described in
// SPEC_FULL.md.
type Driver interface {
	Device() Hop
	PromptPattern() fsm.Event
	UsernamePattern() fsm.Event
	PasswordPattern() fsm.Event
	AuthenticationErrorPattern() fsm.Event
	MorePattern() fsm.Event
	PressReturnPattern() fsm.Event
	RommonPattern() fsm.Event
	UnableToConnectPattern() fsm.Event
	StandbyPattern() fsm.Event
}

// New builds the adapter for protocolName ("telnet", "ssh",
// "telnet_console", "ssh_console"), matching protocols/__init__.py's
// protocol2object factory.
func New(protocolName string, hop Hop) (Adapter, error) {
	switch protocolName {
	case "telnet":
		return newTelnet(hop), nil
	case "telnet_console":
		return newTelnetConsole(hop), nil
	case "ssh":
		return newSSH(hop), nil
	case "ssh_console":
		return newSSH(hop), nil
	default:
		return nil, fmt.Errorf("protocol: unknown protocol %q", protocolName)
	}
}

type base struct {
	hop         Hop
	lastPattern fsm.Event
}

func (b *base) LastPattern() fsm.Event { return b.lastPattern }
