package protocol

import (
	"fmt"
	"regexp"
	"time"

	"github.com/decolnz/condoor/fsm"
)

// telnetConsole is telnet dialed directly into a console port: the
// escape-character banner gets an active nudge rather than a no-op, and
// a standby RP is a hard failure instead of the softer signal plain
// telnet uses. Ported from condoor/protocols/telnet.py's TelnetConsole.
type telnetConsole struct {
	telnet
}

func newTelnetConsole(hop Hop) *telnetConsole {
	return &telnetConsole{telnet{base{hop: hop}}}
}

func (t *telnetConsole) Connect(drv Driver) error {
	escChar := regexp.MustCompile(`Escape character is|Open`)
	events := []fsm.Event{
		escChar,
		drv.PressReturnPattern(),
		drv.StandbyPattern(),
		drv.UsernamePattern(),
		drv.PasswordPattern(),
		drv.MorePattern(),
		drv.PromptPattern(),
		drv.RommonPattern(),
		drv.UnableToConnectPattern(),
		fsm.Timeout,
		fsm.EOF,
	}
	rows := []fsm.Row{
		{Event: escChar, States: []int{0}, Next: 0, Action: fsm.Do(fsm.ASendLine(""))},
		{Event: drv.PressReturnPattern(), States: []int{0}, Next: 0, Action: fsm.Do(fsm.ASendLine(""))},
		{Event: drv.StandbyPattern(), States: []int{0}, Next: -1, Action: fsm.Do(fsm.AConnectionTimeout)},
		{Event: drv.UsernamePattern(), States: []int{0}, Next: -1, Action: fsm.Do(t.saveLastPattern)},
		{Event: drv.PasswordPattern(), States: []int{0}, Next: -1, Action: fsm.Do(t.saveLastPattern)},
		{Event: drv.MorePattern(), States: []int{0}, Next: 0, Action: fsm.Do(fsm.ASend("q"))},
		{Event: drv.PromptPattern(), States: []int{0}, Next: -1, Action: fsm.Do(t.saveLastPattern)},
		{Event: drv.RommonPattern(), States: []int{0}, Next: -1, Action: fsm.Do(fsm.AUnexpectedPrompt)},
		{Event: drv.UnableToConnectPattern(), States: []int{0}, Next: -1, Action: fsm.Do(fsm.AUnableToConnect)},
		{Event: fsm.Timeout, States: []int{0}, Next: -1, Action: fsm.Do(fsm.AConnectionTimeout)},
		{Event: fsm.EOF, States: []int{0}, Next: -1},
	}
	eng := fsm.New("TELNET-CONSOLE-CONNECT", drv.Device(), events, rows, 60*time.Second)
	ok, err := eng.Run()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("telnet console connect: %s", drv.Device().Hostname())
	}
	return nil
}

// Disconnect walks the device back to global config mode before
// dropping the console, since a console session left mid-config can
// wedge the next user's login. Mirrors TelnetConsole.disconnect.
func (t *telnetConsole) Disconnect(drv Driver) {
	dev := drv.Device()
	for i := 0; i < 5; i++ {
		dev.Ctrl().SendLine("exit")
	}
	dev.Ctrl().Send("\x04")
}
