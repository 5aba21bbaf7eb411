package protocol

import (
	"fmt"
	"regexp"
	"time"

	"github.com/decolnz/condoor/fsm"
)

// telnet implements the plain telnet dialog: escape-character ack,
// paging, username/password, standby-console detection. Ported from
// condoor/protocols/telnet.py's Telnet class.
type telnet struct {
	base
}

func newTelnet(hop Hop) *telnet {
	return &telnet{base{hop: hop}}
}

// Command builds "telnet host port". Mirrors Telnet.get_command.
func (t *telnet) Command() string {
	return fmt.Sprintf("telnet %s %d", t.hop.Hostname(), t.hop.Port())
}

func (t *telnet) Connect(drv Driver) error {
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
		{Event: escChar, States: []int{0}, Next: 0, Action: fsm.Do(fsm.AStaysConnected)},
		{Event: drv.PressReturnPattern(), States: []int{0}, Next: 0, Action: fsm.Do(fsm.ASendLine(""))},
		{Event: drv.StandbyPattern(), States: []int{0}, Next: -1, Action: fsm.Do(fsm.AStandbyConsole)},
		{Event: drv.UsernamePattern(), States: []int{0}, Next: -1, Action: fsm.Do(t.saveLastPattern)},
		{Event: drv.PasswordPattern(), States: []int{0}, Next: -1, Action: fsm.Do(t.saveLastPattern)},
		{Event: drv.MorePattern(), States: []int{0}, Next: 0, Action: fsm.Do(fsm.ASend("q"))},
		{Event: drv.PromptPattern(), States: []int{0}, Next: -1, Action: fsm.Do(t.saveLastPattern)},
		{Event: drv.RommonPattern(), States: []int{0}, Next: -1, Action: fsm.Do(fsm.AUnexpectedPrompt)},
		{Event: drv.UnableToConnectPattern(), States: []int{0}, Next: -1, Action: fsm.Do(fsm.AUnableToConnect)},
		{Event: fsm.Timeout, States: []int{0}, Next: -1, Action: fsm.Do(fsm.AConnectionTimeout)},
		{Event: fsm.EOF, States: []int{0}, Next: -1},
	}
	eng := fsm.New("TELNET-CONNECT", drv.Device(), events, rows, 60*time.Second)
	ok, err := eng.Run()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("telnet connect: %s", drv.Device().Hostname())
	}
	return nil
}

func (t *telnet) saveLastPattern(ctx *fsm.Context) bool {
	t.lastPattern = ctx.Pattern
	ctx.Finished = true
	return true
}

func (t *telnet) Authenticate(drv Driver) error {
	events := []fsm.Event{
		drv.UsernamePattern(),
		drv.PasswordPattern(),
		drv.AuthenticationErrorPattern(),
		drv.RommonPattern(),
		drv.PromptPattern(),
		fsm.Timeout,
		fsm.EOF,
	}
	rows := []fsm.Row{
		{Event: drv.UsernamePattern(), States: []int{0}, Next: 0, Action: fsm.Do(fsm.ASendUsername(t.hop.Username()))},
		{Event: drv.PasswordPattern(), States: []int{0}, Next: 0, Action: fsm.Do(fsm.ASendPassword(t.hop.Password()))},
		{Event: drv.AuthenticationErrorPattern(), States: []int{0}, Next: -1, Action: fsm.Do(fsm.AAuthenticationError)},
		{Event: drv.RommonPattern(), States: []int{0}, Next: -1, Action: fsm.Do(fsm.AUnexpectedPrompt)},
		{Event: drv.PromptPattern(), States: []int{0}, Next: -1, Action: fsm.Do(fsm.AExpectedPrompt)},
		{Event: fsm.Timeout, States: []int{0}, Next: -1, Action: fsm.Do(t.timeoutAction)},
		{Event: fsm.EOF, States: []int{0}, Next: -1},
	}
	opts := []fsm.Option{}
	if t.lastPattern != nil {
		opts = append(opts, fsm.WithInitPattern(t.lastPattern))
	}
	eng := fsm.New("TELNET-AUTH", drv.Device(), events, rows, 30*time.Second, opts...)
	ok, err := eng.Run()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("telnet authenticate: %s", drv.Device().Hostname())
	}
	return nil
}

// timeoutAction resends a newline on a jumphost (which may just need a
// nudge) but fails hard against the target device. Mirrors the
// is_target branch inside Telnet.authenticate's TIMEOUT handler.
func (t *telnet) timeoutAction(ctx *fsm.Context) bool {
	if t.hop.IsTarget() {
		return fsm.AConnectionTimeout(ctx)
	}
	return fsm.ASendLine("")(ctx)
}

func (t *telnet) Disconnect(drv Driver) {
	drv.Device().Ctrl().Send("\x04")
}
