package protocol

import (
	"fmt"
	"regexp"
	"time"

	"github.com/decolnz/condoor/fsm"
)

// ssh implements the ssh dialog: host-key prompts, protocol/modulus
// fallback to v1, username/password. Ported from
// condoor/protocols/ssh.py's SSH class.
type ssh struct {
	base
	version int
	retryV1 bool
}

func newSSH(hop Hop) *ssh {
	return &ssh{base: base{hop: hop}, version: 2}
}

var (
	newSSHKeyRe      = regexp.MustCompile(`Are you sure you want to continue connecting`)
	knownHostsRe     = regexp.MustCompile(`added.*to the list of known hosts`)
	hostKeyFailedRe  = regexp.MustCompile(`[Hh]ost key verification failed`)
	modulusTooSmall  = regexp.MustCompile(`Diffie-Hellman group out of range|Bad packet length|fatal: mismatch`)
	protocolDifferRe = regexp.MustCompile(`Protocol major versions differ`)
)

// Command builds "ssh -o UserKnownHostsFile=/dev/null -o
// StrictHostKeyChecking=no -<version> -p <port> [user@]host". Mirrors
// SSH.get_command.
func (s *ssh) Command() string {
	user := ""
	if s.hop.Username() != "" {
		user = s.hop.Username() + "@"
	}
	return fmt.Sprintf(
		"ssh -o UserKnownHostsFile=/dev/null -o StrictHostKeyChecking=no -%d -p %d %s%s",
		s.version, s.hop.Port(), user, s.hop.Hostname())
}

// Connect runs the connect FSM once, and -- if the device rejected
// protocol 2 with a modulus/version mismatch -- respawns the ssh
// process with "-1" and runs it a second and final time. Mirrors
// SSH.connect plus the fallback_to_sshv1 rescue it only ever attempted
// in spirit: total attempts across both tries never exceed two.
func (s *ssh) Connect(drv Driver) error {
	ok, err := s.runConnectFSM(drv)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if !s.retryV1 {
		return fmt.Errorf("ssh connect: %s", drv.Device().Hostname())
	}
	s.retryV1 = false

	if err := drv.Device().Ctrl().SpawnSession(s.Command()); err != nil {
		return err
	}
	ok, err = s.runConnectFSM(drv)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("ssh connect: %s", drv.Device().Hostname())
	}
	return nil
}

func (s *ssh) runConnectFSM(drv Driver) (bool, error) {
	events := []fsm.Event{
		drv.PasswordPattern(),
		drv.PromptPattern(),
		drv.UnableToConnectPattern(),
		newSSHKeyRe,
		knownHostsRe,
		hostKeyFailedRe,
		modulusTooSmall,
		protocolDifferRe,
		fsm.Timeout,
		fsm.EOF,
	}
	rows := []fsm.Row{
		{Event: drv.PasswordPattern(), States: []int{0}, Next: -1, Action: fsm.Do(s.saveLastPattern)},
		{Event: drv.PromptPattern(), States: []int{0}, Next: -1, Action: fsm.Do(s.saveLastPattern)},
		{Event: drv.UnableToConnectPattern(), States: []int{0}, Next: -1, Action: fsm.Do(fsm.AUnableToConnect)},
		{Event: newSSHKeyRe, States: []int{0}, Next: 0, Action: fsm.Do(fsm.ASendLine("yes"))},
		{Event: knownHostsRe, States: []int{0}, Next: 0, Action: fsm.Do(fsm.AStaysConnected)},
		{Event: hostKeyFailedRe, States: []int{0}, Next: -1, Action: fsm.Do(fsm.AConnectionTimeout)},
		{Event: modulusTooSmall, States: []int{0}, Next: -1, Action: fsm.Do(s.fallbackToSSHv1)},
		{Event: protocolDifferRe, States: []int{0}, Next: -1, Action: fsm.Do(s.fallbackToSSHv1)},
		{Event: fsm.Timeout, States: []int{0}, Next: 1, Action: fsm.Do(fsm.ASendLine(""))},
		{Event: fsm.Timeout, States: []int{1}, Next: -1, Action: fsm.Do(fsm.AConnectionTimeout)},
		{Event: fsm.EOF, States: []int{0, 1}, Next: -1},
	}
	eng := fsm.New("SSH-CONNECT", drv.Device(), events, rows, 60*time.Second)
	return eng.Run()
}

func (s *ssh) saveLastPattern(ctx *fsm.Context) bool {
	s.lastPattern = ctx.Pattern
	ctx.Finished = true
	return true
}

// fallbackToSSHv1 flags the connect to respawn with "-1" once the
// current FSM run unwinds: SSH.fallback_to_sshv1's rescue, made to
// actually fire rather than just disconnect and fail. Connect picks
// up retryV1 and reruns the whole dialog exactly once more.
func (s *ssh) fallbackToSSHv1(ctx *fsm.Context) bool {
	s.version = 1
	s.retryV1 = true
	ctx.Device.Ctrl().Disconnect()
	ctx.Finished = true
	ctx.Msg = "falling back to sshv1"
	return false
}

func (s *ssh) Authenticate(drv Driver) error {
	events := []fsm.Event{
		drv.PressReturnPattern(),
		drv.PasswordPattern(),
		drv.AuthenticationErrorPattern(),
		drv.PromptPattern(),
		fsm.Timeout,
	}
	rows := []fsm.Row{
		{Event: drv.PressReturnPattern(), States: []int{0}, Next: 0, Action: fsm.Do(fsm.ASendLine(""))},
		{Event: drv.PasswordPattern(), States: []int{0}, Next: 1, Action: fsm.Do(fsm.ASendPassword(s.hop.Password()))},
		{Event: drv.PasswordPattern(), States: []int{1}, Next: -1, Action: fsm.Do(fsm.AAuthenticationError)},
		{Event: drv.AuthenticationErrorPattern(), States: []int{0, 1}, Next: -1, Action: fsm.Do(fsm.AAuthenticationError)},
		{Event: drv.PromptPattern(), States: []int{0, 1}, Next: -1, Action: fsm.Do(fsm.AExpectedPrompt)},
		{Event: fsm.Timeout, States: []int{0}, Next: -1, Action: fsm.Do(s.timeoutAction)},
	}
	opts := []fsm.Option{}
	if s.lastPattern != nil {
		opts = append(opts, fsm.WithInitPattern(s.lastPattern))
	}
	eng := fsm.New("SSH-AUTH", drv.Device(), events, rows, 30*time.Second, opts...)
	ok, err := eng.Run()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("ssh authenticate: %s", drv.Device().Hostname())
	}
	return nil
}

func (s *ssh) timeoutAction(ctx *fsm.Context) bool {
	if s.hop.IsTarget() {
		return fsm.AConnectionTimeout(ctx)
	}
	return fsm.ASendLine("")(ctx)
}

func (s *ssh) Disconnect(drv Driver) {
	dev := drv.Device()
	dev.Ctrl().SendLine("\x03")
	dev.Ctrl().SendLine("\x04")
}
