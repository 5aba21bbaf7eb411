package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decolnz/condoor/fsm"
)

// fakeCtrl scripts a fixed sequence of Expect results, the same pattern
// fsm's own tests use to drive an Engine without a real session.
type fakeCtrl struct {
	script  []int
	sent    []string
	sentLn  []string
	spawned []string
}

func (c *fakeCtrl) Send(s string) error     { c.sent = append(c.sent, s); return nil }
func (c *fakeCtrl) SendLine(s string) error { c.sentLn = append(c.sentLn, s); return nil }
func (c *fakeCtrl) Expect(events []fsm.Event, timeout time.Duration, searchWindow int) (int, error) {
	idx := c.script[0]
	c.script = c.script[1:]
	return idx, nil
}
func (c *fakeCtrl) Before() string { return "" }
func (c *fakeCtrl) After() string  { return "" }
func (c *fakeCtrl) Disconnect()    {}
func (c *fakeCtrl) SpawnSession(command string) error {
	c.spawned = append(c.spawned, command)
	return nil
}

type fakeHop struct {
	ctrl     *fakeCtrl
	hostname string
	username string
	password string
	port     int
	isTarget bool
}

func (h *fakeHop) Hostname() string             { return h.hostname }
func (h *fakeHop) Ctrl() fsm.Controller         { return h.ctrl }
func (h *fakeHop) UpdateDriver(string)          {}
func (h *fakeHop) UpdateConfigMode()            {}
func (h *fakeHop) UpdateHostname()              {}
func (h *fakeHop) PreviousPrompts() []fsm.Event { return nil }
func (h *fakeHop) SetConnected(bool)            {}
func (h *fakeHop) SetLastError(string)          {}
func (h *fakeHop) EmitMessage(string)           {}
func (h *fakeHop) Username() string             { return h.username }
func (h *fakeHop) Password() string             { return h.password }
func (h *fakeHop) Port() int                    { return h.port }
func (h *fakeHop) IsTarget() bool               { return h.isTarget }

type fakeDriver struct {
	hop Hop
}

func (d *fakeDriver) Device() Hop                         { return d.hop }
func (d *fakeDriver) PromptPattern() fsm.Event             { return "prompt" }
func (d *fakeDriver) UsernamePattern() fsm.Event           { return "username" }
func (d *fakeDriver) PasswordPattern() fsm.Event           { return "password" }
func (d *fakeDriver) AuthenticationErrorPattern() fsm.Event { return "auth_error" }
func (d *fakeDriver) MorePattern() fsm.Event               { return "more" }
func (d *fakeDriver) PressReturnPattern() fsm.Event        { return "press_return" }
func (d *fakeDriver) RommonPattern() fsm.Event             { return "rommon" }
func (d *fakeDriver) UnableToConnectPattern() fsm.Event    { return "unable_to_connect" }
func (d *fakeDriver) StandbyPattern() fsm.Event            { return "standby" }

func TestTelnetConnectThenAuthenticateSucceeds(t *testing.T) {
	ctrl := &fakeCtrl{script: []int{3, 1, 4}}
	hop := &fakeHop{ctrl: ctrl, hostname: "r1", username: "admin", password: "secret", port: 23, isTarget: true}
	drv := &fakeDriver{hop: hop}

	tn := newTelnet(hop)
	require.NoError(t, tn.Connect(drv))
	assert.Equal(t, "username", tn.LastPattern())

	require.NoError(t, tn.Authenticate(drv))
	assert.Equal(t, []string{"secret"}, ctrl.sentLn[len(ctrl.sentLn)-1:])
}

func TestTelnetCommandFormatsHostAndPort(t *testing.T) {
	hop := &fakeHop{hostname: "10.0.0.1", port: 23}
	tn := newTelnet(hop)
	assert.Equal(t, "telnet 10.0.0.1 23", tn.Command())
}

func TestTelnetAuthenticateFailsWithNoUsername(t *testing.T) {
	ctrl := &fakeCtrl{script: []int{0}} // username pattern, but hop has no username configured
	hop := &fakeHop{ctrl: ctrl, hostname: "r1", isTarget: true}
	drv := &fakeDriver{hop: hop}

	tn := newTelnet(hop)
	err := tn.Authenticate(drv)
	assert.Error(t, err)
}

func TestNewDispatchesKnownProtocols(t *testing.T) {
	hop := &fakeHop{ctrl: &fakeCtrl{}}
	for _, name := range []string{"telnet", "telnet_console", "ssh", "ssh_console"} {
		adapter, err := New(name, hop)
		require.NoError(t, err)
		assert.NotEmpty(t, adapter.Command())
	}
}

func TestNewRejectsUnknownProtocol(t *testing.T) {
	hop := &fakeHop{ctrl: &fakeCtrl{}}
	_, err := New("rlogin", hop)
	assert.Error(t, err)
}
