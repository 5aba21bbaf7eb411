package driver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decolnz/condoor/fsm"
)

func TestIOSReloadSendsConfigSaveThenConfirms(t *testing.T) {
	reg := newTestRegistry(t)
	ctrl := &fakeCtrl{}
	hop := &fakeHop{ctrl: ctrl, hostname: "r1"}
	d := newIOS(hop, reg)

	require.NoError(t, d.Reload(time.Second, true))
	assert.Equal(t, []string{"copy running-config startup-config", "", "reload", ""}, ctrl.sentLn)
}

func TestIOSReloadWithoutSaveSkipsCopy(t *testing.T) {
	reg := newTestRegistry(t)
	ctrl := &fakeCtrl{}
	hop := &fakeHop{ctrl: ctrl, hostname: "r1"}
	d := newIOS(hop, reg)

	require.NoError(t, d.Reload(time.Second, false))
	assert.Equal(t, []string{"reload", ""}, ctrl.sentLn)
}

func TestXRReloadConfirmsThenWaitsForPrompt(t *testing.T) {
	reg := newTestRegistry(t)
	ctrl := &fakeCtrl{script: []int{3}} // index 3 == expected (driver's own prompt) in WaitForString's table
	hop := &fakeHop{ctrl: ctrl, hostname: "r1"}
	d := newXR(hop, reg)

	require.NoError(t, d.Reload(time.Second, false))
	assert.Equal(t, []string{"admin reload location all", ""}, ctrl.sentLn)
}

func TestNXOSReloadConfirmsWithY(t *testing.T) {
	reg := newTestRegistry(t)
	ctrl := &fakeCtrl{}
	hop := &fakeHop{ctrl: ctrl, hostname: "r1"}
	d := newNXOS(hop, reg)

	require.NoError(t, d.Reload(time.Second, true))
	assert.Equal(t, []string{"copy running-config startup-config", "", "reload", "y"}, ctrl.sentLn)
}

func TestWindriverGetOSTypeIsAlwaysWindriver(t *testing.T) {
	reg := newTestRegistry(t)
	hop := &fakeHop{ctrl: &fakeCtrl{}, hostname: "r1"}
	d := newWindriver(hop, reg)

	assert.Equal(t, "Windriver", d.GetOSType("anything at all"))
}

func TestWindriverGetVersionTextSendsCatIssue(t *testing.T) {
	reg := newTestRegistry(t)
	// script[0] == 3 == "expected" (the driver's own prompt) in
	// sendAndCapture's WaitForString pass.
	ctrl := &fakeCtrl{script: []int{3}}
	hop := &fakeHop{ctrl: ctrl, hostname: "r1"}
	d := newWindriver(hop, reg)

	_, err := d.GetVersionText()
	require.NoError(t, err)
	assert.Equal(t, []string{"cat /etc/issue"}, ctrl.sentLn)
}

func TestJumphostGetHostnameTextSwallowsCommandError(t *testing.T) {
	reg := newTestRegistry(t)
	ctrl := &fakeCtrl{script: []int{3}}
	hop := &fakeHop{ctrl: ctrl, hostname: "r1"}
	d := newJumphost(hop, reg)

	text, ok := d.GetHostnameText()
	assert.True(t, ok)
	assert.Equal(t, []string{"hostname"}, ctrl.sentLn)
	_ = text
}

func TestJumphostGetHostnameTextReturnsFalseOnCommandError(t *testing.T) {
	reg := newTestRegistry(t)
	// script[0] == 0 == "syntax_error" in sendAndCapture's WaitForString
	// pass, surfacing as a CommandSyntaxError that GetHostnameText swallows.
	ctrl := &fakeCtrl{script: []int{0}}
	hop := &fakeHop{ctrl: ctrl, hostname: "r1"}
	d := newJumphost(hop, reg)

	_, ok := d.GetHostnameText()
	assert.False(t, ok)
}

func TestCalvadosAfterConnectExitsWhenConnectedLocally(t *testing.T) {
	reg := newTestRegistry(t)
	ctrl := &fakeCtrl{before: "Connected from 10.0.0.1 using ssh on console"}
	hop := &fakeHop{ctrl: ctrl, hostname: "r1"}
	d := newCalvados(hop, reg)

	exited, err := d.AfterConnect()
	require.NoError(t, err)
	assert.True(t, exited)
	assert.Contains(t, ctrl.sentLn, "exit")
}

func TestCalvadosAfterConnectStaysWhenNotLocal(t *testing.T) {
	reg := newTestRegistry(t)
	ctrl := &fakeCtrl{before: "router#"}
	hop := &fakeHop{ctrl: ctrl, hostname: "r1"}
	d := newCalvados(hop, reg)

	exited, err := d.AfterConnect()
	require.NoError(t, err)
	assert.False(t, exited)
	assert.NotContains(t, ctrl.sentLn, "exit")
}

func TestEXRWaitForStringCrossesIntoCalvadosAndBack(t *testing.T) {
	reg := newTestRegistry(t)
	// event order in EXR.WaitForString's events slice:
	// 0 syntax_error, 1 connection_closed, 2 more, 3 expected,
	// 4 press_return, 5 buffer_overflow, 6 calvados_connect,
	// 7 calvados_term_length, 8 calvados, 9/10 timeout/eof.
	ctrl := &fakeCtrl{script: []int{6, 7, 8, 3}}
	hop := &fakeHop{ctrl: ctrl, hostname: "r1"}
	d := newEXR(hop, reg)

	err := d.WaitForString("router#", time.Second)
	require.NoError(t, err)
	assert.Contains(t, ctrl.sentLn, "terminal length 0")
}

func TestEXRStoreCmdResultStripsFirstLine(t *testing.T) {
	reg := newTestRegistry(t)
	ctrl := &fakeCtrl{before: "show version\r\nCisco IOS XR Software\r\n"}
	hop := &fakeHop{ctrl: ctrl, hostname: "r1"}
	d := newEXR(hop, reg)

	ctx := &fsm.Context{Ctrl: ctrl}
	ok := d.storeCmdResult(ctx)

	assert.True(t, ok)
	assert.True(t, ctx.Finished)
	assert.Equal(t, "Cisco IOS XR Software\n", d.lastCommandResult)
}
