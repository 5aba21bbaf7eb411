package fsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newActionCtx(ctrl Controller, dev Device) *Context {
	return &Context{Device: dev, Ctrl: ctrl}
}

func TestASendUsernameSendsWhenSet(t *testing.T) {
	ctrl := &fakeController{}
	dev := &fakeDevice{ctrl: ctrl}
	ctx := newActionCtx(ctrl, dev)

	ok := ASendUsername("admin")(ctx)
	assert.True(t, ok)
	assert.Equal(t, []string{"admin"}, ctrl.sentLn)
}

func TestASendUsernameFailsWhenEmpty(t *testing.T) {
	ctrl := &fakeController{}
	dev := &fakeDevice{ctrl: ctrl}
	ctx := newActionCtx(ctrl, dev)

	ok := ASendUsername("")(ctx)
	assert.False(t, ok)
	assert.True(t, ctx.Finished)
	assert.Equal(t, "Username not set", ctx.Msg)
}

func TestASendPasswordFailsWhenEmpty(t *testing.T) {
	ctrl := &fakeController{}
	dev := &fakeDevice{ctrl: ctrl}
	ctx := newActionCtx(ctrl, dev)

	ok := ASendPassword("")(ctx)
	assert.False(t, ok)
	assert.Equal(t, "Password not set", ctx.Msg)
}

func TestAAuthenticationErrorDisconnectsAndFails(t *testing.T) {
	ctrl := &fakeController{}
	dev := &fakeDevice{ctrl: ctrl}
	ctx := newActionCtx(ctrl, dev)

	ok := AAuthenticationError(ctx)
	assert.False(t, ok)
	assert.True(t, ctx.Finished)
	assert.Equal(t, "Authentication failed", dev.lastError)
}

func TestAUnableToConnectCapturesLastLine(t *testing.T) {
	ctrl := &fakeController{before: "connecting\n", after: "No route to host\n"}
	dev := &fakeDevice{ctrl: ctrl}
	ctx := newActionCtx(ctrl, dev)

	ok := AUnableToConnect(ctx)
	assert.False(t, ok)
	assert.Equal(t, "No route to host", dev.lastError)
	assert.Equal(t, "No route to host", ctx.Msg)
}

func TestAExpectedPromptUpdatesDeviceAndStops(t *testing.T) {
	ctrl := &fakeController{after: "router#"}
	dev := &fakeDevice{ctrl: ctrl}
	ctx := newActionCtx(ctrl, dev)

	ok := AExpectedPrompt(ctx)
	assert.True(t, ok)
	assert.True(t, ctx.Finished)
}

func TestAStaysConnectedIsANoop(t *testing.T) {
	ctrl := &fakeController{}
	dev := &fakeDevice{ctrl: ctrl}
	ctx := newActionCtx(ctrl, dev)

	assert.True(t, AStaysConnected(ctx))
	assert.False(t, ctx.Finished)
}

func TestLastErrOfDefaultsMessage(t *testing.T) {
	err := LastErrOf("router1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Connection error")
	assert.Contains(t, err.Error(), "router1")
}

func TestAUnexpectedPromptFinishesWithError(t *testing.T) {
	ctrl := &fakeController{}
	dev := &fakeDevice{ctrl: ctrl}
	ctx := newActionCtx(ctrl, dev)

	ok := AUnexpectedPrompt(ctx)
	assert.False(t, ok)
	assert.True(t, ctx.Finished)
	assert.Equal(t, "Unexpected prompt", ctx.Msg)
}
