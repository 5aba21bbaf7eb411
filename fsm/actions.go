package fsm

import (
	"strings"

	cerrors "github.com/decolnz/condoor/errors"
)

// The functions below are the shared FSM action bodies every connect,
// authenticate, and reload table wires into its transitions. Ported from
// condoor/actions.py. They only touch the Device/Controller interfaces,
// so they live here rather than in protocol or driver, which both
// depend on fsm but must not depend on each other.

// lastLine returns the final non-empty line of s, the "most recent
// banner line" extraction actions.py performs via before+after slicing.
func lastLine(s string) string {
	s = strings.TrimRight(s, "\r\n")
	if i := strings.LastIndexAny(s, "\r\n"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// ASendLine sends text plus a newline. Mirrors a_send_line.
func ASendLine(text string) ActionFunc {
	return func(ctx *Context) bool {
		ctx.Ctrl.SendLine(text)
		return true
	}
}

// ASend sends text with no trailing newline. Mirrors a_send.
func ASend(text string) ActionFunc {
	return func(ctx *Context) bool {
		ctx.Ctrl.Send(text)
		return true
	}
}

// ASendUsername sends the supplied username, or fails the connection if
// none is configured. Mirrors a_send_username.
func ASendUsername(username string) ActionFunc {
	return func(ctx *Context) bool {
		if username == "" {
			ctx.Ctrl.Disconnect()
			ctx.Msg = "Username not set"
			ctx.Finished = true
			return false
		}
		ctx.Ctrl.SendLine(username)
		return true
	}
}

// ASendPassword sends the supplied password, or fails the connection if
// none is configured. Mirrors a_send_password.
func ASendPassword(password string) ActionFunc {
	return func(ctx *Context) bool {
		if password == "" {
			ctx.Ctrl.Disconnect()
			ctx.Msg = "Password not set"
			ctx.Finished = true
			return false
		}
		ctx.Ctrl.SendLine(password)
		return true
	}
}

// AAuthenticationError disconnects and fails with an authentication
// error. Mirrors a_authentication_error.
func AAuthenticationError(ctx *Context) bool {
	ctx.Ctrl.Disconnect()
	ctx.Device.SetLastError("Authentication failed")
	ctx.Finished = true
	return false
}

// AUnableToConnect records the banner as the device's last error and
// fails the FSM non-fatally -- the caller decides whether that is fatal
// for the whole connection attempt. Mirrors a_unable_to_connect.
func AUnableToConnect(ctx *Context) bool {
	msg := lastLine(ctx.Ctrl.Before() + ctx.Ctrl.After())
	ctx.Device.SetLastError(msg)
	ctx.Msg = msg
	return false
}

// AStandbyConsole marks the device console-attached to a standby RP and
// raises, matching a_standby_console's pattern of finishing the FSM via
// an explicit error rather than a false return.
func AStandbyConsole(ctx *Context) bool {
	return raiseConnectionError(ctx, "Standby console")
}

func raiseConnectionError(ctx *Context, msg string) bool {
	ctx.Msg = msg
	ctx.Finished = true
	return false
}

// ADisconnect tears down the controller. Mirrors a_disconnect.
func ADisconnect(ctx *Context) bool {
	ctx.Ctrl.Disconnect()
	return true
}

// AConnectionClosed marks the device disconnected but lets the FSM keep
// running, so a jumphost prompt appearing right after can still be
// matched. Mirrors a_connection_closed.
func AConnectionClosed(ctx *Context) bool {
	ctx.Device.SetConnected(false)
	return true
}

// AStaysConnected is a no-op transition used purely to keep the FSM
// alive on a benign match. Mirrors a_stays_connected.
func AStaysConnected(ctx *Context) bool { return true }

// AUnexpectedPrompt finishes the FSM and signals a hard error -- used
// when a previous hop's prompt reappears mid-dialog. Mirrors
// a_unexpected_prompt.
func AUnexpectedPrompt(ctx *Context) bool {
	ctx.Msg = "Unexpected prompt"
	ctx.Finished = true
	return false
}

// AConnectionTimeout finishes the FSM on a timeout that the caller
// considers unrecoverable. Mirrors a_connection_timeout.
func AConnectionTimeout(ctx *Context) bool {
	ctx.Msg = "Connection timeout"
	ctx.Finished = true
	return false
}

// AExpectedPrompt is the generic "we found the device's own prompt"
// success action: refresh the driver/config-mode/hostname off of it and
// stop. Mirrors a_expected_prompt.
func AExpectedPrompt(ctx *Context) bool {
	prompt := lastLine(ctx.Ctrl.After())
	ctx.Device.UpdateDriver(prompt)
	ctx.Device.UpdateConfigMode()
	ctx.Device.UpdateHostname()
	ctx.Finished = true
	return true
}

// LastErrOf returns msg wrapped as a ConnectionError tagged with host,
// the conversion run() performs whenever an action both finishes the
// FSM and leaves a message rather than raising directly.
func LastErrOf(host, msg string) error {
	if msg == "" {
		msg = "Connection error"
	}
	return cerrors.NewConnectionError(msg, host)
}
