// Package controller wraps a single PTY-driven child process (telnet or
// ssh) behind the expect-style interface condoor's FSM engine and drivers
// are built on. Ported from condoor/controller.py, which wraps
// pexpect.spawn the same way this wraps expect.GExpect.
package controller

import (
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"time"

	"github.com/creack/pty"
	expect "github.com/google/goexpect"

	cerrors "github.com/decolnz/condoor/errors"
	"github.com/decolnz/condoor/fsm"
	"github.com/decolnz/condoor/internal/util"
)

const (
	maxRead          = 65536
	searchWindowSize = 4000
	delayBeforeSend  = 300 * time.Millisecond
	minCols          = 160
	minRows          = 1024
)

// Controller owns the PTY-backed child process for one hop's connection
// attempt and every hop spawned through it via SpawnSession.
type Controller struct {
	hostname string
	sink     io.Writer

	cmd     *exec.Cmd
	ptyFile interface {
		io.ReadWriteCloser
	}
	session *expect.GExpect
	resultC <-chan error

	connected bool
	before    string
	after     string
}

// New returns a Controller that writes its session transcript to sink
// (wrapped in a RedactingWriter by the caller, per condoor's credential
// redaction policy) and reports errors tagged with hostname.
func New(hostname string, sink io.Writer) *Controller {
	if sink == nil {
		sink = io.Discard
	}
	return &Controller{hostname: hostname, sink: NewRedactingWriter(sink)}
}

// Hostname returns the hop hostname the controller was created for.
func (c *Controller) Hostname() string { return c.hostname }

// IsConnected reports whether the underlying child process is alive and
// Spawn/SpawnSession previously succeeded.
func (c *Controller) IsConnected() bool {
	return c.connected && c.session != nil
}

// Spawn starts command ("telnet host port" or "ssh ... host") under a
// pty sized to at least 160x1024, matching the terminal-window widening
// condoor/controller.py performs before any dialog begins.
func (c *Controller) Spawn(command string) error {
	cmd := exec.Command("sh", "-c", command)
	cmd.Env = append(cmd.Env, "TERM=VT100")

	ptyFile, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: minRows, Cols: minCols})
	if err != nil {
		return cerrors.NewConnectionError(fmt.Sprintf("spawn failed: %v", err), c.hostname)
	}

	session, resultC, err := expect.SpawnGeneric(&expect.GenOptions{
		In:  ptyFile,
		Out: ptyFile,
		Wait: func() error {
			return cmd.Wait()
		},
		Close: ptyFile.Close,
		Check: func() bool { return cmd.ProcessState == nil },
	}, -1, expect.Verbose(false), expect.PartialMatch(true))
	if err != nil {
		ptyFile.Close()
		return cerrors.NewConnectionError(fmt.Sprintf("spawn failed: %v", err), c.hostname)
	}

	c.cmd = cmd
	c.ptyFile = ptyFile
	c.session = session
	c.resultC = resultC
	c.connected = true
	return nil
}

// SpawnSession reuses the live session to jump to the next hop (sending
// command into the already-open shell and confirming the echo) or spawns
// a fresh process if there is none yet, matching
// Controller.spawn_session in the original.
func (c *Controller) SpawnSession(command string) error {
	if c.IsConnected() {
		if err := c.Send(command); err != nil {
			return cerrors.NewConnectionError("connection error", c.hostname)
		}
		if _, _, err := c.session.Expect(regexp.MustCompile(regexp.QuoteMeta(command)), 20*time.Second); err != nil {
			return cerrors.NewConnectionTimeoutError("timeout", c.hostname)
		}
		return c.SendLine("")
	}
	return c.Spawn(command)
}

// Send writes raw text to the session (no trailing newline).
func (c *Controller) Send(s string) error {
	if c.session == nil {
		return cerrors.NewConnectionError("not connected", c.hostname)
	}
	if _, err := io.WriteString(c.sink, s); err != nil {
		return err
	}
	time.Sleep(delayBeforeSend)
	return c.session.Send(s)
}

// SendLine writes text followed by a newline.
func (c *Controller) SendLine(s string) error { return c.Send(s + "\r\n") }

// SendCommand sends cmd, waits for the session to echo it back, then
// sends a trailing newline -- the confirm-before-newline dance
// Controller.send_command performs before a driver starts expecting a
// reply.
func (c *Controller) SendCommand(cmd string) error {
	if err := c.Send(cmd); err != nil {
		return err
	}
	if _, _, err := c.session.Expect(regexp.MustCompile(regexp.QuoteMeta(cmd)), 15*time.Second); err != nil {
		// Non-fatal: some devices swallow local echo. Proceed anyway.
	}
	return c.SendLine("")
}

// Expect implements fsm.Controller. events may contain *regexp.Regexp,
// fsm.Timeout, and fsm.EOF. It blocks until one matches, the timeout
// elapses, or the child process exits, returning that event's index the
// same way pexpect.expect() does when TIMEOUT/EOF are explicit members
// of the pattern list.
func (c *Controller) Expect(events []fsm.Event, timeout time.Duration, _ int) (int, error) {
	if c.session == nil {
		return -1, cerrors.NewConnectionError("not connected", c.hostname)
	}

	cases := make([]expect.Caser, 0, len(events))
	caseToEvent := make([]int, 0, len(events))
	for i, e := range events {
		re, ok := e.(*regexp.Regexp)
		if !ok {
			continue
		}
		cases = append(cases, &expect.Case{R: re, T: expect.OK()})
		caseToEvent = append(caseToEvent, i)
	}

	out, idx, _, err := c.session.ExpectSwitchCase(cases, timeout)
	if err != nil {
		if err == io.EOF {
			if i := indexOf(events, fsm.EOF); i >= 0 {
				return i, nil
			}
			return -1, io.EOF
		}
		// Treat every other expect error (including deadline exceeded) as
		// the timeout event when the FSM table declared one.
		if i := indexOf(events, fsm.Timeout); i >= 0 {
			return i, nil
		}
		return -1, err
	}

	if idx < 0 || idx >= len(caseToEvent) {
		return -1, fmt.Errorf("controller: unmatched expect case")
	}

	// ExpectSwitchCase returns the whole buffer consumed up to and
	// including the match, not split into pexpect's before/after halves.
	// Re-locate the match inside it so Before() carries only the output
	// that precedes the matched pattern.
	if loc := cases[idx].R.FindStringIndex(out); loc != nil {
		c.before = out[:loc[0]]
		c.after = out[loc[0]:loc[1]]
	} else {
		c.before = out
		c.after = ""
	}
	return caseToEvent[idx], nil
}

func indexOf(events []fsm.Event, target fsm.Event) int {
	for i, e := range events {
		if e == target {
			return i
		}
	}
	return -1
}

// Before returns the text preceding the most recent match.
func (c *Controller) Before() string { return c.before }

// After returns the text that matched the most recent Expect.
func (c *Controller) After() string { return c.after }

// Disconnect force-closes the underlying pty and child process.
func (c *Controller) Disconnect() {
	if c.session != nil {
		c.session.Close()
	}
	c.connected = false
}

// TryReadPrompt reads whatever text arrives within a short, escalating
// window, the same heuristic condoor/controller.py borrows from
// pexpect.pxssh's try_read_prompt: read until a quiet gap, return what
// accumulated.
func (c *Controller) tryReadPrompt(timeoutMultiplier float64) string {
	firstChar := time.Duration(timeoutMultiplier*2) * time.Second
	re := regexp.MustCompile(`[\s\S]*`)
	out, _, err := c.session.Expect(re, firstChar)
	if err != nil {
		return ""
	}
	return out
}

// DetectPrompt implements the double-sendline, Levenshtein-convergence
// prompt-detection algorithm of condoor/controller.py's detect_prompt,
// backing off the read window by 1.2x each of up to 10 attempts.
func (c *Controller) DetectPrompt() (string, error) {
	syncMultiplier := 4.0
	c.SendLine("")
	c.tryReadPrompt(syncMultiplier)

	const maxAttempts = 10
	for attempt := 0; attempt < maxAttempts; attempt++ {
		c.SendLine("")
		first := c.tryReadPrompt(syncMultiplier)

		c.SendLine("")
		second := c.tryReadPrompt(syncMultiplier)

		syncMultiplier *= 1.2
		if len(first) == 0 {
			continue
		}

		distance := util.LevenshteinDistance(first, second)
		if float64(distance)/float64(len(first)) < 0.3 {
			lines := splitLines(second)
			prompt := lines[len(lines)-1]
			compiled := regexp.MustCompile(`(\r\n|\n\r)` + regexp.QuoteMeta(prompt))
			c.SendLine("")
			if _, _, err := c.session.Expect(compiled, 10*time.Second); err != nil {
				return "", cerrors.NewConnectionTimeoutError("prompt detection failed", c.hostname)
			}
			return prompt, nil
		}
	}
	return "", cerrors.NewConnectionError("unable to detect prompt", c.hostname)
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}
