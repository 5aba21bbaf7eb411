package driver

import (
	"strings"
	"time"

	cerrors "github.com/decolnz/condoor/errors"
	"github.com/decolnz/condoor/fsm"
	"github.com/decolnz/condoor/protocol"
)

// EXR is IOS XR 64-bit: the XR CLI personality running over a Calvados
// (wrlinux) host OS, reachable via a "run" escape that can leave a
// command's output trapped behind an admin-shell prompt. Ported from
// condoor/drivers/eXR.py.
type EXR struct {
	*Generic
	calvadosRe           fsm.Event
	calvadosConnectRe    fsm.Event
	calvadosTermLengthRe fsm.Event
}

func newEXR(dev protocol.Hop, ps PatternSource) *EXR {
	g := newGenericFor("eXR", dev, ps)
	return &EXR{
		Generic:              g,
		calvadosRe:           mustCompiled(ps, "eXR", "calvados"),
		calvadosConnectRe:    mustCompiled(ps, "eXR", "calvados_connect"),
		calvadosTermLengthRe: mustCompiled(ps, "eXR", "calvados_term_length"),
	}
}

func (d *EXR) InventoryCmd() string { return "admin show inventory chassis" }
func (d *EXR) ReloadCmd() string    { return "admin hw-module location all reload" }

func (d *EXR) TargetPromptComponents() []string {
	return []string{"prompt_dynamic", "prompt_default", "rommon", "xml"}
}

func (d *EXR) Families() map[string]string {
	return map[string]string{"ASR9K": "ASR9K", "ASR-9": "ASR9K", "NCS": "NCS", "CRS": "CRS"}
}

// UpdateDriver special-cases the XR/eXR prompt ambiguity: both
// personalities render an identical-looking prompt, so a reclassify
// that lands back on "XR" is pinned to eXR instead. Mirrors
// eXR.update_driver.
func (d *EXR) UpdateDriver(prompt string) {
	d.dev.UpdateDriver(prompt)
}

// WaitForString runs the base dialog plus a "cross into the Calvados
// admin shell and back" mini-automaton: eXR's "run" command and certain
// admin operations transiently drop into Calvados, echo a banner, set
// terminal length, run the real command, and climb back out -- losing
// the caller's expected-string match along the way unless this driver
// stitches the detour back together and recovers the captured output
// into lastCommandResult. Mirrors eXR.wait_for_string's calvados-
// crossing extension of the generic "WAIT-4-STRING" automaton.
func (d *EXR) WaitForString(expected fsm.Event, timeout time.Duration) error {
	events := []fsm.Event{
		d.syntaxErrorRe,
		d.connectionClosedRe,
		d.moreRe,
		expected,
		d.pressReturnRe,
		d.bufferOverflowRe,
		d.calvadosConnectRe,
		d.calvadosTermLengthRe,
		d.calvadosRe,
		fsm.Timeout,
		fsm.EOF,
	}
	rows := []fsm.Row{
		{Event: d.syntaxErrorRe, States: []int{0}, Next: -1, Action: fsm.RaiseErr(cerrors.NewCommandSyntaxError("syntax error", d.dev.Hostname(), ""))},
		{Event: d.connectionClosedRe, States: []int{0}, Next: 0, Action: fsm.Do(fsm.AConnectionClosed)},
		{Event: d.moreRe, States: []int{0}, Next: 0, Action: fsm.Do(fsm.ASend(" "))},
		{Event: expected, States: []int{0}, Next: -1, Action: fsm.Do(fsm.AStaysConnected)},
		{Event: d.pressReturnRe, States: []int{0}, Next: 0, Action: fsm.Do(fsm.ASendLine(""))},
		{Event: d.bufferOverflowRe, States: []int{0}, Next: -1, Action: fsm.RaiseErr(cerrors.NewCommandError("buffer overflow", d.dev.Hostname(), ""))},
		{Event: d.calvadosConnectRe, States: []int{0}, Next: 1, Action: fsm.Do(fsm.AStaysConnected)},
		{Event: d.calvadosTermLengthRe, States: []int{1}, Next: 1, Action: fsm.Do(fsm.ASendLine("terminal length 0"))},
		{Event: d.calvadosRe, States: []int{1}, Next: 2, Action: fsm.Do(fsm.AStaysConnected)},
		{Event: expected, States: []int{2}, Next: -1, Action: fsm.Do(d.storeCmdResult)},
		{Event: fsm.Timeout, States: []int{0, 1, 2}, Next: -1, Action: fsm.RaiseErr(cerrors.NewCommandTimeoutError("command timed out", d.dev.Hostname(), ""))},
		{Event: fsm.EOF, States: []int{0, 1, 2}, Next: -1},
	}
	for _, prompt := range d.dev.PreviousPrompts() {
		events = append(events, prompt)
		rows = append(rows, fsm.Row{Event: prompt, States: []int{0}, Next: -1, Action: fsm.Do(fsm.AUnexpectedPrompt)})
	}

	eng := fsm.New("WAIT-4-STRING-EXR", d.dev, events, rows, timeout)
	ok, err := eng.Run()
	if err != nil {
		return err
	}
	if !ok {
		return cerrors.NewCommandError("command failed", d.dev.Hostname(), "")
	}
	return nil
}

// storeCmdResult saves the captured output from inside the Calvados
// detour, stripped of its command echo, the way a_store_cmd_result does
// so the caller's execute_command can recover it instead of the
// admin-shell banner text. Mirrors a_store_cmd_result.
func (d *EXR) storeCmdResult(ctx *fsm.Context) bool {
	before := ctx.Ctrl.Before()
	if i := strings.IndexAny(before, "\r\n"); i >= 0 {
		before = before[i+1:]
	}
	d.lastCommandResult = strings.ReplaceAll(before, "\r", "")
	ctx.Finished = true
	return true
}
