package condoor

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/decolnz/condoor/controller"
	"github.com/decolnz/condoor/driver"
	cerrors "github.com/decolnz/condoor/errors"
	"github.com/decolnz/condoor/fsm"
	"github.com/decolnz/condoor/hopinfo"
	"github.com/decolnz/condoor/internal/util"
	"github.com/decolnz/condoor/pattern"
	"github.com/decolnz/condoor/protocol"
)

// Device is one hop in a Chain: either a jumphost passed through on the
// way to the target, or the target itself, which alone goes through
// full discovery. Ported from condoor/device.py's Device class.
type Device struct {
	chain    *Chain
	hop      *hopinfo.HopInfo
	hostname string
	isTarget bool

	patterns *pattern.Registry
	drv      driver.Driver
	ctrl     *controller.Controller

	prompt      string
	promptRe    *regexp.Regexp
	connected   bool
	lastError   string
	configMode  string
	osType      string
	osVersion   string
	family      string
	hwPlatform  string
	isConsole   bool
	udi         UDI

	versionText, hostnameText, inventoryText, usersText *string
}

// UDI is the parsed "show inventory" chassis record. Ported from
// condoor/utils.py's parse_inventory.
type UDI struct {
	Name        string
	Description string
	PID         string
	VID         string
	SN          string
}

// newDevice builds a Device for hop within chain. driverName is
// "jumphost" for every hop but the last, and "generic" for the target
// until discovery narrows it down, matching chain.py's device_gen.
func newDevice(chain *Chain, hop *hopinfo.HopInfo, driverName string, isTarget bool) *Device {
	d := &Device{
		chain:      chain,
		hop:        hop,
		hostname:   fmt.Sprintf("%s:%d", hop.Host, hop.Port),
		isTarget:   isTarget,
		patterns:   chain.connection.patterns,
		configMode: "global",
	}
	d.drv = driver.New(driverName, d, d.patterns)
	return d
}

// fsm.Device / protocol.Hop

func (d *Device) Hostname() string            { return d.hostname }
func (d *Device) Ctrl() fsm.Controller         { return d.ctrl }
func (d *Device) Username() string            { return d.hop.Username }
func (d *Device) Password() string            { return d.hop.Password }
func (d *Device) Port() int                   { return d.hop.Port }
func (d *Device) IsTarget() bool              { return d.isTarget }
func (d *Device) SetConnected(v bool)         { d.connected = v }
func (d *Device) SetLastError(msg string)     { d.lastError = msg }
func (d *Device) EmitMessage(message string)  { d.chain.connection.emitMessage(zapcore.InfoLevel, message) }

// UpdateDriver reclassifies the device's driver off of a freshly
// observed prompt and swaps the active driver if the platform changed.
// Mirrors Device.update_driver / the driver_name property setter.
func (d *Device) UpdateDriver(prompt string) {
	d.prompt = prompt
	platform, ok := d.patterns.Platform(prompt)
	if !ok {
		platform = "generic"
	}
	if d.drv == nil || d.drv.Platform() != platform {
		d.drv = driver.New(platform, d, d.patterns)
	}
	d.refreshPromptRe()
}

func (d *Device) refreshPromptRe() {
	if d.prompt == "" {
		return
	}
	text := d.drv.MakeDynamicPrompt(d.prompt)
	if text == "" {
		return
	}
	re, err := regexp.Compile(text)
	if err != nil {
		return
	}
	d.promptRe = re
}

// UpdateConfigMode classifies the device's current mode off of its last
// known prompt. Mirrors Device.update_config_mode.
func (d *Device) UpdateConfigMode() {
	d.configMode = d.drv.UpdateConfigMode(d.prompt)
}

// UpdateHostname extracts the hostname capture group from the device's
// prompt pattern. Mirrors Device.update_hostname.
func (d *Device) UpdateHostname() {
	re, err := d.patterns.Pattern(d.drv.Platform(), "prompt")
	if err != nil {
		return
	}
	m := re.FindStringSubmatch(d.prompt)
	if m == nil {
		return
	}
	for i, name := range re.SubexpNames() {
		if name == "hostname" && i < len(m) {
			d.hostname = m[i]
			return
		}
	}
}

// PreviousPrompts returns the never-matches sentinel plus every prior
// hop's dynamic prompt in this device's chain, so a driver's
// wait_for_string can recognize an unexpected bounce backward. Mirrors
// Chain.get_previous_prompts.
func (d *Device) PreviousPrompts() []fsm.Event {
	return d.chain.getPreviousPrompts(d)
}

// connect drives this hop's login sequence: spawn or reuse the shared
// controller, run the protocol adapter's connect+authenticate FSMs,
// detect the prompt if unknown, and -- for the target only -- run full
// discovery. Mirrors Device.connect.
func (d *Device) connect(ctrl *controller.Controller) error {
	d.ctrl = ctrl

	proto, err := protocol.New(d.protocolName(), d)
	if err != nil {
		return err
	}
	if err := ctrl.SpawnSession(proto.Command()); err != nil {
		return err
	}

	if err := proto.Connect(d.drv); err != nil {
		return err
	}
	if err := proto.Authenticate(d.drv); err != nil {
		return err
	}

	if d.prompt == "" {
		prompt, err := ctrl.DetectPrompt()
		if err != nil {
			return err
		}
		d.UpdateDriver(prompt)
	}

	d.connected = true

	if !d.isTarget {
		d.updateOSVersion()
		d.UpdateHostname()
		return nil
	}
	return d.connectedToTarget()
}

// protocolName appends "_console" when this hop is console-attached,
// matching Device.get_protocol_name.
func (d *Device) protocolName() string {
	base := "ssh"
	if d.hop.Protocol == "telnet" {
		base = "telnet"
	}
	if d.isConsole {
		return base + "_console"
	}
	return base
}

// connectedToTarget runs the full discovery sequence the target alone
// goes through: driver refresh, terminal prep, OS/version/UDI/family/
// platform/console discovery, then privilege escalation. Mirrors
// Device._connected_to_target.
func (d *Device) connectedToTarget() error {
	if crossed, err := d.drv.AfterConnect(); err != nil {
		return err
	} else if crossed {
		// after_connect stepped out of an unintended admin shell; the
		// device's prompt needs rediscovery before continuing.
		prompt, err := d.ctrl.DetectPrompt()
		if err != nil {
			return err
		}
		d.UpdateDriver(prompt)
	}

	for _, cmd := range d.drv.PrepareTerminalSessionCmds() {
		if err := d.ctrl.SendLine(cmd); err != nil {
			return err
		}
		if err := d.drv.WaitForString(d.promptEvent(), 10*time.Second); err != nil {
			var syn *cerrors.CommandSyntaxError
			if !asSyntaxErr(err, &syn) {
				return err
			}
		}
	}

	d.updateOSType()
	d.updateOSVersion()
	d.UpdateUDI()
	d.updateFamily()
	d.updatePlatform()
	d.updateConsole()

	return d.Enable(d.enablePassword())
}

func asSyntaxErr(err error, target **cerrors.CommandSyntaxError) bool {
	se, ok := err.(*cerrors.CommandSyntaxError)
	if ok {
		*target = se
	}
	return ok
}

func (d *Device) promptEvent() fsm.Event {
	if d.promptRe != nil {
		return d.promptRe
	}
	re, _ := d.patterns.Pattern(d.drv.Platform(), "prompt")
	return re
}

func (d *Device) enablePassword() string {
	if d.hop.EnablePassword != "" {
		return d.hop.EnablePassword
	}
	return d.hop.Password
}

// Enable escalates to privileged mode via the active driver. Mirrors
// Device.enable.
func (d *Device) Enable(enablePassword string) error {
	return d.drv.Enable(enablePassword)
}

// Reload issues the driver's reload command (unless noReloadCmd) and
// runs its reload dialog. Mirrors Device.reload.
func (d *Device) Reload(timeout time.Duration, saveConfig, noReloadCmd bool) error {
	if !noReloadCmd && d.drv.ReloadCmd() != "" {
		if err := d.ctrl.SendLine(d.drv.ReloadCmd()); err != nil {
			return err
		}
	}
	return d.drv.Reload(timeout, saveConfig)
}

func (d *Device) updateOSType() {
	text, err := d.drv.GetVersionText()
	if err != nil {
		return
	}
	v := text
	d.versionText = &v
	d.osType = d.drv.GetOSType(text)
	if d.osType != d.drv.Platform() {
		d.drv = driver.New(d.osType, d, d.patterns)
	}
	d.refreshPromptRe()
}

func (d *Device) updateOSVersion() {
	text := d.versionTextCached()
	if text == "" {
		return
	}
	d.osVersion = d.drv.GetOSVersion(text)
}

func (d *Device) versionTextCached() string {
	if d.versionText != nil {
		return *d.versionText
	}
	text, err := d.drv.GetVersionText()
	if err != nil {
		return ""
	}
	d.versionText = &text
	return text
}

// UpdateUDI parses the device's "show inventory" output into its
// chassis record. Mirrors Device.update_udi.
func (d *Device) UpdateUDI() {
	cmd := d.drv.InventoryCmd()
	if cmd == "" {
		return
	}
	out, err := d.runDiscoveryCommand(cmd)
	if err != nil {
		return
	}
	d.inventoryText = &out
	d.udi = parseInventory(out)
}

func (d *Device) runDiscoveryCommand(cmd string) (string, error) {
	if err := d.ctrl.SendLine(cmd); err != nil {
		return "", err
	}
	if err := d.drv.WaitForString(d.promptEvent(), 30*time.Second); err != nil {
		return "", err
	}
	return util.StripCommandEcho(d.ctrl.Before()), nil
}

func (d *Device) updateFamily() {
	text := d.versionTextCached()
	if text == "" {
		return
	}
	d.family = d.drv.GetHWFamily(text)
}

func (d *Device) updatePlatform() {
	text := d.versionTextCached()
	if text == "" {
		return
	}
	d.hwPlatform = d.drv.GetHWPlatform(text)
}

func (d *Device) updateConsole() {
	cmd := d.drv.UsersCmd()
	if cmd == "" {
		return
	}
	out, err := d.runDiscoveryCommand(cmd)
	if err != nil {
		return
	}
	d.usersText = &out
	d.isConsole = d.drv.IsConsole(out)
}

// Send executes cmd against this device and returns its output.
// Mirrors Device.send / Device.execute_command.
func (d *Device) Send(cmd string, timeout time.Duration) (string, error) {
	if err := d.ctrl.SendLine(cmd); err != nil {
		return "", cerrors.NewConnectionError(err.Error(), d.hostname)
	}
	if err := d.drv.WaitForString(d.promptEvent(), timeout); err != nil {
		return "", err
	}
	out := util.StripCommandEcho(d.ctrl.Before())
	return strings.ReplaceAll(out, "\r", ""), nil
}

// Disconnect closes out this device's view of the session (the shared
// controller is torn down by the owning Chain).
func (d *Device) Disconnect() {
	d.connected = false
}

// DeviceInfo returns a serializable snapshot used by the cache. Mirrors
// Device.device_info.
func (d *Device) DeviceInfo() map[string]interface{} {
	return map[string]interface{}{
		"family":      d.family,
		"platform":    d.hwPlatform,
		"os_type":     d.osType,
		"os_version":  d.osVersion,
		"driver_name": d.drv.Platform(),
		"mode":        d.configMode,
		"is_console":  d.isConsole,
		"is_target":   d.isTarget,
		"prompt":      d.prompt,
		"hostname":    d.hostname,
		"udi": map[string]string{
			"name": d.udi.Name, "description": d.udi.Description,
			"pid": d.udi.PID, "vid": d.udi.VID, "sn": d.udi.SN,
		},
	}
}

// ApplyDeviceInfo restores a cached snapshot. Mirrors the device_info
// property setter.
func (d *Device) ApplyDeviceInfo(info map[string]interface{}) {
	if v, ok := info["family"].(string); ok {
		d.family = v
	}
	if v, ok := info["platform"].(string); ok {
		d.hwPlatform = v
	}
	if v, ok := info["os_type"].(string); ok {
		d.osType = v
	}
	if v, ok := info["os_version"].(string); ok {
		d.osVersion = v
	}
	if v, ok := info["mode"].(string); ok {
		d.configMode = v
	}
	if v, ok := info["is_console"].(bool); ok {
		d.isConsole = v
	}
	if v, ok := info["prompt"].(string); ok {
		d.prompt = v
	}
	if v, ok := info["hostname"].(string); ok {
		d.hostname = v
	}
}
