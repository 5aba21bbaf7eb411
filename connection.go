// Package condoor implements chained telnet/SSH connections to network
// devices, automatic device identification, and command-dialog
// automation across heterogeneous vendor CLIs. Ported from the condoor
// Python package; see SPEC_FULL.md for the full module map.
package condoor

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/decolnz/condoor/cache"
	"github.com/decolnz/condoor/config"
	cerrors "github.com/decolnz/condoor/errors"
	"github.com/decolnz/condoor/hopinfo"
	"github.com/decolnz/condoor/pattern"
)

// Connection is the top-level facade: a named endpoint reachable via one
// or more alternative chains, the last-successful one remembered across
// calls. Ported from condoor/connection.py's Connection class.
type Connection struct {
	name           string
	chains         []*Chain
	lastChainIndex int

	cfg         *config.Config
	patterns    *pattern.Registry
	cacheStore  *cache.Store
	sessionSink io.Writer

	msgCallback func(level zapcore.Level, message string)
	correlation string
}

// Option configures a Connection at construction.
type Option func(*Connection)

// WithConfig overrides the default configuration.
func WithConfig(cfg *config.Config) Option { return func(c *Connection) { c.cfg = cfg } }

// WithPatternOverlay merges a YAML pattern overlay document into the
// default registry.
func WithPatternOverlay(overlay []byte) Option {
	return func(c *Connection) {
		reg, err := pattern.NewRegistry(overlay)
		if err == nil {
			c.patterns = reg
		}
	}
}

// WithSessionSink directs the raw session transcript (after credential
// redaction) to sink instead of the default, os.Stderr when LogSession
// is enabled.
func WithSessionSink(sink io.Writer) Option { return func(c *Connection) { c.sessionSink = sink } }

// WithMessageCallback registers a progress-message callback, the
// msg_callback property in the original, carrying the zap level each
// line would otherwise have been logged at.
func WithMessageCallback(cb func(level zapcore.Level, message string)) Option {
	return func(c *Connection) { c.msgCallback = cb }
}

// New builds a Connection named name for urlBundles, each inner slice
// one alternative chain of hop URLs tried in order (jumphosts first,
// target last). Mirrors Connection.__init__ plus
// utils.normalize_urls's acceptance of a list of hop-url lists.
func New(name string, urlBundles [][]string, opts ...Option) (*Connection, error) {
	c := &Connection{
		name:        name,
		cfg:         config.Default(),
		correlation: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.patterns == nil {
		reg, err := pattern.NewRegistry(nil)
		if err != nil {
			return nil, err
		}
		c.patterns = reg
	}
	if c.sessionSink == nil {
		if c.cfg.LogSession {
			c.sessionSink = os.Stderr
		} else {
			c.sessionSink = io.Discard
		}
	}
	store, err := cache.New(c.cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	c.cacheStore = store

	for _, urls := range urlBundles {
		hops := make([]*hopinfo.HopInfo, 0, len(urls))
		for _, u := range urls {
			hop, err := hopinfo.Parse(u)
			if err != nil {
				return nil, err
			}
			hops = append(hops, hop)
		}
		chain, err := newChain(c, hops)
		if err != nil {
			return nil, err
		}
		c.chains = append(c.chains, chain)
	}
	if len(c.chains) == 0 {
		return nil, cerrors.NewInvalidHopInfoError("no chains configured")
	}
	return c, nil
}

func (c *Connection) chain() *Chain { return c.chains[c.lastChainIndex] }

// chainIndices returns every chain index starting from lastChainIndex,
// wrapping around, the round-robin order connect()/reconnect() retry
// chains in. Mirrors Connection._chain_indices' deque rotation.
func (c *Connection) chainIndices() []int {
	n := len(c.chains)
	order := make([]int, n)
	for i := 0; i < n; i++ {
		order[i] = (c.lastChainIndex + i) % n
	}
	return order
}

func (c *Connection) digest() string {
	reprs := make([]string, len(c.chains))
	for i, ch := range c.chains {
		reprs[i] = ch.String()
	}
	return cache.Digest(reprs)
}

// emitMessage reports progress at level, tagging every line with this
// Connection's correlation ID so concurrent connections interleaved in
// one log stream can be told apart -- condoor's message callback plus a
// supplemented correlation ID, since the original relied on one global
// logger per process.
func (c *Connection) emitMessage(level zapcore.Level, message string) {
	if c.msgCallback != nil {
		c.msgCallback(level, message)
	}
	if ce := Logger.Check(level, message); ce != nil {
		ce.Write(zap.String("correlation_id", c.correlation), zap.String("connection", c.name))
	}
}

// Connect logs into the first chain that succeeds, in round-robin order
// starting from the last chain that worked. Mirrors Connection.connect.
func (c *Connection) Connect(forceDiscovery bool) error {
	if forceDiscovery {
		c.cacheStore.Clear(c.digest())
	} else if rec, err := c.cacheStore.Read(c.digest()); err == nil && rec != nil {
		c.applyRecord(rec)
	}

	indices := c.chainIndices()
	var lastErr error
	for n, idx := range indices {
		c.emitMessage(zapcore.InfoLevel, fmt.Sprintf("Connection chain %d/%d: %s", n+1, len(indices), c.chains[idx].String()))
		if err := c.chains[idx].Connect(); err != nil {
			c.emitMessage(zapcore.WarnLevel, fmt.Sprintf("Chain %d/%d failed: %v", n+1, len(indices), err))
			lastErr = err
			continue
		}
		c.lastChainIndex = idx
		c.cacheStore.Write(c.digest(), c.record())
		return nil
	}
	if lastErr == nil {
		lastErr = cerrors.NewConnectionError("unable to connect", c.name)
	}
	return lastErr
}

// Reconnect retries connecting for up to maxTimeout, sleeping between
// attempts and rotating which chain is tried first after each failure.
// Mirrors Connection.reconnect.
func (c *Connection) Reconnect(maxTimeout time.Duration, forceDiscovery bool) error {
	deadline := time.Now().Add(maxTimeout)
	var lastErr error
	for time.Now().Before(deadline) {
		if err := c.Connect(forceDiscovery); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if ch := c.chain(); ch != nil && ch.ctrl != nil {
			if prompt, err := ch.ctrl.DetectPrompt(); err == nil {
				if idx := ch.DeviceIndexForPrompt(prompt); idx >= 0 {
					ch.TailDisconnect(idx)
				}
			}
		}

		c.lastChainIndex = (c.lastChainIndex - 1 + len(c.chains)) % len(c.chains)

		remaining := time.Until(deadline)
		sleep := 30 * time.Second
		if remaining < sleep {
			sleep = remaining
		}
		if sleep <= 0 {
			break
		}
		time.Sleep(sleep)
	}
	if lastErr == nil {
		lastErr = cerrors.NewConnectionTimeoutError("reconnect timed out", c.name)
	}
	return lastErr
}

// Disconnect tears down the current chain's session.
func (c *Connection) Disconnect() { c.chain().Disconnect() }

// Discovery forces a fresh connect-then-disconnect cycle purely to
// refresh cached device info. Mirrors the deprecated
// Connection.discovery wrapper.
func (c *Connection) Discovery() error {
	if err := c.Connect(true); err != nil {
		return err
	}
	c.Disconnect()
	return nil
}

// Send executes cmd against the current chain's target device.
func (c *Connection) Send(cmd string, timeout time.Duration) (string, error) {
	return c.chain().Send(cmd, timeout)
}

// Enable escalates to privileged mode on the target device.
func (c *Connection) Enable(enablePassword string) error {
	return c.chain().TargetDevice().Enable(enablePassword)
}

// Reload reloads the target device.
func (c *Connection) Reload(timeout time.Duration, saveConfig, noReloadCmd bool) error {
	return c.chain().TargetDevice().Reload(timeout, saveConfig, noReloadCmd)
}

// SetMessageCallback registers or clears the progress callback.
func (c *Connection) SetMessageCallback(cb func(level zapcore.Level, message string)) {
	c.msgCallback = cb
}

// IsConnected reports whether the current chain's target is logged in.
func (c *Connection) IsConnected() bool { return c.chain().IsConnected() }

// Hostname returns the current chain's target hostname.
func (c *Connection) Hostname() string { return c.chain().TargetDevice().hostname }

// Prompt returns the current chain's target's last known prompt.
func (c *Connection) Prompt() string { return c.chain().TargetDevice().prompt }

// OSType returns the current chain's target OS type.
func (c *Connection) OSType() string { return c.chain().TargetDevice().osType }

// OSVersion returns the current chain's target OS version.
func (c *Connection) OSVersion() string { return c.chain().TargetDevice().osVersion }

// Family returns the current chain's target hardware family.
func (c *Connection) Family() string { return c.chain().TargetDevice().family }

// Platform returns the driver currently governing the target device,
// reusing "platform" the way Connection.mode does in the original
// (a hardware-family synonym, not the config-mode meaning Device.mode
// carries).
func (c *Connection) Platform() string { return c.chain().TargetDevice().drv.Platform() }

// UDI returns the current chain's target chassis inventory record.
func (c *Connection) UDI() UDI { return c.chain().TargetDevice().udi }

func (c *Connection) record() *cache.Record {
	rec := &cache.Record{LastChain: c.lastChainIndex}
	for _, ch := range c.chains {
		cr := cache.ChainRecord{}
		for _, d := range ch.devices {
			cr.Devices = append(cr.Devices, d.DeviceInfo())
		}
		rec.Chains = append(rec.Chains, cr)
	}
	return rec
}

func (c *Connection) applyRecord(rec *cache.Record) {
	if rec == nil {
		for _, ch := range c.chains {
			ch.Update(nil)
		}
		return
	}
	c.lastChainIndex = rec.LastChain
	for i, cr := range rec.Chains {
		if i >= len(c.chains) {
			break
		}
		c.chains[i].Update(cr.Devices)
	}
}
