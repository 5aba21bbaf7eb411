package condoor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decolnz/condoor/config"
)

func TestChainStringOrdersHopsWithArrows(t *testing.T) {
	cfg := config.Default()
	cfg.CacheDir = t.TempDir()
	conn, err := New("r1", [][]string{{"telnet://jump@10.0.0.1", "ssh://admin@10.0.0.2"}}, WithConfig(cfg))
	require.NoError(t, err)

	s := conn.chains[0].String()
	assert.Contains(t, s, "telnet://jump@10.0.0.1:23")
	assert.Contains(t, s, "ssh://admin@10.0.0.2:22")
	assert.Contains(t, s, " -> ")
}

func TestTargetDeviceIsLastHop(t *testing.T) {
	cfg := config.Default()
	cfg.CacheDir = t.TempDir()
	conn, err := New("r1", [][]string{{"telnet://jump@10.0.0.1", "ssh://admin@10.0.0.2"}}, WithConfig(cfg))
	require.NoError(t, err)

	target := conn.chains[0].TargetDevice()
	assert.Equal(t, "10.0.0.2:22", target.hostname)
	assert.True(t, target.isTarget)
}

func TestGetPreviousPromptsIncludesSentinelAndEarlierHops(t *testing.T) {
	cfg := config.Default()
	cfg.CacheDir = t.TempDir()
	conn, err := New("r1", [][]string{{"telnet://jump@10.0.0.1", "ssh://admin@10.0.0.2"}}, WithConfig(cfg))
	require.NoError(t, err)

	chain := conn.chains[0]
	jump, target := chain.devices[0], chain.devices[1]

	prompts := chain.getPreviousPrompts(target)
	assert.Equal(t, neverMatches, prompts[0])
	assert.Len(t, prompts, 1) // jump's promptRe is nil until it connects

	jump.promptRe = neverMatches
	prompts = chain.getPreviousPrompts(target)
	assert.Len(t, prompts, 2)
}

func TestDeviceIndexForPromptMatchesEarliestDevice(t *testing.T) {
	cfg := config.Default()
	cfg.CacheDir = t.TempDir()
	conn, err := New("r1", [][]string{{"telnet://jump@10.0.0.1", "ssh://admin@10.0.0.2"}}, WithConfig(cfg))
	require.NoError(t, err)

	chain := conn.chains[0]
	chain.devices[0].promptRe = neverMatches
	chain.devices[1].promptRe = neverMatches

	assert.Equal(t, -1, chain.DeviceIndexForPrompt("anything"))
}

func TestTailDisconnectMarksLaterDevicesDisconnected(t *testing.T) {
	cfg := config.Default()
	cfg.CacheDir = t.TempDir()
	conn, err := New("r1", [][]string{{"telnet://jump@10.0.0.1", "ssh://admin@10.0.0.2"}}, WithConfig(cfg))
	require.NoError(t, err)

	chain := conn.chains[0]
	chain.devices[0].connected = true
	chain.devices[1].connected = true

	chain.TailDisconnect(0)
	assert.True(t, chain.devices[0].connected)
	assert.False(t, chain.devices[1].connected)
}

func TestChainUpdateWithNilDataClearsDevices(t *testing.T) {
	cfg := config.Default()
	cfg.CacheDir = t.TempDir()
	conn, err := New("r1", [][]string{{"ssh://admin@10.0.0.2"}}, WithConfig(cfg))
	require.NoError(t, err)

	chain := conn.chains[0]
	chain.devices[0].osType = "IOS"

	chain.Update(nil)
	assert.Empty(t, chain.devices[0].osType)
}
