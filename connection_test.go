package condoor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/decolnz/condoor/cache"
	"github.com/decolnz/condoor/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.CacheDir = t.TempDir()
	return cfg
}

func TestNewBuildsOneChainPerURLBundle(t *testing.T) {
	conn, err := New("r1", [][]string{
		{"ssh://admin:pw@10.0.0.1"},
		{"telnet://jump@10.0.0.2", "ssh://admin:pw@10.0.0.3"},
	}, WithConfig(testConfig(t)))
	require.NoError(t, err)

	assert.Len(t, conn.chains, 2)
	assert.Len(t, conn.chains[0].devices, 1)
	assert.Len(t, conn.chains[1].devices, 2)
	assert.True(t, conn.chains[0].devices[0].isTarget)
	assert.False(t, conn.chains[1].devices[0].isTarget)
	assert.True(t, conn.chains[1].devices[1].isTarget)
}

func TestNewRejectsEmptyBundleList(t *testing.T) {
	_, err := New("r1", nil, WithConfig(testConfig(t)))
	assert.Error(t, err)
}

func TestNewRejectsUnparseableHopURL(t *testing.T) {
	_, err := New("r1", [][]string{{"http://10.0.0.1"}}, WithConfig(testConfig(t)))
	assert.Error(t, err)
}

func TestChainIndicesRotateFromLastSuccessful(t *testing.T) {
	conn, err := New("r1", [][]string{
		{"ssh://a"}, {"ssh://b"}, {"ssh://c"},
	}, WithConfig(testConfig(t)))
	require.NoError(t, err)

	conn.lastChainIndex = 1
	assert.Equal(t, []int{1, 2, 0}, conn.chainIndices())
}

func TestDigestIsOrderSensitiveAcrossChains(t *testing.T) {
	connA, err := New("r1", [][]string{{"ssh://a"}, {"ssh://b"}}, WithConfig(testConfig(t)))
	require.NoError(t, err)
	connB, err := New("r1", [][]string{{"ssh://b"}, {"ssh://a"}}, WithConfig(testConfig(t)))
	require.NoError(t, err)

	assert.NotEqual(t, connA.digest(), connB.digest())
}

func TestApplyRecordRestoresLastChainAndDeviceInfo(t *testing.T) {
	conn, err := New("r1", [][]string{{"ssh://a"}, {"ssh://b"}}, WithConfig(testConfig(t)))
	require.NoError(t, err)

	rec := &cache.Record{
		LastChain: 1,
		Chains: []cache.ChainRecord{
			{Devices: []map[string]interface{}{{"os_type": "IOS"}}},
			{Devices: []map[string]interface{}{{"os_type": "XR"}}},
		},
	}
	conn.applyRecord(rec)

	assert.Equal(t, 1, conn.lastChainIndex)
	assert.Equal(t, "IOS", conn.chains[0].devices[0].osType)
	assert.Equal(t, "XR", conn.chains[1].devices[0].osType)
}

func TestRecordRoundTripsThroughApplyRecord(t *testing.T) {
	conn, err := New("r1", [][]string{{"ssh://a"}}, WithConfig(testConfig(t)))
	require.NoError(t, err)

	conn.chains[0].devices[0].osType = "NX-OS"
	conn.lastChainIndex = 0

	rec := conn.record()
	assert.Equal(t, "NX-OS", rec.Chains[0].Devices[0]["os_type"])

	fresh, err := New("r1", [][]string{{"ssh://a"}}, WithConfig(testConfig(t)))
	require.NoError(t, err)
	fresh.applyRecord(rec)
	assert.Equal(t, "NX-OS", fresh.chains[0].devices[0].osType)
}

func TestEmitMessageInvokesCallback(t *testing.T) {
	var got []string
	var gotLevel zapcore.Level
	conn, err := New("r1", [][]string{{"ssh://a"}}, WithConfig(testConfig(t)), WithMessageCallback(func(level zapcore.Level, m string) {
		gotLevel = level
		got = append(got, m)
	}))
	require.NoError(t, err)

	conn.emitMessage(zapcore.WarnLevel, "hello")
	assert.Equal(t, []string{"hello"}, got)
	assert.Equal(t, zapcore.WarnLevel, gotLevel)
}
