package condoor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURLsSingleString(t *testing.T) {
	chains, err := NormalizeURLs("telnet://10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"telnet://10.0.0.1"}}, chains)
}

func TestNormalizeURLsFlatSliceIsOneChain(t *testing.T) {
	chains, err := NormalizeURLs([]string{"telnet://jump", "ssh://target"})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"telnet://jump", "ssh://target"}}, chains)
}

func TestNormalizeURLsNestedSliceIsMultipleChains(t *testing.T) {
	in := [][]string{
		{"telnet://jump1", "ssh://target"},
		{"telnet://jump2", "ssh://target"},
	}
	chains, err := NormalizeURLs(in)
	require.NoError(t, err)
	assert.Equal(t, in, chains)
}

func TestNormalizeURLsMixedInterfaceSlice(t *testing.T) {
	in := []interface{}{
		"ssh://single-hop-chain",
		[]interface{}{"telnet://jump", "ssh://target"},
	}
	chains, err := NormalizeURLs(in)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"ssh://single-hop-chain"},
		{"telnet://jump", "ssh://target"},
	}, chains)
}

func TestNormalizeURLsRejectsUnsupportedShape(t *testing.T) {
	_, err := NormalizeURLs(42)
	assert.Error(t, err)
}

func TestNormalizeURLsRejectsNonStringChainEntries(t *testing.T) {
	in := []interface{}{[]interface{}{42}}
	_, err := NormalizeURLs(in)
	assert.Error(t, err)
}
