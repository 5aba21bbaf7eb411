package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryDefaults(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)

	re, err := r.Pattern("generic", "prompt")
	require.NoError(t, err)
	assert.True(t, re.MatchString("router#"))
}

func TestPatternFallsBackToGeneric(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)

	re, err := r.Pattern("NX-OS", "authentication_error")
	require.NoError(t, err)
	assert.True(t, re.MatchString("Permission denied"))
}

func TestPatternListCompositionUnionsAcrossPlatforms(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)

	xe, err := r.Pattern("XE", "prompt")
	require.NoError(t, err)
	ios, err := r.Pattern("IOS", "prompt")
	require.NoError(t, err)
	assert.Equal(t, ios.String(), xe.String())
}

func TestPlatformClassifiesByPromptOrder(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)

	// eXR's prompt pattern is composed from XR's and is tried first in
	// prompt_detection order, so a bare IOS-XR-shaped prompt classifies
	// as eXR, not XR, until something more specific (e.g. the Calvados
	// shell prompt) rules it out.
	platform, ok := r.Platform("RP/0/RSP0/CPU0:router#")
	require.True(t, ok)
	assert.Equal(t, "eXR", platform)
}

func TestPlatformReturnsFalseWhenNothingMatches(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)

	_, ok := r.Platform("")
	assert.False(t, ok)
}

func TestOverlayAddsWithoutDroppingDefaults(t *testing.T) {
	overlay := []byte(`
IOS:
  prompt: 'custom-ios-prompt#\s*$'
`)
	r, err := NewRegistry(overlay)
	require.NoError(t, err)

	text, err := r.Text("IOS", "prompt")
	require.NoError(t, err)
	assert.Equal(t, `custom-ios-prompt#\s*$`, text)

	// Untouched keys from the default document survive the overlay merge.
	_, err = r.Pattern("IOS", "prompt")
	require.NoError(t, err)
}

func TestPlatformsAndNamesEnumerate(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)

	platforms := r.Platforms()
	assert.Contains(t, platforms, "generic")
	assert.Contains(t, platforms, "IOS")

	names := r.Names("generic")
	assert.Contains(t, names, "prompt")
	assert.Contains(t, names, "authentication_error")
}

func TestUnknownPatternIsAnError(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)

	_, err = r.Pattern("generic", "does_not_exist")
	assert.Error(t, err)
}
