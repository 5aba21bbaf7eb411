package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionErrorFormatsWithHost(t *testing.T) {
	err := NewConnectionError("timed out", "router1")
	assert.Equal(t, "router1: timed out", err.Error())
}

func TestGeneralErrorFormatsWithoutHost(t *testing.T) {
	err := NewInvalidHopInfoError("bad url")
	assert.Equal(t, "bad url", err.Error())
}

func TestConnectionAuthenticationErrorUnwrapsToConnectionError(t *testing.T) {
	err := NewConnectionAuthenticationError("login incorrect", "router1")

	var connErr *ConnectionError
	assert.True(t, errors.As(err, &connErr))
	assert.Equal(t, "router1", connErr.Host)
}

func TestCommandSyntaxErrorCarriesCommand(t *testing.T) {
	err := NewCommandSyntaxError("invalid input", "router1", "shw ver")
	assert.Contains(t, err.Error(), "invalid input")

	var cmdErr *CommandError
	assert.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "shw ver", cmdErr.Command)
}
