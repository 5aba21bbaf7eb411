package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/decolnz/condoor/fsm"
)

func TestIndexOfFindsEventByIdentity(t *testing.T) {
	a, b := fsm.Event("a"), fsm.Event("b")
	events := []fsm.Event{a, b, fsm.Timeout}

	assert.Equal(t, 1, indexOf(events, b))
	assert.Equal(t, 2, indexOf(events, fsm.Timeout))
	assert.Equal(t, -1, indexOf(events, fsm.EOF))
}

func TestSplitLinesHandlesTrailingAndEmptyInput(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitLines("a\nb\nc"))
	assert.Equal(t, []string{"a", "b", ""}, splitLines("a\nb\n"))
	assert.Equal(t, []string{""}, splitLines(""))
}
