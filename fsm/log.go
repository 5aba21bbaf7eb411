package fsm

import "go.uber.org/zap"

// Logger is the package-level logger for FSM transitions. condoor.go
// repoints it at the shared condoor.Logger once the caller configures
// one, the same pattern flipchan-marionette uses for its own
// package-level Logger.
var Logger = zap.NewNop()
