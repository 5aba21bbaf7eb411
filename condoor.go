// Package condoor drives chained telnet/SSH sessions to network devices,
// detecting the platform on the other end and automating the command
// dialog needed to talk to it.
package condoor

import "go.uber.org/zap"

func init() {
	Logger = zap.NewNop()
}

// Logger is the package-wide structured logger. It defaults to a no-op
// logger; callers that want diagnostics swap in zap.NewDevelopment() or
// zap.NewProduction() before connecting, the same way cmd/condoor does
// with its -v flag.
var Logger *zap.Logger

// Version is the condoor module version reported by cmd/condoor.
const Version = "2.0.0"
