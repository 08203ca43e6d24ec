// Package logging constructs the process-wide structured logger shared by
// the server and sweep binaries.
package logging

import "go.uber.org/zap"

// New builds a production zap logger, or a development logger (human
// readable, debug level) when dev is true.
func New(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
