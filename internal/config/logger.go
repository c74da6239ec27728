package config

import "github.com/MonkyMars/gecho"

// NewLogger returns the application logger at the given level.
func NewLogger(level string) *gecho.Logger {
	return gecho.NewLogger(gecho.NewConfig(
		gecho.WithShowCaller(true),
		gecho.WithLogLevel(gecho.ParseLogLevel(level)),
	))
}
