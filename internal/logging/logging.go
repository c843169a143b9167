// Package logging wraps github.com/juju/loggo the way the surgemq session
// package does: one named logger per subsystem, level configurable at
// process start.
package logging

import "github.com/juju/loggo"

// Get returns (creating if necessary) the named logger, mirroring
// novatif-surgemq's `loggo.GetLogger("mq.session")` convention. Names are
// dot-namespaced under "broker", e.g. "broker.session", "broker.mqueue".
func Get(name string) loggo.Logger {
	return loggo.GetLogger("broker." + name)
}

// SetLevel sets the log level for the named subsystem logger. An empty
// name sets the root "broker" logger, affecting every subsystem that has
// not overridden its own level.
func SetLevel(name string, level loggo.Level) {
	if name == "" {
		loggo.GetLogger("broker").SetLogLevel(level)
		return
	}
	loggo.GetLogger("broker." + name).SetLogLevel(level)
}
