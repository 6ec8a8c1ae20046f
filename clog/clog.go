// Package clog is the structured-logging seam shared by climiter and recur
// for the "unhandled-task signal" case: an operation error that has no
// onError to route to. It mirrors the package-level, overridable logger
// pattern (global default, swappable via SetLogger), but backs the default
// with a real structured-logging library instead of a hand-rolled writer.
package clog

import (
	"os"
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

var (
	globalMu sync.RWMutex
	global   = stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
	)
)

// SetLogger replaces the package-level logger used by Error/Debug.
func SetLogger(l *logiface.Logger[*stumpy.Event]) {
	globalMu.Lock()
	global = l
	globalMu.Unlock()
}

func current() *logiface.Logger[*stumpy.Event] {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// Error logs an unrouted operation error at error level, tagged with
// component (e.g. "climiter", "recur").
func Error(component string, err error) {
	current().Err().Str(`component`, component).Err(err).Log(`unrouted operation error`)
}

// Debug logs a low-volume diagnostic message, tagged with component.
func Debug(component, msg string) {
	current().Debug().Str(`component`, component).Log(msg)
}
