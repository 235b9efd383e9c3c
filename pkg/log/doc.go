// Package log is the small leveled logger used across gigs.
//
// Every component asks for a named logger once and keeps it:
//
//	l := log.ForService("gigapi")
//	l.Infof("GET %s", path)
//	l.Debugf("raw body: %s", body) // only when debug is on for "gigapi"
//
// Names are rendered as a bracketed prefix (`[gigapi]`) so output stays easy
// to grep. Child loggers created with Named share the parent's level switch
// and render as `[browse/default]`.
//
// Debug output can be enabled globally (SetGlobalDebug, the CLI --debug flag)
// or for a single service (EnableDebugFor). The minimum level for everything
// else comes from the config file's log_level key via SetLevel.
//
// The package name collides with the standard library on purpose; alias one
// of them when both are needed:
//
//	import (
//		stdlog "log"
//		"github.com/gigglobal/gigs/pkg/log"
//	)
//
// Tests redirect output with SetOutput and a bytes.Buffer.
package log
