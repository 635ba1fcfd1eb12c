// Package nlog is the runtime's leveled logger: a thin wrapper over the
// standard library's log package, in the spirit of aistore's cmn/nlog —
// no structured-logging backend, just prefixed, flushed-on-fatal lines.
package nlog

import (
	"log"
	"os"
)

var std = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lmicroseconds)

func Infoln(v ...any)           { std.Println(append([]any{"I:"}, v...)...) }
func Infof(f string, v ...any)  { std.Printf("I: "+f, v...) }

func Errorln(v ...any)          { std.Println(append([]any{"E:"}, v...)...) }
func Errorf(f string, v ...any) { std.Printf("E: "+f, v...) }

func Warnln(v ...any) { std.Println(append([]any{"W:"}, v...)...) }

// Fatalln logs and calls the process abort hook. Unlike log.Fatalln it
// never calls os.Exit directly, so tests can swap Abort for a recoverable
// stand-in.
func Fatalln(v ...any) {
	std.Println(append([]any{"F:"}, v...)...)
	Abort()
}

// Abort is the process-exit hook used by Fatalln. Overridable for tests.
var Abort = func() { os.Exit(1) }
