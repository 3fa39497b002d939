package ulog

import "github.com/mitchellh/colorstring"

// User-facing progress lines for the updater: a top-level Task per phase
// with Item/Warn/Fail detail lines below it. They go straight to stdout
// next to the progress bar while the structured record goes to zerolog.

func Task(format string, args ...interface{}) {
	colorstring.Printf("[cyan][bold]::[reset] "+format+"\n", args...)
}

func Item(format string, args ...interface{}) {
	colorstring.Printf("   [green]+[reset] "+format+"\n", args...)
}

func Warn(format string, args ...interface{}) {
	colorstring.Printf("   [yellow]![reset] "+format+"\n", args...)
}

func Fail(format string, args ...interface{}) {
	colorstring.Printf("   [red]x[reset] "+format+"\n", args...)
}
