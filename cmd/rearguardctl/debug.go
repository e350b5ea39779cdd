//go:build debug

package main

import "log"

// debugLog is only compiled in with -tags debug, printing every main
// loop iteration's Urbanite state for off-target inspection.
func debugLog(format string, args ...any) {
	log.Printf(format, args...)
}
