//go:build !windows

package progress

import "os"

// enableWindowsANSI is a no-op on Unix-like systems; their terminals
// handle ANSI natively.
func enableWindowsANSI(f *os.File) {}
