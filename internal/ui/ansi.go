package ui

import "github.com/charmbracelet/x/ansi"

// StripANSI removes all ANSI escape codes from a string
func StripANSI(s string) string {
	return ansi.Strip(s)
}
