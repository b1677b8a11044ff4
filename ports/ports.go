// Package ports finds candidate serial devices for a USB cellular modem by
// matching device names against the naming conventions of common USB to
// serial chipsets.
package ports

import (
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultRoot is the directory searched for device nodes.
const DefaultRoot = "/dev"

// Patterns are matched against entries of the root directory, in order.
var patterns = [...]string{
	"*usbmodem*",
	"*usbserial*",
	"*SLAB_USBtoUART*",
	"*cu.SLAB_USBtoUART*",
	"*cu.usbserial*",
}

// fallbackPattern is used only when none of the patterns match.
const fallbackPattern = "cu.*"

// preferred name fragments identify known adapter types.
var preferred = [...]string{"usbmodem", "usbserial", "SLAB", "cu.SLAB"}

// Finder lists candidate device paths below Root.
type Finder struct {
	// Root is the directory holding device nodes. Empty means DefaultRoot.
	Root string
	// Logger receives debug output. Nil disables logging.
	Logger *slog.Logger
}

func (f Finder) root() string {
	if f.Root == "" {
		return DefaultRoot
	}
	return f.Root
}

func (f Finder) glob(pattern string) []string {
	matches, err := filepath.Glob(filepath.Join(f.root(), pattern))
	if err != nil {
		// Only malformed patterns fail, and ours are fixed.
		if f.Logger != nil {
			f.Logger.Error("Invalid port pattern", "pattern", pattern, "error", err)
		}
		return nil
	}
	return matches
}

// List returns the deduplicated, lexicographically sorted candidate paths.
func (f Finder) List() []string {
	var found []string
	for _, pattern := range patterns {
		found = append(found, f.glob(pattern)...)
	}
	if len(found) == 0 {
		found = f.glob(fallbackPattern)
	}

	slices.Sort(found)
	found = slices.Compact(found)

	if f.Logger != nil {
		f.Logger.Debug("Discovered candidate ports", "root", f.root(), "ports", found)
	}
	return found
}

// ChooseAuto picks a port from List using Choose.
func (f Finder) ChooseAuto() (string, bool) {
	return Choose(f.List())
}

// Choose returns the first candidate whose name contains a known adapter
// fragment, or the first candidate when none does. It reports false when
// candidates is empty. Candidates are expected in sorted order.
func Choose(candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	for _, p := range candidates {
		for _, frag := range preferred {
			if strings.Contains(p, frag) {
				return p, true
			}
		}
	}
	return candidates[0], true
}

// List returns the candidate ports below DefaultRoot.
func List() []string {
	return Finder{}.List()
}

// ChooseAuto picks a port below DefaultRoot.
func ChooseAuto() (string, bool) {
	return Finder{}.ChooseAuto()
}
