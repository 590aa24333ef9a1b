package flattree

import "fmt"

// Mode selects how far an expand or collapse gesture reaches. Exactly one
// mode is active per direction at a time; it is chosen by explicit
// configuration before the tree is used, never inferred from a call site.
type Mode int

const (
	// ModeSingle operates on the target node only.
	ModeSingle Mode = iota

	// ModeRecursive extends the operation to every descendant directory,
	// depth-first, each producing its own splice and notification.
	ModeRecursive

	// ModeMainRecursive behaves like ModeRecursive when the target is a
	// top-level node (the root or a direct child of it) and like ModeSingle
	// everywhere else.
	ModeMainRecursive
)

// ParseMode converts a configuration string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "single":
		return ModeSingle, nil
	case "recursive":
		return ModeRecursive, nil
	case "main-recursive":
		return ModeMainRecursive, nil
	}
	return ModeSingle, fmt.Errorf("unknown mode %q", s)
}

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeRecursive:
		return "recursive"
	case ModeMainRecursive:
		return "main-recursive"
	default:
		return "single"
	}
}
