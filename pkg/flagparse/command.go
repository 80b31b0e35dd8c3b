package flagparse

import "fmt"

// Command is the top-level action selected by the command line.
type Command int

const (
	// None means no action (help was printed or nothing was requested).
	None Command = iota
	// Run executes a sync (directory or file mode, from flags or settings).
	Run
	// Version prints the application version.
	Version
	// AddToPath installs the executable directory into the user PATH.
	AddToPath
)

// String returns the string representation of a Command.
func (c Command) String() string {
	switch c {
	case None:
		return "none"
	case Run:
		return "run"
	case Version:
		return "version"
	case AddToPath:
		return "add-to-path"
	}
	return fmt.Sprintf("unknown_command(%d)", int(c))
}
