// Package flagparse turns the command line into a command and a flag map.
//
// The surface is intentionally small and positional in places
// (`--dir <src> <dst>` takes two operands), so the arguments are scanned
// directly instead of going through the flag package. Only flags the user
// actually set end up in the returned map; the caller overlays them onto the
// persisted settings and defaults.
package flagparse

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/paulschiretz/pgl-sync/pkg/buildinfo"
	"github.com/paulschiretz/pgl-sync/pkg/config"
)

// Parse scans the provided arguments (usually os.Args[1:]) and returns the
// selected command and the map of explicitly set flags.
func Parse(args []string) (Command, map[string]any, error) {
	flagMap := make(map[string]any)
	var ignorePaths []string

	for i := 0; i < len(args); i++ {
		switch arg := args[i]; arg {
		case "--dir":
			if i+2 >= len(args) {
				return None, nil, fmt.Errorf("--dir requires <source_directory> <dest_directory>")
			}
			flagMap["mode"] = config.ModeDir
			flagMap["src"] = args[i+1]
			flagMap["dst"] = args[i+2]
			i += 2
		case "--file":
			if i+2 >= len(args) {
				return None, nil, fmt.Errorf("--file requires <source_file> <dest_directory>")
			}
			flagMap["mode"] = config.ModeFile
			flagMap["src"] = args[i+1]
			flagMap["dst"] = args[i+2]
			i += 2
		case "--ignore":
			if i+1 >= len(args) {
				return None, nil, fmt.Errorf("--ignore requires a path")
			}
			ignorePaths = append(ignorePaths, args[i+1])
			i++
		case "--delete":
			flagMap["delete"] = true
		case "--dry-run":
			flagMap["dry-run"] = true
		case "--verbose":
			flagMap["verbose"] = true
		case "--sha256":
			flagMap["sha256"] = true
		case "--color":
			flagMap["color"] = true
		case "--save-log":
			flagMap["save-log"] = true
		case "--save-settings":
			flagMap["save-settings"] = true
		case "--workers":
			if i+1 >= len(args) {
				return None, nil, fmt.Errorf("--workers requires a positive integer")
			}
			n, err := strconv.Atoi(args[i+1])
			if err != nil || n < 1 {
				return None, nil, fmt.Errorf("--workers requires a positive integer, got %q", args[i+1])
			}
			flagMap["workers"] = n
			i++
		case "--add-to-path":
			return AddToPath, flagMap, nil
		case "--version":
			return Version, flagMap, nil
		case "-h", "--help", "help":
			PrintUsage(os.Stdout)
			return None, nil, nil
		default:
			return None, nil, fmt.Errorf("unknown argument: %s", arg)
		}
	}

	if len(ignorePaths) > 0 {
		flagMap["ignore"] = ignorePaths
	}
	return Run, flagMap, nil
}

// PrintUsage prints the help message.
func PrintUsage(w io.Writer) {
	execName := filepath.Base(os.Args[0])
	fmt.Fprintf(w, "%s(%s) ", buildinfo.Name, buildinfo.Version)
	fmt.Fprintf(w, "A content-aware one-way directory synchronizer.\n\n")
	fmt.Fprintf(w, "Usage:\n")
	fmt.Fprintf(w, "  %s --dir <source_directory> <dest_directory> [options]\n", execName)
	fmt.Fprintf(w, "  %s --file <source_file> <dest_directory> [options]\n\n", execName)
	fmt.Fprintf(w, "Options:\n")
	fmt.Fprintf(w, "  --dir <src> <dst>   Sync a directory tree\n")
	fmt.Fprintf(w, "  --file <src> <dst>  Sync a single file\n")
	fmt.Fprintf(w, "  --ignore <path>     Ignore a source path (repeatable)\n")
	fmt.Fprintf(w, "  --delete            Mirror mode: delete dest items missing in source\n")
	fmt.Fprintf(w, "  --dry-run           Show operations without applying changes\n")
	fmt.Fprintf(w, "  --verbose           Verbose output (per-entry operation lines)\n")
	fmt.Fprintf(w, "  --sha256            Use SHA-256 fingerprints (enables move detection)\n")
	fmt.Fprintf(w, "  --workers <n>       Maximum concurrent file copies\n")
	fmt.Fprintf(w, "  --color             Colored output\n")
	fmt.Fprintf(w, "  --save-log          Append operations to pgl-sync.log\n")
	fmt.Fprintf(w, "  --save-settings     Save arguments to %s\n", "pgl-sync.settings.json")
	fmt.Fprintf(w, "  --add-to-path       [Windows] add tool to user PATH\n")
	fmt.Fprintf(w, "  --version           Print the application version\n")
	fmt.Fprintf(w, "  -h, --help          Show help\n")
}
