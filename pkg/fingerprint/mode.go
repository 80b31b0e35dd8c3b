package fingerprint

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paulschiretz/pgl-sync/pkg/util"
)

// Mode selects the fingerprinting scheme for a run.
type Mode string

const (
	// Fast uses the partial FNV-1a-64 scheme. Cheap, but only trusted for
	// non-destructive decisions.
	Fast Mode = "fast"
	// Strong uses full-content SHA-256 and enables move detection.
	Strong Mode = "strong"
)

var modeToString = map[Mode]string{Fast: "fast", Strong: "strong"}
var stringToMode map[string]Mode

func init() {
	stringToMode = util.InvertMap(modeToString)
}

// String returns the string representation of a Mode.
func (m Mode) String() string {
	if str, ok := modeToString[m]; ok {
		return str
	}
	return fmt.Sprintf("unknown_hash_mode(%s)", string(m))
}

// ParseMode parses a string and returns the corresponding Mode.
func ParseMode(s string) (Mode, error) {
	if mode, ok := stringToMode[strings.ToLower(s)]; ok {
		return mode, nil
	}
	return "", fmt.Errorf("invalid hash mode: %q. Must be 'fast' or 'strong'", s)
}

// MarshalJSON implements the json.Marshaler interface for Mode.
func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for Mode.
func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("Mode should be a string, got %s", data)
	}
	mode, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}
