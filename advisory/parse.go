package advisory

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var tokens = map[string]Bias{
	"stand-on":       StandOn,
	"turn-starboard": TurnStarboard,
	"turn-port":      TurnPort,
}

var actions = map[string]Bias{
	"stand on, no action":         StandOn,
	"give-way, turn to starboard": TurnStarboard,
	"give-way, turn to port":      TurnPort,
}

var situations = map[string]bool{
	"head-on":    true,
	"overtaking": true,
	"crossing":   true,
}

// Rule 15 (crossing), Action: Give-way, turn to starboard, explanation: ...
var officerRe = regexp.MustCompile(`(?is)^rule\s+(\d+)\s*\(\s*([\w-]+)\s*\)\s*,\s*action:\s*(.+?)\s*(?:,\s*explanation:.*)?$`)

// ParseBias validates a raw advisor answer. It accepts the canonical tokens
// and the officer phrasing "Rule N (situation), Action: <action>, ...".
func ParseBias(raw string) (Bias, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return StandOn, fmt.Errorf("%w: empty", ErrInvalidResponse)
	}
	if b, ok := tokens[strings.ToLower(s)]; ok {
		return b, nil
	}

	m := officerRe.FindStringSubmatch(s)
	if m == nil {
		return StandOn, fmt.Errorf("%w: %q", ErrInvalidResponse, truncate(s, 80))
	}
	if !situations[strings.ToLower(m[2])] {
		return StandOn, fmt.Errorf("%w: unknown situation %q", ErrInvalidResponse, m[2])
	}
	b, ok := actions[strings.ToLower(strings.Join(strings.Fields(m[3]), " "))]
	if !ok {
		return StandOn, fmt.Errorf("%w: unknown action %q", ErrInvalidResponse, m[3])
	}
	return b, nil
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
