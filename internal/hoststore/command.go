package hoststore

import (
	"fmt"
	"strconv"
	"strings"
)

// CommandPrefix marks a rendered link action on the host's in-page-link
// bridge. The full command shape is "linked_card:<card_id>:<reviewed_bool>".
const CommandPrefix = "linked_card"

// Command is one decoded link activation.
type Command struct {
	CardID   int64
	Reviewed bool
}

// String encodes the command for embedding into rendered markup.
func (c Command) String() string {
	return fmt.Sprintf("%s:%d:%t", CommandPrefix, c.CardID, c.Reviewed)
}

// IsLinkCommand reports whether a bridge command belongs to this tool.
func IsLinkCommand(raw string) bool {
	return strings.HasPrefix(raw, CommandPrefix+":")
}

// ParseCommand decodes a bridge command. Malformed commands (wrong token
// count, non-integer identifier) are rejected with an error so the caller
// can report a format problem instead of crashing the render surface.
func ParseCommand(raw string) (Command, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 || parts[0] != CommandPrefix {
		return Command{}, fmt.Errorf("command format error: %q", raw)
	}
	cardID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Command{}, fmt.Errorf("command card id is not an integer: %q", raw)
	}
	return Command{CardID: cardID, Reviewed: parts[2] == "true"}, nil
}
