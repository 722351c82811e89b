package queueview

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/pkg/errors"
)

// Prefix starts every queue navigation custom id.
const Prefix = "queue"

// Direction of a navigation button.
type Direction string

const (
	Prev Direction = "prev"
	Next Direction = "next"
)

// ErrMalformedNavID is returned when a custom id is not a queue navigation id.
var ErrMalformedNavID = errors.New("malformed queue navigation id")

// NavID is the decoded form of queue:<dir>:<guildId>:<ownerId>:<page>.
// Page is the page the button leads to; Render clamps it.
type NavID struct {
	Direction Direction
	GuildID   string
	OwnerID   string
	Page      int
}

// String encodes the id.
func (n NavID) String() string {
	return fmt.Sprintf("%s:%s:%s:%s:%d", Prefix, n.Direction, n.GuildID, n.OwnerID, n.Page)
}

// Buttons returns the prev and next ids for a view rendered on current.
func Buttons(guildID, ownerID string, current int) (prev, next NavID) {
	prev = NavID{Direction: Prev, GuildID: guildID, OwnerID: ownerID, Page: current - 1}
	next = NavID{Direction: Next, GuildID: guildID, OwnerID: ownerID, Page: current + 1}
	return prev, next
}

// AllowedFor reports whether userID may use the button.
func (n NavID) AllowedFor(userID string) bool {
	return n.OwnerID == userID
}

// IsNavID reports whether customID looks like a queue navigation id.
func IsNavID(customID string) bool {
	return strings.HasPrefix(customID, Prefix+":")
}

// ParseNavID decodes a custom id. Guild and owner must be snowflakes; a page
// that is not a number falls back to 1.
func ParseNavID(customID string) (NavID, error) {
	parts := strings.Split(customID, ":")
	if len(parts) != 5 || parts[0] != Prefix {
		return NavID{}, errors.Wrapf(ErrMalformedNavID, "custom id %q", customID)
	}

	dir := Direction(parts[1])
	if dir != Prev && dir != Next {
		return NavID{}, errors.Wrapf(ErrMalformedNavID, "unknown direction %q", parts[1])
	}

	if _, err := snowflake.Parse(parts[2]); err != nil {
		return NavID{}, errors.Wrapf(ErrMalformedNavID, "guild id %q", parts[2])
	}
	if _, err := snowflake.Parse(parts[3]); err != nil {
		return NavID{}, errors.Wrapf(ErrMalformedNavID, "owner id %q", parts[3])
	}

	page, err := strconv.Atoi(parts[4])
	if err != nil {
		page = 1
	}

	return NavID{Direction: dir, GuildID: parts[2], OwnerID: parts[3], Page: page}, nil
}
