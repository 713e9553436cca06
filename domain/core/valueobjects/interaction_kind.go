package valueobjects

import "strings"

// InteractionKind names a priced player action. The set of valid kinds is
// whatever the configured cost table contains; the constants below are the
// ones the lifecycle rules give special meaning to.
type InteractionKind string

const (
	KindPlay InteractionKind = "play"
	KindFeed InteractionKind = "feed"
	KindGift InteractionKind = "gift"
)

// NewInteractionKind normalizes user input
func NewInteractionKind(raw string) InteractionKind {
	return InteractionKind(strings.ToLower(strings.TrimSpace(raw)))
}

func (k InteractionKind) String() string { return string(k) }

// IsFeeding reports whether the kind refreshes the cat's last feed date.
func (k InteractionKind) IsFeeding() bool { return k == KindFeed }

func (k InteractionKind) IsZero() bool { return k == "" }
