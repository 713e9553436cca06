package valueobjects

import (
	"fmt"
	"strconv"
	"strings"
)

// CatID identifies a cat. Ids are store-assigned positive integers.
type CatID int64

// UserID identifies a player account.
type UserID int64

// InteractionID identifies one interaction record; ids grow monotonically.
type InteractionID int64

func (id CatID) String() string         { return strconv.FormatInt(int64(id), 10) }
func (id UserID) String() string        { return strconv.FormatInt(int64(id), 10) }
func (id InteractionID) String() string { return strconv.FormatInt(int64(id), 10) }

func (id CatID) IsZero() bool  { return id <= 0 }
func (id UserID) IsZero() bool { return id <= 0 }

// LockKey is the resource name used when serializing writes to the cat.
func (id CatID) LockKey() string { return "cat#" + id.String() }

// LockKey is the resource name used when serializing writes to the account.
func (id UserID) LockKey() string { return "user#" + id.String() }

func parsePositive(kind, raw string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s id must be a positive integer, got %q", kind, raw)
	}
	return v, nil
}

// ParseCatID parses a path or header value
func ParseCatID(raw string) (CatID, error) {
	v, err := parsePositive("cat", raw)
	return CatID(v), err
}

// ParseUserID parses a path or token subject value
func ParseUserID(raw string) (UserID, error) {
	v, err := parsePositive("user", raw)
	return UserID(v), err
}

// ParseInteractionID parses a path value
func ParseInteractionID(raw string) (InteractionID, error) {
	v, err := parsePositive("interaction", raw)
	return InteractionID(v), err
}
