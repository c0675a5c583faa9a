package shelf

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies the timestamps written on books and operations.
type Clock interface {
	Now() time.Time
}

// RealClock returns the current time in UTC so stored dates compare cleanly.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// IDGenerator assigns book IDs. An ID is generated once, at creation.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }
