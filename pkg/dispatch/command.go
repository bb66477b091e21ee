package dispatch

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/entrhq/fbsbot/pkg/catalog"
)

// commandPattern is the booking grammar:
//
//	book <VENUE> <YYYY-MM-DD> <HH:MM> to <YYYY-MM-DD> <HH:MM>
var commandPattern = regexp.MustCompile(`(?i)^book\s+(\S+)\s+(\d{4}-\d{2}-\d{2})\s+(\d{2}:\d{2})\s+to\s+(\d{4}-\d{2}-\d{2})\s+(\d{2}:\d{2})$`)

const timestampLayout = "2006-01-02 15:04"

// Rejections, in the order they are checked.
var (
	ErrInvalidFormat    = errors.New("invalid command format")
	ErrInvalidDateTime  = errors.New("invalid date/time")
	ErrEndNotAfterStart = errors.New("end time is not after start time")
	ErrNotInFuture      = errors.New("booking ends in the past")
)

// UnknownVenueError names a venue missing from the catalog.
type UnknownVenueError struct {
	Name string
}

func (e *UnknownVenueError) Error() string {
	return fmt.Sprintf("unknown venue %q", e.Name)
}

func (e *UnknownVenueError) Unwrap() error {
	return catalog.ErrUnknownVenue
}

// Command is a parsed and validated booking command.
type Command struct {
	Venue catalog.Venue
	Start time.Time
	End   time.Time
}

// Parser validates booking commands against a catalog.
type Parser struct {
	catalog  *catalog.Catalog
	location *time.Location
}

// NewParser creates a parser that reads timestamps in loc.
func NewParser(cat *catalog.Catalog, loc *time.Location) *Parser {
	if loc == nil {
		loc = time.Local
	}
	return &Parser{catalog: cat, location: loc}
}

// Parse checks grammar, venue, timestamps, ordering and that the booking
// ends after now, in that order, and stops at the first failure.
func (p *Parser) Parse(text string, now time.Time) (Command, error) {
	m := commandPattern.FindStringSubmatch(text)
	if m == nil {
		return Command{}, ErrInvalidFormat
	}
	venueName, startDate, startTime, endDate, endTime := m[1], m[2], m[3], m[4], m[5]

	venue, err := p.catalog.VenueByName(venueName)
	if err != nil {
		return Command{}, &UnknownVenueError{Name: venueName}
	}

	start, err := time.ParseInLocation(timestampLayout, startDate+" "+startTime, p.location)
	if err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrInvalidDateTime, err)
	}
	end, err := time.ParseInLocation(timestampLayout, endDate+" "+endTime, p.location)
	if err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrInvalidDateTime, err)
	}

	if !end.After(start) {
		return Command{}, ErrEndNotAfterStart
	}
	if !end.After(now) {
		return Command{}, ErrNotInFuture
	}

	return Command{Venue: venue, Start: start, End: end}, nil
}
