package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/entrhq/fbsbot/pkg/booking"
)

// Reply texts.
const (
	startText        = "Hello! To book, send a message like:\n\n`book SR1 2024-12-25 10:00 to 2024-12-25 12:00`"
	unauthorizedText = "❌ You are not authorized to use this bot."
	processingText   = "Processing your booking request. Please wait..."
	invalidDateText  = "❌ Invalid date/time format."
	endBeforeText    = "❌ End time must be after start time."
	pastText         = "❌ Booking must be in the future."
	slotTakenText    = "❌ The selected slot is already taken. Please choose another time."
	unexpectedText   = "❌ Booking failed due to an unexpected error. Please try again later."
)

func invalidFormatText(venues []string) string {
	return "❌ Invalid format. Use:\n" +
		"`book VENUE YYYY-MM-DD HH:mm to YYYY-MM-DD HH:mm`\n\n" +
		"Example:\n" +
		"`book SR1 2024-01-25 14:00 to 2024-01-25 16:00`\n\n" +
		"Available venues: " + strings.Join(venues, ", ")
}

// rejection renders a Parse error and names it for metrics.
func rejection(err error, venues []string) (Reply, string) {
	var unknown *UnknownVenueError
	switch {
	case errors.As(err, &unknown):
		return Reply{Text: fmt.Sprintf("❌ Unknown venue: %s. Please try again.", unknown.Name)}, "unknown_venue"
	case errors.Is(err, ErrInvalidDateTime):
		return Reply{Text: invalidDateText}, "invalid_datetime"
	case errors.Is(err, ErrEndNotAfterStart):
		return Reply{Text: endBeforeText}, "end_not_after_start"
	case errors.Is(err, ErrNotInFuture):
		return Reply{Text: pastText}, "not_in_future"
	default:
		return Reply{Text: invalidFormatText(venues), Markdown: true}, "invalid_format"
	}
}

// RenderOutcome turns an engine outcome into the reply sent to the user.
func RenderOutcome(o booking.Outcome) Reply {
	switch o := o.(type) {
	case booking.Success:
		return Reply{
			Text:  fmt.Sprintf("✅ Booking confirmed!\nReference: %s", o.Reference),
			Photo: o.Screenshot,
		}
	case booking.SlotTaken:
		return Reply{Text: slotTakenText}
	case booking.InvalidTime:
		return Reply{Text: "❌ Invalid booking time: " + o.Message}
	case booking.ElementNotFound:
		return Reply{Text: "❌ " + o.Context}
	case booking.Failure:
		return Reply{Text: "❌ " + o.Message}
	default:
		return Reply{Text: unexpectedText}
	}
}
