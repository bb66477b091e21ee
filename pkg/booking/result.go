package booking

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Element ids on the create-booking frame after submission.
const (
	MessageElementID   = "labelMessage1"
	ReferenceTableID   = "BookingReferenceNumber"
	noReferenceMessage = "No booking reference number found."
)

// Result is what the create-booking frame shows after the form is submitted.
type Result struct {
	// Message is the trimmed text of the inline message element, if present.
	Message string
	// ReferenceCells holds the trimmed text of every cell in the reference table.
	ReferenceCells []string
}

// Settled reports whether the page shows either a message or reference cells.
func (r Result) Settled() bool {
	return r.Message != "" || len(r.ReferenceCells) > 0
}

// ParseResult extracts the message and reference table from frame HTML.
func ParseResult(rawHTML string) (Result, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return Result{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var res Result
	if msg := findByID(doc, MessageElementID); msg != nil {
		res.Message = strings.TrimSpace(textContent(msg))
	}
	if table := findByID(doc, ReferenceTableID); table != nil && table.Data == "table" {
		res.ReferenceCells = collectCells(table)
	}
	return res, nil
}

// Classify maps a result page to an outcome. First match wins:
//
//  1. a message mentioning "Start time must" or "End time must" is InvalidTime
//  2. a message mentioning "booked by another user" is SlotTaken
//  3. any other message is a Failure prefixed with "Booking failed: "
//  4. fewer than two reference cells is a Failure
//  5. otherwise Success, with the second cell as the reference
//
// The returned Success has no screenshot; the caller captures it.
func Classify(r Result) Outcome {
	if msg := r.Message; msg != "" {
		switch {
		case strings.Contains(msg, "Start time must"), strings.Contains(msg, "End time must"):
			return InvalidTime{Message: msg}
		case strings.Contains(msg, "booked by another user"):
			return SlotTaken{Message: msg}
		default:
			return Failure{Message: "Booking failed: " + msg}
		}
	}

	if len(r.ReferenceCells) < 2 {
		return Failure{Message: noReferenceMessage}
	}
	return Success{Reference: strings.TrimSpace(r.ReferenceCells[1])}
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, attr := range n.Attr {
			if attr.Key == "id" && attr.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// collectCells returns the text of td elements whose parent is a tr.
func collectCells(n *html.Node) []string {
	var cells []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "td" && n.Parent != nil && n.Parent.Data == "tr" {
			cells = append(cells, strings.TrimSpace(textContent(n)))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return cells
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style"):
			return
		case n.Type == html.ElementNode && n.Data == "br":
			b.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
