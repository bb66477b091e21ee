// Package booking defines the vocabulary shared by the dispatcher and the
// booking engine: the normalized Request handed to an Engine, and the Outcome
// it returns.
//
// # Outcomes
//
// Every booking attempt produces exactly one Outcome. Outcome is a closed set:
//
//   - Success: the portal issued a reference number; carries a full-page screenshot
//   - InvalidTime: the portal rejected the start or end time
//   - SlotTaken: another user holds the slot
//   - ElementNotFound: a required frame or control never appeared
//   - Failure: any other portal message, or an unexpected result page
//
// Classified outcomes are values, not errors. Engine.Book reserves its error
// return for faults nobody classified, such as a browser that failed to launch
// or an expired deadline.
//
// # Result pages
//
// ParseResult and Classify turn the HTML of the create-booking frame, as it
// stands after submission, into an Outcome. The rules are ordered and the first
// match wins; see Classify.
package booking
