// Package errors provides coded, explainable errors for weft.
//
// # Error Categories
//
// Errors are organized into categories:
//   - delegation: handler failures during delegated dispatch
//   - runtime: mount failures
//   - hydration: markup mismatches and hydration state errors
//   - store: store bindings used after teardown
//   - protocol: event bridge frames
//   - config: configuration file and environment errors
//   - cli: command line errors
//
// # Error Codes
//
// Each error has a unique code (e.g., "W040") that maps to a short message
// and a detailed explanation. A WeftError matches any other WeftError with
// the same code under errors.Is, so packages export registered errors as
// sentinels and attach details to fresh copies:
//
//	var ErrHydrationMismatch = errors.New("W040")
//
//	return errors.New("W040").WithAttr("expected", "<button>")
//	// errors.Is(err, ErrHydrationMismatch) == true
//
// # Usage
//
//	err := errors.New("W081").
//	    WithAttr("hid", "h12").
//	    WithSuggestion("Render the element with a data-hid attribute")
//
//	fmt.Println(err.Format())
package errors
