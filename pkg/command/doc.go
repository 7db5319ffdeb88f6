// Package command implements ordered command grammars and first-match
// dispatch of text lines.
//
// A Grammar is a fixed, ordered list of Descriptors for one sensor kind.
// Dispatch walks the list in declaration order and returns the first
// descriptor whose Parse accepts the line. Overlapping descriptors are
// allowed and never reported; a specific pattern must therefore be declared
// before any looser pattern that would also accept it.
//
// Failing to match is not an error. The unmatched Outcome is rendered by
// callers as the NotRecognized sentinel.
//
//	g := command.NewGrammar(sensor.KindPH, descriptors...)
//	out := g.Dispatch("calibration_mid 7.00")
//	if !out.Matched() {
//	    return command.NotRecognized
//	}
package command
