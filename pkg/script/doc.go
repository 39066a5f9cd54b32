// Package script turns a linearized flow into a selenium-webdriver program.
//
// Generation happens in two steps. [Emit] renders one node into a
// newline-terminated fragment, a pure function of the node's kind and params.
// [Assemble] wraps the fragments of an ordered node sequence in a fixed
// preamble and epilogue:
//
//	order, err := flow.Linearize(g)
//	if err != nil {
//	    return err
//	}
//	text := script.Assemble(order, script.Options{Headless: true})
//
// [Generate] combines both steps; linearization is the only step that fails.
//
// # Headless mode
//
// The preamble always contains the [HeadlessDirective] line. When headless is
// off the exact line is replaced by a commented-out copy. The toggle is a text
// substitution, so the directive constant and the preamble must stay in sync.
//
// # Literals
//
// URLs, selectors and values are substituted into double-quoted JavaScript
// literals verbatim. A parameter containing a double quote therefore produces
// a broken script. Set [Options.EscapeLiterals] to escape them instead.
package script
