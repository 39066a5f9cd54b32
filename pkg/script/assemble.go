package script

import (
	"strings"

	"github.com/matzehuels/flowscript/pkg/flow"
)

// HeadlessDirective is the preamble line that puts Chrome into headless mode.
// Assemble disables it by exact-text replacement; it must match the preamble.
const HeadlessDirective = "options.addArguments('--headless');"

// disabledDirective replaces HeadlessDirective when headless mode is off.
const disabledDirective = "// " + HeadlessDirective

// bodyIndent is the nesting of the try block fragments are placed in.
const bodyIndent = "    "

const preamble = `// Generated Selenium script

// Setup
const { Builder, By, Key, until, Select } = require('selenium-webdriver');
const chrome = require('selenium-webdriver/chrome');

(async function runTest() {
  let driver;
  
  try {
    // Set up Chrome options
    const options = new chrome.Options();
    ` + HeadlessDirective + `
    
    // Build the driver
    driver = await new Builder()
      .forBrowser('chrome')
      .setChromeOptions(options)
      .build();
      
    // Set implicit wait
    await driver.manage().setTimeouts({ implicit: 10000 });
    
    // Test script begins
`

// epilogue logs success, reports failures and always quits the driver.
const epilogue = `
    // Test script ends
    
    console.log('Test completed successfully');
    return { success: true };
  } catch (error) {
    console.error('Test failed:', error);
    return { success: false, error: error.message };
  } finally {
    // Cleanup
    if (driver) {
      await driver.quit();
    }
  }
})();
`

// Options controls script assembly.
type Options struct {
	// Headless keeps the headless directive live. When false the directive
	// is commented out and the browser window is visible.
	Headless bool

	// EscapeLiterals escapes quotes, backslashes and control characters in
	// URLs, selectors and values. Off by default: parameters are substituted
	// verbatim and a double quote breaks the generated literal.
	EscapeLiterals bool
}

// Assemble concatenates the fragments of nodes, in order, between the fixed
// preamble and epilogue. It never fails; an empty sequence yields a script
// with an empty body.
func Assemble(nodes []flow.Node, opts Options) string {
	lit := literal(verbatim)
	if opts.EscapeLiterals {
		lit = escapeJS
	}

	var b strings.Builder
	b.WriteString(preamble)
	for _, n := range nodes {
		b.WriteString(indent(emit(n, lit)))
	}
	b.WriteString(epilogue)

	out := b.String()
	if !opts.Headless {
		out = strings.Replace(out, HeadlessDirective, disabledDirective, 1)
	}
	return out
}

// Generate linearizes g and assembles the result. The only possible error is
// MISSING_START_NODE, in which case no script is produced.
func Generate(g flow.Graph, opts Options) (string, error) {
	order, err := flow.Linearize(g)
	if err != nil {
		return "", err
	}
	return Assemble(order, opts), nil
}

// indent prefixes every non-empty line of a fragment with bodyIndent.
func indent(fragment string) string {
	lines := strings.SplitAfter(fragment, "\n")
	var b strings.Builder
	for _, line := range lines {
		if line != "" && line != "\n" {
			b.WriteString(bodyIndent)
		}
		b.WriteString(line)
	}
	return b.String()
}
