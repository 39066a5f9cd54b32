package script

import (
	"fmt"
	"strings"

	"github.com/matzehuels/flowscript/pkg/flow"
)

// literal prepares a parameter for substitution into a double-quoted literal.
type literal func(string) string

// emitFunc renders the fragment for one kind.
type emitFunc func(p flow.Params, lit literal) string

// emitters is keyed by every kind in the catalog. Emit fails loudly in tests
// when a kind is added to flow without an entry here.
var emitters = map[flow.Kind]emitFunc{
	flow.KindStart:      emitStart,
	flow.KindNavigate:   emitNavigate,
	flow.KindClick:      emitClick,
	flow.KindType:       emitType,
	flow.KindSelect:     emitSelect,
	flow.KindWait:       emitWait,
	flow.KindScreenshot: emitScreenshot,
	flow.KindExtract:    emitExtract,
	flow.KindCondition:  emitCondition,
	flow.KindCode:       emitCode,
	flow.KindEnd:        emitEnd,
}

// Emit returns the script fragment for n with literals substituted verbatim.
// The fragment ends with a newline. Unknown kinds yield an empty fragment.
func Emit(n flow.Node) string {
	return emit(n, verbatim)
}

func emit(n flow.Node, lit literal) string {
	fn, ok := emitters[n.Kind]
	if !ok {
		return ""
	}
	return fn(n.Params, lit)
}

func emitStart(flow.Params, literal) string {
	return "// Start the Selenium script\n"
}

func emitNavigate(p flow.Params, lit literal) string {
	return fmt.Sprintf("await driver.get(\"%s\");\n", lit(p.URL))
}

func emitClick(p flow.Params, lit literal) string {
	return fmt.Sprintf("await driver.findElement(By.css(\"%s\")).click();\n", lit(p.Selector))
}

func emitType(p flow.Params, lit literal) string {
	return fmt.Sprintf("await driver.findElement(By.css(\"%s\")).sendKeys(\"%s\");\n",
		lit(p.Selector), lit(p.Value))
}

// Block-scoped so several select or extract steps can share one script.
func emitSelect(p flow.Params, lit literal) string {
	return fmt.Sprintf(`
{
  const selectElement = await driver.findElement(By.css("%s"));
  const select = new Select(selectElement);
  await select.selectByVisibleText("%s");
}
`, lit(p.Selector), lit(p.Value))
}

func emitWait(p flow.Params, lit literal) string {
	if p.WaitsForTime() {
		return fmt.Sprintf("await driver.sleep(%d);\n", p.WaitMillis)
	}
	return fmt.Sprintf("await driver.wait(until.elementLocated(By.css(\"%s\")), %d);\n",
		lit(p.Selector), p.Timeout())
}

func emitScreenshot(flow.Params, literal) string {
	return "await driver.takeScreenshot();\n"
}

func emitExtract(p flow.Params, lit literal) string {
	return fmt.Sprintf(`
{
  const element = await driver.findElement(By.css("%s"));
  const extractedValue = await element.getText();
  console.log("Extracted value:", extractedValue);
}
`, lit(p.Selector))
}

// Both outcomes are comments; the script continues linearly either way.
func emitCondition(p flow.Params, lit literal) string {
	return fmt.Sprintf(`
try {
  const element = await driver.findElement(By.css("%s"));
  const isDisplayed = await element.isDisplayed();
  if (isDisplayed) {
    // Continue with "true" path
  } else {
    // Continue with "false" path
  }
} catch (error) {
  // Continue with "false" path
}
`, lit(p.Selector))
}

func emitCode(p flow.Params, _ literal) string {
	if p.Code == "" {
		return "// Custom code\n"
	}
	if !strings.HasSuffix(p.Code, "\n") {
		return p.Code + "\n"
	}
	return p.Code
}

func emitEnd(flow.Params, literal) string {
	return "// End of Selenium script\n"
}

// =============================================================================
// Literal handling
// =============================================================================

func verbatim(s string) string { return s }

// escapeJS escapes s for a double-quoted JavaScript string literal.
func escapeJS(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\u2028', '\u2029':
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\x%02x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}
