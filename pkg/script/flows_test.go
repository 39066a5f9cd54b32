package script

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/flowscript/pkg/document"
)

// TestExampleFlows compiles the documents under examples/flows and checks
// that their steps appear in depth-first order.
func TestExampleFlows(t *testing.T) {
	tests := []struct {
		file  string
		order []string
	}{
		{
			file: "login.json",
			order: []string{
				`driver.get("https://example.com/login")`,
				`By.css("#username")).sendKeys("demo")`,
				`By.css("#password")).sendKeys("secret")`,
				`By.css("button[type=submit]")).click()`,
				`until.elementLocated(By.css(".dashboard")), 5000)`,
				`driver.takeScreenshot()`,
				`// End of Selenium script`,
			},
		},
		{
			file: "search.yaml",
			order: []string{
				`driver.get("https://example.com/search")`,
				`selectByVisibleText("Books")`,
				`sendKeys("golang")`,
				`driver.sleep(1500)`,
				`By.css(".result:first-child .title")`,
				`By.css(".pagination .next")`,
				`console.log("Page title:", title);`,
				`// End of Selenium script`,
				`By.css(".result-count")`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			g, err := document.ReadFile(filepath.Join("..", "..", "examples", "flows", tt.file))
			if err != nil {
				t.Fatalf("ReadFile() error: %v", err)
			}
			text, err := Generate(g, Options{Headless: true})
			if err != nil {
				t.Fatalf("Generate() error: %v", err)
			}

			last := -1
			for _, want := range tt.order {
				i := strings.Index(text, want)
				if i < 0 {
					t.Fatalf("script is missing %q", want)
				}
				if i < last {
					t.Errorf("%q appears out of order", want)
				}
				last = i
			}
			if got := strings.Count(text, tt.order[len(tt.order)-2]); got != 1 {
				t.Errorf("%q emitted %d times, want once", tt.order[len(tt.order)-2], got)
			}
		})
	}
}
