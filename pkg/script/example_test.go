package script_test

import (
	"fmt"

	"github.com/matzehuels/flowscript/pkg/flow"
	"github.com/matzehuels/flowscript/pkg/script"
)

func ExampleEmit() {
	nodes := []flow.Node{
		flow.NewNode("nav", flow.KindNavigate, flow.Position{}, flow.Params{URL: "https://x.test"}),
		flow.NewNode("q", flow.KindType, flow.Position{}, flow.Params{Selector: "#q", Value: "selenium"}),
		flow.NewNode("w", flow.KindWait, flow.Position{}, flow.Params{WaitMode: flow.WaitTime, WaitMillis: 500}),
	}
	for _, n := range nodes {
		fmt.Print(script.Emit(n))
	}
	// Output:
	// await driver.get("https://x.test");
	// await driver.findElement(By.css("#q")).sendKeys("selenium");
	// await driver.sleep(500);
}
