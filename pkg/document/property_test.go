package document

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/flowscript/pkg/flow"
)

// genNode builds a node of any catalog kind with arbitrary params.
func genNode() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, len(flow.Kinds())-1),
		gen.AlphaString(),
		gen.OneGenOf(
			gen.AlphaString(),
			gen.OneConstOf("", "O'Brien", `say "hi"`, "line\nbreak", "https://x.test/?q=1&r=2"),
		),
		gen.IntRange(0, 60000),
		gen.Float64Range(-2000, 2000),
		gen.Bool(),
	).Map(func(v []any) flow.Node {
		kind := flow.Kinds()[v[0].(int)]
		text := v[2].(string)
		millis := v[3].(int)
		p := flow.Params{Selector: v[1].(string), Value: text, URL: text}
		if v[5].(bool) {
			p.WaitMode = flow.WaitTime
			p.WaitMillis = millis
		} else {
			p.TimeoutMillis = millis
			p.Code = text
		}
		return flow.NewNode("", kind, flow.Position{X: v[4].(float64), Y: -v[4].(float64)}, p)
	})
}

func TestRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("import(export(g)) == g", prop.ForAll(
		func(nodes []flow.Node, picks []int) bool {
			g := flow.Graph{Nodes: make([]flow.Node, len(nodes)), Edges: []flow.Edge{}}
			for i, n := range nodes {
				n.ID = fmt.Sprintf("%s-%d", n.Kind, i)
				g.Nodes[i] = n
			}
			if len(g.Nodes) > 0 {
				for i := 0; i+1 < len(picks); i += 2 {
					src := g.Nodes[picks[i]%len(g.Nodes)].ID
					dst := g.Nodes[picks[i+1]%len(g.Nodes)].ID
					g.Edges = append(g.Edges, flow.Edge{ID: fmt.Sprintf("e%d", i), Source: src, Target: dst})
				}
			}

			for _, format := range []Format{FormatJSON, FormatYAML} {
				data, err := Marshal(g, format)
				if err != nil {
					return false
				}
				got, err := Unmarshal(data, format)
				if err != nil || !reflect.DeepEqual(got, g) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genNode()),
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.TestingRun(t)
}
