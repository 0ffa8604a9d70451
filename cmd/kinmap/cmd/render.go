// Package cmd holds the kinmap subcommands. Each constructor takes the
// shared application context.
package cmd

import (
	"fmt"
	"strconv"

	"github.com/agentstation/kinmap/internal/appcontext"
	"github.com/agentstation/kinmap/internal/cmd/output"
	"github.com/agentstation/kinmap/internal/cmd/table"
	"github.com/agentstation/kinmap/pkg/consistency"
	"github.com/agentstation/kinmap/pkg/graph"
	"github.com/agentstation/kinmap/pkg/relations"
)

// missingView is the json/yaml shape of a missing reciprocal.
type missingView struct {
	Contact string `json:"contact" yaml:"contact"`
	Lacks   string `json:"lacks" yaml:"lacks"`
	Toward  string `json:"toward" yaml:"toward"`
	Origin  string `json:"origin" yaml:"origin"`
}

func missingViews(missing []consistency.MissingReciprocal, g *graph.Graph) []missingView {
	views := make([]missingView, 0, len(missing))
	for _, m := range missing {
		target, _ := g.Contact(m.Target)
		views = append(views, missingView{
			Contact: m.Source,
			Lacks:   relations.Render(m.ExpectedType, target.Gender),
			Toward:  m.Target,
			Origin:  m.Origin.String(),
		})
	}
	return views
}

// emit writes structured data for json/yaml, or the tables followed by a
// summary line for table output.
func emit(app appcontext.Interface, structured any, summary string, tables ...table.Data) error {
	w := app.Out()
	format := output.DetectFormat(app.OutputFormat())
	if format != output.FormatTable {
		return output.NewFormatter(format).Format(w, structured)
	}

	formatter := output.NewFormatter(output.FormatTable)
	for _, t := range tables {
		if len(t.Rows) == 0 {
			continue
		}
		if err := formatter.Format(w, t); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}

// counts renders label/value pairs as a two-column table.
func counts(pairs ...any) table.Data {
	data := table.Data{Headers: []string{"Summary", "Value"}}
	for i := 0; i+1 < len(pairs); i += 2 {
		label, _ := pairs[i].(string)
		var value string
		switch v := pairs[i+1].(type) {
		case int:
			value = strconv.Itoa(v)
		case bool:
			value = strconv.FormatBool(v)
		default:
			value = fmt.Sprint(v)
		}
		data.Rows = append(data.Rows, []string{output.Heading(label), value})
	}
	return data
}
