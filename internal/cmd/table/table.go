// Package table converts kinmap results into rows for CLI table output.
package table

import (
	"strconv"
	"strings"

	"github.com/agentstation/kinmap/internal/vault"
	"github.com/agentstation/kinmap/pkg/consistency"
	"github.com/agentstation/kinmap/pkg/graph"
	"github.com/agentstation/kinmap/pkg/reconciler"
	"github.com/agentstation/kinmap/pkg/relations"
	"github.com/agentstation/kinmap/pkg/sync"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

const none = "-"

// SyncToTableData lists one row per contact of a pass.
func SyncToTableData(result *sync.Result) Data {
	headers := []string{"Contact", "UID", "Status", "Writes", "Edges", "Unresolved", "Error"}

	contacts := result.SortedContacts()
	rows := make([][]string, 0, len(contacts))
	for _, cr := range contacts {
		rows = append(rows, []string{
			cr.Name,
			cr.UID,
			cr.Status(),
			strconv.Itoa(cr.Writes),
			strconv.Itoa(cr.EdgesAdded),
			orNone(strings.Join(cr.Unresolved, ", ")),
			orNone(cr.Error),
		})
	}

	return Data{
		Headers:         headers,
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignRight, AlignLeft, AlignLeft},
	}
}

// MissingToTableData lists missing reciprocals with display names taken
// from g and terms rendered for the target's gender.
func MissingToTableData(missing []consistency.MissingReciprocal, g *graph.Graph) Data {
	headers := []string{"Contact", "Lacks", "Toward", "Because"}

	rows := make([][]string, 0, len(missing))
	for _, m := range missing {
		target, _ := g.Contact(m.Target)
		rows = append(rows, []string{
			name(g, m.Source),
			relations.Render(m.ExpectedType, target.Gender),
			name(g, m.Target),
			name(g, m.Origin.Source) + " lists " + string(m.Origin.Type),
		})
	}
	return Data{Headers: headers, Rows: rows}
}

// ReconcileToTableData lists the relationships a contact holds after
// reconciliation, marking those whose target did not resolve.
func ReconcileToTableData(res *reconciler.Result) Data {
	headers := []string{"Relationship", "Reference", "Resolved"}

	unresolved := make(map[string]bool, len(res.Unresolved))
	for _, u := range res.Unresolved {
		unresolved[u.Reference] = true
	}

	rows := make([][]string, 0, len(res.Fields))
	for _, f := range res.Fields {
		ref := f.Ref.String()
		resolved := "yes"
		if unresolved[ref] {
			resolved = "no"
		}
		rows = append(rows, []string{f.Term(), ref, resolved})
	}
	return Data{Headers: headers, Rows: rows}
}

// AssignmentsToTableData lists minted UIDs.
func AssignmentsToTableData(assigned []vault.Assignment) Data {
	rows := make([][]string, 0, len(assigned))
	for _, a := range assigned {
		rows = append(rows, []string{a.Path, a.UID})
	}
	return Data{Headers: []string{"Note", "UID"}, Rows: rows}
}

func name(g *graph.Graph, uid string) string {
	if c, ok := g.Contact(uid); ok {
		return c.Name()
	}
	return uid
}

func orNone(s string) string {
	if s == "" {
		return none
	}
	return s
}
