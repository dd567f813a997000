// Package render prints snapshots for the terminal host.
package render

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/vk/trackertools/internal/registry"
	"github.com/vk/trackertools/internal/snapshot"
	"github.com/vk/trackertools/internal/value"
)

// ReadOnlyMarker is appended to fields that only their derivation writes.
const ReadOnlyMarker = "(read-only)"

// Sections writes the snapshot grouped by section, one field per line:
// label, formatted value, units and id.
func Sections(w io.Writer, reg *registry.Registry, snap snapshot.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	for i, g := range reg.Grouped() {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintln(tw, sectionTitle(g))

		for _, e := range g.Entries {
			def := e.Definition
			text, err := def.FormatValue(snap.Value(e.ID))
			if err != nil {
				return fmt.Errorf("formatting field %q: %w", e.ID, err)
			}
			label := def.Label
			if label == "" {
				label = e.ID
			}
			line := fmt.Sprintf("  %s\t%s\t%s\t[%s]", label, text, def.Units, e.ID)
			if def.ReadOnly {
				line += " " + ReadOnlyMarker
			}
			fmt.Fprintln(tw, line)
		}
	}
	return tw.Flush()
}

func sectionTitle(g registry.Group) string {
	if g.Name != "" {
		return g.Name
	}
	return fmt.Sprintf("Section %d", g.Index)
}

// Pairs writes one `id = value` line per field, in declaration order, using
// the plain text of each value.
func Pairs(w io.Writer, snap snapshot.Snapshot) error {
	var err error
	snap.Range(func(id string, v value.Value) bool {
		_, err = fmt.Fprintf(w, "%s = %s\n", id, v.Text())
		return err == nil
	})
	return err
}
