package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/agnivade/levenshtein"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/s3db-io/s3db/errs"
)

// printDoc prints a single record as indented JSON, used by insert/get.
func printDoc(cmd *cobra.Command, doc map[string]any) error {
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// renderDocs prints a page of records either as one JSON array (--json) or
// as a table whose columns are the union of every document's top-level
// keys, grounded on presentation.generateTableBindings's header-then-rows
// shape.
func renderDocs(cmd *cobra.Command, docs []map[string]any, next string) error {
	if jsonOutputFlag {
		out, err := json.MarshalIndent(map[string]any{"records": docs, "next": next}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	cols := columnUnion(docs)
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(cols)
	for _, doc := range docs {
		row := make([]string, len(cols))
		for i, c := range cols {
			if v, ok := doc[c]; ok {
				js, _ := json.Marshal(v)
				row[i] = string(js)
			}
		}
		table.Append(row)
	}
	table.Render()
	if next != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "next continuation: %s\n", next)
	}
	return nil
}

func columnUnion(docs []map[string]any) []string {
	seen := map[string]bool{"id": true}
	var keys []string
	for _, doc := range docs {
		for k := range doc {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return append([]string{"id"}, keys...)
}

// suggestOnNotFound enriches a resource NotFound error with a "did you
// mean" suggestion from the closest-edit-distance resource name already
// declared in the catalog.
func suggestOnNotFound(a *app, resourceName string, err error) error {
	if !errs.IsNotFound(err) {
		return err
	}
	best, bestDist := "", -1
	for _, name := range a.resourceNames() {
		d := levenshtein.ComputeDistance(resourceName, name)
		if bestDist == -1 || d < bestDist {
			best, bestDist = name, d
		}
	}
	if best != "" && bestDist <= 3 {
		return fmt.Errorf("%w (did you mean %q?)", err, best)
	}
	return err
}
