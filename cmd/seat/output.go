package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/cocobologroup/seatsync/internal/docstore"
	"github.com/cocobologroup/seatsync/internal/ui"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printDoc(doc *docstore.Document) {
	if jsonOutput {
		printJSON(doc)
		return
	}
	fmt.Printf("%s  %s\n", ui.RenderAccent(doc.Collection+"/"+doc.ID),
		ui.RenderMuted("updated "+doc.UpdatedAt.Format("2006-01-02 15:04:05")))

	keys := make([]string, 0, len(doc.Fields))
	for k := range doc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, k := range keys {
		val, err := json.Marshal(doc.Fields[k])
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "  %s\t%s\n", k, val)
	}
	w.Flush()
}

func printDocList(docs []docstore.Document) {
	if jsonOutput {
		printJSON(docs)
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFIELDS\tUPDATED")
	for _, d := range docs {
		fmt.Fprintf(w, "%s\t%d\t%s\n", d.ID, len(d.Fields), d.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	w.Flush()
}

// parseFieldsArg decodes the JSON object argument shared by the write commands.
func parseFieldsArg(arg string) (map[string]any, error) {
	fields := make(map[string]any)
	if err := json.Unmarshal([]byte(arg), &fields); err != nil {
		return nil, fmt.Errorf("fields must be a JSON object: %w", err)
	}
	return fields, nil
}
