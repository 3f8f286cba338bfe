package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/s3db-io/s3db/record"
)

// replHistoryPath follows the teacher's runtime.Repl convention of a
// dotfile in the user's home directory.
const replHistoryPath = ".s3db_history"

func init() {
	replCommand := &cobra.Command{
		Use:   "repl",
		Short: "Interactive shell over the storage core",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			if dirFlag != "" {
				stop, err := a.Engine.Catalog.WatchDir(cmd.Context(), dirFlag)
				if err != nil {
					return fmt.Errorf("watching --dir for external catalog changes: %w", err)
				}
				defer stop()
			}
			runRepl(cmd.Context(), a, cmd.OutOrStdout())
			return nil
		},
	}
	RootCommand.AddCommand(replCommand)
}

func runRepl(ctx context.Context, a *app, out io.Writer) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	loadHistory(line)

	for {
		input, err := line.Prompt("s3db> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			fmt.Fprintln(out, "exiting")
			break
		}
		if err != nil {
			fmt.Fprintln(out, "error (fatal):", err)
			break
		}
		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}
		line.AppendHistory(input)
		if replOneShot(ctx, a, out, trimmed) {
			break
		}
	}
	saveHistory(line)
}

// replOneShot evaluates one line and returns true when the user asked to
// exit.
func replOneShot(ctx context.Context, a *app, out io.Writer, input string) bool {
	fields := strings.Fields(input)
	switch strings.ToLower(fields[0]) {
	case "exit", "quit":
		return true
	case "help", "?":
		printReplHelp(out)
	case "resources":
		for _, name := range a.resourceNames() {
			fmt.Fprintln(out, name)
		}
	case "get":
		if len(fields) != 3 {
			fmt.Fprintln(out, "usage: get <resource> <id>")
			return false
		}
		doc, err := a.Engine.Get(ctx, fields[1], fields[2])
		replPrintResult(out, a, fields[1], doc, err)
	case "insert":
		if len(fields) < 3 {
			fmt.Fprintln(out, "usage: insert <resource> <json>")
			return false
		}
		var doc map[string]any
		raw := strings.Join(fields[2:], " ")
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			fmt.Fprintln(out, "invalid json:", err)
			return false
		}
		stored, err := a.Engine.Insert(ctx, fields[1], doc)
		replPrintResult(out, a, fields[1], stored, err)
	case "list":
		if len(fields) != 2 {
			fmt.Fprintln(out, "usage: list <resource>")
			return false
		}
		docs, next, err := a.Engine.List(ctx, fields[1], "", record.ListOptions{})
		if err != nil {
			fmt.Fprintln(out, suggestOnNotFound(a, fields[1], err))
			return false
		}
		replPrintDocs(out, docs, next)
	case "delete":
		if len(fields) != 3 {
			fmt.Fprintln(out, "usage: delete <resource> <id>")
			return false
		}
		if err := a.Engine.Delete(ctx, fields[1], fields[2]); err != nil {
			fmt.Fprintln(out, suggestOnNotFound(a, fields[1], err))
			return false
		}
		fmt.Fprintln(out, "ok")
	default:
		fmt.Fprintf(out, "unknown command %q, type help\n", fields[0])
	}
	return false
}

func replPrintResult(out io.Writer, a *app, resourceName string, doc map[string]any, err error) {
	if err != nil {
		fmt.Fprintln(out, suggestOnNotFound(a, resourceName, err))
		return
	}
	replPrintDocs(out, []map[string]any{doc}, "")
}

func replPrintDocs(out io.Writer, docs []map[string]any, next string) {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	for _, d := range docs {
		_ = enc.Encode(d)
	}
	if next != "" {
		fmt.Fprintf(out, "next continuation: %s\n", next)
	}
}

func printReplHelp(out io.Writer) {
	fmt.Fprintln(out, "commands: resources | get <resource> <id> | insert <resource> <json> | list <resource> | delete <resource> <id> | exit")
}

func loadHistory(line *liner.State) {
	f, err := os.Open(historyFilePath())
	if err != nil {
		return
	}
	defer f.Close()
	line.ReadHistory(f)
}

func saveHistory(line *liner.State) {
	f, err := os.Create(historyFilePath())
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return replHistoryPath
	}
	return home + string(os.PathSeparator) + replHistoryPath
}
