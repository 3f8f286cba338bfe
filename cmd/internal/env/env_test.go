package env

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func mockRootCmd(writer io.Writer) *cobra.Command {
	var rootArgs struct {
		IntFlag  int
		StrFlag  string
		BoolFlag bool
	}
	cmd := cobra.Command{
		Use: "s3db [opts]",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return CmdFlags.CheckEnvironmentVariables(cmd)
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(writer, "%v; %v; %v", rootArgs.IntFlag, rootArgs.StrFlag, rootArgs.BoolFlag)
		},
	}
	cmd.Flags().IntVarP(&rootArgs.IntFlag, "int", "i", 0, "set int")
	cmd.Flags().StringVarP(&rootArgs.StrFlag, "some-string", "s", "", "set string")
	cmd.Flags().BoolVarP(&rootArgs.BoolFlag, "bool", "b", false, "set bool")
	return &cmd
}

func mockChildCmd(writer io.Writer) *cobra.Command {
	var rootArgs struct {
		IntFlag  int
		StrFlag  string
		BoolFlag bool
	}
	cmd := cobra.Command{
		Use: "child [opts]",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return CmdFlags.CheckEnvironmentVariables(cmd)
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(writer, "%v; %v; %v", rootArgs.IntFlag, rootArgs.StrFlag, rootArgs.BoolFlag)
		},
	}
	cmd.Flags().IntVarP(&rootArgs.IntFlag, "second-int", "i", 100, "set int")
	cmd.Flags().StringVarP(&rootArgs.StrFlag, "second-string", "s", "child-string", "set string")
	cmd.Flags().BoolVarP(&rootArgs.BoolFlag, "second-bool", "b", true, "set bool")
	return &cmd
}

func TestCheckEnvironmentVariablesNoEnvVars(t *testing.T) {
	rootWriter := &bytes.Buffer{}
	root := mockRootCmd(rootWriter)
	if err := root.PreRunE(root, []string{}); err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	root.Run(root, []string{})
	if out := rootWriter.String(); out != "0; ; false" {
		t.Fatalf("expected default flag values, got %q", out)
	}
}

func TestCheckEnvironmentVariablesSetsUnsetFlags(t *testing.T) {
	rootWriter := &bytes.Buffer{}
	root := mockRootCmd(rootWriter)
	t.Setenv("S3DB_INT", "40")
	t.Setenv("S3DB_SOME_STRING", "test")
	t.Setenv("S3DB_BOOL", "true")
	if err := root.PreRunE(root, []string{}); err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	root.Run(root, []string{})
	if out := rootWriter.String(); out != "40; test; true" {
		t.Fatalf("expected env-sourced flag values, got %q", out)
	}
}

func TestCheckEnvironmentVariablesChildCommandPrefix(t *testing.T) {
	root := mockRootCmd(&bytes.Buffer{})
	childWriter := &bytes.Buffer{}
	child := mockChildCmd(childWriter)
	root.AddCommand(child)
	t.Setenv("S3DB_CHILD_SECOND_INT", "7")
	t.Setenv("S3DB_CHILD_SECOND_STRING", "testing child")
	t.Setenv("S3DB_CHILD_SECOND_BOOL", "false")
	if err := child.PreRunE(child, []string{}); err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	child.Run(child, []string{})
	if out := childWriter.String(); out != "7; testing child; false" {
		t.Fatalf("expected child-prefixed env values, got %q", out)
	}
}

func TestCheckEnvironmentVariablesReturnsErrOnBadValue(t *testing.T) {
	root := mockRootCmd(&bytes.Buffer{})
	child := mockChildCmd(&bytes.Buffer{})
	root.AddCommand(child)
	t.Setenv("S3DB_CHILD_SECOND_BOOL", "not-a-bool")
	err := child.PreRunE(child, []string{})
	if err == nil {
		t.Fatalf("expected error, found none")
	}
	if !strings.Contains(err.Error(), "not-a-bool") {
		t.Fatalf("expected error to mention the bad value, got %q", err.Error())
	}
}

func TestCheckEnvironmentVariablesFlagPrecedenceOverEnv(t *testing.T) {
	rootWriter := &bytes.Buffer{}
	root := mockRootCmd(rootWriter)
	t.Setenv("S3DB_INT", "3")
	t.Setenv("S3DB_BOOL", "true")
	root.SetArgs([]string{"-i", "42"})
	if err := root.Execute(); err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if out := rootWriter.String(); out != "42; ; true" {
		t.Fatalf("expected explicit flag to win over env, got %q", out)
	}
}
