package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{"serve", "search", "index"} {
		c, _, err := root.Find([]string{name})
		if err != nil || c.Name() != name {
			t.Errorf("subcommand %s not registered: %v", name, err)
		}
	}
}

func TestRootCmd_Version(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(out.String(), "neumann version dev") {
		t.Errorf("version output = %q", out.String())
	}
}

func TestSearchCmd_Flags(t *testing.T) {
	root := NewRootCmd()
	c, _, err := root.Find([]string{"search"})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.ParseFlags([]string{"--must", "a,b", "--must", "c", "--regex", `x\d`, "--k", "5", "--json"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	must, _ := c.Flags().GetStringArray("must")
	if len(must) != 2 || must[0] != "a,b" {
		t.Errorf("must = %q, want commas preserved", must)
	}
	if k, _ := c.Flags().GetInt("k"); k != 5 {
		t.Errorf("k = %d", k)
	}
}

func TestSearchCmd_PathLikeIsSubstring(t *testing.T) {
	c, _, err := NewRootCmd().Find([]string{"search"})
	if err != nil {
		t.Fatalf("find search: %v", err)
	}
	f := c.Flags().Lookup("path-like")
	if f == nil {
		t.Fatal("missing --path-like")
	}
	if !strings.Contains(f.Usage, "substring") || strings.Contains(f.Usage, "%") {
		t.Errorf("path-like usage = %q", f.Usage)
	}
	if strings.Contains(c.Example, "%") {
		t.Errorf("example uses wildcards: %s", c.Example)
	}
}

func TestIndexCmd_RequiresInputDir(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"index"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "input-dir") {
		t.Fatalf("expected missing input-dir error, got %v", err)
	}
}

func TestExitError(t *testing.T) {
	err := &ExitError{Code: exitNoSearchChannel, Msg: "no channel"}
	if err.Error() != "no channel" || err.Code != 2 {
		t.Errorf("ExitError = %+v", err)
	}
}
