package e2e

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hdlkit/verilog-go/internal/config"
	"github.com/hdlkit/verilog-go/internal/facts"
	"github.com/hdlkit/verilog-go/internal/netlist"
	"github.com/hdlkit/verilog-go/internal/validator"
)

// Builds a small project on disk and runs the whole pipeline over it:
// config load, glob resolution, preprocessing with includes and macros,
// structural parsing, linking with a library directory, fact table
// emission, and schema validation.
func TestPipelineEndToEnd(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) {
		t.Helper()
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write("inc/common.vh", "`define RESET_ACTIVE 1\n")
	write("rtl/top.v", "`include \"common.vh\"\n"+
		"module top (clk, rst, out);\n"+
		"  input clk;\n"+
		"  input rst;\n"+
		"  output out;\n"+
		"  wire stage;\n"+
		"`ifdef RESET_ACTIVE\n"+
		"  dff u1 (.clk(clk), .rst(rst), .q(stage));\n"+
		"`else\n"+
		"  dff u1 (.clk(clk), .q(stage));\n"+
		"`endif\n"+
		"  dff u2 (.clk(clk), .rst(rst), .q(out));\n"+
		"endmodule\n")
	write("lib/dff.v", "module dff (clk, rst, q);\n"+
		"  input clk;\n"+
		"  input rst;\n"+
		"  output q;\n"+
		"  reg q;\n"+
		"endmodule\n")
	write("verilog_net.json", `{
  "includeDirs": ["`+filepath.Join(root, "inc")+`"],
  "libraryDirs": ["`+filepath.Join(root, "lib")+`"],
  "files": ["rtl/*.v"]
}`)

	cfg, err := config.LoadFile(filepath.Join(root, "verilog_net.json"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	files, err := cfg.ResolveFiles(root)
	if err != nil || len(files) != 1 {
		t.Fatalf("resolve files: %v %v", files, err)
	}

	nl := netlist.NewFromConfig(cfg)
	nl.Quiet = true
	if err := nl.ReadFiles(files); err != nil {
		t.Fatalf("read files: %v", err)
	}
	nl.Link()

	if len(nl.Warnings()) != 0 {
		t.Fatalf("unexpected warnings: %v", nl.Warnings())
	}

	top := nl.FindModule("top")
	if top == nil {
		t.Fatal("top module not found")
	}
	u1 := top.GetCell("u1")
	if u1 == nil || u1.ResolvedModule == nil {
		t.Fatal("expected u1 resolved against library dff")
	}
	// The active `ifdef branch includes the rst pin.
	if u1.GetPin("rst") == nil {
		t.Fatalf("expected rst pin from active conditional branch, got %v", u1.PinNames())
	}

	tops := nl.GetTopModules()
	if len(tops) != 1 || tops[0].Name != "top" {
		t.Fatalf("expected single top module, got %v", tops)
	}

	tables := facts.BuildTables(nl)
	if len(tables.Modules) != 2 || len(tables.Cells) != 2 {
		t.Fatalf("unexpected table shape: %d modules, %d cells",
			len(tables.Modules), len(tables.Cells))
	}

	v, err := validator.NewFactsValidator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}
	if err := v.Validate(tables); err != nil {
		t.Fatalf("fact tables failed schema validation: %v", err)
	}
}
