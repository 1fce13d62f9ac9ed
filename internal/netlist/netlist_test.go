package netlist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

const topSource = `module top (clk, out);
  input clk;
  output out;
  wire mid;
  leaf u1 (.clk(clk), .q(mid));
  leaf u2 (.clk(mid), .q(out));
endmodule
`

const leafSource = `module leaf (clk, q);
  input clk;
  output q;
  reg q;
endmodule
`

func TestLinkResolvesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	topPath := writeSource(t, dir, "top.v", topSource)
	leafPath := writeSource(t, dir, "leaf.v", leafSource)

	nl := New()
	nl.Quiet = true
	// Referencing file first: resolution must not depend on read order.
	require.NoError(t, nl.ReadFile(topPath))
	require.NoError(t, nl.ReadFile(leafPath))
	nl.Link()

	top := nl.FindModule("top")
	require.NotNil(t, top)
	leaf := nl.FindModule("leaf")
	require.NotNil(t, leaf)

	u1 := top.GetCell("u1")
	require.NotNil(t, u1)
	assert.Same(t, leaf, u1.ResolvedModule)
	u2 := top.GetCell("u2")
	require.NotNil(t, u2)
	assert.Same(t, leaf, u2.ResolvedModule)

	assert.Empty(t, nl.Warnings())
}

func TestTopModuleInference(t *testing.T) {
	dir := t.TempDir()
	nl := New()
	nl.Quiet = true
	require.NoError(t, nl.ReadFile(writeSource(t, dir, "top.v", topSource)))
	require.NoError(t, nl.ReadFile(writeSource(t, dir, "leaf.v", leafSource)))
	nl.Link()

	tops := nl.GetTopModules()
	require.Len(t, tops, 1)
	assert.Equal(t, "top", tops[0].Name)
	assert.True(t, nl.FindModule("top").IsTop)
	assert.False(t, nl.FindModule("leaf").IsTop)
}

func TestUnresolvedReferenceIsWarningNotError(t *testing.T) {
	dir := t.TempDir()
	nl := New()
	nl.Quiet = true
	require.NoError(t, nl.ReadFile(writeSource(t, dir, "top.v", topSource)))
	nl.Link()

	u1 := nl.FindModule("top").GetCell("u1")
	require.NotNil(t, u1)
	assert.Nil(t, u1.ResolvedModule)

	warnings := nl.Warnings()
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "undefined module leaf")

	// Every module looks like a top when nothing resolves.
	tops := nl.GetTopModules()
	require.Len(t, tops, 1)
	assert.Equal(t, "top", tops[0].Name)
}

func TestLinkAgainAfterLateDefinition(t *testing.T) {
	dir := t.TempDir()
	nl := New()
	nl.Quiet = true
	require.NoError(t, nl.ReadFile(writeSource(t, dir, "top.v", topSource)))
	nl.Link()
	require.Nil(t, nl.FindModule("top").GetCell("u1").ResolvedModule)

	require.NoError(t, nl.ReadFile(writeSource(t, dir, "leaf.v", leafSource)))
	nl.Link()
	assert.NotNil(t, nl.FindModule("top").GetCell("u1").ResolvedModule)
}

func TestLibraryDirResolution(t *testing.T) {
	dir := t.TempDir()
	libDir := filepath.Join(dir, "lib")
	require.NoError(t, os.Mkdir(libDir, 0o755))
	writeSource(t, libDir, "leaf.v", leafSource)

	nl := New(WithLibraryDirs(libDir))
	nl.Quiet = true
	require.NoError(t, nl.ReadFile(writeSource(t, dir, "top.v", topSource)))
	nl.Link()

	leaf := nl.FindModule("leaf")
	require.NotNil(t, leaf)
	assert.Same(t, leaf, nl.FindModule("top").GetCell("u1").ResolvedModule)
	assert.Empty(t, nl.Warnings())
}

func TestPinBindingSetsDriverAndLoads(t *testing.T) {
	dir := t.TempDir()
	nl := New()
	nl.Quiet = true
	require.NoError(t, nl.ReadFile(writeSource(t, dir, "top.v", topSource)))
	require.NoError(t, nl.ReadFile(writeSource(t, dir, "leaf.v", leafSource)))
	nl.Link()

	top := nl.FindModule("top")
	mid := top.GetNet("mid")
	require.NotNil(t, mid)
	// u1.q drives mid, u2.clk loads it.
	require.NotNil(t, mid.Driver)
	assert.Equal(t, "q", mid.Driver.Name)
	assert.Equal(t, "u1", mid.Driver.Cell.Name)
	require.Len(t, mid.Loads, 1)
	assert.Equal(t, "u2", mid.Loads[0].Cell.Name)
	assert.Len(t, mid.Connections, 2)
}

func TestImplicitNetFromPinConnection(t *testing.T) {
	dir := t.TempDir()
	src := `module m (a);
  input a;
  buf b1 (.in(a), .out(undeclared));
endmodule
`
	nl := New()
	nl.Quiet = true
	require.NoError(t, nl.ReadFile(writeSource(t, dir, "m.v", src)))

	m := nl.FindModule("m")
	require.NotNil(t, m)
	net := m.GetNet("undeclared")
	require.NotNil(t, net)
	assert.Equal(t, "wire", net.NetType)
}

func TestGatePrimitiveCellsHarvested(t *testing.T) {
	dir := t.TempDir()
	src := `module m (a, y);
  input a;
  output y;
  buf b1 (.in(a), .out(y));
  not n1 (.in(a), .out(mid));
endmodule
`
	nl := New()
	nl.Quiet = true
	require.NoError(t, nl.ReadFile(writeSource(t, dir, "m.v", src)))
	nl.Link()

	m := nl.FindModule("m")
	require.NotNil(t, m)
	b1 := m.GetCell("b1")
	require.NotNil(t, b1)
	assert.Equal(t, "buf", b1.ModuleName)
	assert.Nil(t, b1.ResolvedModule)
	require.NotNil(t, b1.GetPin("out"))
	assert.Equal(t, "y", b1.GetPin("out").Net.Name)
	assert.NotNil(t, m.GetNet("mid"))

	// Primitives are builtins, not missing modules.
	assert.Empty(t, nl.Warnings())
	require.Len(t, nl.GetTopModules(), 1)
}

func TestPortImpliesNet(t *testing.T) {
	m := NewModule("m")
	m.AddPort("clk", "input", 1)
	net := m.GetNet("clk")
	require.NotNil(t, net)
	assert.Equal(t, "wire", net.NetType)

	// A later net declaration refines the type of the same signal.
	m.AddNet("clk", "tri", 1)
	assert.Equal(t, "tri", m.GetNet("clk").NetType)
	assert.Len(t, m.NetNames(), 1)
}

func TestMacrosSharedAcrossFilesConditionalsNot(t *testing.T) {
	dir := t.TempDir()
	first := writeSource(t, dir, "first.v", "`define HAVE_LEAF 1\n`ifdef NEVER\n")
	second := writeSource(t, dir, "second.v", "`ifdef HAVE_LEAF\nmodule leaf (q);\n  output q;\nendmodule\n`endif\n")

	nl := New()
	nl.Quiet = true
	// The unbalanced conditional is fatal for first.v only.
	require.Error(t, nl.ReadFile(first))
	require.NoError(t, nl.ReadFile(second))
	assert.NotNil(t, nl.FindModule("leaf"))
}

func TestUndefPropagatesToLaterFiles(t *testing.T) {
	dir := t.TempDir()
	first := writeSource(t, dir, "first.v", "`undef GATED\n`define KEPT 1\n")
	second := writeSource(t, dir, "second.v", "`ifdef GATED\nmodule gated (q);\n  output q;\nendmodule\n`endif\n`ifdef KEPT\nmodule kept (q);\n  output q;\nendmodule\n`endif\n")

	nl := New(WithDefines(map[string]string{"GATED": "1"}))
	nl.Quiet = true
	require.NoError(t, nl.ReadFile(first))
	require.NoError(t, nl.ReadFile(second))
	assert.Nil(t, nl.FindModule("gated"))
	assert.NotNil(t, nl.FindModule("kept"))
}

func TestMultipleModulesPerFile(t *testing.T) {
	dir := t.TempDir()
	src := `module a (x);
  input x;
  b inst (.y(x));
endmodule

module b (y);
  input y;
endmodule
`
	nl := New()
	nl.Quiet = true
	require.NoError(t, nl.ReadFile(writeSource(t, dir, "pair.v", src)))
	nl.Link()

	require.NotNil(t, nl.FindModule("a"))
	require.NotNil(t, nl.FindModule("b"))
	assert.NotNil(t, nl.FindModule("a").GetCell("inst").ResolvedModule)
}

func TestModuleRedefinitionWarns(t *testing.T) {
	dir := t.TempDir()
	nl := New()
	nl.Quiet = true
	require.NoError(t, nl.ReadFile(writeSource(t, dir, "one.v", "module m (a);\n  input a;\nendmodule\n")))
	require.NoError(t, nl.ReadFile(writeSource(t, dir, "two.v", "module m (a, b);\n  input a;\n  input b;\nendmodule\n")))

	require.NotEmpty(t, nl.Warnings())
	assert.Contains(t, nl.Warnings()[0], "redefined")
	assert.Len(t, nl.FindModule("m").PortNames(), 2)
	assert.Len(t, nl.GetModules(), 1)
}

func TestDumpAndVerilogText(t *testing.T) {
	dir := t.TempDir()
	nl := New()
	nl.Quiet = true
	require.NoError(t, nl.ReadFile(writeSource(t, dir, "top.v", topSource)))
	require.NoError(t, nl.ReadFile(writeSource(t, dir, "leaf.v", leafSource)))
	nl.Link()

	dump := nl.Dump()
	assert.Contains(t, dump, "Module: top (top)")
	assert.Contains(t, dump, "Module: leaf\n")
	assert.Contains(t, dump, "leaf u1 (resolved)")
	assert.Contains(t, dump, ".clk(clk)")

	text := nl.VerilogText()
	assert.Contains(t, text, "module top (clk, out);")
	assert.Contains(t, text, "  leaf u1 (.clk(clk), .q(mid));")
	assert.Contains(t, text, "  wire mid;\n")
	assert.Contains(t, text, "module leaf (clk, q);")
	assert.True(t, strings.HasSuffix(text, "endmodule\n"))
}
