package parser

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventRecorder captures observer events as readable strings.
type eventRecorder struct {
	NopObserver
	events []string
}

func (r *eventRecorder) ModuleBegin(name string, line int) {
	r.events = append(r.events, fmt.Sprintf("moduleBegin %s @%d", name, line))
}

func (r *eventRecorder) ModuleEnd() {
	r.events = append(r.events, "moduleEnd")
}

func (r *eventRecorder) PortDeclaration(direction, name string, line int) {
	r.events = append(r.events, fmt.Sprintf("port %s %s @%d", direction, name, line))
}

func (r *eventRecorder) NetDeclaration(kind, name string, line int) {
	r.events = append(r.events, fmt.Sprintf("net %s %s @%d", kind, name, line))
}

func (r *eventRecorder) ParameterDeclaration(name string, line int) {
	r.events = append(r.events, fmt.Sprintf("parameter %s @%d", name, line))
}

func (r *eventRecorder) InstanceDeclaration(moduleName, instanceName string, line int) {
	r.events = append(r.events, fmt.Sprintf("instance %s %s @%d", moduleName, instanceName, line))
}

func (r *eventRecorder) PinConnection(instanceName, pinName, netName string) {
	r.events = append(r.events, fmt.Sprintf("pin %s.%s(%s)", instanceName, pinName, netName))
}

func (r *eventRecorder) AlwaysBegin(line int) {
	r.events = append(r.events, fmt.Sprintf("always @%d", line))
}

func (r *eventRecorder) Assign(line int) {
	r.events = append(r.events, fmt.Sprintf("assign @%d", line))
}

func TestParseModuleEvents(t *testing.T) {
	src := `module counter (clk, rst, count);
  input clk;
  input rst;
  output count;
  wire clk;
  reg [7:0] count;
  parameter WIDTH = 8;
  always @(posedge clk) begin
  end
  assign count = 0;
endmodule
`
	rec := &eventRecorder{}
	NewParser(rec, "").Parse(src)

	assert.Equal(t, []string{
		"moduleBegin counter @1",
		"port input clk @2",
		"port input rst @3",
		"port output count @4",
		"net wire clk @5",
		"net reg count @6",
		"parameter WIDTH @7",
		"always @8",
		"assign @10",
		"moduleEnd",
	}, rec.events)
}

func TestParseSkipsRangesToDeclaredName(t *testing.T) {
	rec := &eventRecorder{}
	NewParser(rec, "").Parse("module m;\n  wire [3:0] data;\nendmodule\n")
	assert.Contains(t, rec.events, "net wire data @2")
}

func TestParseInstanceWithNamedPins(t *testing.T) {
	src := `module top;
  wire a;
  wire y;
  inv u1 (.in(a), .out(y));
endmodule
`
	rec := &eventRecorder{}
	NewParser(rec, "").Parse(src)

	assert.Contains(t, rec.events, "instance inv u1 @4")
	assert.Contains(t, rec.events, "pin u1.in(a)")
	assert.Contains(t, rec.events, "pin u1.out(y)")
}

func TestParseInstancePositionalPins(t *testing.T) {
	rec := &eventRecorder{}
	NewParser(rec, "").Parse("module top;\n  sub s0 (a, b);\nendmodule\n")
	assert.Contains(t, rec.events, "instance sub s0 @2")
}

func TestParseNoInstanceOutsideModule(t *testing.T) {
	rec := &eventRecorder{}
	NewParser(rec, "").Parse("foo bar (x);\n")
	for _, ev := range rec.events {
		assert.NotContains(t, ev, "instance")
	}
}

func TestParseGatePrimitiveInstance(t *testing.T) {
	// Gate primitives lex as keywords but instantiate like modules.
	rec := &eventRecorder{}
	NewParser(rec, "").Parse("module top;\n  and g1 (y, a, b);\nendmodule\n")
	assert.Contains(t, rec.events, "instance and g1 @2")
}

func TestParseGatePrimitivePins(t *testing.T) {
	rec := &eventRecorder{}
	NewParser(rec, "").Parse("module top;\n  buf b1 (.in(a), .out(y));\nendmodule\n")
	assert.Contains(t, rec.events, "instance buf b1 @2")
	assert.Contains(t, rec.events, "pin b1.in(a)")
	assert.Contains(t, rec.events, "pin b1.out(y)")
}

func TestParseGatePrimitiveOutsideModule(t *testing.T) {
	rec := &eventRecorder{}
	NewParser(rec, "").Parse("and g1 (y, a, b);\n")
	for _, ev := range rec.events {
		assert.NotContains(t, ev, "instance")
	}
}

func TestParseMultipleModulesPerFile(t *testing.T) {
	src := "module a;\nendmodule\nmodule b;\nendmodule\n"
	rec := &eventRecorder{}
	NewParser(rec, "").Parse(src)
	assert.Equal(t, []string{
		"moduleBegin a @1",
		"moduleEnd",
		"moduleBegin b @3",
		"moduleEnd",
	}, rec.events)
}

func TestParseTerminatesOnTruncatedInput(t *testing.T) {
	// Handlers must not loop when the expected identifier never arrives.
	rec := &eventRecorder{}
	NewParser(rec, "").Parse("module")
	assert.Empty(t, rec.events)

	NewParser(rec, "").Parse("module m;\n  wire")
}

func TestCollectorAccumulatesPerModule(t *testing.T) {
	src := `module alu (a, b, q);
  input a;
  input b;
  output q;
  wire carry;
  parameter W = 4;
  adder add0 (.x(a), .y(b), .s(q));
endmodule
module adder (x, y, s);
  input x;
  input y;
  output s;
endmodule
`
	col := NewCollector()
	NewParser(col, "").Parse(src)
	mods := col.Modules()
	require.Len(t, mods, 2)

	alu := mods[0]
	assert.Equal(t, "alu", alu.Name)
	require.Len(t, alu.Ports, 3)
	assert.Equal(t, "a", alu.Ports[0].Name)
	assert.Equal(t, "input", alu.Ports[0].Direction)
	require.Len(t, alu.Nets, 1)
	assert.Equal(t, "carry", alu.Nets[0].Name)
	require.Len(t, alu.Parameters, 1)
	assert.Equal(t, "W", alu.Parameters[0].Name)
	require.Len(t, alu.Cells, 1)
	assert.Equal(t, "add0", alu.Cells[0].Name)
	assert.Equal(t, "adder", alu.Cells[0].ModuleName)
	assert.Equal(t, map[string]string{"x": "a", "y": "b", "s": "q"}, alu.Cells[0].Pins)
	assert.Equal(t, []string{"x", "y", "s"}, alu.Cells[0].PinOrder)

	adder := mods[1]
	assert.Equal(t, "adder", adder.Name)
	assert.Len(t, adder.Ports, 3)
	assert.Empty(t, adder.Cells)
}

func TestCollectorSnapshotResetOnModuleBegin(t *testing.T) {
	col := NewCollector()
	p := NewParser(col, "")
	p.Parse("module first;\n  wire w1;\nendmodule\nmodule second;\n  wire w2;\n")

	// The second module is still open; its snapshot must not carry state
	// from the first.
	snap, ok := col.Snapshot()
	require.True(t, ok)
	assert.Equal(t, "second", snap.Name)
	require.Len(t, snap.Nets, 1)
	assert.Equal(t, "w2", snap.Nets[0].Name)

	mods := col.Modules()
	require.Len(t, mods, 2)
	assert.Equal(t, "first", mods[0].Name)
	assert.Equal(t, "second", mods[1].Name)
}
