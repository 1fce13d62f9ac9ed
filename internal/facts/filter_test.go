package facts

import "testing"

func TestFilterTablesByModules(t *testing.T) {
	tables := Tables{
		Files: []FileRow{
			{Path: "a.v", Modules: 1},
			{Path: "b.v", Modules: 1},
		},
		Modules: []ModuleRow{
			{Name: "a", File: "a.v"},
			{Name: "b", File: "b.v"},
		},
		Ports: []PortRow{
			{Module: "a", Name: "clk"},
			{Module: "b", Name: "rst"},
		},
		Cells: []CellRow{
			{Module: "a", Name: "u1", Target: "b"},
		},
		Pins: []PinRow{
			{Module: "a", Cell: "u1", Name: "rst", Net: "clk"},
		},
	}

	modules := map[string]bool{"a": true}
	filtered := FilterTablesByModules(tables, modules)

	if len(filtered.Files) != 1 || filtered.Files[0].Path != "a.v" {
		t.Fatalf("expected only a.v file row, got %#v", filtered.Files)
	}
	if len(filtered.Modules) != 1 || filtered.Modules[0].Name != "a" {
		t.Fatalf("expected only module a rows, got %#v", filtered.Modules)
	}
	if len(filtered.Ports) != 1 || filtered.Ports[0].Name != "clk" {
		t.Fatalf("expected only module a port rows, got %#v", filtered.Ports)
	}
	if len(filtered.Cells) != 1 || len(filtered.Pins) != 1 {
		t.Fatalf("expected module a cell and pin rows, got %#v %#v", filtered.Cells, filtered.Pins)
	}
}

func TestFilterTablesByModulesEmpty(t *testing.T) {
	tables := Tables{
		Files:   []FileRow{{Path: "a.v"}},
		Modules: []ModuleRow{{Name: "a", File: "a.v"}},
	}

	filtered := FilterTablesByModules(tables, map[string]bool{})
	if len(filtered.Files) != 0 || len(filtered.Modules) != 0 {
		t.Fatalf("expected empty tables, got %#v", filtered)
	}
}
