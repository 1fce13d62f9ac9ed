package facts

import (
	"sort"

	"github.com/hdlkit/verilog-go/internal/netlist"
)

// Tables is the relational fact model for a linked design.
// Each slice is a relation (table) with flat rows.
type Tables struct {
	Files      []FileRow      `json:"files"`
	Modules    []ModuleRow    `json:"modules"`
	Ports      []PortRow      `json:"ports"`
	Nets       []NetRow       `json:"nets"`
	Cells      []CellRow      `json:"cells"`
	Pins       []PinRow       `json:"pins"`
	Parameters []ParameterRow `json:"parameters"`
}

type FileRow struct {
	Path    string `json:"path"`
	Modules int    `json:"modules"`
}

type ModuleRow struct {
	Name  string `json:"name"`
	File  string `json:"file"`
	Line  int    `json:"line"`
	IsTop bool   `json:"is_top"`
}

type PortRow struct {
	Module    string `json:"module"`
	Name      string `json:"name"`
	Direction string `json:"direction"`
}

type NetRow struct {
	Module  string `json:"module"`
	Name    string `json:"name"`
	NetType string `json:"net_type"`
}

type CellRow struct {
	Module     string `json:"module"`
	Name       string `json:"name"`
	Target     string `json:"target"`
	Resolved   bool   `json:"resolved"`
	TargetFile string `json:"target_file,omitempty"`
	Line       int    `json:"line"`
}

type PinRow struct {
	Module string `json:"module"`
	Cell   string `json:"cell"`
	Name   string `json:"name"`
	Net    string `json:"net"`
}

type ParameterRow struct {
	Module string `json:"module"`
	Name   string `json:"name"`
	Value  string `json:"value,omitempty"`
}

// BuildTables flattens a linked netlist into relational rows. Rows follow
// module registration order except Files, which are sorted by path.
func BuildTables(nl *netlist.Netlist) Tables {
	tables := Tables{
		Files:      []FileRow{},
		Modules:    []ModuleRow{},
		Ports:      []PortRow{},
		Nets:       []NetRow{},
		Cells:      []CellRow{},
		Pins:       []PinRow{},
		Parameters: []ParameterRow{},
	}

	fileCounts := make(map[string]int)
	for _, mod := range nl.GetModules() {
		if mod.SourceFile != "" {
			fileCounts[mod.SourceFile]++
		}

		tables.Modules = append(tables.Modules, ModuleRow{
			Name:  mod.Name,
			File:  mod.SourceFile,
			Line:  mod.Line,
			IsTop: mod.IsTop,
		})

		for _, name := range mod.PortNames() {
			port := mod.Ports[name]
			tables.Ports = append(tables.Ports, PortRow{
				Module:    mod.Name,
				Name:      port.Name,
				Direction: port.Direction,
			})
		}

		for _, name := range mod.NetNames() {
			net := mod.Nets[name]
			tables.Nets = append(tables.Nets, NetRow{
				Module:  mod.Name,
				Name:    net.Name,
				NetType: net.NetType,
			})
		}

		for _, name := range mod.CellNames() {
			cell := mod.Cells[name]
			row := CellRow{
				Module:   mod.Name,
				Name:     cell.Name,
				Target:   cell.ModuleName,
				Resolved: cell.ResolvedModule != nil,
				Line:     cell.Line,
			}
			if cell.ResolvedModule != nil {
				row.TargetFile = cell.ResolvedModule.SourceFile
			}
			tables.Cells = append(tables.Cells, row)

			for _, pinName := range cell.PinNames() {
				pin := cell.Pins[pinName]
				netName := ""
				if pin.Net != nil {
					netName = pin.Net.Name
				}
				tables.Pins = append(tables.Pins, PinRow{
					Module: mod.Name,
					Cell:   cell.Name,
					Name:   pin.Name,
					Net:    netName,
				})
			}
		}

		for _, name := range mod.ParameterNames() {
			tables.Parameters = append(tables.Parameters, ParameterRow{
				Module: mod.Name,
				Name:   name,
				Value:  mod.Parameters[name],
			})
		}
	}

	for path, count := range fileCounts {
		tables.Files = append(tables.Files, FileRow{Path: path, Modules: count})
	}
	sort.Slice(tables.Files, func(i, j int) bool { return tables.Files[i].Path < tables.Files[j].Path })

	return tables
}
