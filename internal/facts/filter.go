package facts

// FilterTablesByModules returns a new Tables object containing only rows
// belonging to the named modules. File rows are kept when any selected
// module came from that file.
func FilterTablesByModules(tables Tables, modules map[string]bool) Tables {
	if len(modules) == 0 {
		return emptyTables()
	}
	out := emptyTables()

	keepFiles := make(map[string]bool)
	for _, row := range tables.Modules {
		if modules[row.Name] {
			out.Modules = append(out.Modules, row)
			if row.File != "" {
				keepFiles[row.File] = true
			}
		}
	}
	for _, row := range tables.Files {
		if keepFiles[row.Path] {
			out.Files = append(out.Files, row)
		}
	}
	for _, row := range tables.Ports {
		if modules[row.Module] {
			out.Ports = append(out.Ports, row)
		}
	}
	for _, row := range tables.Nets {
		if modules[row.Module] {
			out.Nets = append(out.Nets, row)
		}
	}
	for _, row := range tables.Cells {
		if modules[row.Module] {
			out.Cells = append(out.Cells, row)
		}
	}
	for _, row := range tables.Pins {
		if modules[row.Module] {
			out.Pins = append(out.Pins, row)
		}
	}
	for _, row := range tables.Parameters {
		if modules[row.Module] {
			out.Parameters = append(out.Parameters, row)
		}
	}

	return out
}

func emptyTables() Tables {
	return Tables{
		Files:      []FileRow{},
		Modules:    []ModuleRow{},
		Ports:      []PortRow{},
		Nets:       []NetRow{},
		Cells:      []CellRow{},
		Pins:       []PinRow{},
		Parameters: []ParameterRow{},
	}
}
