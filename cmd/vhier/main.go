package main

import (
	"encoding/json"
	"encoding/xml"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/hdlkit/verilog-go/internal/config"
	"github.com/hdlkit/verilog-go/internal/facts"
	"github.com/hdlkit/verilog-go/internal/language"
	"github.com/hdlkit/verilog-go/internal/netlist"
	"github.com/hdlkit/verilog-go/internal/validator"
)

func main() {
	vargs, err := config.ParseArgsWith(os.Args[1:], map[string]bool{
		"-o": true, "--output": true, "--module": true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("vhier", flag.ExitOnError)
	output := fs.String("output", "", "write report to file (default: stdout)")
	fs.StringVar(output, "o", "", "write report to file (shorthand)")
	showCells := fs.Bool("cells", false, "list each module's cells")
	showModules := fs.Bool("modules", false, "list module names")
	showModFiles := fs.Bool("module-files", false, "list modules with their source files")
	showMissing := fs.Bool("missing", false, "list referenced but undefined modules")
	showInstances := fs.Bool("instance", false, "include instance names in the hierarchy")
	showFacts := fs.Bool("facts", false, "emit relational fact tables as JSON")
	asXML := fs.Bool("xml", false, "emit the hierarchy as XML")
	onlyModule := fs.String("module", "", "restrict fact tables to one module")
	dump := fs.Bool("dump", false, "dump the full netlist")
	quiet := fs.Bool("quiet", false, "suppress warnings")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: vhier [+define+N=V] [+incdir+DIR] [-y DIR] [-f file] [options] <file.v>...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(vargs.Unparsed); err != nil {
		os.Exit(1)
	}

	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.Merge(vargs)

	files := append([]string{}, vargs.Files...)
	files = append(files, vargs.LibraryFiles...)
	if len(files) == 0 {
		files, err = cfg.ResolveFiles(".")
		if err != nil || len(files) == 0 {
			fs.Usage()
			os.Exit(1)
		}
	}

	nl := netlist.NewFromConfig(cfg)
	nl.Quiet = *quiet
	// A file that fails to read is dropped from the batch; the report
	// covers everything else.
	readFailed := false
	for _, path := range files {
		if err := nl.ReadFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			readFailed = true
		}
	}
	nl.Link()

	var report string
	switch {
	case *dump:
		report = nl.Dump()
	case *showFacts:
		report, err = factsReport(nl, *onlyModule)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case *showModules:
		report = modulesReport(nl)
	case *showModFiles:
		report = moduleFilesReport(nl)
	case *showCells:
		report = cellsReport(nl)
	case *showMissing:
		report = missingReport(nl)
	case *asXML:
		report, err = xmlReport(nl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		report = forestReport(nl, *showInstances)
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(report), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Print(report)
	}

	if readFailed {
		os.Exit(1)
	}
}

func factsReport(nl *netlist.Netlist, onlyModule string) (string, error) {
	tables := facts.BuildTables(nl)
	if onlyModule != "" {
		tables = facts.FilterTablesByModules(tables, map[string]bool{onlyModule: true})
	}

	v, err := validator.NewFactsValidator()
	if err != nil {
		return "", err
	}
	if err := v.Validate(tables); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(tables, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

func modulesReport(nl *netlist.Netlist) string {
	var b strings.Builder
	for _, mod := range nl.GetModules() {
		b.WriteString(mod.Name)
		if mod.IsTop {
			b.WriteString(" (top)")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func moduleFilesReport(nl *netlist.Netlist) string {
	var b strings.Builder
	for _, mod := range nl.GetModules() {
		fmt.Fprintf(&b, "%s\t%s\n", mod.Name, mod.SourceFile)
	}
	return b.String()
}

func cellsReport(nl *netlist.Netlist) string {
	var b strings.Builder
	for _, mod := range nl.GetModules() {
		fmt.Fprintf(&b, "%s\n", mod.Name)
		for _, name := range mod.CellNames() {
			cell := mod.GetCell(name)
			fmt.Fprintf(&b, "  %s %s\n", cell.ModuleName, cell.Name)
		}
	}
	return b.String()
}

func missingReport(nl *netlist.Netlist) string {
	seen := make(map[string]bool)
	var b strings.Builder
	for _, mod := range nl.GetModules() {
		for _, name := range mod.CellNames() {
			cell := mod.GetCell(name)
			if cell.ResolvedModule == nil && !seen[cell.ModuleName] &&
				!language.IsGatePrim(cell.ModuleName) {
				seen[cell.ModuleName] = true
				b.WriteString(cell.ModuleName)
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

// forestReport prints the instantiation hierarchy from each top module.
func forestReport(nl *netlist.Netlist, withInstances bool) string {
	var b strings.Builder
	for _, top := range nl.GetTopModules() {
		printTree(&b, top, "", withInstances, map[string]bool{})
	}
	return b.String()
}

func printTree(b *strings.Builder, mod *netlist.Module, indent string, withInstances bool, onPath map[string]bool) {
	b.WriteString(indent)
	b.WriteString(mod.Name)
	b.WriteString("\n")

	// A recursive design would otherwise print forever.
	if onPath[mod.Name] {
		return
	}
	onPath[mod.Name] = true
	defer delete(onPath, mod.Name)

	for _, name := range mod.CellNames() {
		cell := mod.GetCell(name)
		childIndent := indent + "  "
		if withInstances {
			fmt.Fprintf(b, "%s%s:\n", childIndent, cell.Name)
			childIndent += "  "
		}
		if cell.ResolvedModule != nil {
			printTree(b, cell.ResolvedModule, childIndent, withInstances, onPath)
		} else {
			fmt.Fprintf(b, "%s%s (missing)\n", childIndent, cell.ModuleName)
		}
	}
}

type xmlCell struct {
	Name     string    `xml:"name,attr"`
	Module   string    `xml:"module,attr"`
	Missing  bool      `xml:"missing,attr,omitempty"`
	Children []xmlCell `xml:"cell"`
}

type xmlModule struct {
	Name  string    `xml:"name,attr"`
	File  string    `xml:"file,attr,omitempty"`
	Cells []xmlCell `xml:"cell"`
}

type xmlHierarchy struct {
	XMLName xml.Name    `xml:"hierarchy"`
	Tops    []xmlModule `xml:"module"`
}

func xmlReport(nl *netlist.Netlist) (string, error) {
	var h xmlHierarchy
	for _, top := range nl.GetTopModules() {
		h.Tops = append(h.Tops, xmlModule{
			Name:  top.Name,
			File:  top.SourceFile,
			Cells: xmlCells(top, map[string]bool{top.Name: true}),
		})
	}

	data, err := xml.MarshalIndent(h, "", "  ")
	if err != nil {
		return "", err
	}
	return xml.Header + string(data) + "\n", nil
}

func xmlCells(mod *netlist.Module, onPath map[string]bool) []xmlCell {
	var cells []xmlCell
	for _, name := range mod.CellNames() {
		cell := mod.GetCell(name)
		entry := xmlCell{Name: cell.Name, Module: cell.ModuleName}
		if cell.ResolvedModule == nil {
			entry.Missing = true
		} else if !onPath[cell.ModuleName] {
			onPath[cell.ModuleName] = true
			entry.Children = xmlCells(cell.ResolvedModule, onPath)
			delete(onPath, cell.ModuleName)
		}
		cells = append(cells, entry)
	}
	return cells
}
