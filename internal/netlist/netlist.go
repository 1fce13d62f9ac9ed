// Package netlist builds a linked multi-module design from Verilog
// sources. Files are preprocessed, scanned structurally, and folded into
// module definitions; instance references are resolved afterwards in a
// deferred link phase so files can be read in any order.
package netlist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hdlkit/verilog-go/internal/config"
	"github.com/hdlkit/verilog-go/internal/language"
	"github.com/hdlkit/verilog-go/internal/parser"
	"github.com/hdlkit/verilog-go/internal/preproc"
)

// Netlist is the top-level container: a table of module definitions plus
// the shared read configuration. Reading and linking are separate steps;
// call Link after the last ReadFile.
type Netlist struct {
	modules     map[string]*Module
	moduleOrder []string

	defines      map[string]string
	includePaths []string
	libraryDirs  []string
	libExts      []string
	standard     string

	needLink []*Module
	warnings []string

	// Quiet suppresses warning output to stderr.
	Quiet bool
}

// Option adjusts a Netlist at construction time.
type Option func(*Netlist)

// WithDefines seeds the macro table handed to each file's preprocessor.
func WithDefines(defines map[string]string) Option {
	return func(n *Netlist) {
		for name, value := range defines {
			n.defines[name] = value
		}
	}
}

// WithIncludePaths appends include search directories.
func WithIncludePaths(paths ...string) Option {
	return func(n *Netlist) {
		n.includePaths = append(n.includePaths, paths...)
	}
}

// WithLibraryDirs appends directories searched for unresolved modules
// during linking.
func WithLibraryDirs(dirs ...string) Option {
	return func(n *Netlist) {
		n.libraryDirs = append(n.libraryDirs, dirs...)
	}
}

// WithLibExts replaces the file extensions tried in library directories.
func WithLibExts(exts ...string) Option {
	return func(n *Netlist) {
		if len(exts) > 0 {
			n.libExts = exts
		}
	}
}

// WithStandard selects the keyword standard used by the lexer.
func WithStandard(standard string) Option {
	return func(n *Netlist) {
		if standard != "" {
			n.standard = standard
		}
	}
}

// New creates an empty netlist.
func New(opts ...Option) *Netlist {
	n := &Netlist{
		modules:  make(map[string]*Module),
		defines:  make(map[string]string),
		standard: language.LanguageMaximum(),
		libExts:  []string{".v"},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NewFromConfig creates a netlist configured from a project configuration.
func NewFromConfig(cfg *config.Config) *Netlist {
	return New(
		WithDefines(cfg.Defines),
		WithIncludePaths(cfg.IncludeDirs...),
		WithLibraryDirs(cfg.LibraryDirs...),
		WithLibExts(cfg.LibExts...),
		WithStandard(cfg.Standard),
	)
}

// Define adds a macro visible to every subsequently read file.
func (n *Netlist) Define(name, value string) {
	n.defines[name] = value
}

// AddIncludePath appends an include search directory.
func (n *Netlist) AddIncludePath(path string) {
	n.includePaths = append(n.includePaths, path)
}

// AddLibraryDir appends a library search directory.
func (n *Netlist) AddLibraryDir(dir string) {
	n.libraryDirs = append(n.libraryDirs, dir)
}

// Warnings returns the warnings accumulated so far.
func (n *Netlist) Warnings() []string {
	return n.warnings
}

// ReadFile preprocesses and scans one source file, registering every
// module it defines. Each file gets its own preprocessor so conditional
// state cannot leak between files; the macro table and include paths are
// shared configuration. New modules are queued for the next Link.
func (n *Netlist) ReadFile(path string) error {
	pp := preproc.New(n.defines, n.includePaths)
	pp.Quiet = n.Quiet
	text, err := pp.ProcessFile(path)
	for _, w := range pp.Warnings() {
		n.warnf("%s:%d: %s", w.File, w.Line, w.Message)
	}
	// The post-file macro table carries to later files, even when the
	// file itself fails. Taking the snapshot rather than merging lets an
	// `undef here remove a macro for the rest of the batch.
	n.defines = pp.Defines()
	if err != nil {
		return err
	}

	collector := parser.NewCollector()
	p := parser.NewParser(collector, n.standard)
	p.Parse(text)

	for _, info := range collector.Modules() {
		mod := n.buildModule(info, path)
		n.register(mod)
		n.needLink = append(n.needLink, mod)
	}
	return nil
}

// ReadFiles reads each path in order, stopping on the first error.
func (n *Netlist) ReadFiles(paths []string) error {
	for _, path := range paths {
		if err := n.ReadFile(path); err != nil {
			return err
		}
	}
	return nil
}

func (n *Netlist) buildModule(info parser.ModuleInfo, path string) *Module {
	mod := NewModule(info.Name)
	mod.Line = info.Line
	mod.SourceFile = path
	for _, p := range info.Ports {
		mod.AddPort(p.Name, p.Direction, 1)
	}
	for _, nt := range info.Nets {
		mod.AddNet(nt.Name, nt.Kind, 1)
	}
	for _, pr := range info.Parameters {
		mod.AddParameter(pr.Name, "")
	}
	for _, ci := range info.Cells {
		cell := mod.AddCell(ci.Name, ci.ModuleName)
		cell.Line = ci.Line
		for _, pinName := range ci.PinOrder {
			netName := ci.Pins[pinName]
			var net *Net
			if netName != "" {
				// Connecting a pin to an undeclared name creates an
				// implicit wire, as the language allows.
				net = mod.AddNet(netName, "wire", 1)
			}
			cell.AddPin(pinName, net)
		}
	}
	return mod
}

func (n *Netlist) register(mod *Module) {
	if _, exists := n.modules[mod.Name]; exists {
		n.warnf("module %s redefined in %s, replacing earlier definition",
			mod.Name, mod.SourceFile)
	} else {
		n.moduleOrder = append(n.moduleOrder, mod.Name)
	}
	n.modules[mod.Name] = mod
}

// Link resolves instance references against the module table. It runs as
// a worklist fixed point: each pass tries every unresolved cell, and
// resolving one can in turn enable others (a library file read between
// passes, for instance). The pass count is bounded by the total number of
// cells, so a missing definition can never loop. Unresolved references
// remain nil and draw a warning; they are not an error.
func (n *Netlist) Link() {
	n.needLink = nil
	// Recomputed each pass: library loads add modules and cells. Every
	// pass either resolves a cell or loads a file, so this terminates.
	for pass := 0; pass <= n.totalCells()+len(n.moduleOrder); pass++ {
		if n.linkPass() {
			continue
		}
		if !n.loadFromLibraries() {
			break
		}
	}
	for _, name := range n.moduleOrder {
		mod := n.modules[name]
		for _, cellName := range mod.CellNames() {
			cell := mod.Cells[cellName]
			// Gate primitives are language builtins; they stay
			// unresolved without being undefined.
			if cell.ResolvedModule == nil && !language.IsGatePrim(cell.ModuleName) {
				n.warnf("%s: cell %s references undefined module %s",
					mod.Name, cell.Name, cell.ModuleName)
			}
		}
	}
	n.markTops()
}

// linkPass resolves what it can and reports whether anything changed.
func (n *Netlist) linkPass() bool {
	changed := false
	for _, name := range n.moduleOrder {
		mod := n.modules[name]
		for _, cellName := range mod.CellNames() {
			cell := mod.Cells[cellName]
			if cell.ResolvedModule != nil {
				continue
			}
			target, ok := n.modules[cell.ModuleName]
			if !ok {
				continue
			}
			cell.ResolvedModule = target
			n.bindPins(cell, target)
			changed = true
		}
	}
	return changed
}

// bindPins classifies each connected net's pins now that the referenced
// module's port directions are known.
func (n *Netlist) bindPins(cell *Cell, target *Module) {
	for _, pinName := range cell.PinNames() {
		pin := cell.Pins[pinName]
		if pin.Net == nil {
			continue
		}
		port := target.GetPort(pinName)
		if port == nil {
			continue
		}
		switch port.Direction {
		case "output":
			pin.Net.SetDriver(pin)
		case "input":
			pin.Net.AddLoad(pin)
		}
	}
}

// loadFromLibraries searches the library directories for files named
// after unresolved modules and reads any it finds. Reports whether a new
// file was read, which restarts the worklist.
func (n *Netlist) loadFromLibraries() bool {
	if len(n.libraryDirs) == 0 {
		return false
	}
	loaded := false
	for _, name := range n.unresolvedNames() {
		for _, dir := range n.libraryDirs {
			found := ""
			for _, ext := range n.libExts {
				candidate := filepath.Join(dir, name+ext)
				if _, err := os.Stat(candidate); err == nil {
					found = candidate
					break
				}
			}
			if found == "" {
				continue
			}
			if err := n.ReadFile(found); err != nil {
				n.warnf("library file %s: %v", found, err)
				continue
			}
			loaded = true
			break
		}
	}
	return loaded
}

func (n *Netlist) unresolvedNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, modName := range n.moduleOrder {
		mod := n.modules[modName]
		for _, cellName := range mod.CellNames() {
			cell := mod.Cells[cellName]
			if cell.ResolvedModule != nil || seen[cell.ModuleName] {
				continue
			}
			if language.IsGatePrim(cell.ModuleName) {
				continue
			}
			if _, defined := n.modules[cell.ModuleName]; defined {
				continue
			}
			seen[cell.ModuleName] = true
			names = append(names, cell.ModuleName)
		}
	}
	return names
}

// markTops flags modules never referenced by any resolved cell. With
// unresolved references the set is an approximation, which is the useful
// answer for a partial design.
func (n *Netlist) markTops() {
	referenced := make(map[string]bool)
	for _, name := range n.moduleOrder {
		for _, cellName := range n.modules[name].CellNames() {
			cell := n.modules[name].Cells[cellName]
			if cell.ResolvedModule != nil {
				referenced[cell.ResolvedModule.Name] = true
			}
		}
	}
	for _, name := range n.moduleOrder {
		n.modules[name].IsTop = !referenced[name]
	}
}

func (n *Netlist) totalCells() int {
	total := 0
	for _, name := range n.moduleOrder {
		total += len(n.modules[name].Cells)
	}
	return total
}

// FindModule returns the named module, or nil.
func (n *Netlist) FindModule(name string) *Module {
	return n.modules[name]
}

// GetModules returns every module in registration order.
func (n *Netlist) GetModules() []*Module {
	mods := make([]*Module, 0, len(n.moduleOrder))
	for _, name := range n.moduleOrder {
		mods = append(mods, n.modules[name])
	}
	return mods
}

// GetTopModules returns the modules not instantiated by any other module,
// in registration order. Only meaningful after Link.
func (n *Netlist) GetTopModules() []*Module {
	var tops []*Module
	for _, name := range n.moduleOrder {
		if n.modules[name].IsTop {
			tops = append(tops, n.modules[name])
		}
	}
	return tops
}

// Dump renders a human-readable description of the whole netlist.
func (n *Netlist) Dump() string {
	var b strings.Builder
	b.WriteString("Netlist Dump:\n")
	b.WriteString("=============\n")
	for _, mod := range n.GetModules() {
		fmt.Fprintf(&b, "\nModule: %s", mod.Name)
		if mod.IsTop {
			b.WriteString(" (top)")
		}
		b.WriteString("\n")
		if mod.SourceFile != "" {
			fmt.Fprintf(&b, "  File: %s\n", mod.SourceFile)
		}
		fmt.Fprintf(&b, "  Ports: %d\n", len(mod.Ports))
		for _, name := range mod.PortNames() {
			port := mod.Ports[name]
			fmt.Fprintf(&b, "    %s %s\n", port.Direction, port.Name)
		}
		fmt.Fprintf(&b, "  Nets: %d\n", len(mod.Nets))
		for _, name := range mod.NetNames() {
			net := mod.Nets[name]
			fmt.Fprintf(&b, "    %s %s\n", net.NetType, net.Name)
		}
		fmt.Fprintf(&b, "  Cells: %d\n", len(mod.Cells))
		for _, name := range mod.CellNames() {
			cell := mod.Cells[name]
			status := "unresolved"
			if cell.ResolvedModule != nil {
				status = "resolved"
			}
			fmt.Fprintf(&b, "    %s %s (%s)\n", cell.ModuleName, cell.Name, status)
			for _, pinName := range cell.PinNames() {
				pin := cell.Pins[pinName]
				netName := ""
				if pin.Net != nil {
					netName = pin.Net.Name
				}
				fmt.Fprintf(&b, "      .%s(%s)\n", pinName, netName)
			}
		}
		if len(mod.Parameters) > 0 {
			fmt.Fprintf(&b, "  Parameters: %d\n", len(mod.Parameters))
			for _, name := range mod.ParameterNames() {
				if value := mod.Parameters[name]; value != "" {
					fmt.Fprintf(&b, "    %s = %s\n", name, value)
				} else {
					fmt.Fprintf(&b, "    %s\n", name)
				}
			}
		}
	}
	return b.String()
}

// VerilogText regenerates skeleton source for every module: declarations
// and instances without behavioral bodies. Useful for checking what the
// structural scan captured.
func (n *Netlist) VerilogText() string {
	var b strings.Builder
	for i, mod := range n.GetModules() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(mod.VerilogText())
	}
	return b.String()
}

// VerilogText regenerates skeleton source for one module.
func (m *Module) VerilogText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %s (", m.Name)
	for i, name := range m.portOrder {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
	}
	b.WriteString(");\n")
	for _, name := range m.portOrder {
		port := m.Ports[name]
		fmt.Fprintf(&b, "  %s %s;\n", port.Direction, port.Name)
	}
	for _, name := range m.netOrder {
		net := m.Nets[name]
		if _, isPort := m.Ports[name]; isPort {
			continue
		}
		netType := net.NetType
		if netType == "" {
			netType = "wire"
		}
		fmt.Fprintf(&b, "  %s %s;\n", netType, name)
	}
	for _, name := range m.paramOrder {
		if value := m.Parameters[name]; value != "" {
			fmt.Fprintf(&b, "  parameter %s = %s;\n", name, value)
		} else {
			fmt.Fprintf(&b, "  parameter %s;\n", name)
		}
	}
	for _, name := range m.cellOrder {
		cell := m.Cells[name]
		fmt.Fprintf(&b, "  %s %s (", cell.ModuleName, cell.Name)
		for i, pinName := range cell.pinOrder {
			if i > 0 {
				b.WriteString(", ")
			}
			pin := cell.Pins[pinName]
			netName := ""
			if pin.Net != nil {
				netName = pin.Net.Name
			}
			fmt.Fprintf(&b, ".%s(%s)", pinName, netName)
		}
		b.WriteString(");\n")
	}
	b.WriteString("endmodule\n")
	return b.String()
}

func (n *Netlist) warnf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	n.warnings = append(n.warnings, msg)
	if !n.Quiet {
		fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
	}
}
