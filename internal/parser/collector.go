package parser

// PortInfo describes one harvested port declaration.
type PortInfo struct {
	Name      string
	Direction string
	Line      int
}

// NetInfo describes one harvested net declaration.
type NetInfo struct {
	Name string
	Kind string
	Line int
}

// ParamInfo describes one harvested parameter declaration.
type ParamInfo struct {
	Name string
	Line int
}

// CellInfo describes one harvested module instantiation and its named pin
// connections (pin name -> net name).
type CellInfo struct {
	Name       string
	ModuleName string
	Line       int
	Pins       map[string]string
	PinOrder   []string
}

// ModuleInfo is the per-module accumulation produced by a Collector.
type ModuleInfo struct {
	Name       string
	Line       int
	Ports      []PortInfo
	Nets       []NetInfo
	Parameters []ParamInfo
	Cells      []CellInfo
}

// Collector is the declaration-collecting observer: it subscribes to the
// structural scan and owns the per-module accumulators, resetting them on
// every module begin. A file with several module/endmodule blocks yields
// one completed ModuleInfo per block, in source order.
type Collector struct {
	NopObserver

	current   *ModuleInfo
	completed []ModuleInfo
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Reset clears all state so a Collector can be reused across files.
func (c *Collector) Reset() {
	c.current = nil
	c.completed = nil
}

// Snapshot returns the module currently being accumulated, or false if the
// scan is not inside a module.
func (c *Collector) Snapshot() (ModuleInfo, bool) {
	if c.current == nil {
		return ModuleInfo{}, false
	}
	return *c.current, true
}

// Modules returns every completed module from the current file, flushing a
// still-open module first (unterminated module blocks are tolerated).
func (c *Collector) Modules() []ModuleInfo {
	c.flush()
	return c.completed
}

func (c *Collector) flush() {
	if c.current != nil {
		c.completed = append(c.completed, *c.current)
		c.current = nil
	}
}

func (c *Collector) ModuleBegin(name string, line int) {
	c.flush()
	c.current = &ModuleInfo{Name: name, Line: line}
}

func (c *Collector) ModuleEnd() {
	c.flush()
}

func (c *Collector) PortDeclaration(direction, name string, line int) {
	if c.current == nil {
		return
	}
	c.current.Ports = append(c.current.Ports, PortInfo{Name: name, Direction: direction, Line: line})
}

func (c *Collector) NetDeclaration(kind, name string, line int) {
	if c.current == nil {
		return
	}
	c.current.Nets = append(c.current.Nets, NetInfo{Name: name, Kind: kind, Line: line})
}

func (c *Collector) ParameterDeclaration(name string, line int) {
	if c.current == nil {
		return
	}
	c.current.Parameters = append(c.current.Parameters, ParamInfo{Name: name, Line: line})
}

func (c *Collector) InstanceDeclaration(moduleName, instanceName string, line int) {
	if c.current == nil {
		return
	}
	c.current.Cells = append(c.current.Cells, CellInfo{
		Name:       instanceName,
		ModuleName: moduleName,
		Line:       line,
		Pins:       make(map[string]string),
	})
}

func (c *Collector) PinConnection(instanceName, pinName, netName string) {
	if c.current == nil || len(c.current.Cells) == 0 {
		return
	}
	cell := &c.current.Cells[len(c.current.Cells)-1]
	if cell.Name != instanceName {
		return
	}
	if _, seen := cell.Pins[pinName]; !seen {
		cell.PinOrder = append(cell.PinOrder, pinName)
	}
	cell.Pins[pinName] = netName
}
