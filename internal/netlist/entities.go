package netlist

// Port is a module-boundary signal with a direction. Owned by its Module.
type Port struct {
	Name      string
	Direction string // input, output, inout
	Width     int
}

// Net is a signal-carrying declaration inside a module. Driver and Loads
// are filled in during linking, once pin directions are known from the
// resolved module definitions; Connections always holds every attached pin.
type Net struct {
	Name        string
	NetType     string // wire, reg, ...
	Width       int
	Driver      *Pin
	Loads       []*Pin
	Connections []*Pin
}

// AddConnection attaches a pin to this net.
func (n *Net) AddConnection(pin *Pin) {
	n.Connections = append(n.Connections, pin)
}

// SetDriver marks a pin as the net's driver.
func (n *Net) SetDriver(pin *Pin) {
	n.Driver = pin
}

// AddLoad appends a load pin.
func (n *Net) AddLoad(pin *Pin) {
	n.Loads = append(n.Loads, pin)
}

// Pin is a named connection point on a cell. Net and Cell are non-owning
// references.
type Pin struct {
	Name string
	Net  *Net
	Cell *Cell
}

// Cell is a module instantiation: a by-name reference from one module to
// another module's definition. ResolvedModule is nil until the link phase
// finds the definition; an unresolved reference is a legal state.
type Cell struct {
	Name       string
	ModuleName string
	Line       int

	Pins     map[string]*Pin
	pinOrder []string

	ResolvedModule *Module
	Parent         *Module
}

// AddPin creates a pin on the cell, optionally attached to a net.
func (c *Cell) AddPin(name string, net *Net) *Pin {
	pin := &Pin{Name: name, Net: net, Cell: c}
	if _, seen := c.Pins[name]; !seen {
		c.pinOrder = append(c.pinOrder, name)
	}
	c.Pins[name] = pin
	if net != nil {
		net.AddConnection(pin)
	}
	return pin
}

// GetPin returns the named pin, or nil.
func (c *Cell) GetPin(name string) *Pin {
	return c.Pins[name]
}

// PinNames returns the cell's pin names in declaration order.
func (c *Cell) PinNames() []string {
	return c.pinOrder
}

// Module is one module definition with its ports, nets, cells, and
// parameters. Owned by the Netlist; insertion order is preserved for
// deterministic serialization.
type Module struct {
	Name string
	Line int

	Ports     map[string]*Port
	portOrder []string

	Nets     map[string]*Net
	netOrder []string

	Cells     map[string]*Cell
	cellOrder []string

	Parameters map[string]string
	paramOrder []string

	SourceFile string
	IsTop      bool
}

// NewModule creates an empty module definition.
func NewModule(name string) *Module {
	return &Module{
		Name:       name,
		Ports:      make(map[string]*Port),
		Nets:       make(map[string]*Net),
		Cells:      make(map[string]*Cell),
		Parameters: make(map[string]string),
	}
}

// AddPort declares a port. A port implicitly has an associated net of the
// same name. Redeclaring a name returns the existing port.
func (m *Module) AddPort(name, direction string, width int) *Port {
	if existing, ok := m.Ports[name]; ok {
		return existing
	}
	port := &Port{Name: name, Direction: direction, Width: width}
	m.Ports[name] = port
	m.portOrder = append(m.portOrder, name)
	if _, ok := m.Nets[name]; !ok {
		m.AddNet(name, "wire", width)
	}
	return port
}

// AddNet declares a net. Redeclaring a name updates the net type (a
// "output q; reg q;" pair names one signal) and returns the existing net.
func (m *Module) AddNet(name, netType string, width int) *Net {
	if existing, ok := m.Nets[name]; ok {
		if netType != "" {
			existing.NetType = netType
		}
		return existing
	}
	net := &Net{Name: name, NetType: netType, Width: width}
	m.Nets[name] = net
	m.netOrder = append(m.netOrder, name)
	return net
}

// AddCell declares an instance of moduleName. Redeclaring a name returns
// the existing cell.
func (m *Module) AddCell(name, moduleName string) *Cell {
	if existing, ok := m.Cells[name]; ok {
		return existing
	}
	cell := &Cell{
		Name:       name,
		ModuleName: moduleName,
		Pins:       make(map[string]*Pin),
		Parent:     m,
	}
	m.Cells[name] = cell
	m.cellOrder = append(m.cellOrder, name)
	return cell
}

// AddParameter records a parameter name and value.
func (m *Module) AddParameter(name, value string) {
	if _, ok := m.Parameters[name]; !ok {
		m.paramOrder = append(m.paramOrder, name)
	}
	m.Parameters[name] = value
}

// GetPort returns the named port, or nil.
func (m *Module) GetPort(name string) *Port { return m.Ports[name] }

// GetNet returns the named net, or nil.
func (m *Module) GetNet(name string) *Net { return m.Nets[name] }

// GetCell returns the named cell, or nil.
func (m *Module) GetCell(name string) *Cell { return m.Cells[name] }

// PortNames returns port names in declaration order.
func (m *Module) PortNames() []string { return m.portOrder }

// NetNames returns net names in declaration order.
func (m *Module) NetNames() []string { return m.netOrder }

// CellNames returns cell names in declaration order.
func (m *Module) CellNames() []string { return m.cellOrder }

// ParameterNames returns parameter names in declaration order.
func (m *Module) ParameterNames() []string { return m.paramOrder }
