// Package language provides static Verilog/SystemVerilog language tables
// and small value utilities: reserved keywords by standard, compiler
// directives, gate primitives, and numeric-literal decoding.
package language

import (
	"fmt"
	"strconv"
	"strings"
)

// Standards lists the supported language standards in chronological order.
// A keyword query against a standard includes every earlier standard's words.
var Standards = []string{
	"1364-1995", "1364-2001", "1364-2005",
	"1800-2005", "1800-2009", "1800-2012",
	"1800-2017", "1800-2023",
}

// keywordsByStandard holds the words each standard added, not the cumulative set.
var keywordsByStandard = map[string][]string{
	"1364-1995": {
		"always", "and", "assign", "begin", "buf", "bufif0", "bufif1",
		"case", "casex", "casez", "cmos", "deassign", "default", "defparam",
		"disable", "else", "end", "endcase", "endfunction", "endmodule",
		"endprimitive", "endspecify", "endtable", "endtask", "event",
		"for", "force", "forever", "fork", "function", "highz0", "highz1",
		"if", "initial", "inout", "input", "integer", "join", "large",
		"macromodule", "medium", "module", "nand", "negedge", "nmos",
		"nor", "not", "notif0", "notif1", "or", "output", "parameter",
		"pmos", "posedge", "primitive", "pull0", "pull1", "pulldown",
		"pullup", "rcmos", "real", "realtime", "reg", "release", "repeat",
		"rnmos", "rpmos", "rtran", "rtranif0", "rtranif1", "scalared",
		"small", "specify", "strength", "strong0", "strong1", "supply0",
		"supply1", "table", "task", "time", "tran", "tranif0", "tranif1",
		"tri", "tri0", "tri1", "triand", "trior", "trireg", "vectored",
		"wait", "wand", "weak0", "weak1", "while", "wire", "wor", "xnor", "xor",
	},
	"1364-2001": {
		"automatic", "cell", "config", "design", "edge", "endconfig",
		"endgenerate", "generate", "genvar", "ifnone", "incdir", "include",
		"instance", "liblist", "library", "localparam", "noshowcancelled",
		"pulsestyle_ondetect", "pulsestyle_onevent", "showcancelled",
		"signed", "specparam", "unsigned", "use",
	},
	"1364-2005": {
		"uwire",
	},
	"1800-2005": {
		"alias", "always_comb", "always_ff", "always_latch", "assert",
		"assume", "before", "bind", "bins", "binsof", "bit", "break",
		"byte", "chandle", "class", "clocking", "const", "constraint",
		"context", "continue", "cover", "covergroup", "coverpoint",
		"cross", "dist", "do", "endclass", "endclocking", "endgroup",
		"endinterface", "endpackage", "endprogram", "endproperty",
		"endsequence", "enum", "expect", "export", "extends", "extern",
		"final", "first_match", "foreach", "forkjoin", "iff",
		"ignore_bins", "illegal_bins", "import", "inside", "int",
		"interface", "intersect", "join_any", "join_none", "local",
		"logic", "longint", "matches", "modport", "new", "null",
		"package", "packed", "priority", "program", "property",
		"protected", "rand", "randc", "randcase", "randsequence",
		"ref", "return", "sequence", "shortint", "shortreal",
		"solve", "static", "string", "struct", "super", "tagged",
		"this", "type", "typedef", "union", "unique", "var",
		"virtual", "void", "wait_order", "wildcard", "with",
	},
}

// compDirects is the set of recognized compiler directives, backtick included.
var compDirects = map[string]bool{
	"`begin_keywords": true, "`celldefine": true, "`default_nettype": true,
	"`define": true, "`else": true, "`elsif": true, "`end_keywords": true,
	"`endcelldefine": true, "`endif": true, "`ifdef": true, "`ifndef": true,
	"`include": true, "`line": true, "`nounconnected_drive": true,
	"`pragma": true, "`resetall": true, "`timescale": true,
	"`unconnected_drive": true, "`undef": true, "`undefineall": true,
}

var gatePrims = map[string]bool{
	"and": true, "nand": true, "or": true, "nor": true, "xor": true,
	"xnor": true, "buf": true, "not": true, "bufif0": true, "bufif1": true,
	"notif0": true, "notif1": true, "pullup": true, "pulldown": true,
	"cmos": true, "rcmos": true, "nmos": true, "pmos": true, "rnmos": true,
	"rpmos": true, "tran": true, "rtran": true, "tranif0": true,
	"tranif1": true, "rtranif0": true, "rtranif1": true,
}

// allKeywords is the cumulative set across every standard, built once.
var allKeywords = func() map[string]bool {
	set := make(map[string]bool)
	for _, words := range keywordsByStandard {
		for _, w := range words {
			set[w] = true
		}
	}
	return set
}()

// KeywordSet returns the cumulative reserved-word set for the given standard.
// An empty or unknown standard yields the full set across all standards.
func KeywordSet(standard string) map[string]bool {
	if standard == "" {
		return allKeywords
	}
	set := make(map[string]bool)
	for _, std := range Standards {
		for _, w := range keywordsByStandard[std] {
			set[w] = true
		}
		if std == standard {
			return set
		}
	}
	return allKeywords
}

// IsKeyword reports whether symbol is reserved in the given standard
// (or any standard, when standard is empty).
func IsKeyword(symbol, standard string) bool {
	return KeywordSet(standard)[symbol]
}

// IsCompDirect reports whether symbol (with leading backtick) is a
// standard compiler directive.
func IsCompDirect(symbol string) bool {
	return compDirects[symbol]
}

// IsGatePrim reports whether symbol is a built-in gate primitive.
func IsGatePrim(symbol string) bool {
	return gatePrims[symbol]
}

// LanguageMaximum returns the newest standardized language version.
func LanguageMaximum() string {
	return Standards[len(Standards)-1]
}

// Number describes a decoded Verilog numeric literal.
type Number struct {
	Value  int64
	Width  int
	Signed bool
}

// ParseNumber decodes a sized literal like 4'b1010, 32'h1b or 8'sd200, or a
// plain decimal integer. The x and z digits count as 0. For signed sized
// literals the value is reinterpreted as two's complement at the declared
// width. Returns false for anything malformed.
func ParseNumber(s string) (Number, bool) {
	tick := strings.IndexByte(s, '\'')
	if tick < 0 {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || s == "" {
			return Number{}, false
		}
		return Number{Value: v, Width: widthOf(v)}, true
	}

	width, err := strconv.Atoi(s[:tick])
	if err != nil || width <= 0 || width > 64 {
		return Number{}, false
	}
	rest := s[tick+1:]

	signed := false
	if strings.HasPrefix(rest, "s") || strings.HasPrefix(rest, "S") {
		signed = true
		rest = rest[1:]
	}
	if rest == "" {
		return Number{}, false
	}

	var base int
	switch rest[0] {
	case 'b', 'B':
		base = 2
	case 'd', 'D':
		base = 10
	case 'h', 'H':
		base = 16
	default:
		return Number{}, false
	}

	digits := strings.NewReplacer("_", "", "x", "0", "X", "0", "z", "0", "Z", "0").Replace(rest[1:])
	if digits == "" {
		return Number{}, false
	}
	magnitude, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return Number{}, false
	}

	value := int64(magnitude)
	if signed && width < 64 && magnitude>>(uint(width)-1)&1 == 1 {
		value = int64(magnitude) - (1 << uint(width))
	}
	return Number{Value: value, Width: width, Signed: signed}, true
}

func widthOf(v int64) int {
	w := 0
	for u := uint64(v); u != 0; u >>= 1 {
		w++
	}
	if w == 0 {
		w = 1
	}
	return w
}

// NumberValue returns the numeric value of a Verilog literal, or false if
// it is incorrectly formed.
func NumberValue(s string) (int64, bool) {
	n, ok := ParseNumber(s)
	if !ok {
		return 0, false
	}
	return n.Value, true
}

// NumberBits returns the declared bit width of a sized literal (or the
// minimal width of a plain decimal), or false if malformed.
func NumberBits(s string) (int, bool) {
	n, ok := ParseNumber(s)
	if !ok {
		return 0, false
	}
	return n.Width, true
}

// NumberSigned reports whether the literal carries the 's' signed marker.
// Malformed literals return false for ok.
func NumberSigned(s string) (bool, bool) {
	n, ok := ParseNumber(s)
	if !ok {
		return false, false
	}
	return n.Signed, true
}

// SplitBus expands a ranged bus name like "data[3:0]" into its individual
// bit selects, most significant first. Names without a range come back as a
// single element.
func SplitBus(bus string) []string {
	open := strings.IndexByte(bus, '[')
	colon := strings.IndexByte(bus, ':')
	close := strings.IndexByte(bus, ']')
	if open < 0 || colon < open || close < colon {
		return []string{bus}
	}
	name := bus[:open]
	high, err1 := strconv.Atoi(bus[open+1 : colon])
	low, err2 := strconv.Atoi(bus[colon+1 : close])
	if err1 != nil || err2 != nil {
		return []string{bus}
	}
	step := 1
	if high < low {
		step = -1
	}
	var out []string
	for i := high; ; i -= step {
		out = append(out, fmt.Sprintf("%s[%d]", name, i))
		if i == low {
			break
		}
	}
	return out
}

// StripComments removes // line comments and /* */ block comments,
// preserving newlines inside block comments so line numbers stay stable.
func StripComments(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); {
		if text[i] == '/' && i+1 < len(text) && text[i+1] == '/' {
			for i < len(text) && text[i] != '\n' {
				i++
			}
			continue
		}
		if text[i] == '/' && i+1 < len(text) && text[i+1] == '*' {
			i += 2
			for i < len(text) {
				if text[i] == '*' && i+1 < len(text) && text[i+1] == '/' {
					i += 2
					break
				}
				if text[i] == '\n' {
					b.WriteByte('\n')
				}
				i++
			}
			continue
		}
		if text[i] == '"' {
			start := i
			i++
			for i < len(text) && text[i] != '"' && text[i] != '\n' {
				i++
			}
			if i < len(text) {
				i++
			}
			b.WriteString(text[start:i])
			continue
		}
		b.WriteByte(text[i])
		i++
	}
	return b.String()
}
