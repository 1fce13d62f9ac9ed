// Package preproc implements the Verilog preprocessor: `define/`undef macro
// handling, `ifdef conditional compilation, and `include inlining. It
// consumes one logical file at a time and produces directive-free text with
// macros substituted.
package preproc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnbalancedConditional is returned when a file ends with `ifdef/`ifndef
// frames still open. This is the only preprocessing error that fails the
// whole file; everything else degrades to a warning.
var ErrUnbalancedConditional = errors.New("unbalanced conditional directive at end of file")

// Warning records a recoverable condition encountered during preprocessing.
type Warning struct {
	File    string
	Line    int
	Message string
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", w.File, w.Line, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.File, w.Message)
}

// Preprocessor holds the macro table and include-path configuration shared
// across files. The conditional stack is scoped to each Process call, so a
// stray `ifdef in one file cannot leak into the next. Not safe for
// concurrent use; give each goroutine its own instance.
type Preprocessor struct {
	defines      map[string]string
	includePaths []string

	// includeStack tracks in-flight include files so cycles terminate.
	includeStack []string

	warnings []Warning

	// Quiet suppresses warning echo to stderr; warnings are still recorded.
	Quiet bool
}

// New creates a Preprocessor seeded with the given macro definitions and
// include search directories. Both may be nil.
func New(defines map[string]string, includePaths []string) *Preprocessor {
	p := &Preprocessor{
		defines:      make(map[string]string),
		includePaths: append([]string(nil), includePaths...),
	}
	for name, value := range defines {
		p.defines[name] = value
	}
	return p
}

// Define adds or replaces a macro definition.
func (p *Preprocessor) Define(name, value string) {
	p.defines[name] = value
}

// Undefine removes a macro; removing an unknown name is a no-op.
func (p *Preprocessor) Undefine(name string) {
	delete(p.defines, name)
}

// Defines returns a copy of the current macro table.
func (p *Preprocessor) Defines() map[string]string {
	out := make(map[string]string, len(p.defines))
	for name, value := range p.defines {
		out[name] = value
	}
	return out
}

// AddIncludePath appends a directory to the include search path.
func (p *Preprocessor) AddIncludePath(dir string) {
	p.includePaths = append(p.includePaths, dir)
}

// Warnings returns the recoverable conditions seen so far.
func (p *Preprocessor) Warnings() []Warning {
	return p.warnings
}

// ProcessFile reads and preprocesses a file from disk.
func (p *Preprocessor) ProcessFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return p.Process(string(data), path)
}

// Process preprocesses source text. origin is the path used for include
// resolution and diagnostics. The returned text has all recognized
// directives consumed, inactive conditional regions dropped, includes
// inlined, and macros expanded.
func (p *Preprocessor) Process(source, origin string) (string, error) {
	p.includeStack = append(p.includeStack, origin)
	defer func() { p.includeStack = p.includeStack[:len(p.includeStack)-1] }()

	var out strings.Builder
	cond := condStack{}

	lines := splitLines(source)
	for i := 0; i < len(lines); i++ {
		line := lines[i].text
		lineNo := lines[i].no

		// Continuation lines are merged before directive recognition,
		// backslash replaced by a single space.
		for hasContinuation(line) && i+1 < len(lines) {
			line = strings.TrimRight(line, " \t")
			line = line[:len(line)-1] + " " + lines[i+1].text
			i++
		}

		name, arg, isDirective := matchDirective(line)
		if isDirective {
			text, err := p.handleDirective(name, arg, line, origin, lineNo, &cond)
			if err != nil {
				return "", err
			}
			out.WriteString(text)
			continue
		}

		// Suppression considers every frame on the stack, not just the top.
		if !cond.allActive() {
			continue
		}

		out.WriteString(p.expandMacros(line))
		out.WriteByte('\n')
	}

	if cond.depth() != 0 {
		return "", fmt.Errorf("%s: %d open `ifdef/`ifndef at end of file: %w",
			origin, cond.depth(), ErrUnbalancedConditional)
	}
	return out.String(), nil
}

// handleDirective interprets one recognized directive line. It returns any
// text to emit in place of the line (only include inlining and verbatim
// pass-throughs produce text).
func (p *Preprocessor) handleDirective(name, arg, line, origin string, lineNo int, cond *condStack) (string, error) {
	switch name {
	case "ifdef":
		macro, ok := firstWord(arg)
		if !ok {
			p.warn(origin, lineNo, "`ifdef without a macro name")
			cond.push(false)
			return "", nil
		}
		_, defined := p.defines[macro]
		cond.push(defined)

	case "ifndef":
		macro, ok := firstWord(arg)
		if !ok {
			p.warn(origin, lineNo, "`ifndef without a macro name")
			cond.push(false)
			return "", nil
		}
		_, defined := p.defines[macro]
		cond.push(!defined)

	case "elsif":
		macro, ok := firstWord(arg)
		if !ok {
			p.warn(origin, lineNo, "`elsif without a macro name")
			return "", nil
		}
		_, defined := p.defines[macro]
		if msg := cond.elsif(defined); msg != "" {
			p.warn(origin, lineNo, msg)
		}

	case "else":
		if msg := cond.elseBranch(); msg != "" {
			p.warn(origin, lineNo, msg)
		}

	case "endif":
		if !cond.pop() {
			p.warn(origin, lineNo, "`endif without matching `ifdef/`ifndef")
		}

	case "define":
		if !cond.allActive() {
			return "", nil
		}
		macro, rest, ok := splitWord(arg)
		if !ok {
			p.warn(origin, lineNo, "`define without a macro name")
			return "", nil
		}
		p.defines[macro] = strings.TrimSpace(rest)

	case "undef":
		if !cond.allActive() {
			return "", nil
		}
		macro, ok := firstWord(arg)
		if !ok {
			p.warn(origin, lineNo, "`undef without a macro name")
			return "", nil
		}
		delete(p.defines, macro)

	case "include":
		if !cond.allActive() {
			return "", nil
		}
		return p.handleInclude(arg, origin, lineNo)

	case "timescale", "line", "pragma", "begin_keywords", "end_keywords":
		// Recognized but semantically inert here; pass through verbatim.
		if !cond.allActive() {
			return "", nil
		}
		return line + "\n", nil
	}
	return "", nil
}

// handleInclude resolves, recursively preprocesses, and inlines an include
// file. Missing or cyclic includes are recoverable: warn and emit nothing.
func (p *Preprocessor) handleInclude(arg, origin string, lineNo int) (string, error) {
	target, ok := parseIncludeTarget(arg)
	if !ok {
		p.warn(origin, lineNo, fmt.Sprintf("malformed `include: %s", strings.TrimSpace(arg)))
		return "", nil
	}

	resolved, ok := p.resolveInclude(target, origin)
	if !ok {
		p.warn(origin, lineNo, fmt.Sprintf("include file not found: %s", target))
		return "", nil
	}

	for _, inflight := range p.includeStack {
		if sameFile(inflight, resolved) {
			p.warn(origin, lineNo, fmt.Sprintf("cyclic include of %s", target))
			return "", nil
		}
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		p.warn(origin, lineNo, fmt.Sprintf("include file unreadable: %s: %v", target, err))
		return "", nil
	}
	return p.Process(string(data), resolved)
}

// resolveInclude applies the search order: absolute path, directory of the
// including file, then each configured include path. First match wins.
func (p *Preprocessor) resolveInclude(target, origin string) (string, bool) {
	if filepath.IsAbs(target) {
		if fileExists(target) {
			return filepath.Clean(target), true
		}
		return "", false
	}

	if cand := filepath.Join(filepath.Dir(origin), target); fileExists(cand) {
		return filepath.Clean(cand), true
	}

	for _, dir := range p.includePaths {
		if cand := filepath.Join(dir, target); fileExists(cand) {
			return filepath.Clean(cand), true
		}
	}
	return "", false
}

// expandMacros substitutes each known macro wherever it occurs as a whole
// word. Single pass, left to right; an expansion is not re-scanned, so
// macros cannot recurse.
func (p *Preprocessor) expandMacros(line string) string {
	if len(p.defines) == 0 {
		return line
	}
	var b strings.Builder
	b.Grow(len(line))
	for i := 0; i < len(line); {
		if !isWordStart(line[i]) {
			b.WriteByte(line[i])
			i++
			continue
		}
		j := i + 1
		for j < len(line) && isWordPart(line[j]) {
			j++
		}
		word := line[i:j]
		if value, ok := p.defines[word]; ok {
			b.WriteString(value)
		} else {
			b.WriteString(word)
		}
		i = j
	}
	return b.String()
}

func (p *Preprocessor) warn(file string, line int, msg string) {
	w := Warning{File: file, Line: line, Message: msg}
	p.warnings = append(p.warnings, w)
	if !p.Quiet {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
}

// --- conditional-compilation stack ---

// condFrame tracks one open `ifdef/`ifndef. active is whether the current
// branch's condition held; matched latches once any branch in the chain has
// matched, which makes later `elsif/`else inactive (first match wins).
type condFrame struct {
	active  bool
	matched bool
	hadElse bool
}

type condStack struct {
	frames []condFrame
}

func (c *condStack) depth() int { return len(c.frames) }

func (c *condStack) push(active bool) {
	c.frames = append(c.frames, condFrame{active: active, matched: active})
}

func (c *condStack) pop() bool {
	if len(c.frames) == 0 {
		return false
	}
	c.frames = c.frames[:len(c.frames)-1]
	return true
}

// allActive reports whether every enclosing frame is active.
func (c *condStack) allActive() bool {
	for _, f := range c.frames {
		if !f.active {
			return false
		}
	}
	return true
}

func (c *condStack) elsif(defined bool) (warning string) {
	if len(c.frames) == 0 {
		return "`elsif without matching `ifdef/`ifndef"
	}
	top := &c.frames[len(c.frames)-1]
	if top.hadElse {
		return "`elsif after `else"
	}
	if top.matched {
		top.active = false
		return ""
	}
	top.active = defined
	if defined {
		top.matched = true
	}
	return ""
}

func (c *condStack) elseBranch() (warning string) {
	if len(c.frames) == 0 {
		return "`else without matching `ifdef/`ifndef"
	}
	top := &c.frames[len(c.frames)-1]
	if top.hadElse {
		return "duplicate `else in conditional block"
	}
	top.hadElse = true
	top.active = !top.matched
	top.matched = true
	return ""
}

// --- line and directive scanning helpers ---

type sourceLine struct {
	text string
	no   int
}

func splitLines(s string) []sourceLine {
	var lines []sourceLine
	no := 1
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, sourceLine{text: strings.TrimSuffix(s[start:i], "\r"), no: no})
			start = i + 1
			no++
		}
	}
	if start < len(s) {
		lines = append(lines, sourceLine{text: s[start:], no: no})
	}
	return lines
}

func hasContinuation(line string) bool {
	trimmed := strings.TrimRight(line, " \t")
	return strings.HasSuffix(trimmed, "\\")
}

// matchDirective recognizes lines of the form [whitespace]`word and splits
// off the directive name and its raw argument text.
func matchDirective(line string) (name, arg string, ok bool) {
	trimmed := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(trimmed, "`") {
		return "", "", false
	}
	rest := trimmed[1:]
	i := 0
	for i < len(rest) && isWordPart(rest[i]) {
		i++
	}
	if i == 0 {
		return "", "", false
	}
	name = rest[:i]
	switch name {
	case "define", "undef", "include", "ifdef", "ifndef", "else", "elsif",
		"endif", "timescale", "line", "pragma", "begin_keywords", "end_keywords":
		return name, rest[i:], true
	}
	// Unrecognized directives pass through as ordinary text.
	return "", "", false
}

func parseIncludeTarget(arg string) (string, bool) {
	arg = strings.TrimSpace(arg)
	if len(arg) >= 2 && arg[0] == '"' {
		if end := strings.IndexByte(arg[1:], '"'); end >= 0 {
			return arg[1 : 1+end], true
		}
	}
	if len(arg) >= 2 && arg[0] == '<' {
		if end := strings.IndexByte(arg[1:], '>'); end >= 0 {
			return arg[1 : 1+end], true
		}
	}
	return "", false
}

func firstWord(arg string) (string, bool) {
	word, _, ok := splitWord(arg)
	return word, ok
}

func splitWord(arg string) (word, rest string, ok bool) {
	arg = strings.TrimLeft(arg, " \t")
	i := 0
	for i < len(arg) && isWordPart(arg[i]) {
		i++
	}
	if i == 0 || !isWordStart(arg[0]) {
		return "", "", false
	}
	return arg[:i], arg[i:], true
}

func isWordStart(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isWordPart(b byte) bool {
	return isWordStart(b) || (b >= '0' && b <= '9')
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
