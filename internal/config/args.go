package config

import (
	"fmt"
	"os"
	"strings"
)

// Args holds the Verilog-convention command-line settings shared by the
// tools: simulator-style plusargs (+define+, +incdir+, +libext+), their
// short-flag equivalents (-D, -I, -y), -f argument files, and -v library
// files. Flags the parser does not recognize are passed through in
// Unparsed for the tool's own flag handling.
type Args struct {
	Standard     string
	Defines      map[string]string
	IncDirs      []string
	LibDirs      []string
	LibExts      []string
	LibraryFiles []string
	Files        []string
	Unparsed     []string

	valueFlags map[string]bool
}

// ParseArgs interprets argv according to the Verilog tool conventions.
// -f files are read and expanded in place, recursively.
func ParseArgs(argv []string) (*Args, error) {
	return ParseArgsWith(argv, nil)
}

// ParseArgsWith additionally treats the flags named in valueFlags as
// tool-owned flags that consume the following argument; both tokens are
// passed through in Unparsed so the tool's own flag set can handle them.
func ParseArgsWith(argv []string, valueFlags map[string]bool) (*Args, error) {
	args := &Args{Defines: map[string]string{}, valueFlags: valueFlags}
	if err := args.parse(argv, 0); err != nil {
		return nil, err
	}
	return args, nil
}

// -f files may reference further -f files; 16 levels is already absurd.
const maxArgFileDepth = 16

func (a *Args) parse(argv []string, depth int) error {
	if depth > maxArgFileDepth {
		return fmt.Errorf("argument files nested deeper than %d levels", maxArgFileDepth)
	}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case strings.HasPrefix(arg, "+define+"):
			for _, item := range splitPlusList(arg[len("+define+"):]) {
				name, value := splitDefine(item)
				a.Defines[name] = value
			}
		case strings.HasPrefix(arg, "+incdir+"):
			a.IncDirs = append(a.IncDirs, splitPlusList(arg[len("+incdir+"):])...)
		case strings.HasPrefix(arg, "+libext+"):
			a.LibExts = append(a.LibExts, splitPlusList(arg[len("+libext+"):])...)
		case strings.HasPrefix(arg, "+"):
			// Unknown plusargs are accepted and ignored, as simulators do.
		case arg == "-D" || arg == "-define":
			value, err := takeValue(argv, &i, arg)
			if err != nil {
				return err
			}
			name, val := splitDefine(value)
			a.Defines[name] = val
		case strings.HasPrefix(arg, "-D") && len(arg) > 2:
			name, value := splitDefine(arg[2:])
			a.Defines[name] = value
		case arg == "-I" || arg == "-incdir":
			value, err := takeValue(argv, &i, arg)
			if err != nil {
				return err
			}
			a.IncDirs = append(a.IncDirs, value)
		case strings.HasPrefix(arg, "-I") && len(arg) > 2:
			a.IncDirs = append(a.IncDirs, arg[2:])
		case arg == "-y":
			value, err := takeValue(argv, &i, arg)
			if err != nil {
				return err
			}
			a.LibDirs = append(a.LibDirs, value)
		case arg == "-v":
			value, err := takeValue(argv, &i, arg)
			if err != nil {
				return err
			}
			a.LibraryFiles = append(a.LibraryFiles, value)
		case arg == "-f":
			value, err := takeValue(argv, &i, arg)
			if err != nil {
				return err
			}
			nested, err := readArgFile(value)
			if err != nil {
				return err
			}
			if err := a.parse(nested, depth+1); err != nil {
				return err
			}
		case arg == "-language":
			value, err := takeValue(argv, &i, arg)
			if err != nil {
				return err
			}
			a.Standard = value
		case strings.HasPrefix(arg, "-"):
			a.Unparsed = append(a.Unparsed, arg)
			if a.valueFlags[arg] && i+1 < len(argv) {
				i++
				a.Unparsed = append(a.Unparsed, argv[i])
			}
		default:
			a.Files = append(a.Files, arg)
		}
	}
	return nil
}

func takeValue(argv []string, i *int, flag string) (string, error) {
	if *i+1 >= len(argv) {
		return "", fmt.Errorf("%s requires an argument", flag)
	}
	*i++
	return argv[*i], nil
}

// splitPlusList splits "+a+b+c" tails into their items.
func splitPlusList(tail string) []string {
	var items []string
	for _, item := range strings.Split(tail, "+") {
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// splitDefine splits NAME=VALUE; a bare NAME gets value "1".
func splitDefine(s string) (name, value string) {
	if eq := strings.IndexByte(s, '='); eq >= 0 {
		return s[:eq], s[eq+1:]
	}
	return s, "1"
}

// readArgFile reads a -f argument file: whitespace-separated tokens with
// // and # line comments.
func readArgFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading argument file: %w", err)
	}

	var tokens []string
	for _, line := range strings.Split(string(data), "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		tokens = append(tokens, strings.Fields(line)...)
	}
	return tokens, nil
}
