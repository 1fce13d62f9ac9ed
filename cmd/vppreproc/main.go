package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/hdlkit/verilog-go/internal/config"
	"github.com/hdlkit/verilog-go/internal/preproc"
)

func main() {
	vargs, err := config.ParseArgsWith(os.Args[1:], map[string]bool{
		"-o": true, "--output": true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("vppreproc", flag.ExitOnError)
	output := fs.String("output", "", "write preprocessed text to file (default: stdout)")
	fs.StringVar(output, "o", "", "write preprocessed text to file (shorthand)")
	definesOnly := fs.Bool("defines-only", false, "print the final macro table instead of text")
	quiet := fs.Bool("quiet", false, "suppress warnings")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: vppreproc [+define+N=V] [+incdir+DIR] [-D N=V] [-I DIR] [-f file] [--output file] [--defines-only] <file.v>...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(vargs.Unparsed); err != nil {
		os.Exit(1)
	}

	pp := preproc.New(vargs.Defines, vargs.IncDirs)
	pp.Quiet = *quiet

	var result string
	ok := true
	if len(vargs.Files) == 0 {
		source, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
			os.Exit(1)
		}
		text, err := pp.Process(string(source), "<stdin>")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		result = text
	} else {
		result, ok = processBatch(pp, vargs.Files, os.Stderr)
	}
	if *definesOnly {
		result = formatDefines(pp.Defines())
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(result), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Print(result)
	}

	if !ok {
		os.Exit(1)
	}
}

// processBatch expands each file in order. A file that fails is dropped
// from the batch; ok reports whether every file succeeded.
func processBatch(pp *preproc.Preprocessor, files []string, errw io.Writer) (string, bool) {
	var out strings.Builder
	ok := true
	for _, path := range files {
		text, err := pp.ProcessFile(path)
		if err != nil {
			fmt.Fprintf(errw, "Error: %v\n", err)
			ok = false
			continue
		}
		out.WriteString(text)
	}
	return out.String(), ok
}

func formatDefines(defines map[string]string) string {
	names := make([]string, 0, len(defines))
	for name := range defines {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		if value := defines[name]; value != "" {
			fmt.Fprintf(&b, "`define %s %s\n", name, value)
		} else {
			fmt.Fprintf(&b, "`define %s\n", name)
		}
	}
	return b.String()
}
