package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the top-level project configuration for the Verilog tools
type Config struct {
	// Standard specifies the language standard: "1364-1995", "1364-2001",
	// "1364-2005", "1800-2005"
	Standard string `json:"standard,omitempty"`

	// Defines maps macro names to values, applied before any file is read
	Defines map[string]string `json:"defines,omitempty"`

	// IncludeDirs lists directories searched for `include files
	IncludeDirs []string `json:"includeDirs,omitempty"`

	// LibraryDirs lists directories searched for unresolved modules
	LibraryDirs []string `json:"libraryDirs,omitempty"`

	// LibExts lists the file extensions tried in library directories
	LibExts []string `json:"libext,omitempty"`

	// Files is a list of glob patterns for the source files to read
	Files []string `json:"files,omitempty"`
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Standard: "1800-2005",
		Defines:  map[string]string{},
		LibExts:  []string{".v"},
		Files:    []string{"*.v", "**/*.v"},
	}
}

// Load finds and loads the configuration file
// Search order:
//  1. ./verilog_net.json (current working directory)
//  2. ./.verilog_net.json (current working directory)
//  3. <rootPath>/verilog_net.json (if different from cwd)
//  4. ~/.config/verilog_net/config.json
//
// Returns DefaultConfig if no config file is found
func Load(rootPath string) (*Config, error) {
	cwd, _ := os.Getwd()

	searchPaths := []string{
		filepath.Join(cwd, "verilog_net.json"),
		filepath.Join(cwd, ".verilog_net.json"),
	}

	if info, err := os.Stat(rootPath); err == nil && info.IsDir() {
		absRoot, _ := filepath.Abs(rootPath)
		if absRoot != cwd {
			searchPaths = append(searchPaths,
				filepath.Join(rootPath, "verilog_net.json"),
				filepath.Join(rootPath, ".verilog_net.json"),
			)
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".config", "verilog_net", "config.json"))
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	return DefaultConfig(), nil
}

// LoadFile loads configuration from a specific file
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	if c.Standard == "" {
		c.Standard = "1800-2005"
	}
	if c.Defines == nil {
		c.Defines = map[string]string{}
	}
	if len(c.LibExts) == 0 {
		c.LibExts = []string{".v"}
	}
}

// Save writes the configuration to a file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Merge folds command-line arguments into the configuration. Arguments
// win over the file for scalar settings and append for lists.
func (c *Config) Merge(args *Args) {
	for name, value := range args.Defines {
		c.Defines[name] = value
	}
	c.IncludeDirs = append(c.IncludeDirs, args.IncDirs...)
	c.LibraryDirs = append(c.LibraryDirs, args.LibDirs...)
	if len(args.LibExts) > 0 {
		c.LibExts = args.LibExts
	}
	if args.Standard != "" {
		c.Standard = args.Standard
	}
}
