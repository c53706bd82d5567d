package loader

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	// Driver is sqlite (default) or mysql.
	Driver string `yaml:"driver"`
	// DSN is the SQLite file path, or a MySQL DSN without a database selected.
	DSN string `yaml:"dsn"`
	// Name is the MySQL database to create and select. Ignored for SQLite.
	Name string `yaml:"name"`
}

// CommandLine accepts either a single string (split on whitespace) or a list:
//
//	command: unrtf --html {src}
//	command: [soffice, --headless, --convert-to, html, --outdir, "{outdir}", "{src}"]
type CommandLine []string

func (c *CommandLine) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case yaml.ScalarNode:
		*c = strings.Fields(value.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*c = items
		return nil
	default:
		return fmt.Errorf("converter command: expected string or list, got yaml kind %d", value.Kind)
	}
}

type ConverterConfig struct {
	Command CommandLine `yaml:"command"`
	// Stdout means the command prints HTML instead of writing {dst}.
	Stdout bool `yaml:"stdout"`
}

type FileConfig struct {
	Input     string `yaml:"input"`
	Limit     int    `yaml:"limit"`
	BufferDir string `yaml:"buffer_dir"`
	// Timeout bounds each HTTP call, e.g. "5s".
	Timeout string `yaml:"timeout"`

	Database  DatabaseConfig  `yaml:"database"`
	Converter ConverterConfig `yaml:"converter"`

	ShowProgress bool `yaml:"show_progress"`
	ShowErrors   bool `yaml:"show_errors"`
	Debug        bool `yaml:"debug"`
}

func LoadConfig(path string) (*FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConverterCommand converts with a headless LibreOffice, which writes
// <outdir>/<src stem>.html.
var DefaultConverterCommand = []string{"soffice", "--headless", "--convert-to", "html", "--outdir", "{outdir}", "{src}"}
