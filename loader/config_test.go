package loader

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadConfig_ConverterCommandAsString(t *testing.T) {
	p := writeConfig(t, `
input: documents.csv
limit: 100
buffer_dir: buff
timeout: 5s
database:
  driver: mysql
  dsn: "user:pass@tcp(127.0.0.1:3306)/"
  name: Causes
converter:
  command: unrtf --html {src}
  stdout: true
show_progress: true
show_errors: true
`)
	cfg, err := LoadConfig(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Input != "documents.csv" || cfg.Limit != 100 || cfg.Timeout != "5s" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Database.Driver != DriverMySQL || cfg.Database.Name != "Causes" {
		t.Fatalf("unexpected database config: %+v", cfg.Database)
	}
	want := CommandLine{"unrtf", "--html", "{src}"}
	if !reflect.DeepEqual(cfg.Converter.Command, want) || !cfg.Converter.Stdout {
		t.Fatalf("unexpected converter config: %+v", cfg.Converter)
	}
	if !cfg.ShowProgress || !cfg.ShowErrors || cfg.Debug {
		t.Fatalf("unexpected verbosity: %+v", cfg)
	}
}

func TestLoadConfig_ConverterCommandAsList(t *testing.T) {
	p := writeConfig(t, `
converter:
  command: [soffice, --headless, --convert-to, html, --outdir, "{outdir}", "{src}"]
`)
	cfg, err := LoadConfig(p)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual([]string(cfg.Converter.Command), DefaultConverterCommand) {
		t.Fatalf("unexpected command: %v", cfg.Converter.Command)
	}
}

func TestLoadConfig_RejectsMappingCommand(t *testing.T) {
	p := writeConfig(t, `
converter:
  command: {bin: soffice}
`)
	if _, err := LoadConfig(p); err == nil {
		t.Fatalf("expected error for mapping command")
	}
}
