package loader

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Converter turns the RTF file at src into an HTML file at dst.
type Converter interface {
	ConvertFile(ctx context.Context, src, dst string) error
}

// ExecConverter runs an external command. Arguments may contain the
// placeholders {src}, {dst} and {outdir} (the directory of dst). With Stdout
// set, the command's standard output is written to dst.
type ExecConverter struct {
	Command []string
	Stdout  bool
}

func (c *ExecConverter) ConvertFile(ctx context.Context, src, dst string) error {
	if len(c.Command) == 0 {
		return fmt.Errorf("converter command is empty")
	}
	repl := strings.NewReplacer("{src}", src, "{dst}", dst, "{outdir}", filepath.Dir(dst))
	args := make([]string, len(c.Command))
	for i, a := range c.Command {
		args[i] = repl.Replace(a)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if c.Stdout {
		out, err := os.Create(dst)
		if err != nil {
			return err
		}
		defer out.Close()
		cmd.Stdout = out
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	if _, err := os.Stat(dst); err != nil {
		return fmt.Errorf("converter produced no output: %w", err)
	}
	return nil
}

// DocumentAdapter converts fetched RTF bytes into cleaned HTML. Transient
// files live under dir and never outlive a Convert call.
type DocumentAdapter struct {
	converter Converter
	dir       string
}

func NewDocumentAdapter(converter Converter, dir string) *DocumentAdapter {
	return &DocumentAdapter{converter: converter, dir: dir}
}

func (a *DocumentAdapter) Convert(ctx context.Context, raw []byte, sourceName string) (CleanedDocument, error) {
	filename := HTMLFilename(sourceName)

	// Each call gets its own work directory: converters may write more than
	// dst (exported images), and all of it goes when the call returns.
	work := filepath.Join(a.dir, uuid.NewString())
	if err := os.MkdirAll(work, 0o755); err != nil {
		return CleanedDocument{}, err
	}
	defer removeTransient(work)

	src := filepath.Join(work, sourceFilename(sourceName))
	dst := filepath.Join(work, filename)

	if err := os.WriteFile(src, raw, 0o644); err != nil {
		return CleanedDocument{}, err
	}
	if err := a.converter.ConvertFile(ctx, src, dst); err != nil {
		return CleanedDocument{}, fmt.Errorf("convert %s: %w", filename, err)
	}
	b, err := os.ReadFile(dst)
	if err != nil {
		return CleanedDocument{}, err
	}

	content := Clean(Prettify(string(b)))
	if strings.TrimSpace(content) == "" {
		return CleanedDocument{}, fmt.Errorf("convert %s: empty document after cleaning", filename)
	}
	return CleanedDocument{Filename: filename, Content: content}, nil
}

// HTMLFilename derives the converted file name from a document URL (or a
// bare file name): the last path segment with its extension replaced by
// .html. Query and fragment are ignored.
func HTMLFilename(docURL string) string {
	base := sourceFilename(docURL)
	return strings.TrimSuffix(base, path.Ext(base)) + ".html"
}

func sourceFilename(docURL string) string {
	p := docURL
	if u, err := url.Parse(docURL); err == nil {
		p = u.Path
	}
	base := path.Base(p)
	if base == "." || base == "/" {
		return "document"
	}
	return base
}

// removeTransient is best-effort: a leftover file is not worth failing a record.
func removeTransient(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		logf(2, "remove transient dir %q: %v", dir, err)
	}
}
