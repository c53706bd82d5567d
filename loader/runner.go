package loader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

const (
	defaultTimeout   = 5 * time.Second
	defaultBufferDir = "buff"
	progressEvery    = 100
)

// ErrContentNotFound marks a record whose document never made it into the
// filename→content map (fetch or conversion failed).
var ErrContentNotFound = errors.New("file not found")

type RunnerConfig struct {
	InputPath string
	// Limit > 0 processes only the first Limit rows of the input.
	Limit int
	// BufferDir holds transient RTF/HTML files; each run works in its own
	// subdirectory, removed when the extraction pass ends.
	BufferDir string
	// Timeout bounds every HTTP call. Conversion is not bounded.
	Timeout time.Duration

	Database       DatabaseConfig
	ConverterCmd   []string
	ConverterToOut bool

	ShowProgress bool
	ShowErrors   bool
	Debug        bool
}

type verbosity struct {
	debug    bool
	progress bool
	errors   bool
}

func (v verbosity) debugf(format string, args ...any) {
	if !v.debug {
		return
	}
	logf(2, format, args...)
}

func (v verbosity) progressf(format string, args ...any) {
	if !v.progress {
		return
	}
	logf(2, format, args...)
}

func (v verbosity) errorf(format string, args ...any) {
	if !v.errors {
		return
	}
	logf(2, format, args...)
}

func logf(calldepth int, format string, args ...any) {
	_ = log.Output(calldepth+1, fmt.Sprintf(format, args...))
}

type Runner struct {
	cfg       RunnerConfig
	store     *Store
	fetcher   Fetcher
	converter Converter
	verbosity
}

func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if strings.TrimSpace(cfg.InputPath) == "" {
		return nil, fmt.Errorf("InputPath is required")
	}
	if strings.TrimSpace(cfg.BufferDir) == "" {
		cfg.BufferDir = defaultBufferDir
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if len(cfg.ConverterCmd) == 0 {
		cfg.ConverterCmd = DefaultConverterCommand
	}

	store, err := OpenStore(cfg.Database)
	if err != nil {
		return nil, err
	}
	return &Runner{
		cfg:       cfg,
		store:     store,
		fetcher:   NewHTTPFetcher(),
		converter: &ExecConverter{Command: cfg.ConverterCmd, Stdout: cfg.ConverterToOut},
		verbosity: verbosity{debug: cfg.Debug, progress: cfg.ShowProgress, errors: cfg.ShowErrors},
	}, nil
}

func (r *Runner) Close() error {
	if r == nil {
		return nil
	}
	return r.store.Close()
}

type Outcome int

const (
	OutcomeStored Outcome = iota
	OutcomeSkipped
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStored:
		return "stored"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "fatal"
	}
}

// RecordResult is what happened to one validated record.
type RecordResult struct {
	Index    int
	Row      int
	CauseNum string
	DocURL   string
	Filename string
	// CauseID is set once the cause row is inserted, even if the document
	// row is not.
	CauseID uint
	Outcome Outcome
	Err     error
}

type Report struct {
	RunID   string
	Read    int
	Valid   int
	Tables  []TableStatus
	Results []RecordResult
	Rows    []JoinedDocument
}

func (rp *Report) Count(o Outcome) int {
	n := 0
	for _, res := range rp.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Run executes one batch: read, validate, set up the schema, then fetch,
// convert and persist every valid record in order, commit once and read the
// joined rows back. A fatal persistence error stops the loop; rows written
// before it are still committed and the error is returned with the report.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	rp := &Report{RunID: uuid.NewString()}

	records, err := ReadRecords(r.cfg.InputPath, r.cfg.Limit)
	if err != nil {
		return rp, fmt.Errorf("read records: %w", err)
	}
	rp.Read = len(records)

	validator := NewValidator(r.fetcher, r.cfg.Timeout)
	validator.verbosity = r.verbosity
	valid := validator.Validate(ctx, records)
	rp.Valid = len(valid)
	r.debugf("run %s: %d records read, %d valid", rp.RunID, rp.Read, rp.Valid)

	if name := strings.TrimSpace(r.cfg.Database.Name); name != "" {
		existed, err := r.store.EnsureDatabase(name)
		if err != nil {
			return rp, err
		}
		if existed {
			log.Printf("database %s already exists.", name)
		} else {
			log.Printf("database %s created successfully.", name)
		}
	}
	rp.Tables, err = r.store.CreateTables()
	for _, t := range rp.Tables {
		log.Printf("creating table %s", t)
	}
	if err != nil {
		return rp, err
	}

	bufDir := filepath.Join(r.cfg.BufferDir, rp.RunID)
	adapter := NewDocumentAdapter(r.converter, bufDir)
	contents := make(map[string]string)

	var fatal error
	err = r.store.Transaction(func(tx *Tx) error {
		for i, rec := range valid {
			res := r.processRecord(ctx, tx, adapter, contents, i, rec)
			rp.Results = append(rp.Results, res)
			if res.Outcome == OutcomeFatal {
				log.Printf("abort at cause_num=%q: %v", res.CauseNum, res.Err)
				fatal = fmt.Errorf("persist cause %q: %w", res.CauseNum, res.Err)
				break
			}
			if (i+1)%progressEvery == 0 {
				r.progressf("persisted: %d", i+1)
			}
		}
		// Commit regardless of an abort; see RecordResult for what was kept.
		return nil
	})
	if rmErr := os.RemoveAll(bufDir); rmErr != nil {
		r.errorf("remove buffer dir %q: %v", bufDir, rmErr)
	}
	if err != nil {
		return rp, fmt.Errorf("commit: %w", err)
	}

	rows, err := r.store.ReadBack()
	if err != nil {
		return rp, fmt.Errorf("read back: %w", err)
	}
	rp.Rows = rows
	r.debugf("run %s done: stored=%d skipped=%d fatal=%d rows=%d elapsed=%s",
		rp.RunID, rp.Count(OutcomeStored), rp.Count(OutcomeSkipped), rp.Count(OutcomeFatal), len(rows), time.Since(start))
	return rp, fatal
}

func (r *Runner) processRecord(ctx context.Context, tx *Tx, adapter *DocumentAdapter, contents map[string]string, i int, rec CaseRecord) RecordResult {
	res := RecordResult{
		Index:    i,
		Row:      rec.Index,
		CauseNum: deref(rec.CauseNum),
		DocURL:   deref(rec.DocURL),
	}
	res.Filename = HTMLFilename(res.DocURL)

	if _, seen := contents[res.Filename]; seen {
		r.debugf("index=%d %s already extracted, reusing", i, res.Filename)
	} else if err := r.extract(ctx, adapter, contents, res.DocURL, res.Filename); err != nil {
		r.errorf("extract: index=%d %v", i, err)
	}
	if i%progressEvery == 0 {
		r.progressf("extract: %d", i)
	}

	causeID, err := tx.InsertCause(res.CauseNum)
	if err != nil {
		res.Outcome, res.Err = OutcomeFatal, err
		return res
	}
	res.CauseID = causeID

	content, ok := contents[res.Filename]
	if !ok {
		log.Printf("%s: %s", ErrContentNotFound, res.DocURL)
		res.Outcome, res.Err = OutcomeSkipped, ErrContentNotFound
		return res
	}

	doc := newCauseDocument(causeID, rec, content)
	if err := tx.InsertDocument(&doc); err != nil {
		res.Outcome, res.Err = OutcomeFatal, err
		return res
	}
	res.Outcome = OutcomeStored
	return res
}

// extract fetches, converts and cleans one document into contents. The map is
// written once per file name.
func (r *Runner) extract(ctx context.Context, adapter *DocumentAdapter, contents map[string]string, docURL, filename string) error {
	raw, err := r.fetcher.Fetch(ctx, docURL, r.cfg.Timeout)
	if err != nil {
		return err
	}
	r.debugf("fetched %s (%s)", docURL, humanize.Bytes(uint64(len(raw))))

	doc, err := adapter.Convert(ctx, raw, docURL)
	if err != nil {
		return err
	}
	contents[doc.Filename] = doc.Content
	r.debugf("converted %s (%s)", filename, humanize.Bytes(uint64(len(doc.Content))))
	return nil
}
