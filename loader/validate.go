package loader

import (
	"context"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Validator reduces a record set to the rows worth fetching. Validate runs
// the cheap syntactic passes first so the network pass only sees survivors.
type Validator struct {
	fetcher Fetcher
	timeout time.Duration
	verbosity
}

func NewValidator(fetcher Fetcher, timeout time.Duration) *Validator {
	return &Validator{fetcher: fetcher, timeout: timeout}
}

func (v *Validator) Validate(ctx context.Context, records []CaseRecord) []CaseRecord {
	records = DropEmptyEntries(records)
	records = DropInvalidCauses(records)
	return v.DropInvalidURLs(ctx, records)
}

// DropEmptyEntries removes records without a doc_url or cause_num.
func DropEmptyEntries(records []CaseRecord) []CaseRecord {
	out := make([]CaseRecord, 0, len(records))
	for _, rec := range records {
		if rec.DocURL == nil || rec.CauseNum == nil {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// DropInvalidCauses keeps records whose cause_num has a digit and is longer
// than three characters.
func DropInvalidCauses(records []CaseRecord) []CaseRecord {
	out := make([]CaseRecord, 0, len(records))
	for _, rec := range records {
		if rec.CauseNum == nil || !ValidCauseNum(*rec.CauseNum) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func ValidCauseNum(s string) bool {
	return utf8.RuneCountInString(s) > 3 && strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// DropInvalidURLs keeps records whose doc_url answers 200 within the timeout.
// Timeouts and connection errors count as dead links; nothing is retried.
func (v *Validator) DropInvalidURLs(ctx context.Context, records []CaseRecord) []CaseRecord {
	out := make([]CaseRecord, 0, len(records))
	for i, rec := range records {
		if rec.DocURL != nil {
			if err := v.fetcher.Probe(ctx, *rec.DocURL, v.timeout); err != nil {
				v.errorf("validator: index=%d row=%d %v", i, rec.Index, err)
			} else {
				out = append(out, rec)
			}
		}
		if i%progressEvery == 0 {
			v.progressf("validator: %d/%d", i, len(records))
		}
	}
	v.debugf("validator: %d of %d urls alive", len(out), len(records))
	return out
}
