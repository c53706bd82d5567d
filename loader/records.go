package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

type cellKind int

const (
	cellInt cellKind = iota
	cellString
	cellTime
)

// columnKinds types the export's cells by position:
// doc_id court_code judgment_code justice_kind category_code cause_num
// adjudication_date receipt_date judge doc_url status date_publ
var columnKinds = []cellKind{
	cellInt, cellInt, cellInt, cellInt, cellInt,
	cellString,
	cellTime, cellTime,
	cellString, cellString,
	cellInt,
	cellTime,
}

type cell struct {
	kind cellKind
	i    *int64
	s    *string
	t    *time.Time
}

func (c cell) asInt() *int64 {
	if c.kind != cellInt {
		return nil
	}
	return c.i
}

func (c cell) asString() *string {
	if c.kind != cellString {
		return nil
	}
	return c.s
}

func (c cell) asTime() *time.Time {
	if c.kind != cellTime {
		return nil
	}
	return c.t
}

// ReadRecords parses the tab-separated export at path. limit > 0 keeps only
// the first limit data rows.
func ReadRecords(path string, limit int) ([]CaseRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseRecords(f, limit)
}

// ParseRecords reads a header line followed by one record per line. Quotes are
// stripped; a cell that is blank or does not convert to its column type is
// stored as nil and the row is kept.
func ParseRecords(r io.Reader, limit int) ([]CaseRecord, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		return nil, fmt.Errorf("missing header line")
	}
	header := strings.Fields(strings.ReplaceAll(sc.Text(), `"`, ""))

	var out []CaseRecord
	for sc.Scan() {
		if limit > 0 && len(out) >= limit {
			break
		}
		// Only the line ending is trimmed; a leading tab is an empty first cell.
		line := strings.TrimRight(strings.ReplaceAll(sc.Text(), `"`, ""), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		values := strings.Split(line, "\t")
		cells := make(map[string]cell, len(header))
		for i, name := range header {
			if i >= len(columnKinds) {
				break
			}
			raw := ""
			if i < len(values) {
				raw = values[i]
			}
			cells[name] = parseCell(raw, columnKinds[i])
		}
		out = append(out, bindRecord(len(out), cells))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return out, nil
}

func parseCell(raw string, kind cellKind) cell {
	c := cell{kind: kind}
	v := strings.TrimSpace(raw)
	if v == "" {
		return c
	}
	switch kind {
	case cellInt:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.i = &n
		}
	case cellString:
		c.s = &v
	case cellTime:
		if tm, err := dateparse.ParseAny(v); err == nil {
			c.t = &tm
		}
	}
	return c
}

func bindRecord(idx int, cells map[string]cell) CaseRecord {
	return CaseRecord{
		Index:            idx,
		DocID:            cells["doc_id"].asInt(),
		CourtCode:        cells["court_code"].asInt(),
		JudgmentCode:     cells["judgment_code"].asInt(),
		JusticeKind:      cells["justice_kind"].asInt(),
		CategoryCode:     cells["category_code"].asInt(),
		CauseNum:         cells["cause_num"].asString(),
		AdjudicationDate: cells["adjudication_date"].asTime(),
		ReceiptDate:      cells["receipt_date"].asTime(),
		Judge:            cells["judge"].asString(),
		DocURL:           cells["doc_url"].asString(),
		Status:           cells["status"].asInt(),
		DatePubl:         cells["date_publ"].asTime(),
	}
}
