package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const exportHeader = "doc_id\tcourt_code\tjudgment_code\tjustice_kind\tcategory_code\tcause_num\tadjudication_date\treceipt_date\tjudge\tdoc_url\tstatus\tdate_publ\n"

func exportLine(cells ...string) string {
	quoted := make([]string, len(cells))
	for i, c := range cells {
		quoted[i] = `"` + c + `"`
	}
	return strings.Join(quoted, "\t") + "\n"
}

func TestParseRecords_TypedCellsAndNulls(t *testing.T) {
	input := exportHeader +
		exportLine("1", "2601", "3", "2", "40", "757/1234/21", "2021-03-04 00:00:00", "2021-02-01 00:00:00", "Judge A", "http://h/a/case-1.rtf", "1", "2021-03-05 00:00:00") +
		exportLine("2", "x12", "", "2", "", "  ", "not a date", "", "", "http://h/a/case-2.rtf", "one", "")

	records, err := ParseRecords(strings.NewReader(input), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	a := records[0]
	if a.CourtCode == nil || *a.CourtCode != 2601 {
		t.Fatalf("unexpected court_code: %v", a.CourtCode)
	}
	if a.CauseNum == nil || *a.CauseNum != "757/1234/21" {
		t.Fatalf("unexpected cause_num: %v", a.CauseNum)
	}
	if a.DocURL == nil || *a.DocURL != "http://h/a/case-1.rtf" {
		t.Fatalf("unexpected doc_url: %v", a.DocURL)
	}
	if a.AdjudicationDate == nil || a.AdjudicationDate.Year() != 2021 || a.AdjudicationDate.Day() != 4 {
		t.Fatalf("unexpected adjudication_date: %v", a.AdjudicationDate)
	}
	if a.Status == nil || *a.Status != 1 {
		t.Fatalf("unexpected status: %v", a.Status)
	}

	b := records[1]
	if b.Index != 1 {
		t.Fatalf("expected index 1, got %d", b.Index)
	}
	if b.CourtCode != nil {
		t.Fatalf("expected nil court_code for bad int, got %d", *b.CourtCode)
	}
	if b.JudgmentCode != nil || b.CategoryCode != nil || b.Judge != nil {
		t.Fatalf("expected blank cells to be nil: %+v", b)
	}
	if b.CauseNum != nil {
		t.Fatalf("expected whitespace-only cause_num to be nil, got %q", *b.CauseNum)
	}
	if b.AdjudicationDate != nil {
		t.Fatalf("expected unparseable date to be nil, got %v", b.AdjudicationDate)
	}
	if b.Status != nil {
		t.Fatalf("expected nil status, got %d", *b.Status)
	}
	if b.JusticeKind == nil || *b.JusticeKind != 2 {
		t.Fatalf("expected justice_kind=2, got %v", b.JusticeKind)
	}
}

func TestParseRecords_ShortRowAndLeadingEmptyCell(t *testing.T) {
	input := exportHeader +
		"\t2601\t3\n" +
		"\n"

	records, err := ParseRecords(strings.NewReader(input), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected blank line skipped, got %d records", len(records))
	}
	r := records[0]
	if r.DocID != nil {
		t.Fatalf("expected empty first cell to be nil")
	}
	if r.CourtCode == nil || *r.CourtCode != 2601 {
		t.Fatalf("expected court_code to keep its position, got %v", r.CourtCode)
	}
	if r.DocURL != nil || r.CauseNum != nil {
		t.Fatalf("expected missing trailing cells to be nil")
	}
}

func TestReadRecords_Limit(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(exportHeader)
	for i := 0; i < 5; i++ {
		sb.WriteString(exportLine("1", "1", "1", "1", "1", "CASE-100", "", "", "", "http://h/x.rtf", "1", ""))
	}
	p := filepath.Join(t.TempDir(), "documents.csv")
	if err := os.WriteFile(p, []byte(sb.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := ReadRecords(p, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
}

func TestParseRecords_MissingHeader(t *testing.T) {
	if _, err := ParseRecords(strings.NewReader(""), 0); err == nil {
		t.Fatalf("expected error for empty input")
	}
}
