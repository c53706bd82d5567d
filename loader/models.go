package loader

import "time"

// CaseRecord is one data row of the decision export. A nil field was blank in
// the source or failed its type conversion.
type CaseRecord struct {
	// Index is the zero-based position of the row among the data lines.
	Index int

	DocID            *int64
	CourtCode        *int64
	JudgmentCode     *int64
	JusticeKind      *int64
	CategoryCode     *int64
	CauseNum         *string
	AdjudicationDate *time.Time
	ReceiptDate      *time.Time
	Judge            *string
	DocURL           *string
	Status           *int64
	DatePubl         *time.Time
}

// CleanedDocument is a converted decision keyed by its derived .html filename.
type CleanedDocument struct {
	Filename string
	Content  string
}

type Cause struct {
	CauseID  uint   `gorm:"column:cause_id;primaryKey;autoIncrement"`
	CauseNum string `gorm:"column:cause_num;size:100;not null"`
}

func (Cause) TableName() string { return "cause" }

type CauseDocument struct {
	DocumentID   uint     `gorm:"column:document_id;primaryKey;autoIncrement"`
	CauseID      uint     `gorm:"column:cause_id;not null"`
	CourtCode    *int64   `gorm:"column:court_code"`
	JudgmentCode *int64   `gorm:"column:judgment_code"`
	JusticeKind  *float64 `gorm:"column:justice_kind"`
	CategoryCode *float64 `gorm:"column:category_code"`
	Status       *int64   `gorm:"column:status"`
	DocURL       string   `gorm:"column:doc_url;size:150;not null"`
	Content      string   `gorm:"column:content;type:longtext;not null"`
}

func (CauseDocument) TableName() string { return "cause_document" }

// JoinedDocument is one row of the cause ⋈ cause_document read-back.
type JoinedDocument struct {
	CourtCode    *int64   `gorm:"column:court_code"`
	JudgmentCode *int64   `gorm:"column:judgment_code"`
	JusticeKind  *float64 `gorm:"column:justice_kind"`
	CategoryCode *float64 `gorm:"column:category_code"`
	CauseNum     string   `gorm:"column:cause_num"`
	DocURL       string   `gorm:"column:doc_url"`
	Status       *int64   `gorm:"column:status"`
	Content      string   `gorm:"column:content"`
}

// newCauseDocument maps a validated record onto the cause_document columns.
// justice_kind and category_code are DOUBLE columns in the schema.
func newCauseDocument(causeID uint, rec CaseRecord, content string) CauseDocument {
	return CauseDocument{
		CauseID:      causeID,
		CourtCode:    rec.CourtCode,
		JudgmentCode: rec.JudgmentCode,
		JusticeKind:  int64ToFloat(rec.JusticeKind),
		CategoryCode: int64ToFloat(rec.CategoryCode),
		Status:       rec.Status,
		DocURL:       deref(rec.DocURL),
		Content:      content,
	}
}

func int64ToFloat(v *int64) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
