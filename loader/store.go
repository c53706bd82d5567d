package loader

import (
	"fmt"
	"regexp"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

type Store struct {
	db     *gorm.DB
	driver string
	dsn    string
}

// OpenStore connects to the configured database. The pool is pinned to a
// single connection: every insert and the read-back run sequentially on it.
func OpenStore(cfg DatabaseConfig) (*Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverSQLite
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("database dsn is required")
	}

	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	case DriverMySQL:
		dialector = mysql.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := openSingleConn(dialector)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, driver: driver, dsn: cfg.DSN}, nil
}

func openSingleConn(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	err = sqlDB.Close()
	s.db = nil
	return err
}

var databaseNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// EnsureDatabase creates the named database if needed and reconnects with it
// as the DSN's default schema, so a replaced connection still has it selected.
// It only applies to server databases; for SQLite the file is the database
// and existed is reported as true.
func (s *Store) EnsureDatabase(name string) (existed bool, err error) {
	if s.driver != DriverMySQL {
		return true, nil
	}
	if !databaseNameRe.MatchString(name) {
		return false, fmt.Errorf("invalid database name %q", name)
	}
	var n int64
	if err := s.db.Raw("SELECT COUNT(*) FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?", name).Scan(&n).Error; err != nil {
		return false, fmt.Errorf("look up database %s: %w", name, err)
	}
	if err := s.db.Exec(fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` DEFAULT CHARACTER SET 'utf8'", name)).Error; err != nil {
		return false, fmt.Errorf("create database %s: %w", name, err)
	}

	dsn, err := mysqlDSNWithDatabase(s.dsn, name)
	if err != nil {
		return false, err
	}
	db, err := openSingleConn(mysql.Open(dsn))
	if err != nil {
		return false, fmt.Errorf("reconnect to database %s: %w", name, err)
	}
	if old, err := s.db.DB(); err == nil {
		_ = old.Close()
	}
	s.db, s.dsn = db, dsn
	return n > 0, nil
}

func mysqlDSNWithDatabase(dsn, name string) (string, error) {
	cfg, err := gomysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.DBName = name
	return cfg.FormatDSN(), nil
}

// TableStatus is the outcome of creating one table.
type TableStatus struct {
	Table   string
	Created bool
}

func (t TableStatus) String() string {
	if t.Created {
		return t.Table + ": OK"
	}
	return t.Table + ": already exists."
}

type tableDDL struct {
	name string
	stmt string
}

func (s *Store) schema() []tableDDL {
	autoInc := "AUTO_INCREMENT"
	if s.driver == DriverSQLite {
		autoInc = "AUTOINCREMENT"
	}
	return []tableDDL{
		{
			name: "cause",
			stmt: `CREATE TABLE cause (
	cause_id INTEGER PRIMARY KEY ` + autoInc + ` NOT NULL,
	cause_num VARCHAR(100) NOT NULL
)`,
		},
		{
			name: "cause_document",
			stmt: `CREATE TABLE cause_document (
	document_id INTEGER PRIMARY KEY ` + autoInc + ` NOT NULL,
	cause_id INTEGER NOT NULL,
	court_code INTEGER,
	judgment_code INTEGER,
	justice_kind DOUBLE,
	category_code DOUBLE NULL,
	status INTEGER,
	doc_url VARCHAR(150) NOT NULL,
	content LONGTEXT NOT NULL,
	FOREIGN KEY (cause_id) REFERENCES cause(cause_id)
)`,
		},
	}
}

// CreateTables creates cause and cause_document. A table that already exists
// is reported, not recreated, and its rows are left alone.
func (s *Store) CreateTables() ([]TableStatus, error) {
	out := make([]TableStatus, 0, 2)
	for _, t := range s.schema() {
		if s.db.Migrator().HasTable(t.name) {
			out = append(out, TableStatus{Table: t.name})
			continue
		}
		if err := s.db.Exec(t.stmt).Error; err != nil {
			if isTableExistsErr(err) {
				out = append(out, TableStatus{Table: t.name})
				continue
			}
			return out, fmt.Errorf("create table %s: %w", t.name, err)
		}
		out = append(out, TableStatus{Table: t.name, Created: true})
	}
	return out, nil
}

func isTableExistsErr(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "already exists")
}

// Tx is the write side of a batch; all inserts of a run share one.
type Tx struct {
	db *gorm.DB
}

// Transaction runs fn in a single transaction, committed iff fn returns nil.
func (s *Store) Transaction(fn func(tx *Tx) error) error {
	return s.db.Transaction(func(db *gorm.DB) error {
		return fn(&Tx{db: db})
	})
}

func (t *Tx) InsertCause(causeNum string) (uint, error) {
	c := Cause{CauseNum: causeNum}
	if err := t.db.Create(&c).Error; err != nil {
		return 0, err
	}
	return c.CauseID, nil
}

func (t *Tx) InsertDocument(doc *CauseDocument) error {
	return t.db.Create(doc).Error
}

// ReadBack joins every cause with its documents, in insertion order.
func (s *Store) ReadBack() ([]JoinedDocument, error) {
	var rows []JoinedDocument
	err := s.db.Table("cause").
		Select("cause_document.court_code, cause_document.judgment_code, cause_document.justice_kind, " +
			"cause_document.category_code, cause.cause_num, cause_document.doc_url, cause_document.status, cause_document.content").
		Joins("JOIN cause_document ON cause_document.cause_id = cause.cause_id").
		Order("cause_document.document_id asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
