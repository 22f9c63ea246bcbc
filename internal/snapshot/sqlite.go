package snapshot

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

// SQLiteFile is the database file name inside the data directory.
const SQLiteFile = "shelf.db"

// SQLiteStore dumps the full snapshot into a SQLite database, replacing
// every row in one transaction.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger Logger
}

// OpenSQLiteStore opens or creates dir/shelf.db and ensures the schema.
func OpenSQLiteStore(dir string, opts ...Option) (*SQLiteStore, error) {
	o := buildOptions(opts)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	path := filepath.Join(dir, SQLiteFile)
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}
	return &SQLiteStore{db: db, path: path, logger: o.logger}, nil
}

// Save replaces the stored snapshot with src.
func (s *SQLiteStore) Save(src Source) error {
	books := src.Books()
	members := src.Members()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning save transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"loans", "members", "books"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	bookStmt, err := tx.Prepare(`INSERT INTO books
        (isbn, title, author, year, category, total_copies, available_copies)
        VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing book insert: %w", err)
	}
	defer bookStmt.Close()
	for _, b := range books {
		if _, err := bookStmt.Exec(b.ISBN, b.Title, b.Author, b.Year, b.Category, b.TotalCopies, b.AvailableCopies); err != nil {
			return fmt.Errorf("inserting book %s: %w", b.ISBN, err)
		}
	}

	memberStmt, err := tx.Prepare(`INSERT INTO members (seq, member_id, name) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing member insert: %w", err)
	}
	defer memberStmt.Close()
	loanStmt, err := tx.Prepare(`INSERT INTO loans (member_id, position, isbn) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing loan insert: %w", err)
	}
	defer loanStmt.Close()
	for i, m := range members {
		if _, err := memberStmt.Exec(i, m.MemberID, m.Name); err != nil {
			return fmt.Errorf("inserting member %s: %w", m.MemberID, err)
		}
		for pos, isbn := range m.Borrowed {
			if _, err := loanStmt.Exec(m.MemberID, pos, isbn); err != nil {
				return fmt.Errorf("inserting loan %s/%s: %w", m.MemberID, isbn, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing save transaction: %w", err)
	}
	s.logger.Debug("sqlite snapshot saved", "path", s.path, "books", len(books), "members", len(members))
	return nil
}

// ReadBooks returns the stored books in ISBN order.
func (s *SQLiteStore) ReadBooks() ([]types.Book, error) {
	rows, err := s.db.Query(`SELECT isbn, title, author, year, category, total_copies, available_copies
        FROM books ORDER BY isbn`)
	if err != nil {
		return nil, fmt.Errorf("querying books: %w", err)
	}
	defer rows.Close()

	var books []types.Book
	for rows.Next() {
		var b types.Book
		if err := rows.Scan(&b.ISBN, &b.Title, &b.Author, &b.Year, &b.Category, &b.TotalCopies, &b.AvailableCopies); err != nil {
			return nil, fmt.Errorf("scanning book: %w", err)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// ReadMembers returns the stored members in saved order with their
// borrowed lists.
func (s *SQLiteStore) ReadMembers() ([]types.Member, error) {
	rows, err := s.db.Query(`SELECT member_id, name FROM members ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying members: %w", err)
	}
	var members []types.Member
	pos := make(map[string]int)
	for rows.Next() {
		m := types.Member{Borrowed: []string{}}
		if err := rows.Scan(&m.MemberID, &m.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		pos[m.MemberID] = len(members)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	loans, err := s.db.Query(`SELECT member_id, isbn FROM loans ORDER BY member_id, position`)
	if err != nil {
		return nil, fmt.Errorf("querying loans: %w", err)
	}
	defer loans.Close()
	for loans.Next() {
		var memberID, isbn string
		if err := loans.Scan(&memberID, &isbn); err != nil {
			return nil, fmt.Errorf("scanning loan: %w", err)
		}
		i, ok := pos[memberID]
		if !ok {
			s.logger.Warn("skipping loan of unknown member", "member_id", memberID, "isbn", isbn)
			continue
		}
		members[i].Borrowed = append(members[i].Borrowed, isbn)
	}
	return members, loans.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
