package snapshot

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

// CSV file names and headers. The TotalCopies column carries the number of
// copies currently on the shelf, as earlier releases wrote it; Capacity
// carries the stored total and may be absent in older files.
const (
	BooksCSV   = "books.csv"
	MembersCSV = "members.csv"

	borrowedSep = ";"
)

var (
	bookHeader   = []string{"ISBN", "Title", "Author", "Year", "Category", "TotalCopies", "Capacity"}
	memberHeader = []string{"MemberID", "Name", "BorrowedBooks"}

	requiredBookColumns   = bookHeader[:6]
	requiredMemberColumns = memberHeader
)

// CSVStore keeps books.csv and members.csv in a data directory.
type CSVStore struct {
	dir    string
	logger Logger
}

// NewCSVStore returns a CSVStore rooted at dir.
func NewCSVStore(dir string, opts ...Option) *CSVStore {
	o := buildOptions(opts)
	return &CSVStore{dir: dir, logger: o.logger}
}

// Save writes books in ascending ISBN order and members in registry order.
func (s *CSVStore) Save(src Source) error {
	books := src.Books()
	err := writeFileAtomic(filepath.Join(s.dir, BooksCSV), func(w *bufio.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(bookHeader); err != nil {
			return err
		}
		for _, b := range books {
			row := []string{
				b.ISBN,
				b.Title,
				b.Author,
				strconv.Itoa(b.Year),
				b.Category,
				strconv.Itoa(b.AvailableCopies),
				strconv.Itoa(b.TotalCopies),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", BooksCSV, err)
	}

	members := src.Members()
	err = writeFileAtomic(filepath.Join(s.dir, MembersCSV), func(w *bufio.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(memberHeader); err != nil {
			return err
		}
		for _, m := range members {
			if err := cw.Write([]string{m.MemberID, m.Name, strings.Join(m.Borrowed, borrowedSep)}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", MembersCSV, err)
	}

	s.logger.Debug("csv snapshot saved", "dir", s.dir, "books", len(books), "members", len(members))
	return nil
}

// ReadBooks parses books.csv. Rows with unparseable numbers are skipped.
func (s *CSVStore) ReadBooks() ([]types.Book, error) {
	var books []types.Book
	err := s.readRows(BooksCSV, requiredBookColumns, func(record int, get func(string) string) {
		year, yerr := strconv.Atoi(get("Year"))
		avail, aerr := strconv.Atoi(get("TotalCopies"))
		if yerr != nil || aerr != nil {
			s.logger.Warn("skipping malformed book row", "file", BooksCSV, "record", record)
			return
		}
		total := avail
		if c := get("Capacity"); c != "" {
			n, err := strconv.Atoi(c)
			if err != nil {
				s.logger.Warn("skipping malformed book row", "file", BooksCSV, "record", record)
				return
			}
			total = max(n, avail)
		}
		books = append(books, types.Book{
			ISBN:            get("ISBN"),
			Title:           get("Title"),
			Author:          get("Author"),
			Year:            year,
			Category:        get("Category"),
			TotalCopies:     total,
			AvailableCopies: avail,
		})
	})
	return books, err
}

// ReadMembers parses members.csv.
func (s *CSVStore) ReadMembers() ([]types.Member, error) {
	var members []types.Member
	err := s.readRows(MembersCSV, requiredMemberColumns, func(_ int, get func(string) string) {
		borrowed := []string{}
		if raw := get("BorrowedBooks"); raw != "" {
			borrowed = strings.Split(raw, borrowedSep)
		}
		members = append(members, types.Member{
			MemberID: get("MemberID"),
			Name:     get("Name"),
			Borrowed: borrowed,
		})
	})
	return members, err
}

// Close is a no-op for CSV.
func (s *CSVStore) Close() error { return nil }

// readRows reads a headed CSV file and calls row for every record with a
// column getter keyed by header name.
func (s *CSVStore) readRows(name string, required []string, row func(record int, get func(string) string)) error {
	f, err := openIfExists(filepath.Join(s.dir, name))
	if err != nil || f == nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s header: %w", name, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, c := range required {
		if _, ok := cols[c]; !ok {
			return fmt.Errorf("%w: %s header lacks column %q", types.ErrMalformedRow, name, c)
		}
	}

	for n := 1; ; n++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading %s record %d: %w", name, n, err)
		}
		get := func(col string) string {
			i, ok := cols[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		row(n, get)
	}
}
