package snapshot

import (
	"bufio"
	"fmt"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

// JSONL file names.
const (
	BooksJSONL   = "books.jsonl"
	MembersJSONL = "members.jsonl"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// bookJSON represents a book in books.jsonl.
type bookJSON struct {
	ISBN            string `json:"isbn"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	Year            int    `json:"year"`
	Category        string `json:"category"`
	TotalCopies     int    `json:"total_copies"`
	AvailableCopies int    `json:"available_copies"`
}

// memberJSON represents a member in members.jsonl.
type memberJSON struct {
	MemberID      string   `json:"member_id"`
	Name          string   `json:"name"`
	BorrowedBooks []string `json:"borrowed_books"`
}

// JSONLStore keeps one JSON object per line in books.jsonl and
// members.jsonl.
type JSONLStore struct {
	dir    string
	logger Logger
}

// NewJSONLStore returns a JSONLStore rooted at dir.
func NewJSONLStore(dir string, opts ...Option) *JSONLStore {
	o := buildOptions(opts)
	return &JSONLStore{dir: dir, logger: o.logger}
}

// Save writes both files atomically.
func (s *JSONLStore) Save(src Source) error {
	books := src.Books()
	records := make([]any, 0, len(books))
	for _, b := range books {
		records = append(records, bookJSON(b))
	}
	if err := writeJSONL(filepath.Join(s.dir, BooksJSONL), records); err != nil {
		return fmt.Errorf("save %s: %w", BooksJSONL, err)
	}

	members := src.Members()
	records = records[:0]
	for _, m := range members {
		records = append(records, memberJSON{MemberID: m.MemberID, Name: m.Name, BorrowedBooks: m.Borrowed})
	}
	if err := writeJSONL(filepath.Join(s.dir, MembersJSONL), records); err != nil {
		return fmt.Errorf("save %s: %w", MembersJSONL, err)
	}

	s.logger.Debug("jsonl snapshot saved", "dir", s.dir, "books", len(books), "members", len(members))
	return nil
}

// ReadBooks reads books.jsonl. Malformed lines are skipped.
func (s *JSONLStore) ReadBooks() ([]types.Book, error) {
	lines, err := s.readJSONL(BooksJSONL)
	if err != nil {
		return nil, err
	}
	books := make([]types.Book, 0, len(lines))
	for _, line := range lines {
		var rec bookJSON
		if err := json.Unmarshal(line, &rec); err != nil {
			s.logger.Warn("skipping malformed record", "file", BooksJSONL, "error", err)
			continue
		}
		books = append(books, types.Book(rec))
	}
	return books, nil
}

// ReadMembers reads members.jsonl. Malformed lines are skipped.
func (s *JSONLStore) ReadMembers() ([]types.Member, error) {
	lines, err := s.readJSONL(MembersJSONL)
	if err != nil {
		return nil, err
	}
	members := make([]types.Member, 0, len(lines))
	for _, line := range lines {
		var rec memberJSON
		if err := json.Unmarshal(line, &rec); err != nil {
			s.logger.Warn("skipping malformed record", "file", MembersJSONL, "error", err)
			continue
		}
		if rec.BorrowedBooks == nil {
			rec.BorrowedBooks = []string{}
		}
		members = append(members, types.Member{MemberID: rec.MemberID, Name: rec.Name, Borrowed: rec.BorrowedBooks})
	}
	return members, nil
}

// Close is a no-op for JSONL.
func (s *JSONLStore) Close() error { return nil }

// readJSONL returns each non-empty, syntactically valid line of the file.
func (s *JSONLStore) readJSONL(name string) ([][]byte, error) {
	f, err := openIfExists(filepath.Join(s.dir, name))
	if err != nil || f == nil {
		return nil, err
	}
	defer f.Close()

	var lines [][]byte
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			s.logger.Warn("skipping malformed line", "file", name)
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		lines = append(lines, cp)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", name, err)
	}
	return lines, nil
}

// writeJSONL atomically writes one encoded record per line.
func writeJSONL(path string, records []any) error {
	return writeFileAtomic(path, func(w *bufio.Writer) error {
		for _, rec := range records {
			b, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("encoding record: %w", err)
			}
			if _, err := w.Write(b); err != nil {
				return err
			}
			if err := w.WriteByte('\n'); err != nil {
				return err
			}
		}
		return nil
	})
}
