// Package catalogue implements the library facade: it owns the AVL book
// store, the title and author indices, and the member registry, and it
// keeps them consistent across add, borrow, and return.
//
// Every public method takes one exclusive lock, so a Catalogue may be
// shared by concurrent HTTP handlers. Failed mutations leave every
// structure untouched.
package catalogue

import (
	"io"
	"log/slog"
	"sync"

	"github.com/mesh-intelligence/shelf/internal/avl"
	"github.com/mesh-intelligence/shelf/internal/hashtable"
	"github.com/mesh-intelligence/shelf/internal/index"
	"github.com/mesh-intelligence/shelf/internal/members"
	"github.com/mesh-intelligence/shelf/pkg/types"
)

// Logger is satisfied by *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Borrow failure reasons reported by BorrowFailure.
const (
	ReasonMemberNotFound = "member not found"
	ReasonLimitReached   = "borrow limit reached"
	ReasonNotAvailable   = "book not available"
)

// Catalogue is the only mutator of the book store, indices, and registry.
type Catalogue struct {
	mu sync.Mutex

	books   *avl.Tree[string, *types.Book]
	titles  *index.TitleIndex
	authors *index.AuthorIndex
	members *members.Registry

	titlePolicy string
	tableOpts   []hashtable.Option
	logger      Logger
}

// Option configures a Catalogue.
type Option func(*Catalogue)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l Logger) Option {
	return func(c *Catalogue) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTitlePolicy sets how AddBook treats a title already indexed for a
// different ISBN. Unknown values keep the default, TitlePolicyOverwrite.
func WithTitlePolicy(policy string) Option {
	return func(c *Catalogue) {
		if policy == types.TitlePolicyOverwrite || policy == types.TitlePolicyReject {
			c.titlePolicy = policy
		}
	}
}

// WithTableOptions configures the hash tables behind both indices and the
// member registry.
func WithTableOptions(opts ...hashtable.Option) Option {
	return func(c *Catalogue) {
		c.tableOpts = append(c.tableOpts, opts...)
	}
}

// New creates an empty Catalogue.
func New(opts ...Option) *Catalogue {
	c := &Catalogue{
		books:       avl.New[string, *types.Book](),
		titlePolicy: types.TitlePolicyOverwrite,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.titles = index.NewTitleIndex(c.tableOpts...)
	c.authors = index.NewAuthorIndex(c.tableOpts...)
	c.members = members.NewRegistry(c.tableOpts...)
	return c
}

// NewFromConfig creates an empty Catalogue sized and configured by cfg.
func NewFromConfig(cfg types.Config, opts ...Option) *Catalogue {
	base := []Option{
		WithTitlePolicy(cfg.TitlePolicy),
		WithTableOptions(
			hashtable.WithBuckets(cfg.Buckets),
			hashtable.WithMaxLoadFactor(cfg.MaxLoadFactor),
		),
	}
	return New(append(base, opts...)...)
}

var _ types.Library = (*Catalogue)(nil)

// AddBook stores book and indexes it. The tree decides duplicates; the
// indices are only touched once the tree has accepted the book.
func (c *Catalogue) AddBook(book types.Book) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := book.Validate(); err != nil {
		c.logger.Info("add book rejected", "isbn", book.ISBN, "reason", err.Error())
		return false
	}
	if c.titlePolicy == types.TitlePolicyReject {
		if owner, ok := c.titles.Get(book.Title); ok && owner != book.ISBN {
			c.logger.Info("add book rejected", "isbn", book.ISBN, "reason", "title taken", "owner", owner)
			return false
		}
	}

	if !c.insertBook(book) {
		return false
	}
	c.logger.Debug("book added", "isbn", book.ISBN, "copies", book.TotalCopies)
	return true
}

// RestoreBook stores a book read back from a snapshot. The title policy is
// not consulted: a snapshot saved under the overwrite policy may hold
// several books with one normalized title, and every one of them is kept.
// Invalid books and duplicate ISBNs are still refused.
func (c *Catalogue) RestoreBook(book types.Book) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := book.Validate(); err != nil {
		c.logger.Warn("restore book rejected", "isbn", book.ISBN, "reason", err.Error())
		return false
	}
	if !c.insertBook(book) {
		return false
	}
	c.logger.Debug("book restored", "isbn", book.ISBN, "copies", book.TotalCopies)
	return true
}

// insertBook adds book to the tree and, once accepted there, to both
// indices. The caller holds c.mu.
func (c *Catalogue) insertBook(book types.Book) bool {
	stored := book
	if !c.books.Insert(book.ISBN, &stored) {
		c.logger.Info("add book rejected", "isbn", book.ISBN, "reason", "duplicate isbn")
		return false
	}
	if owner, ok := c.titles.Get(book.Title); ok && owner != book.ISBN {
		c.logger.Warn("title index entry overwritten", "title", book.Title, "previous", owner, "isbn", book.ISBN)
	}
	c.titles.Add(book.Title, book.ISBN)
	c.authors.Add(book.Author, book.ISBN)
	return true
}

// SearchByISBN returns a copy of the book stored under isbn.
func (c *Catalogue) SearchByISBN(isbn string) (types.Book, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.books.Search(isbn)
	if !ok {
		return types.Book{}, false
	}
	return *b, true
}

// SearchByTitle resolves title through the title index.
func (c *Catalogue) SearchByTitle(title string) (types.Book, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	isbn, ok := c.titles.Get(title)
	if !ok {
		return types.Book{}, false
	}
	b, ok := c.books.Search(isbn)
	if !ok {
		return types.Book{}, false
	}
	return *b, true
}

// SearchByAuthor resolves every ISBN indexed under author through the
// tree. ISBNs that no longer resolve are skipped.
func (c *Catalogue) SearchByAuthor(author string) []types.Book {
	c.mu.Lock()
	defer c.mu.Unlock()

	isbns := c.authors.ISBNs(author)
	out := make([]types.Book, 0, len(isbns))
	for _, isbn := range isbns {
		if b, ok := c.books.Search(isbn); ok {
			out = append(out, *b)
		}
	}
	return out
}

// Books returns every book in ascending ISBN order.
func (c *Catalogue) Books() []types.Book {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.books.InOrder()
	out := make([]types.Book, 0, len(entries))
	for _, e := range entries {
		out = append(out, *e.Value)
	}
	return out
}

// AddMember registers a member.
func (c *Catalogue) AddMember(memberID, name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.members.Add(memberID, name) {
		c.logger.Info("add member rejected", "member_id", memberID, "reason", "duplicate member id")
		return false
	}
	c.logger.Debug("member added", "member_id", memberID)
	return true
}

// RestoreMember creates or replaces a member with a borrowed list taken
// verbatim from a snapshot. The borrow limit is not applied and copy
// counts are not touched.
func (c *Catalogue) RestoreMember(memberID, name string, borrowed []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.members.Restore(memberID, name, borrowed)
}

// Member returns a copy of the member.
func (c *Catalogue) Member(memberID string) (types.Member, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.members.Get(memberID)
}

// Members returns every member in registry order.
func (c *Catalogue) Members() []types.Member {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.members.All()
}

// BorrowedBooks resolves the member's borrowed ISBNs to books. Entries
// that no longer resolve are skipped. The second result is false for an
// unknown member.
func (c *Catalogue) BorrowedBooks(memberID string) ([]types.Book, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.members.Get(memberID)
	if !ok {
		return nil, false
	}
	out := make([]types.Book, 0, len(m.Borrowed))
	for _, isbn := range m.Borrowed {
		if b, ok := c.books.Search(isbn); ok {
			out = append(out, *b)
		}
	}
	return out, true
}

// CanBorrow reports whether the member exists and is under the limit.
func (c *Catalogue) CanBorrow(memberID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.members.CanBorrow(memberID)
}

// Borrow lends one copy of isbn to the member. The copy count is only
// decremented after the registry has accepted the loan.
func (c *Catalogue) Borrow(memberID, isbn string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	book, ok := c.books.Search(isbn)
	if !ok || book.AvailableCopies <= 0 {
		c.logger.Info("borrow rejected", "member_id", memberID, "isbn", isbn, "reason", ReasonNotAvailable)
		return false
	}
	if !c.members.Borrow(memberID, isbn) {
		c.logger.Info("borrow rejected", "member_id", memberID, "isbn", isbn, "reason", "registry refused")
		return false
	}
	book.AvailableCopies--

	c.logger.Debug("book borrowed", "member_id", memberID, "isbn", isbn, "available", book.AvailableCopies)
	return true
}

// Return takes one copy of isbn back from the member. The copy count is
// only incremented after the registry has released the loan, and never
// beyond the book's total.
func (c *Catalogue) Return(memberID, isbn string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	book, ok := c.books.Search(isbn)
	if !ok {
		c.logger.Info("return rejected", "member_id", memberID, "isbn", isbn, "reason", "unknown isbn")
		return false
	}
	if book.AvailableCopies >= book.TotalCopies {
		c.logger.Info("return rejected", "member_id", memberID, "isbn", isbn, "reason", "all copies on shelf")
		return false
	}
	if !c.members.Return(memberID, isbn) {
		c.logger.Info("return rejected", "member_id", memberID, "isbn", isbn, "reason", "registry refused")
		return false
	}
	book.AvailableCopies++

	c.logger.Debug("book returned", "member_id", memberID, "isbn", isbn, "available", book.AvailableCopies)
	return true
}

// BorrowFailure explains why Borrow(memberID, isbn) would fail, or
// returns "" if it would succeed. It only reads state.
func (c *Catalogue) BorrowFailure(memberID, isbn string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.members.Get(memberID)
	if !ok {
		return ReasonMemberNotFound
	}
	if !m.CanBorrow() {
		return ReasonLimitReached
	}
	book, ok := c.books.Search(isbn)
	if !ok || book.AvailableCopies <= 0 {
		return ReasonNotAvailable
	}
	return ""
}

// Reconcile raises each book's total to cover its available copies plus
// the copies members hold. Snapshots written without a stored total load
// with total equal to the available count; calling Reconcile after the
// members are restored lets those loans be returned. Returns the number of
// books adjusted.
func (c *Catalogue) Reconcile() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	loans := c.members.Loans()
	adjusted := 0
	for _, e := range c.books.InOrder() {
		need := e.Value.AvailableCopies + loans[e.Key]
		if e.Value.TotalCopies < need {
			c.logger.Debug("total copies raised", "isbn", e.Key, "from", e.Value.TotalCopies, "to", need)
			e.Value.TotalCopies = need
			adjusted++
		}
	}
	return adjusted
}

// Stats summarises the catalogue's structures.
type Stats struct {
	Books      int `json:"books"`
	Titles     int `json:"titles"`
	Authors    int `json:"authors"`
	Members    int `json:"members"`
	TreeHeight int `json:"tree_height"`
}

// Stats returns structure sizes.
func (c *Catalogue) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Books:      c.books.Len(),
		Titles:     c.titles.Len(),
		Authors:    c.authors.Len(),
		Members:    c.members.Len(),
		TreeHeight: c.books.Height(),
	}
}
