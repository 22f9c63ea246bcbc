// Package httpapi exposes the catalogue as a JSON API served with gin.
// Every successful mutation is followed by a full snapshot write.
package httpapi

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/shelf/internal/activity"
	"github.com/mesh-intelligence/shelf/internal/catalogue"
	"github.com/mesh-intelligence/shelf/pkg/types"
)

// Persister writes a snapshot of the catalogue.
type Persister interface {
	Save() error
}

// PersistFunc adapts a function to Persister.
type PersistFunc func() error

// Save calls f.
func (f PersistFunc) Save() error { return f() }

// Server holds the handler dependencies.
type Server struct {
	// mu serialises mutation plus snapshot so saves land in order.
	mu       sync.Mutex
	lib      *catalogue.Catalogue
	persist  Persister
	logger   *slog.Logger
	activity activity.Log
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithActivityLog sets where per-member request history is kept.
func WithActivityLog(l activity.Log) Option {
	return func(s *Server) {
		if l != nil {
			s.activity = l
		}
	}
}

// NewServer creates a Server. Without options it discards log output and
// keeps activity in memory.
func NewServer(lib *catalogue.Catalogue, persist Persister, opts ...Option) *Server {
	s := &Server{
		lib:      lib,
		persist:  persist,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		activity: activity.NewMemoryLog(types.DefaultActivityLimit),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.health)

	r.GET("/api/activity/:id", s.memberActivity)

	api := r.Group("/api")
	{
		api.Use(s.recordActivity)

		api.GET("/books/all", s.allBooks)
		api.POST("/books/search", s.searchBooks)
		api.POST("/books/borrow", s.borrow)
		api.POST("/books/return", s.returnBook)
		api.POST("/books/add", s.addBook)

		api.POST("/members/add", s.addMember)
		api.GET("/members/all", s.allMembers)
		api.GET("/members/:id", s.getMember)
	}
	return r
}

type result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type searchRequest struct {
	Type  string `json:"type"`
	Query string `json:"query"`
}

type loanRequest struct {
	MemberID string `json:"member_id"`
	ISBN     string `json:"isbn"`
}

type addBookRequest struct {
	ISBN     string `json:"isbn" binding:"required"`
	Title    string `json:"title" binding:"required"`
	Author   string `json:"author" binding:"required"`
	Year     *int   `json:"year" binding:"required"`
	Category string `json:"category"`
	Copies   *int   `json:"copies" binding:"required"`
}

type addMemberRequest struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name" binding:"required"`
}

type borrowedBook struct {
	ISBN     string `json:"isbn"`
	Title    string `json:"title"`
	Author   string `json:"author,omitempty"`
	Category string `json:"category,omitempty"`
}

type memberSummary struct {
	MemberID      string         `json:"member_id"`
	Name          string         `json:"name"`
	BorrowedCount int            `json:"borrowed_count"`
	BorrowedBooks []borrowedBook `json:"borrowed_books"`
}

type memberDetail struct {
	memberSummary
	CanBorrow bool `json:"can_borrow"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) allBooks(c *gin.Context) {
	c.JSON(http.StatusOK, s.lib.Books())
}

func (s *Server) searchBooks(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, result{Message: "invalid request body"})
		return
	}

	results := []types.Book{}
	switch req.Type {
	case "isbn":
		if b, ok := s.lib.SearchByISBN(strings.TrimSpace(req.Query)); ok {
			results = append(results, b)
		}
	case "title":
		if b, ok := s.lib.SearchByTitle(req.Query); ok {
			results = append(results, b)
		}
	case "author":
		results = append(results, s.lib.SearchByAuthor(req.Query)...)
	default:
		c.JSON(http.StatusBadRequest, result{Message: "search type must be isbn, title, or author"})
		return
	}
	c.JSON(http.StatusOK, results)
}

func (s *Server) borrow(c *gin.Context) {
	var req loanRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.MemberID == "" {
		c.JSON(http.StatusBadRequest, result{Message: "Member ID required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lib.Borrow(req.MemberID, req.ISBN) {
		msg := "Book not available"
		switch s.lib.BorrowFailure(req.MemberID, req.ISBN) {
		case catalogue.ReasonMemberNotFound:
			msg = "Member not found"
		case catalogue.ReasonLimitReached:
			msg = "Borrow limit reached (max 5 books)"
		}
		c.JSON(http.StatusOK, result{Message: msg})
		return
	}
	if !s.save(c) {
		return
	}
	c.JSON(http.StatusOK, result{Success: true, Message: "Book borrowed successfully"})
}

func (s *Server) returnBook(c *gin.Context) {
	var req loanRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.MemberID == "" {
		c.JSON(http.StatusBadRequest, result{Message: "Member ID required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lib.Return(req.MemberID, req.ISBN) {
		c.JSON(http.StatusOK, result{Message: "Return failed"})
		return
	}
	if !s.save(c) {
		return
	}
	c.JSON(http.StatusOK, result{Success: true, Message: "Book returned successfully"})
}

func (s *Server) addBook(c *gin.Context) {
	var req addBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, result{Message: "invalid book: " + err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	book := types.NewBook(strings.TrimSpace(req.ISBN), req.Title, req.Author, *req.Year, req.Category, *req.Copies)
	if !s.lib.AddBook(book) {
		c.JSON(http.StatusOK, result{Message: "Book already exists"})
		return
	}
	if !s.save(c) {
		return
	}
	c.JSON(http.StatusOK, result{Success: true, Message: "Book added successfully"})
}

func (s *Server) addMember(c *gin.Context) {
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, result{Message: "invalid member: " + err.Error()})
		return
	}
	if req.MemberID == "" {
		req.MemberID = types.NewMemberID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lib.AddMember(req.MemberID, req.Name) {
		c.JSON(http.StatusOK, result{Message: "Member already exists"})
		return
	}
	if !s.save(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Member added successfully", "member_id": req.MemberID})
}

func (s *Server) allMembers(c *gin.Context) {
	out := []memberSummary{}
	for _, m := range s.lib.Members() {
		out = append(out, s.summarize(m, false))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getMember(c *gin.Context) {
	m, ok := s.lib.Member(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, result{Message: "Member not found"})
		return
	}
	c.JSON(http.StatusOK, memberDetail{
		memberSummary: s.summarize(m, true),
		CanBorrow:     m.CanBorrow(),
	})
}

// recordActivity appends the request to the history of the member named
// by the member_id query parameter. IDs that name no registered member are
// ignored. Recording failures are logged and never fail the request.
func (s *Server) recordActivity(c *gin.Context) {
	memberID := c.Query("member_id")
	if _, ok := s.lib.Member(memberID); ok && memberID != "" {
		e := activity.Entry{Method: c.Request.Method, Route: c.Request.URL.Path}
		if err := s.activity.Record(memberID, e); err != nil {
			s.logger.Warn("activity record failed", "member_id", memberID, "error", err)
		}
	}
	c.Next()
}

func (s *Server) memberActivity(c *gin.Context) {
	entries, err := s.activity.Recent(c.Param("id"))
	if err != nil {
		s.logger.Error("activity read failed", "error", err)
		c.JSON(http.StatusInternalServerError, result{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// summarize resolves the member's loans to titles; detail adds author and
// category.
func (s *Server) summarize(m types.Member, detail bool) memberSummary {
	books, _ := s.lib.BorrowedBooks(m.MemberID)
	out := memberSummary{
		MemberID:      m.MemberID,
		Name:          m.Name,
		BorrowedCount: len(m.Borrowed),
		BorrowedBooks: make([]borrowedBook, 0, len(books)),
	}
	for _, b := range books {
		bb := borrowedBook{ISBN: b.ISBN, Title: b.Title}
		if detail {
			bb.Author = b.Author
			bb.Category = b.Category
		}
		out.BorrowedBooks = append(out.BorrowedBooks, bb)
	}
	return out
}

// save persists a snapshot, writing a 500 response on failure.
func (s *Server) save(c *gin.Context) bool {
	if s.persist == nil {
		return true
	}
	if err := s.persist.Save(); err != nil {
		s.logger.Error("snapshot save failed", "error", err)
		c.JSON(http.StatusInternalServerError, result{Message: "saving snapshot failed"})
		return false
	}
	return true
}
