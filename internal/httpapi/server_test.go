package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/shelf/internal/activity"
	"github.com/mesh-intelligence/shelf/internal/catalogue"
	"github.com/mesh-intelligence/shelf/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type countingPersister struct {
	saves int
	err   error
}

func (p *countingPersister) Save() error {
	p.saves++
	return p.err
}

func newTestServer(t *testing.T) (*gin.Engine, *catalogue.Catalogue, *countingPersister) {
	t.Helper()
	lib := catalogue.New()
	require.True(t, lib.AddBook(types.NewBook("978-0", "Dune", "Frank Herbert", 1965, "Fiction", 2)))
	require.True(t, lib.AddBook(types.NewBook("978-1", "Emma", "Jane Austen", 1815, "Fiction", 1)))
	require.True(t, lib.AddMember("M001", "Ada"))
	p := &countingPersister{}
	return NewServer(lib, p).Router(), lib, p
}

func intp(n int) *int { return &n }

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) result {
	t.Helper()
	var res result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestAllBooks(t *testing.T) {
	r, _, _ := newTestServer(t)

	w := do(t, r, http.MethodGet, "/api/books/all", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var books []types.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &books))
	require.Len(t, books, 2)
	assert.Equal(t, "978-0", books[0].ISBN)
	assert.Equal(t, 2, books[0].AvailableCopies)
}

func TestSearchBooks(t *testing.T) {
	r, _, _ := newTestServer(t)

	tests := []struct {
		name  string
		req   searchRequest
		code  int
		isbns []string
	}{
		{"isbn", searchRequest{Type: "isbn", Query: " 978-1 "}, http.StatusOK, []string{"978-1"}},
		{"title normalized", searchRequest{Type: "title", Query: "  DUNE "}, http.StatusOK, []string{"978-0"}},
		{"author", searchRequest{Type: "author", Query: "jane austen"}, http.StatusOK, []string{"978-1"}},
		{"no match", searchRequest{Type: "title", Query: "Ulysses"}, http.StatusOK, []string{}},
		{"bad type", searchRequest{Type: "year", Query: "1965"}, http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/books/search", tt.req)
			require.Equal(t, tt.code, w.Code)
			if tt.code != http.StatusOK {
				return
			}
			var books []types.Book
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &books))
			got := []string{}
			for _, b := range books {
				got = append(got, b.ISBN)
			}
			assert.Equal(t, tt.isbns, got)
		})
	}
}

func TestBorrowAndReturn(t *testing.T) {
	r, lib, p := newTestServer(t)

	w := do(t, r, http.MethodPost, "/api/books/borrow", loanRequest{MemberID: "M001", ISBN: "978-1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, result{Success: true, Message: "Book borrowed successfully"}, decodeResult(t, w))
	assert.Equal(t, 1, p.saves)

	w = do(t, r, http.MethodPost, "/api/books/borrow", loanRequest{MemberID: "M001", ISBN: "978-1"})
	assert.Equal(t, result{Message: "Book not available"}, decodeResult(t, w))
	assert.Equal(t, 1, p.saves)

	b, _ := lib.SearchByISBN("978-1")
	assert.Equal(t, 0, b.AvailableCopies)

	w = do(t, r, http.MethodPost, "/api/books/return", loanRequest{MemberID: "M001", ISBN: "978-1"})
	assert.Equal(t, result{Success: true, Message: "Book returned successfully"}, decodeResult(t, w))
	assert.Equal(t, 2, p.saves)

	w = do(t, r, http.MethodPost, "/api/books/return", loanRequest{MemberID: "M001", ISBN: "978-1"})
	assert.Equal(t, result{Message: "Return failed"}, decodeResult(t, w))
	assert.Equal(t, 2, p.saves)
}

func TestBorrowFailureMessages(t *testing.T) {
	r, lib, _ := newTestServer(t)
	require.True(t, lib.AddBook(types.NewBook("978-9", "Big", "Many", 2000, "Ref", 10)))
	for range types.BorrowLimit {
		require.True(t, lib.Borrow("M001", "978-9"))
	}

	w := do(t, r, http.MethodPost, "/api/books/borrow", loanRequest{MemberID: "M404", ISBN: "978-0"})
	assert.Equal(t, "Member not found", decodeResult(t, w).Message)

	w = do(t, r, http.MethodPost, "/api/books/borrow", loanRequest{MemberID: "M001", ISBN: "978-0"})
	assert.Equal(t, "Borrow limit reached (max 5 books)", decodeResult(t, w).Message)
}

func TestLoanRequiresMemberID(t *testing.T) {
	r, _, p := newTestServer(t)

	for _, path := range []string{"/api/books/borrow", "/api/books/return"} {
		w := do(t, r, http.MethodPost, path, loanRequest{ISBN: "978-0"})
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Equal(t, "Member ID required", decodeResult(t, w).Message)
	}
	assert.Equal(t, 0, p.saves)
}

func TestAddBook(t *testing.T) {
	r, lib, p := newTestServer(t)

	req := addBookRequest{ISBN: "978-5", Title: "Ulysses", Author: "James Joyce", Year: intp(1922), Category: "Fiction", Copies: intp(3)}
	w := do(t, r, http.MethodPost, "/api/books/add", req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeResult(t, w).Success)
	assert.Equal(t, 1, p.saves)

	b, ok := lib.SearchByTitle("ulysses")
	require.True(t, ok)
	assert.Equal(t, 3, b.TotalCopies)

	w = do(t, r, http.MethodPost, "/api/books/add", req)
	assert.Equal(t, result{Message: "Book already exists"}, decodeResult(t, w))
	assert.Equal(t, 1, p.saves)

	w = do(t, r, http.MethodPost, "/api/books/add", map[string]any{"isbn": "978-6"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddBookRequiresYearAndCopies(t *testing.T) {
	r, lib, p := newTestServer(t)

	for name, body := range map[string]map[string]any{
		"no copies": {"isbn": "978-7", "title": "Ulysses", "author": "James Joyce", "year": 1922},
		"no year":   {"isbn": "978-8", "title": "Ulysses", "author": "James Joyce", "copies": 1},
	} {
		w := do(t, r, http.MethodPost, "/api/books/add", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
	assert.Equal(t, 0, p.saves)
	assert.Len(t, lib.Books(), 2)

	// Zero copies is an explicit value, not a missing one.
	w := do(t, r, http.MethodPost, "/api/books/add",
		map[string]any{"isbn": "978-9", "title": "Zero", "author": "Nobody", "year": 2000, "copies": 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeResult(t, w).Success)
}

func TestAddMember(t *testing.T) {
	r, lib, _ := newTestServer(t)

	w := do(t, r, http.MethodPost, "/api/members/add", addMemberRequest{MemberID: "M002", Name: "Grace"})
	assert.True(t, decodeResult(t, w).Success)

	w = do(t, r, http.MethodPost, "/api/members/add", addMemberRequest{MemberID: "M002", Name: "Grace"})
	assert.Equal(t, result{Message: "Member already exists"}, decodeResult(t, w))

	w = do(t, r, http.MethodPost, "/api/members/add", addMemberRequest{Name: "Linus"})
	var body struct {
		Success  bool   `json:"success"`
		MemberID string `json:"member_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.NotEmpty(t, body.MemberID)
	m, ok := lib.Member(body.MemberID)
	require.True(t, ok)
	assert.Equal(t, "Linus", m.Name)
}

func TestMembers(t *testing.T) {
	r, lib, _ := newTestServer(t)
	require.True(t, lib.Borrow("M001", "978-0"))

	w := do(t, r, http.MethodGet, "/api/members/all", nil)
	var all []memberSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 1)
	assert.Equal(t, 1, all[0].BorrowedCount)
	assert.Equal(t, []borrowedBook{{ISBN: "978-0", Title: "Dune"}}, all[0].BorrowedBooks)

	w = do(t, r, http.MethodGet, "/api/members/M001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var one memberDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &one))
	assert.True(t, one.CanBorrow)
	assert.Equal(t, "Frank Herbert", one.BorrowedBooks[0].Author)
	assert.Equal(t, "Fiction", one.BorrowedBooks[0].Category)

	w = do(t, r, http.MethodGet, "/api/members/M404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveFailureReturns500(t *testing.T) {
	lib := catalogue.New()
	p := &countingPersister{err: errors.New("disk full")}
	r := NewServer(lib, p).Router()

	w := do(t, r, http.MethodPost, "/api/members/add", addMemberRequest{MemberID: "M1", Name: "Ada"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, decodeResult(t, w).Success)
}

func TestHealth(t *testing.T) {
	r, _, _ := newTestServer(t)
	w := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

type failingLog struct{}

func (failingLog) Record(string, activity.Entry) error { return errors.New("down") }
func (failingLog) Recent(string) ([]activity.Entry, error) { return nil, errors.New("down") }
func (failingLog) Close() error { return nil }

func TestActivityHistory(t *testing.T) {
	lib := catalogue.New()
	require.True(t, lib.AddBook(types.NewBook("978-0", "Dune", "Frank Herbert", 1965, "Fiction", 2)))
	require.True(t, lib.AddMember("M001", "Ada"))
	r := NewServer(lib, nil, WithActivityLog(activity.NewMemoryLog(2))).Router()

	do(t, r, http.MethodGet, "/api/books/all?member_id=M001", nil)
	do(t, r, http.MethodPost, "/api/books/search?member_id=M001", searchRequest{Type: "isbn", Query: "978-0"})
	do(t, r, http.MethodGet, "/api/members/all?member_id=M001", nil)
	do(t, r, http.MethodGet, "/api/books/all", nil)

	w := do(t, r, http.MethodGet, "/api/activity/M001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got []activity.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, []activity.Entry{
		{Method: http.MethodGet, Route: "/api/members/all"},
		{Method: http.MethodPost, Route: "/api/books/search"},
	}, got)

	w = do(t, r, http.MethodGet, "/api/activity/M404", nil)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestActivityIgnoresUnknownMembers(t *testing.T) {
	history := activity.NewMemoryLog(5)
	r := NewServer(catalogue.New(), nil, WithActivityLog(history)).Router()

	for i := range 3 {
		w := do(t, r, http.MethodGet, fmt.Sprintf("/api/books/all?member_id=ghost-%d", i), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	for i := range 3 {
		got, err := history.Recent(fmt.Sprintf("ghost-%d", i))
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestActivityFailuresDoNotBreakRequests(t *testing.T) {
	lib := catalogue.New()
	require.True(t, lib.AddMember("M001", "Ada"))
	r := NewServer(lib, nil, WithActivityLog(failingLog{})).Router()

	w := do(t, r, http.MethodGet, "/api/books/all?member_id=M001", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/activity/M001", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
