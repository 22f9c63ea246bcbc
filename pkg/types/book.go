package types

import "errors"

// Book is a catalogue record. ISBN is immutable once the record is stored;
// AvailableCopies is the only field that changes after insertion and it
// always stays within [0, TotalCopies].
type Book struct {
	ISBN            string `json:"isbn"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	Year            int    `json:"year"`
	Category        string `json:"category"`
	TotalCopies     int    `json:"total_copies"`
	AvailableCopies int    `json:"available_copies"`
}

// ErrInvalidBook is returned by Book.Validate for records the catalogue
// must not accept.
var ErrInvalidBook = errors.New("invalid book")

// NewBook returns a book with all copies available.
func NewBook(isbn, title, author string, year int, category string, copies int) Book {
	return Book{
		ISBN:            isbn,
		Title:           title,
		Author:          author,
		Year:            year,
		Category:        category,
		TotalCopies:     copies,
		AvailableCopies: copies,
	}
}

// Validate checks the copy-count invariant and that an ISBN is present.
func (b Book) Validate() error {
	if b.ISBN == "" {
		return ErrInvalidBook
	}
	if b.TotalCopies < 0 || b.AvailableCopies < 0 || b.AvailableCopies > b.TotalCopies {
		return ErrInvalidBook
	}
	return nil
}

// OnLoan returns the number of copies currently lent out.
func (b Book) OnLoan() int {
	return b.TotalCopies - b.AvailableCopies
}
