package types

// Library is the boundary the I/O shells (CLI and HTTP) talk to.
// Every mutating method reports success as a bool; expected failures such
// as an unknown key, a duplicate key, or a reached limit are never errors.
type Library interface {
	// AddBook stores a new book and indexes it by title and author.
	// Returns false if the ISBN is already catalogued, or if the title is
	// taken and the title policy is TitlePolicyReject.
	AddBook(book Book) bool

	// SearchByISBN returns the book with the given ISBN.
	SearchByISBN(isbn string) (Book, bool)

	// SearchByTitle resolves a title, compared case- and
	// whitespace-insensitively, to its book.
	SearchByTitle(title string) (Book, bool)

	// SearchByAuthor returns every book indexed under the author.
	// Returns an empty slice for an unknown author.
	SearchByAuthor(author string) []Book

	// Books returns every book in ascending ISBN order.
	Books() []Book

	// AddMember registers a member. Returns false if the ID is taken.
	AddMember(memberID, name string) bool

	// Member returns the member with the given ID.
	Member(memberID string) (Member, bool)

	// Members returns every member. Order is unspecified.
	Members() []Member

	// Borrow lends one copy of isbn to the member.
	Borrow(memberID, isbn string) bool

	// Return takes one copy of isbn back from the member.
	Return(memberID, isbn string) bool
}
