package snapshot

// Schema DDL for the SQLite snapshot. loans keeps one row per copy held,
// ordered by position within the member's borrowed list.
const (
	createBooks = `CREATE TABLE IF NOT EXISTS books (
    isbn TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    author TEXT NOT NULL,
    year INTEGER NOT NULL,
    category TEXT NOT NULL,
    total_copies INTEGER NOT NULL,
    available_copies INTEGER NOT NULL
);`

	createMembers = `CREATE TABLE IF NOT EXISTS members (
    seq INTEGER NOT NULL,
    member_id TEXT PRIMARY KEY,
    name TEXT NOT NULL
);`

	createLoans = `CREATE TABLE IF NOT EXISTS loans (
    member_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    isbn TEXT NOT NULL,
    PRIMARY KEY (member_id, position)
);`
)

var schemaStatements = []string{createBooks, createMembers, createLoans}
