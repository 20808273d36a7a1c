package models

import "time"

// Book represents a book record in the catalog
type Book struct {
	ID              string     `json:"id" yaml:"id"`
	Title           string     `json:"title" yaml:"title"`
	Author          string     `json:"author" yaml:"author"`
	Genre           string     `json:"genre" yaml:"genre"`
	PublicationYear *int       `json:"publication_year" yaml:"publication_year,omitempty"`
	ISBN            string     `json:"isbn" yaml:"isbn,omitempty"`
	DateAdded       time.Time  `json:"date_added" yaml:"date_added"`
	Description     string     `json:"description" yaml:"description,omitempty"`
	IsBorrowed      bool       `json:"is_borrowed" yaml:"is_borrowed"`
	BorrowedDate    *time.Time `json:"borrowed_date" yaml:"borrowed_date,omitempty"`
	ReturnDate      *time.Time `json:"return_date" yaml:"return_date,omitempty"`
	Borrower        string     `json:"borrower" yaml:"borrower,omitempty"`
}

// Clone returns a copy that shares no pointers with b
func (b Book) Clone() Book {
	c := b
	if b.PublicationYear != nil {
		y := *b.PublicationYear
		c.PublicationYear = &y
	}
	if b.BorrowedDate != nil {
		t := *b.BorrowedDate
		c.BorrowedDate = &t
	}
	if b.ReturnDate != nil {
		t := *b.ReturnDate
		c.ReturnDate = &t
	}
	return c
}

// Status returns the lending state as shown to users
func (b Book) Status() string {
	if b.IsBorrowed {
		return "Borrowed"
	}
	return "Available"
}

// NewBook holds the fields accepted when adding a book
type NewBook struct {
	Title           string `json:"title" yaml:"title"`
	Author          string `json:"author" yaml:"author"`
	Genre           string `json:"genre" yaml:"genre"`
	PublicationYear *int   `json:"publication_year" yaml:"publication_year"`
	ISBN            string `json:"isbn" yaml:"isbn"`
	Description     string `json:"description" yaml:"description"`
}

// BookPatch lists the fields that may be changed by an update.
// A nil field is left untouched.
type BookPatch struct {
	Title           *string `json:"title"`
	Author          *string `json:"author"`
	Genre           *string `json:"genre"`
	PublicationYear *int    `json:"publication_year"`
	ISBN            *string `json:"isbn"`
	Description     *string `json:"description"`
}

// IsEmpty reports whether the patch changes nothing
func (p BookPatch) IsEmpty() bool {
	return p.Title == nil && p.Author == nil && p.Genre == nil &&
		p.PublicationYear == nil && p.ISBN == nil && p.Description == nil
}

// SearchField selects which fields a search query is matched against
type SearchField string

const (
	SearchTitle  SearchField = "title"
	SearchAuthor SearchField = "author"
	SearchGenre  SearchField = "genre"
	SearchAll    SearchField = "all"
)

// CountEntry is a grouping key with its number of books
type CountEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats represents aggregate catalog statistics
type Stats struct {
	TotalBooks     int          `json:"total_books"`
	BorrowedBooks  int          `json:"borrowed_books"`
	AvailableBooks int          `json:"available_books"`
	UniqueGenres   int          `json:"unique_genres"`
	UniqueAuthors  int          `json:"unique_authors"`
	TopGenres      []CountEntry `json:"top_genres"`
	TopAuthors     []CountEntry `json:"top_authors"`
}

// Snapshot is the persisted form of a whole catalog
type Snapshot struct {
	Name    string    `json:"name"`
	NextID  int64     `json:"next_id"`
	SavedAt time.Time `json:"saved_at"`
	Books   []Book    `json:"books"`
}
