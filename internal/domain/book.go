package domain

// ISBNLength is the required length of a catalogue ISBN (ISBN-13).
const ISBNLength = 13

// Book represents a single physical copy in the catalogue.
// The catalogue store owns every Book; users and transactions hold handles.
type Book struct {
	// ID is the unique identifier, assigned by the catalogue and never reused.
	ID int64 `json:"book_id"`

	// Title is the display title.
	Title string `json:"title"`

	// Author is the display author name.
	Author string `json:"author"`

	// ISBN is the 13-character identifier. Validated at construction and on update.
	ISBN string `json:"isbn"`

	// YearPublished is the year of publication.
	YearPublished int `json:"year_published"`

	// Available reports whether the copy is on the shelf.
	// This flag is the single source of truth for borrow eligibility.
	Available bool `json:"available"`
}

// NewBook creates an available Book after validating the ISBN.
func NewBook(id int64, title, author, isbn string, yearPublished int) (*Book, error) {
	if err := ValidateISBN(isbn); err != nil {
		return nil, err
	}
	return &Book{
		ID:            id,
		Title:         title,
		Author:        author,
		ISBN:          isbn,
		YearPublished: yearPublished,
		Available:     true,
	}, nil
}

// ValidateISBN checks the 13-character ISBN invariant.
func ValidateISBN(isbn string) error {
	if len(isbn) != ISBNLength {
		return ErrInvalidISBN
	}
	return nil
}

// Borrow flips the book to unavailable and returns true, or returns false
// without side effects if the book is already checked out. Check and set
// happen in one call; callers never see a check-then-set window.
func (b *Book) Borrow() bool {
	if !b.Available {
		return false
	}
	b.Available = false
	return true
}

// Return puts the book back on the shelf. Idempotent.
func (b *Book) Return() {
	b.Available = true
}
