package domain

import "regexp"

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// User represents a registered library member.
//
// Passwords are stored and compared in plaintext. This mirrors the system
// being reimplemented and is a documented weakness, not an oversight.
type User struct {
	// ID is the unique identifier, assigned by the catalogue and never reused.
	ID int64 `json:"user_id"`

	// Username is the login name. Not required to be unique; authentication
	// scans same-named users for a password match.
	Username string `json:"username"`

	// Forename is the user's first name.
	Forename string `json:"forename"`

	// Surname is the user's family name.
	Surname string `json:"surname"`

	// Email is validated against an email-shaped pattern.
	Email string `json:"email"`

	// PhoneNumber is validated against a phone-shaped pattern.
	PhoneNumber string `json:"phone_number"`

	// Password is the plaintext login password.
	Password string `json:"password"`

	// borrowed is the ordered list of books currently checked out by this
	// user. Membership, not ownership: the catalogue owns every Book.
	borrowed []*Book
}

// NewUser creates a User after validating email and phone formats.
func NewUser(id int64, username, forename, surname, email, phone, password string) (*User, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePhone(phone); err != nil {
		return nil, err
	}
	return &User{
		ID:          id,
		Username:    username,
		Forename:    forename,
		Surname:     surname,
		Email:       email,
		PhoneNumber: phone,
		Password:    password,
	}, nil
}

// ValidateEmail checks the email-shaped pattern.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePhone checks the phone-shaped pattern.
func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return ErrInvalidPhone
	}
	return nil
}

// BorrowBook checks the book out to this user. Returns true and appends the
// handle to the borrow list on success; returns false and leaves the list
// unchanged if the book is not available.
func (u *User) BorrowBook(book *Book) bool {
	if !book.Borrow() {
		return false
	}
	u.borrowed = append(u.borrowed, book)
	return true
}

// ReturnBook checks the book back in. Returns false without touching the
// book's availability if this user never borrowed it.
func (u *User) ReturnBook(book *Book) bool {
	for i, b := range u.borrowed {
		if b == book {
			u.borrowed = append(u.borrowed[:i], u.borrowed[i+1:]...)
			book.Return()
			return true
		}
	}
	return false
}

// HasBorrowed reports whether the book is currently checked out to this user.
func (u *User) HasBorrowed(book *Book) bool {
	for _, b := range u.borrowed {
		if b == book {
			return true
		}
	}
	return false
}

// BorrowedBooks returns a copy of the current borrow list, in checkout order.
func (u *User) BorrowedBooks() []*Book {
	out := make([]*Book, len(u.borrowed))
	copy(out, u.borrowed)
	return out
}
