// Package catalog implements the in-memory entity store of the Openshelf
// catalogue: primary lists, ID allocation, secondary indexes, approximate
// search and authentication.
//
// The store is not internally thread-safe. Every caller goes through the
// library.Manager facade, which serialises access behind one coarse lock,
// so the store runs effectively single-threaded.
package catalog

import (
	"strconv"

	"github.com/openshelf/openshelf/internal/domain"
	"github.com/openshelf/openshelf/internal/pkg/textutil"
)

// DefaultQueryThreshold is the default Levenshtein distance for approximate search.
const DefaultQueryThreshold = 2

// Store owns all Book, User and Transaction instances.
//
// Entities live in append-oriented primary lists and are referenced elsewhere
// only by handle. ID counters are monotonic and never reused, even after
// deletion. Secondary index keys are case-folded field values.
//
// Index maintenance on update is additive: the entity is inserted under the
// new key and the stale key is kept, so an entity stays findable under old
// field values until it is deleted. Deletion filters every index bucket, so
// a deleted entity is unreachable from any key, stale or current.
type Store struct {
	books        []*domain.Book
	users        []*domain.User
	transactions []*domain.Transaction

	bookIDCounter        int64
	userIDCounter        int64
	transactionIDCounter int64

	booksByAuthor map[string][]*domain.Book
	booksByTitle  map[string][]*domain.Book
	booksByISBN   map[string][]*domain.Book

	usersByForename map[string][]*domain.User
	usersBySurname  map[string][]*domain.User
	usersByUsername map[string][]*domain.User

	transactionsByBookID map[int64][]*domain.Transaction
	transactionsByUserID map[int64][]*domain.Transaction

	adminPassword string
}

// NewStore creates an empty Store. The admin password is an explicit
// configuration value, not a process-wide constant.
func NewStore(adminPassword string) *Store {
	return &Store{
		booksByAuthor:        make(map[string][]*domain.Book),
		booksByTitle:         make(map[string][]*domain.Book),
		booksByISBN:          make(map[string][]*domain.Book),
		usersByForename:      make(map[string][]*domain.User),
		usersBySurname:       make(map[string][]*domain.User),
		usersByUsername:      make(map[string][]*domain.User),
		transactionsByBookID: make(map[int64][]*domain.Transaction),
		transactionsByUserID: make(map[int64][]*domain.Transaction),
		adminPassword:        adminPassword,
	}
}

// ===========================================
// Create
// ===========================================

// CreateBook validates, allocates the next book ID and inserts the book into
// the primary list and the three book indexes. New books are available.
func (s *Store) CreateBook(title, author, isbn string, yearPublished int) (int64, error) {
	book, err := domain.NewBook(s.bookIDCounter+1, title, author, isbn, yearPublished)
	if err != nil {
		return 0, err
	}
	s.bookIDCounter++
	s.insertBook(book)
	return book.ID, nil
}

// CreateUser validates, allocates the next user ID and inserts the user into
// the primary list and the three user indexes.
func (s *Store) CreateUser(username, forename, surname, email, phone, password string) (int64, error) {
	user, err := domain.NewUser(s.userIDCounter+1, username, forename, surname, email, phone, password)
	if err != nil {
		return 0, err
	}
	s.userIDCounter++
	s.insertUser(user)
	return user.ID, nil
}

// CreateTransaction records an open transaction for the given book and user.
// It does not execute the transaction; execution is a separate explicit step.
func (s *Store) CreateTransaction(typ domain.TransactionType, book *domain.Book, user *domain.User) (int64, error) {
	txn, err := domain.NewTransaction(s.transactionIDCounter+1, typ, book, user)
	if err != nil {
		return 0, err
	}
	s.transactionIDCounter++
	s.insertTransaction(txn)
	return txn.ID, nil
}

func (s *Store) insertBook(book *domain.Book) {
	s.books = append(s.books, book)
	s.booksByAuthor[textutil.Fold(book.Author)] = append(s.booksByAuthor[textutil.Fold(book.Author)], book)
	s.booksByTitle[textutil.Fold(book.Title)] = append(s.booksByTitle[textutil.Fold(book.Title)], book)
	s.booksByISBN[textutil.Fold(book.ISBN)] = append(s.booksByISBN[textutil.Fold(book.ISBN)], book)
}

func (s *Store) insertUser(user *domain.User) {
	s.users = append(s.users, user)
	s.usersByForename[textutil.Fold(user.Forename)] = append(s.usersByForename[textutil.Fold(user.Forename)], user)
	s.usersBySurname[textutil.Fold(user.Surname)] = append(s.usersBySurname[textutil.Fold(user.Surname)], user)
	s.usersByUsername[textutil.Fold(user.Username)] = append(s.usersByUsername[textutil.Fold(user.Username)], user)
}

func (s *Store) insertTransaction(txn *domain.Transaction) {
	s.transactions = append(s.transactions, txn)
	s.transactionsByBookID[txn.Book.ID] = append(s.transactionsByBookID[txn.Book.ID], txn)
	s.transactionsByUserID[txn.User.ID] = append(s.transactionsByUserID[txn.User.ID], txn)
}

// ===========================================
// Read
// ===========================================

// ReadBook returns the book with the given ID.
func (s *Store) ReadBook(id int64) (*domain.Book, error) {
	for _, b := range s.books {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, domain.ErrBookNotFound
}

// ReadUser returns the user with the given ID.
func (s *Store) ReadUser(id int64) (*domain.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// ReadTransaction returns the transaction with the given ID.
func (s *Store) ReadTransaction(id int64) (*domain.Transaction, error) {
	for _, t := range s.transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

// ===========================================
// Update
// ===========================================

// UpdateBook mutates a single named field. Format-constrained fields are
// re-validated before any mutation. Indexed fields are inserted under the
// new key; the stale key is kept (see the Store doc comment).
func (s *Store) UpdateBook(id int64, field, value string) error {
	book, err := s.ReadBook(id)
	if err != nil {
		return err
	}

	switch field {
	case "title":
		book.Title = value
		s.booksByTitle[textutil.Fold(value)] = append(s.booksByTitle[textutil.Fold(value)], book)
	case "author":
		book.Author = value
		s.booksByAuthor[textutil.Fold(value)] = append(s.booksByAuthor[textutil.Fold(value)], book)
	case "isbn":
		if err := domain.ValidateISBN(value); err != nil {
			return err
		}
		book.ISBN = value
		s.booksByISBN[textutil.Fold(value)] = append(s.booksByISBN[textutil.Fold(value)], book)
	case "year_published":
		year, err := strconv.Atoi(value)
		if err != nil {
			return domain.ErrInvalidValue
		}
		book.YearPublished = year
	case "available":
		book.Available = value == "true"
	default:
		return domain.ErrUnknownField
	}
	return nil
}

// UpdateUser mutates a single named field, re-validating email and phone.
func (s *Store) UpdateUser(id int64, field, value string) error {
	user, err := s.ReadUser(id)
	if err != nil {
		return err
	}

	switch field {
	case "username":
		user.Username = value
		s.usersByUsername[textutil.Fold(value)] = append(s.usersByUsername[textutil.Fold(value)], user)
	case "forename":
		user.Forename = value
		s.usersByForename[textutil.Fold(value)] = append(s.usersByForename[textutil.Fold(value)], user)
	case "surname":
		user.Surname = value
		s.usersBySurname[textutil.Fold(value)] = append(s.usersBySurname[textutil.Fold(value)], user)
	case "email":
		if err := domain.ValidateEmail(value); err != nil {
			return err
		}
		user.Email = value
	case "phone_number":
		if err := domain.ValidatePhone(value); err != nil {
			return err
		}
		user.PhoneNumber = value
	case "password":
		user.Password = value
	default:
		return domain.ErrUnknownField
	}
	return nil
}

// UpdateTransaction mutates a single named field.
func (s *Store) UpdateTransaction(id int64, field, value string) error {
	txn, err := s.ReadTransaction(id)
	if err != nil {
		return err
	}

	switch field {
	case "status":
		txn.Status = domain.TransactionStatus(value)
	case "datetime":
		txn.Datetime = value
	default:
		return domain.ErrUnknownField
	}
	return nil
}

// ===========================================
// Delete
// ===========================================

// DeleteBook removes the book from the primary list and every index bucket,
// including buckets under stale keys. Transactions referencing the book are
// deleted as well so no posting list holds a dangling handle.
func (s *Store) DeleteBook(id int64) error {
	book, err := s.ReadBook(id)
	if err != nil {
		return err
	}

	s.books = removeEntity(s.books, book)
	purgeIndex(s.booksByAuthor, book)
	purgeIndex(s.booksByTitle, book)
	purgeIndex(s.booksByISBN, book)
	s.deleteTransactionsWhere(func(t *domain.Transaction) bool { return t.Book == book })
	return nil
}

// DeleteUser removes the user from the primary list and every index bucket.
// Transactions referencing the user are deleted as well.
func (s *Store) DeleteUser(id int64) error {
	user, err := s.ReadUser(id)
	if err != nil {
		return err
	}

	s.users = removeEntity(s.users, user)
	purgeIndex(s.usersByForename, user)
	purgeIndex(s.usersBySurname, user)
	purgeIndex(s.usersByUsername, user)
	s.deleteTransactionsWhere(func(t *domain.Transaction) bool { return t.User == user })
	return nil
}

// DeleteTransaction removes the transaction from the primary list and both
// posting lists.
func (s *Store) DeleteTransaction(id int64) error {
	txn, err := s.ReadTransaction(id)
	if err != nil {
		return err
	}

	s.transactions = removeEntity(s.transactions, txn)
	s.transactionsByBookID[txn.Book.ID] = removeEntity(s.transactionsByBookID[txn.Book.ID], txn)
	s.transactionsByUserID[txn.User.ID] = removeEntity(s.transactionsByUserID[txn.User.ID], txn)
	return nil
}

func (s *Store) deleteTransactionsWhere(match func(*domain.Transaction) bool) {
	var doomed []*domain.Transaction
	for _, t := range s.transactions {
		if match(t) {
			doomed = append(doomed, t)
		}
	}
	for _, t := range doomed {
		s.transactions = removeEntity(s.transactions, t)
		s.transactionsByBookID[t.Book.ID] = removeEntity(s.transactionsByBookID[t.Book.ID], t)
		s.transactionsByUserID[t.User.ID] = removeEntity(s.transactionsByUserID[t.User.ID], t)
	}
}

// removeEntity filters one entity out of a slice by identity.
func removeEntity[T comparable](list []T, target T) []T {
	out := list[:0]
	for _, item := range list {
		if item != target {
			out = append(out, item)
		}
	}
	return out
}

// purgeIndex removes the entity from every bucket of an index, covering
// stale keys left behind by additive updates.
func purgeIndex[T comparable](index map[string][]T, target T) {
	for key, bucket := range index {
		index[key] = removeEntity(bucket, target)
		if len(index[key]) == 0 {
			delete(index, key)
		}
	}
}

// ===========================================
// Authentication
// ===========================================

// AuthenticateUser looks up users by case-folded username and scans them for
// a verbatim password match. Plaintext comparison is a preserved weakness of
// the system, not an oversight.
func (s *Store) AuthenticateUser(username, password string) (*domain.User, error) {
	for _, user := range s.usersByUsername[textutil.Fold(username)] {
		if user.Password == password {
			return user, nil
		}
	}
	return nil, domain.ErrInvalidCredentials
}

// AuthenticateAdmin compares the password against the configured admin
// credential. It never fails with an error.
func (s *Store) AuthenticateAdmin(password string) bool {
	return password == s.adminPassword
}

// ===========================================
// Accessors for persistence and introspection
// ===========================================

// Books returns the primary book list in insertion order.
func (s *Store) Books() []*domain.Book {
	out := make([]*domain.Book, len(s.books))
	copy(out, s.books)
	return out
}

// Users returns the primary user list in insertion order.
func (s *Store) Users() []*domain.User {
	out := make([]*domain.User, len(s.users))
	copy(out, s.users)
	return out
}

// Transactions returns the primary transaction list in insertion order.
func (s *Store) Transactions() []*domain.Transaction {
	out := make([]*domain.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

// Counters returns the three ID counters.
func (s *Store) Counters() (bookID, userID, transactionID int64) {
	return s.bookIDCounter, s.userIDCounter, s.transactionIDCounter
}

// SetCounters overwrites the ID counters. Used by snapshot restore.
func (s *Store) SetCounters(bookID, userID, transactionID int64) {
	s.bookIDCounter = bookID
	s.userIDCounter = userID
	s.transactionIDCounter = transactionID
}

// Empty reports whether the store holds no entities at all.
func (s *Store) Empty() bool {
	return len(s.books) == 0 && len(s.users) == 0 && len(s.transactions) == 0
}

// Reset drops all entities, indexes and counters. Used by snapshot restore.
func (s *Store) Reset() {
	s.books = nil
	s.users = nil
	s.transactions = nil
	s.bookIDCounter = 0
	s.userIDCounter = 0
	s.transactionIDCounter = 0
	s.booksByAuthor = make(map[string][]*domain.Book)
	s.booksByTitle = make(map[string][]*domain.Book)
	s.booksByISBN = make(map[string][]*domain.Book)
	s.usersByForename = make(map[string][]*domain.User)
	s.usersBySurname = make(map[string][]*domain.User)
	s.usersByUsername = make(map[string][]*domain.User)
	s.transactionsByBookID = make(map[int64][]*domain.Transaction)
	s.transactionsByUserID = make(map[int64][]*domain.Transaction)
}

// RestoreBook re-inserts a loaded book, rebuilding indexes exactly as
// CreateBook would. The book keeps its persisted ID and availability.
func (s *Store) RestoreBook(book *domain.Book) {
	s.insertBook(book)
}

// RestoreUser re-inserts a loaded user, rebuilding indexes.
func (s *Store) RestoreUser(user *domain.User) {
	s.insertUser(user)
}

// RestoreTransaction re-inserts a loaded transaction, rebuilding both
// posting lists. The transaction keeps its persisted status and datetime.
func (s *Store) RestoreTransaction(txn *domain.Transaction) {
	s.insertTransaction(txn)
}
