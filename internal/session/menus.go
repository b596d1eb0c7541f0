package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/openshelf/openshelf/internal/domain"
	"github.com/openshelf/openshelf/internal/menu"
)

// listPageSize controls paging for the book/user/transaction list menus.
const listPageSize = 8

// ===========================================
// Summaries
// ===========================================

func makeBookSummary(b *domain.Book) string {
	availability := "available"
	if !b.Available {
		availability = "on loan"
	}
	return fmt.Sprintf("%s by %s (%d) [%s]", b.Title, b.Author, b.YearPublished, availability)
}

func makeUserSummary(u *domain.User) string {
	return fmt.Sprintf("%s (%s %s)", u.Username, u.Forename, u.Surname)
}

func makeTransactionSummary(t *domain.Transaction) string {
	return fmt.Sprintf("#%d %s of %q by %s [%s]", t.ID, t.Type, t.Book.Title, t.User.Username, t.Status)
}

// ===========================================
// Authentication
// ===========================================

// loginMenu is the root menu. Exiting it empties the stack and ends the
// session.
func (s *Session) loginMenu() *menu.Menu {
	m := menu.New("Login")
	m.AddOption("Login", s.login, false)
	m.AddOption("Exit", func() { s.reset(nil) }, false)
	return m
}

func (s *Session) login() {
	username := s.promptInput("Username: ")
	password := s.promptInput("Password: ")

	user, err := s.manager.AuthenticateUser(username, password)
	if err != nil {
		s.sendLine("Invalid username or password.")
		s.pause()
		return
	}

	s.currentUser = user
	s.promptAdminPassword()
	s.clearConsole()
	s.sendLine(fmt.Sprintf("Welcome, %s!", user.Forename))
	s.push(s.mainMenu())
}

// promptAdminPassword offers admin elevation after a successful login.
// An empty answer skips it.
func (s *Session) promptAdminPassword() {
	answer := s.promptInput("Admin password (press enter to skip): ")
	if answer == "" {
		return
	}
	if s.manager.AuthenticateAdmin(answer) {
		s.isAdmin = true
		s.sendLine("Admin access granted.")
		return
	}
	s.sendLine("Incorrect admin password.")
}

func (s *Session) logout() {
	s.logger.Info().Msg("user logged out")
	s.currentUser = nil
	s.isAdmin = false
	s.clearConsole()
	s.reset(s.loginMenu())
}

// ===========================================
// Top-level menus
// ===========================================

func (s *Session) mainMenu() *menu.Menu {
	m := menu.New("Main Menu")
	m.AddOption("Browse books", func() {
		s.push(s.booksMenu(s.manager.Books()))
	}, false)
	m.AddOption("Search", func() {
		s.push(s.searchMenu())
	}, false)
	m.AddOption("My borrowed books", s.showBorrowedBooks, false)
	m.AddOption("Borrow a book", func() { s.borrowBook(nil) }, false)
	m.AddOption("Return a book", func() { s.returnBook(nil) }, false)
	m.AddOption("Add book", s.createBook, true)
	m.AddOption("Add user", s.createUser, true)
	m.AddOption("List users", func() {
		s.push(s.usersMenu(s.manager.Users()))
	}, true)
	m.AddOption("List transactions", func() {
		s.push(s.transactionsMenu(s.manager.Transactions()))
	}, true)
	m.AddOption("Save database", s.saveDatabase, true)
	m.AddOption("Logout", s.logout, false)
	return m
}

func (s *Session) searchMenu() *menu.Menu {
	m := menu.New("Search")
	m.AddOption("Search books", func() {
		term := s.promptInput("Search term: ")
		results := s.manager.QueryBooks(term)
		if len(results) == 0 {
			s.sendLine("No books matched your search.")
			s.pause()
			return
		}
		s.push(s.booksMenu(results))
	}, false)
	m.AddOption("Search users", func() {
		term := s.promptInput("Search term: ")
		results := s.manager.QueryUsers(term)
		if len(results) == 0 {
			s.sendLine("No users matched your search.")
			s.pause()
			return
		}
		s.push(s.usersMenu(results))
	}, true)
	m.AddOption("Back", s.pop, false)
	return m
}

// ===========================================
// List menus
// ===========================================

func (s *Session) booksMenu(books []*domain.Book) *menu.Menu {
	m := menu.NewPaged("Books", listPageSize)
	for _, book := range books {
		m.AddOption(makeBookSummary(book), func() {
			s.push(s.bookMenu(book))
		}, false)
	}
	m.AddOption("Back", s.pop, false)
	return m
}

func (s *Session) usersMenu(users []*domain.User) *menu.Menu {
	m := menu.NewPaged("Users", listPageSize)
	for _, user := range users {
		m.AddOption(makeUserSummary(user), func() {
			s.push(s.userMenu(user))
		}, false)
	}
	m.AddOption("Back", s.pop, false)
	return m
}

func (s *Session) transactionsMenu(transactions []*domain.Transaction) *menu.Menu {
	m := menu.NewPaged("Transactions", listPageSize)
	for _, txn := range transactions {
		m.AddOption(makeTransactionSummary(txn), func() {
			s.push(s.transactionMenu(txn))
		}, false)
	}
	m.AddOption("Back", s.pop, false)
	return m
}

// ===========================================
// Detail menus
// ===========================================

func (s *Session) bookMenu(book *domain.Book) *menu.Menu {
	m := menu.New(book.Title)
	m.AddOption("Show book info", func() { s.showBookInfo(book) }, false)
	m.AddOption("Borrow this book", func() { s.borrowBook(book) }, false)
	m.AddOption("Return this book", func() { s.returnBook(book) }, false)
	m.AddOption("View transactions", func() {
		s.push(s.transactionsMenu(s.manager.QueryTransactionsByBookID(book.ID)))
	}, true)
	m.AddOption("Update book", func() {
		s.push(s.updateBookMenu(book))
	}, true)
	m.AddOption("Delete book", func() { s.deleteBook(book) }, true)
	m.AddOption("Back", s.pop, false)
	return m
}

func (s *Session) userMenu(user *domain.User) *menu.Menu {
	m := menu.New(user.Username)
	m.AddOption("Show user info", func() { s.showUserInfo(user) }, false)
	m.AddOption("View borrowed books", func() {
		s.push(s.booksMenu(user.BorrowedBooks()))
	}, false)
	m.AddOption("View transactions", func() {
		s.push(s.transactionsMenu(s.manager.QueryTransactionsByUserID(user.ID)))
	}, true)
	m.AddOption("Update user", func() {
		s.push(s.updateUserMenu(user))
	}, true)
	m.AddOption("Delete user", func() { s.deleteUser(user) }, true)
	m.AddOption("Back", s.pop, false)
	return m
}

func (s *Session) transactionMenu(txn *domain.Transaction) *menu.Menu {
	m := menu.New(fmt.Sprintf("Transaction #%d", txn.ID))
	m.AddOption("Show transaction info", func() { s.showTransactionInfo(txn) }, false)
	m.AddOption("Execute transaction", func() {
		if !s.requireAdmin() {
			return
		}
		if err := s.manager.ExecuteTransaction(txn.ID); err != nil {
			s.sendLine(fmt.Sprintf("Could not execute transaction: %v", err))
		} else {
			s.sendLine("Transaction executed.")
		}
		s.pause()
	}, true)
	m.AddOption("Cancel transaction", func() {
		if !s.requireAdmin() {
			return
		}
		if err := s.manager.CancelTransaction(txn.ID); err != nil {
			s.sendLine(fmt.Sprintf("Could not cancel transaction: %v", err))
		} else {
			s.sendLine("Transaction cancelled.")
		}
		s.pause()
	}, true)
	m.AddOption("Update transaction", func() {
		s.push(s.updateTransactionMenu(txn))
	}, true)
	m.AddOption("Delete transaction", func() { s.deleteTransaction(txn) }, true)
	m.AddOption("Back", s.pop, false)
	return m
}

// ===========================================
// Update menus
// ===========================================

// updateField prompts for a new value and applies it through the manager.
func (s *Session) updateField(kind string, id int64, field string, update func(int64, string, string) error) {
	if !s.requireAdmin() {
		return
	}
	value := s.promptInput(fmt.Sprintf("New %s: ", strings.ReplaceAll(field, "_", " ")))
	if err := update(id, field, value); err != nil {
		s.sendLine(fmt.Sprintf("Could not update %s: %v", kind, err))
	} else {
		s.sendLine(fmt.Sprintf("Updated %s.", strings.ReplaceAll(field, "_", " ")))
	}
	s.pause()
}

func (s *Session) updateBookMenu(book *domain.Book) *menu.Menu {
	m := menu.New(fmt.Sprintf("Update %s", book.Title))
	for _, field := range []string{"title", "author", "isbn", "year_published", "available"} {
		m.AddOption("Update "+strings.ReplaceAll(field, "_", " "), func() {
			s.updateField("book", book.ID, field, s.manager.UpdateBook)
		}, false)
	}
	m.AddOption("Back", s.pop, false)
	return m
}

func (s *Session) updateUserMenu(user *domain.User) *menu.Menu {
	m := menu.New(fmt.Sprintf("Update %s", user.Username))
	for _, field := range []string{"username", "forename", "surname", "email", "phone_number", "password"} {
		m.AddOption("Update "+strings.ReplaceAll(field, "_", " "), func() {
			s.updateField("user", user.ID, field, s.manager.UpdateUser)
		}, false)
	}
	m.AddOption("Back", s.pop, false)
	return m
}

func (s *Session) updateTransactionMenu(txn *domain.Transaction) *menu.Menu {
	m := menu.New(fmt.Sprintf("Update transaction #%d", txn.ID))
	for _, field := range []string{"status", "datetime"} {
		m.AddOption("Update "+field, func() {
			s.updateField("transaction", txn.ID, field, s.manager.UpdateTransaction)
		}, false)
	}
	m.AddOption("Back", s.pop, false)
	return m
}

// ===========================================
// Create / delete actions
// ===========================================

func (s *Session) createBook() {
	if !s.requireAdmin() {
		return
	}
	title := s.promptInput("Title: ")
	author := s.promptInput("Author: ")
	isbn := s.promptInput("ISBN: ")
	yearRaw := s.promptInput("Year published: ")

	year, err := strconv.Atoi(strings.TrimSpace(yearRaw))
	if err != nil {
		s.sendLine("Year must be a number.")
		s.pause()
		return
	}

	id, err := s.manager.CreateBook(title, author, isbn, year)
	if err != nil {
		s.sendLine(fmt.Sprintf("Could not create book: %v", err))
		s.pause()
		return
	}
	s.sendLine(fmt.Sprintf("Created book #%d.", id))
	s.pause()
}

func (s *Session) createUser() {
	if !s.requireAdmin() {
		return
	}
	username := s.promptInput("Username: ")
	forename := s.promptInput("Forename: ")
	surname := s.promptInput("Surname: ")
	email := s.promptInput("Email: ")
	phone := s.promptInput("Phone number: ")
	password := s.promptInput("Password: ")

	id, err := s.manager.CreateUser(username, forename, surname, email, phone, password)
	if err != nil {
		s.sendLine(fmt.Sprintf("Could not create user: %v", err))
		s.pause()
		return
	}
	s.sendLine(fmt.Sprintf("Created user #%d.", id))
	s.pause()
}

func (s *Session) deleteBook(book *domain.Book) {
	if !s.requireAdmin() {
		return
	}
	if !s.areYouSure(false) {
		return
	}
	if err := s.manager.DeleteBook(book.ID); err != nil {
		s.sendLine(fmt.Sprintf("Could not delete book: %v", err))
		s.pause()
		return
	}
	s.sendLine("Book deleted.")
	s.pause()
	// The detail menu and the listing behind it are both stale now.
	s.pop()
	s.pop()
}

func (s *Session) deleteUser(user *domain.User) {
	if !s.requireAdmin() {
		return
	}
	if !s.areYouSure(false) {
		return
	}
	if err := s.manager.DeleteUser(user.ID); err != nil {
		s.sendLine(fmt.Sprintf("Could not delete user: %v", err))
		s.pause()
		return
	}
	if s.currentUser != nil && s.currentUser.ID == user.ID {
		s.logout()
		return
	}
	s.sendLine("User deleted.")
	s.pause()
	s.pop()
	s.pop()
}

func (s *Session) deleteTransaction(txn *domain.Transaction) {
	if !s.requireAdmin() {
		return
	}
	if !s.areYouSure(false) {
		return
	}
	if err := s.manager.DeleteTransaction(txn.ID); err != nil {
		s.sendLine(fmt.Sprintf("Could not delete transaction: %v", err))
		s.pause()
		return
	}
	s.sendLine("Transaction deleted.")
	s.pause()
	s.pop()
	s.pop()
}

// ===========================================
// Borrowing and returning
// ===========================================

// borrowBook borrows the given book for the current user, prompting for a
// book ID when called without one.
func (s *Session) borrowBook(book *domain.Book) {
	if s.currentUser == nil {
		return
	}

	bookID, ok := s.resolveBookID(book)
	if !ok {
		return
	}

	if _, err := s.manager.BorrowBook(bookID, s.currentUser.ID); err != nil {
		s.sendLine(fmt.Sprintf("Could not borrow book: %v", err))
		s.pause()
		return
	}
	s.sendLine("Book borrowed. Enjoy!")
	s.pause()
}

// returnBook returns the given book for the current user, prompting for a
// book ID when called without one.
func (s *Session) returnBook(book *domain.Book) {
	if s.currentUser == nil {
		return
	}

	bookID, ok := s.resolveBookID(book)
	if !ok {
		return
	}

	if _, err := s.manager.ReturnBook(bookID, s.currentUser.ID); err != nil {
		s.sendLine(fmt.Sprintf("Could not return book: %v", err))
		s.pause()
		return
	}
	s.sendLine("Book returned. Thank you!")
	s.pause()
}

func (s *Session) resolveBookID(book *domain.Book) (int64, bool) {
	if book != nil {
		return book.ID, true
	}
	raw := s.promptInput("Book ID: ")
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		s.sendLine("Book ID must be a number.")
		s.pause()
		return 0, false
	}
	return id, true
}

// ===========================================
// Information displays
// ===========================================

func (s *Session) showBookInfo(book *domain.Book) {
	availability := "Yes"
	if !book.Available {
		availability = "No"
	}
	s.sendLine(fmt.Sprintf("ID:             %d", book.ID))
	s.sendLine(fmt.Sprintf("Title:          %s", book.Title))
	s.sendLine(fmt.Sprintf("Author:         %s", book.Author))
	s.sendLine(fmt.Sprintf("ISBN:           %s", book.ISBN))
	s.sendLine(fmt.Sprintf("Year published: %d", book.YearPublished))
	s.sendLine(fmt.Sprintf("Available:      %s", availability))
	s.pause()
}

func (s *Session) showUserInfo(user *domain.User) {
	s.sendLine(fmt.Sprintf("ID:       %d", user.ID))
	s.sendLine(fmt.Sprintf("Username: %s", user.Username))
	s.sendLine(fmt.Sprintf("Name:     %s %s", user.Forename, user.Surname))
	s.sendLine(fmt.Sprintf("Email:    %s", user.Email))
	s.sendLine(fmt.Sprintf("Phone:    %s", user.PhoneNumber))
	borrowed := user.BorrowedBooks()
	if len(borrowed) == 0 {
		s.sendLine("Borrowed: none")
	} else {
		titles := make([]string, 0, len(borrowed))
		for _, b := range borrowed {
			titles = append(titles, b.Title)
		}
		s.sendLine("Borrowed: " + strings.Join(titles, ", "))
	}
	s.pause()
}

func (s *Session) showTransactionInfo(txn *domain.Transaction) {
	s.sendLine(fmt.Sprintf("ID:       %d", txn.ID))
	s.sendLine(fmt.Sprintf("Type:     %s", txn.Type))
	s.sendLine(fmt.Sprintf("Status:   %s", txn.Status))
	s.sendLine(fmt.Sprintf("Book:     %s", txn.Book.Title))
	s.sendLine(fmt.Sprintf("User:     %s", txn.User.Username))
	datetime := txn.Datetime
	if datetime == "" {
		datetime = "-"
	}
	s.sendLine(fmt.Sprintf("Datetime: %s", datetime))
	s.pause()
}

func (s *Session) showBorrowedBooks() {
	if s.currentUser == nil {
		return
	}
	borrowed := s.currentUser.BorrowedBooks()
	if len(borrowed) == 0 {
		s.sendLine("You have no borrowed books.")
		s.pause()
		return
	}
	s.push(s.booksMenu(borrowed))
}

// ===========================================
// Persistence
// ===========================================

func (s *Session) saveDatabase() {
	if !s.requireAdmin() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.manager.SaveDatabase(ctx); err != nil {
		s.sendLine(fmt.Sprintf("Could not save database: %v", err))
		s.pause()
		return
	}
	s.sendLine("Database saved.")
	s.pause()
}
