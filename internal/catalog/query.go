package catalog

import (
	"github.com/openshelf/openshelf/internal/domain"
	"github.com/openshelf/openshelf/internal/pkg/textutil"
)

// QueryBooks performs case-insensitive approximate search over the three book
// indexes. Every book filed under a key within the Levenshtein threshold of
// the folded term is included. Results are de-duplicated; ordering follows
// index iteration and is not guaranteed.
func (s *Store) QueryBooks(term string, threshold int) []*domain.Book {
	folded := textutil.Fold(term)
	seen := make(map[*domain.Book]struct{})
	var results []*domain.Book

	collect := func(index map[string][]*domain.Book) {
		for key, bucket := range index {
			if textutil.Levenshtein(folded, key) > threshold {
				continue
			}
			for _, book := range bucket {
				if _, dup := seen[book]; dup {
					continue
				}
				seen[book] = struct{}{}
				results = append(results, book)
			}
		}
	}

	collect(s.booksByAuthor)
	collect(s.booksByTitle)
	collect(s.booksByISBN)
	return results
}

// QueryUsers performs the same approximate search over the three user indexes.
func (s *Store) QueryUsers(term string, threshold int) []*domain.User {
	folded := textutil.Fold(term)
	seen := make(map[*domain.User]struct{})
	var results []*domain.User

	collect := func(index map[string][]*domain.User) {
		for key, bucket := range index {
			if textutil.Levenshtein(folded, key) > threshold {
				continue
			}
			for _, user := range bucket {
				if _, dup := seen[user]; dup {
					continue
				}
				seen[user] = struct{}{}
				results = append(results, user)
			}
		}
	}

	collect(s.usersByForename)
	collect(s.usersBySurname)
	collect(s.usersByUsername)
	return results
}

// QueryTransactionsByBookID returns the posting list for a book ID.
// An unknown ID yields an empty slice, not an error.
func (s *Store) QueryTransactionsByBookID(id int64) []*domain.Transaction {
	list := s.transactionsByBookID[id]
	out := make([]*domain.Transaction, len(list))
	copy(out, list)
	return out
}

// QueryTransactionsByUserID returns the posting list for a user ID.
// An unknown ID yields an empty slice, not an error.
func (s *Store) QueryTransactionsByUserID(id int64) []*domain.Transaction {
	list := s.transactionsByUserID[id]
	out := make([]*domain.Transaction, len(list))
	copy(out, list)
	return out
}
