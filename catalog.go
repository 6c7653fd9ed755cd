package shelfscan

import "strings"

// KnownBook is a curated title/author/rating tuple.
type KnownBook struct {
	Title  string
	Author string
	Rating string
}

// Catalog is an immutable reference table of well-known books. Lookups are
// case-insensitive, whitespace-trimmed, and match exact or substring in
// either direction on both title and author.
type Catalog struct {
	entries []catalogEntry
}

type catalogEntry struct {
	title  string
	author string
	rating string
}

// NewCatalog builds a catalog from curated entries.
func NewCatalog(books []KnownBook) *Catalog {
	entries := make([]catalogEntry, 0, len(books))
	for _, b := range books {
		entries = append(entries, catalogEntry{
			title:  normalize(b.Title),
			author: normalize(b.Author),
			rating: b.Rating,
		})
	}
	return &Catalog{entries: entries}
}

// DefaultCatalog returns the built-in curated table.
func DefaultCatalog() *Catalog {
	return NewCatalog([]KnownBook{
		{Title: "Dune", Author: "Frank Herbert", Rating: "4.7"},
		{Title: "Atomic Habits", Author: "James Clear", Rating: "4.8"},
		{Title: "1984", Author: "George Orwell", Rating: "4.6"},
		{Title: "To Kill a Mockingbird", Author: "Harper Lee", Rating: "4.7"},
		{Title: "The Hobbit", Author: "J.R.R. Tolkien", Rating: "4.6"},
		{Title: "Sapiens", Author: "Yuval Noah Harari", Rating: "4.5"},
		{Title: "Thinking, Fast and Slow", Author: "Daniel Kahneman", Rating: "4.3"},
		{Title: "The Pragmatic Programmer", Author: "David Thomas", Rating: "4.5"},
		{Title: "Clean Code", Author: "Robert C. Martin", Rating: "4.2"},
		{Title: "Deep Work", Author: "Cal Newport", Rating: "4.4"},
		{Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Rating: "4.2"},
		{Title: "Pride and Prejudice", Author: "Jane Austen", Rating: "4.6"},
	})
}

// Rating returns the curated rating for a title/author pair, if known.
func (c *Catalog) Rating(title, author string) (string, bool) {
	nt := normalize(title)
	na := normalize(author)
	if nt == "" || na == "" {
		return "", false
	}

	for _, e := range c.entries {
		if matches(nt, e.title) && matches(na, e.author) {
			return e.rating, true
		}
	}
	return "", false
}

// matches reports an exact or either-direction substring match.
func matches(query, entry string) bool {
	return query == entry || strings.Contains(query, entry) || strings.Contains(entry, query)
}

// normalize lowercases, trims and collapses inner whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
