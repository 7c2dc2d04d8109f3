package bookService

import "BibliotecaAI/internal/entity"

// Aggregate counts recognized books by exact (title, author) equality.
// Records come out in first-seen order.
func Aggregate(outcomes []entity.RecognitionOutcome) []entity.BookOut {
	books := make([]entity.BookOut, 0)
	index := make(map[entity.BookInfo]int)

	for _, outcome := range outcomes {
		if !outcome.OK() || !outcome.Book.Valid() {
			continue
		}

		if i, ok := index[outcome.Book]; ok {
			books[i].Count++
			continue
		}

		index[outcome.Book] = len(books)
		books = append(books, entity.BookOut{
			Title:  outcome.Book.Title,
			Author: outcome.Book.Author,
			Count:  1,
		})
	}

	return books
}
