package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pageTurnerAPI/internal/book"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookService struct {
	db *pgxpool.Pool
}

func NewBookService(db *pgxpool.Pool) *BookService {
	return &BookService{db: db}
}

func (s *BookService) getUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("user not found")
		}
		return uuid.Nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return userID, nil
}

// SearchBooks matches the catalog by title or author, exact and prefix
// matches first.
func (s *BookService) SearchBooks(ctx context.Context, query string) ([]*book.Book, error) {
	cleanQuery := strings.TrimSpace(query)
	if cleanQuery == "" {
		return []*book.Book{}, nil
	}
	searchPattern := "%" + cleanQuery + "%"
	startsWithPattern := cleanQuery + "%"

	sqlQuery := `
	SELECT
		id,
		title,
		author,
		cover_url,
		page_count,
		isbn,
		created_at
	FROM books
	WHERE LOWER(title) LIKE LOWER($1)
		OR LOWER(author) LIKE LOWER($1)
	ORDER BY
		CASE
			WHEN LOWER(title) = LOWER($2) THEN 100
			WHEN LOWER(title) LIKE LOWER($3) THEN 90
			WHEN LOWER(author) = LOWER($2) THEN 85
			WHEN LOWER(author) LIKE LOWER($3) THEN 80
			ELSE 50
		END DESC,
		title
	LIMIT 50
	`

	rows, err := s.db.Query(ctx, sqlQuery, searchPattern, cleanQuery, startsWithPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search books: %w", err)
	}
	defer rows.Close()

	var books []*book.Book
	for rows.Next() {
		b := &book.Book{}
		err := rows.Scan(
			&b.ID,
			&b.Title,
			&b.Author,
			&b.CoverURL,
			&b.PageCount,
			&b.ISBN,
			&b.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	if books == nil {
		books = []*book.Book{}
	}
	return books, nil
}

func (s *BookService) GetBook(ctx context.Context, bookID uuid.UUID) (*book.Book, error) {
	b := &book.Book{}
	err := s.db.QueryRow(ctx, `
		SELECT id, title, author, cover_url, page_count, isbn, created_at
		FROM books
		WHERE id = $1
	`, bookID).Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.CoverURL,
		&b.PageCount,
		&b.ISBN,
		&b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("book not found")
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return b, nil
}

func (s *BookService) AddToLibrary(ctx context.Context, clerkID string, req *book.AddToLibraryRequest) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	bookID, err := uuid.Parse(req.BookID)
	if err != nil {
		return fmt.Errorf("invalid book_id: %w", err)
	}

	status := book.ReadingStatus(req.Status)
	if status == "" {
		status = book.StatusWantToRead
	}
	if status != book.StatusWantToRead && status != book.StatusReading && status != book.StatusFinished {
		return fmt.Errorf("invalid status %q", req.Status)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO user_library (user_id, book_id, status, added_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, book_id) DO NOTHING
	`, userID, bookID, status)
	if err != nil {
		return fmt.Errorf("failed to add book to library: %w", err)
	}

	return nil
}

func (s *BookService) UpdateLibraryEntry(ctx context.Context, clerkID string, req *book.UpdateLibraryRequest) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	bookID, err := uuid.Parse(req.BookID)
	if err != nil {
		return fmt.Errorf("invalid book_id: %w", err)
	}

	status := book.ReadingStatus(req.Status)
	if status != book.StatusWantToRead && status != book.StatusReading && status != book.StatusFinished {
		return fmt.Errorf("invalid status %q", req.Status)
	}

	query := `
	UPDATE user_library
	SET status = $3,
	    finished_at = CASE WHEN $3 = 'finished' THEN NOW() ELSE NULL END
	WHERE user_id = $1 AND book_id = $2
	`
	result, err := s.db.Exec(ctx, query, userID, bookID, status)
	if err != nil {
		return fmt.Errorf("failed to update library entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("book not in library")
	}

	return nil
}

func (s *BookService) RemoveFromLibrary(ctx context.Context, clerkID string, bookID uuid.UUID) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx, `
		DELETE FROM user_library WHERE user_id = $1 AND book_id = $2
	`, userID, bookID)
	if err != nil {
		return fmt.Errorf("failed to remove book from library: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("book not in library")
	}

	return nil
}

type LibraryByStatus map[string][]book.LibraryEntry

// GetLibrary returns the user's shelf grouped by reading status. Every
// status key is present even when empty.
func (s *BookService) GetLibrary(ctx context.Context, clerkID string) (LibraryByStatus, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT
		b.id,
		b.title,
		b.author,
		b.cover_url,
		b.page_count,
		b.isbn,
		b.created_at,
		ul.status,
		ul.added_at,
		ul.finished_at
	FROM user_library ul
	INNER JOIN books b ON b.id = ul.book_id
	WHERE ul.user_id = $1
	ORDER BY ul.added_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get library: %w", err)
	}
	defer rows.Close()

	library := LibraryByStatus{
		string(book.StatusWantToRead): []book.LibraryEntry{},
		string(book.StatusReading):    []book.LibraryEntry{},
		string(book.StatusFinished):   []book.LibraryEntry{},
	}

	for rows.Next() {
		var entry book.LibraryEntry
		err := rows.Scan(
			&entry.ID,
			&entry.Title,
			&entry.Author,
			&entry.CoverURL,
			&entry.PageCount,
			&entry.ISBN,
			&entry.CreatedAt,
			&entry.Status,
			&entry.AddedAt,
			&entry.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan library entry: %w", err)
		}

		key := string(entry.Status)
		if _, exists := library[key]; exists {
			library[key] = append(library[key], entry)
		}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating library: %w", err)
	}

	return library, nil
}
