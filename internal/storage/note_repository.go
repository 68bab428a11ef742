package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wallet-insight/internal/models"
)

// NoteRepository handles investment note persistence
type NoteRepository struct {
	db *PostgresDB
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db *PostgresDB) *NoteRepository {
	return &NoteRepository{db: db}
}

// Create creates a new note for a user
func (r *NoteRepository) Create(ctx context.Context, note *models.Note) error {
	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	note.CreatedAt = time.Now()

	query := `
		INSERT INTO notes (id, user_id, title, description, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		note.ID,
		note.UserID,
		note.Title,
		note.Description,
		note.Content,
		note.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	return nil
}

// ListByUser retrieves all notes for a user, newest first
func (r *NoteRepository) ListByUser(ctx context.Context, userID string) ([]*models.Note, error) {
	query := `
		SELECT id, user_id, title, description, content, created_at
		FROM notes
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []*models.Note
	for rows.Next() {
		var note models.Note
		err := rows.Scan(
			&note.ID,
			&note.UserID,
			&note.Title,
			&note.Description,
			&note.Content,
			&note.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, &note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notes: %w", err)
	}

	return notes, nil
}

// Delete deletes a note owned by the given user
func (r *NoteRepository) Delete(ctx context.Context, userID, noteID string) error {
	query := `DELETE FROM notes WHERE id = $1 AND user_id = $2`

	result, err := r.db.Pool.Exec(ctx, query, noteID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("note not found: %s", noteID)
	}

	return nil
}
