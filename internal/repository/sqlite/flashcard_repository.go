package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/studyup/studyup/internal/logger"
	"github.com/studyup/studyup/internal/models"
	"github.com/studyup/studyup/internal/repository"
)

var flashcardColumns = []string{"id", "set_id", "question", "answer", "position", "created_at"}

type flashcardRepository struct {
	db *sql.DB
}

// NewFlashcardRepository creates a new FlashcardRepository implementation
func NewFlashcardRepository(db *sql.DB) repository.FlashcardRepository {
	return &flashcardRepository{db: db}
}

func (r *flashcardRepository) ListBySet(ctx context.Context, setID string) ([]models.Flashcard, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("listing flashcards: set_id=%s", setID)

	query, args, err := sqlBuilder.Select(flashcardColumns...).
		From("flashcards").
		Where(squirrel.Eq{"set_id": setID}).
		OrderBy("position IS NULL", "position ASC", "created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list flashcards: %v", err)
		return nil, err
	}
	defer rows.Close()

	var cards []models.Flashcard
	for rows.Next() {
		c, err := scanFlashcard(rows)
		if err != nil {
			log.Error("failed to scan flashcard row: %v", err)
			return nil, err
		}
		cards = append(cards, c)
	}
	log.Debug("found %d flashcards", len(cards))
	return cards, rows.Err()
}

func (r *flashcardRepository) Get(ctx context.Context, id string) (*models.Flashcard, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("getting flashcard: id=%s", id)

	query, args, err := sqlBuilder.Select(flashcardColumns...).
		From("flashcards").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	c, err := scanFlashcard(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("flashcard not found: id=%s", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get flashcard: %v", err)
		return nil, err
	}
	return &c, nil
}

func (r *flashcardRepository) Commit(ctx context.Context, cs models.ChangeSet) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	if cs.Empty() {
		log.Debug("nothing to commit: set_id=%s", cs.SetID)
		return nil
	}
	log.Debug("committing change set: set_id=%s, inserted=%d, updated=%d, deleted=%d",
		cs.SetID, len(cs.Inserted), len(cs.Updated), len(cs.Deleted))

	return tx(ctx, r.db, func(tx *sql.Tx) error {
		if len(cs.Deleted) > 0 {
			query, args, err := sqlBuilder.Delete("flashcards").
				Where(squirrel.Eq{"set_id": cs.SetID, "id": cs.Deleted}).
				ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				log.Error("failed to delete flashcards: %v", err)
				return err
			}
		}

		if len(cs.Inserted) > 0 {
			insert := sqlBuilder.Insert("flashcards").Columns(flashcardColumns...)
			for _, c := range cs.Inserted {
				insert = insert.Values(c.ID, cs.SetID, c.Question, c.Answer, nullablePosition(c.Position), c.CreatedAt)
			}
			query, args, err := insert.ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				log.Error("failed to insert flashcards: %v", err)
				return err
			}
		}

		for _, c := range cs.Updated {
			query, args, err := sqlBuilder.Update("flashcards").
				Set("question", c.Question).
				Set("answer", c.Answer).
				Set("position", nullablePosition(c.Position)).
				Where(squirrel.Eq{"id": c.ID, "set_id": cs.SetID}).
				ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				log.Error("failed to update flashcard %s: %v", c.ID, err)
				return err
			}
		}
		return nil
	})
}
