package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/studyup/studyup/internal/logger"
	"github.com/studyup/studyup/internal/models"
	"github.com/studyup/studyup/internal/repository"
)

type setRepository struct {
	db *sql.DB
}

// NewSetRepository creates a new SetRepository implementation
func NewSetRepository(db *sql.DB) repository.SetRepository {
	return &setRepository{db: db}
}

func (r *setRepository) Create(ctx context.Context, s models.FlashcardSet) error {
	log := logger.FromContext(ctx).WithPrefix("set_repo")
	log.Debug("creating set: id=%s, title=%s", s.ID, s.Title)

	query, args, err := sqlBuilder.Insert("flashcard_sets").
		Columns("id", "title", "created_at").
		Values(s.ID, s.Title, s.CreatedAt).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to create set: %v", err)
		return err
	}
	return nil
}

func (r *setRepository) Get(ctx context.Context, id string) (*models.FlashcardSet, error) {
	log := logger.FromContext(ctx).WithPrefix("set_repo")
	log.Debug("getting set: id=%s", id)

	query, args, err := r.selectSets().Where(squirrel.Eq{"s.id": id}).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	var s models.FlashcardSet
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.Title, &s.CreatedAt, &s.CardCount)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("set not found: id=%s", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get set: %v", err)
		return nil, err
	}
	return &s, nil
}

func (r *setRepository) List(ctx context.Context, filter models.SetFilter) ([]models.FlashcardSet, error) {
	log := logger.FromContext(ctx).WithPrefix("set_repo")
	log.Debug("listing sets with filter: query=%q, order_by=%s, order_dir=%s", filter.Query, filter.OrderBy, filter.OrderDir)

	query := applySetFilter(r.selectSets(), filter)

	// Safe ORDER BY with validation
	orderBy := "s.created_at"
	if filter.OrderBy == "title" {
		orderBy = "s.title COLLATE NOCASE"
	}
	orderDir := "ASC"
	if strings.EqualFold(filter.OrderDir, "DESC") {
		orderDir = "DESC"
	}
	query = query.OrderBy(orderBy+" "+orderDir, "s.id ASC")

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query = query.Limit(uint64(limit)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sql, args...)
	if err != nil {
		log.Error("failed to list sets: %v", err)
		return nil, err
	}
	defer rows.Close()

	var sets []models.FlashcardSet
	for rows.Next() {
		var s models.FlashcardSet
		if err := rows.Scan(&s.ID, &s.Title, &s.CreatedAt, &s.CardCount); err != nil {
			log.Error("failed to scan set row: %v", err)
			return nil, err
		}
		sets = append(sets, s)
	}
	log.Debug("found %d sets", len(sets))
	return sets, rows.Err()
}

func (r *setRepository) Count(ctx context.Context, filter models.SetFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("set_repo")

	sql, args, err := applySetFilter(sqlBuilder.Select("COUNT(*)").From("flashcard_sets s"), filter).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return 0, err
	}

	var count int
	if err := r.db.QueryRowContext(ctx, sql, args...).Scan(&count); err != nil {
		log.Error("failed to count sets: %v", err)
		return 0, err
	}
	return count, nil
}

func (r *setRepository) Rename(ctx context.Context, id, title string) error {
	log := logger.FromContext(ctx).WithPrefix("set_repo")
	log.Debug("renaming set: id=%s, title=%s", id, title)

	query, args, err := sqlBuilder.Update("flashcard_sets").
		Set("title", title).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return err
	}
	return r.execOne(ctx, log, query, args)
}

func (r *setRepository) Delete(ctx context.Context, id string) error {
	log := logger.FromContext(ctx).WithPrefix("set_repo")
	log.Debug("deleting set and its flashcards: id=%s", id)

	query, args, err := sqlBuilder.Delete("flashcard_sets").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return err
	}
	// flashcards go with it through ON DELETE CASCADE
	return r.execOne(ctx, log, query, args)
}

func (r *setRepository) execOne(ctx context.Context, log *logger.Logger, query string, args []any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("statement failed: %v", err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *setRepository) selectSets() squirrel.SelectBuilder {
	return sqlBuilder.Select("s.id", "s.title", "s.created_at", "COUNT(f.id)").
		From("flashcard_sets s").
		LeftJoin("flashcards f ON f.set_id = s.id").
		GroupBy("s.id", "s.title", "s.created_at")
}

func applySetFilter(query squirrel.SelectBuilder, filter models.SetFilter) squirrel.SelectBuilder {
	if q := strings.TrimSpace(filter.Query); q != "" {
		query = query.Where(squirrel.Expr(`s.title LIKE ? ESCAPE '\'`, containsPattern(q)))
	}
	return query
}
