package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/trip-planner/internal/domain"
)

// CommentRepo persists trip comments. Comments are append-only.
type CommentRepo interface {
	Create(ctx context.Context, c domain.Comment) (domain.Comment, error)

	// ListByTripID returns one page of comments, newest first.
	ListByTripID(ctx context.Context, tripID uuid.UUID, p domain.PaginationParams) ([]domain.Comment, int64, error)
}

type pgCommentRepo struct {
	db db
}

// NewCommentRepo constructs a CommentRepo backed by the provided db connection.
func NewCommentRepo(db db) CommentRepo {
	return &pgCommentRepo{db: db}
}

func (r *pgCommentRepo) Create(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	const q = `
		WITH inserted AS (
			INSERT INTO trip_comments (trip_id, author_id, content)
			VALUES (@trip_id, @author_id, @content)
			RETURNING id, trip_id, author_id, content, created_at
		)
		SELECT i.id, i.trip_id, i.author_id, u.name, i.content, i.created_at
		FROM inserted i JOIN users u ON u.id = i.author_id`

	result, err := scanComment(r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"trip_id":   c.TripID,
		"author_id": c.AuthorID,
		"content":   c.Content,
	}))
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Comment{}, fmt.Errorf("repo.CommentRepo.Create: %w", domain.ErrNotFound)
		}
		return domain.Comment{}, fmt.Errorf("repo.CommentRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgCommentRepo) ListByTripID(ctx context.Context, tripID uuid.UUID, p domain.PaginationParams) ([]domain.Comment, int64, error) {
	args := pgx.NamedArgs{"trip_id": tripID, "limit": p.Limit, "offset": p.Offset()}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM trip_comments WHERE trip_id = @trip_id`, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.CommentRepo.ListByTripID: count: %w", err)
	}

	const q = `
		SELECT c.id, c.trip_id, c.author_id, u.name, c.content, c.created_at
		FROM trip_comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.trip_id = @trip_id
		ORDER BY c.created_at DESC, c.id
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.CommentRepo.ListByTripID: %w", err)
	}
	comments, err := collect(rows, scanComment)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.CommentRepo.ListByTripID: %w", err)
	}
	return comments, total, nil
}

func scanComment(s scanner) (domain.Comment, error) {
	var (
		c        domain.Comment
		id       pgtype.UUID
		tripID   pgtype.UUID
		authorID pgtype.UUID
	)
	if err := s.Scan(&id, &tripID, &authorID, &c.AuthorName, &c.Content, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Comment{}, domain.ErrNotFound
		}
		return domain.Comment{}, err
	}
	c.ID = uuid.UUID(id.Bytes)
	c.TripID = uuid.UUID(tripID.Bytes)
	c.AuthorID = uuid.UUID(authorID.Bytes)
	return c, nil
}
