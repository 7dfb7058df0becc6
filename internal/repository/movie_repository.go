package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// MovieRepo manages persistence for movies.
type MovieRepo struct {
	db *sqlx.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sqlx.DB) *MovieRepo { return &MovieRepo{db: db} }

// CreateMovie inserts m.
func (r *MovieRepo) CreateMovie(ctx context.Context, m *model.Movie) error {
	const q = `INSERT INTO movies (id, title, description, genre, duration_minutes, poster_url, rating, language,
                                   release_date, is_active, created_at, updated_at)
               VALUES (:id, :title, :description, :genre, :duration_minutes, :poster_url, :rating, :language,
                       :release_date, :is_active, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, q, m)
	return translate(err, "movie")
}

// Movie fetches a movie by id regardless of its active flag.
func (r *MovieRepo) Movie(ctx context.Context, id string) (*model.Movie, error) {
	q := `SELECT ` + prefixed("m", "", movieCols...) + ` FROM movies m WHERE m.id = ?`
	var m model.Movie
	if err := r.db.GetContext(ctx, &m, q, id); err != nil {
		return nil, translate(err, "movie")
	}
	return &m, nil
}

// ListMovies returns movies newest first.
func (r *MovieRepo) ListMovies(ctx context.Context, f model.MovieFilter) ([]model.Movie, error) {
	q := `SELECT ` + prefixed("m", "", movieCols...) + ` FROM movies m`
	if f.ActiveOnly {
		q += ` WHERE m.is_active = 1`
	}
	q += ` ORDER BY m.created_at DESC, m.title, m.id`
	out := []model.Movie{}
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, translate(err, "movie")
	}
	return out, nil
}

// UpdateMovie writes every mutable column of m.
func (r *MovieRepo) UpdateMovie(ctx context.Context, m *model.Movie) error {
	const q = `UPDATE movies SET title = :title, description = :description, genre = :genre,
               duration_minutes = :duration_minutes, poster_url = :poster_url, rating = :rating,
               language = :language, release_date = :release_date, is_active = :is_active,
               updated_at = :updated_at
               WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, q, m)
	if err != nil {
		return translate(err, "movie")
	}
	return ensureAffected(ctx, r.db, res, "movies", m.ID, "movie")
}

// DeleteMovie removes a movie that has no showtimes.
func (r *MovieRepo) DeleteMovie(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		return translate(err, "movie")
	}
	return ensureAffected(ctx, r.db, res, "movies", id, "movie")
}
