package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/samirrijal/geoquest/internal/core/domain"
)

// GameRepo implements ports.GameRepository with pgx.
type GameRepo struct {
	db *DB
}

// NewGameRepo creates a new GameRepo.
func NewGameRepo(db *DB) *GameRepo {
	return &GameRepo{db: db}
}

// Upsert replaces a game and its waypoints in one transaction.
func (r *GameRepo) Upsert(ctx context.Context, g *domain.GameBundle) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO games (id, name, area_x1, area_y1, area_x2, area_y2)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    area_x1 = EXCLUDED.area_x1, area_y1 = EXCLUDED.area_y1,
		    area_x2 = EXCLUDED.area_x2, area_y2 = EXCLUDED.area_y2,
		    updated_at = now()
		RETURNING created_at
	`, g.ID, g.Name, g.Area.X1, g.Area.Y1, g.Area.X2, g.Area.Y2).Scan(&g.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert game: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM waypoints WHERE game_id = $1`, g.ID); err != nil {
		return fmt.Errorf("clear waypoints: %w", err)
	}

	batch := &pgx.Batch{}
	for i, w := range g.Waypoints {
		batch.Queue(`
			INSERT INTO waypoints (game_id, seq, lat, lon, question, answer, points)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, g.ID, i, w.Lat, w.Lon, w.Question, w.Answer, w.Points)
	}
	br := tx.SendBatch(ctx, batch)
	for range g.Waypoints {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("batch close: %w", err)
	}

	return tx.Commit(ctx)
}

// GetByID returns a game with its waypoints in visit order.
func (r *GameRepo) GetByID(ctx context.Context, id string) (*domain.GameBundle, error) {
	g := &domain.GameBundle{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, COALESCE(name, ''), area_x1, area_y1, area_x2, area_y2, created_at
		FROM games WHERE id = $1
	`, id).Scan(&g.ID, &g.Name, &g.Area.X1, &g.Area.Y1, &g.Area.X2, &g.Area.Y2, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT lat, lon, question, answer, points
		FROM waypoints WHERE game_id = $1
		ORDER BY seq
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var w domain.Waypoint
		if err := rows.Scan(&w.Lat, &w.Lon, &w.Question, &w.Answer, &w.Points); err != nil {
			return nil, err
		}
		g.Waypoints = append(g.Waypoints, w)
	}
	return g, rows.Err()
}

// List returns all games without waypoints, newest first.
func (r *GameRepo) List(ctx context.Context) ([]domain.GameBundle, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT g.id, COALESCE(g.name, ''), g.area_x1, g.area_y1, g.area_x2, g.area_y2, g.created_at
		FROM games g
		ORDER BY g.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []domain.GameBundle
	for rows.Next() {
		var g domain.GameBundle
		if err := rows.Scan(&g.ID, &g.Name, &g.Area.X1, &g.Area.Y1, &g.Area.X2, &g.Area.Y2, &g.CreatedAt); err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}
