package logstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/vos/internal/apperr"
	"github.com/starford/vos/internal/models"
)

// where renders the filter as a SQL condition. Header rows never match.
func (db *DB) where(f Filter) (string, []any) {
	clauses := []string{"rowid > ?"}
	args := []any{db.headerRows}
	if f.Project != "" {
		clauses = append(clauses, "lower(Project) = lower(?)")
		args = append(args, f.Project)
	}
	if f.Division != "" {
		clauses = append(clauses, "Division = ?")
		args = append(args, f.Division)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Count returns the number of matching rows.
func (db *DB) Count(ctx context.Context, f Filter) (int, error) {
	cond, args := db.where(f)
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM Productivity`+cond, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("logstore: count: %w", err)
	}
	return n, nil
}

// Hours returns the summed hours of matching rows, 0 when none match.
func (db *DB) Hours(ctx context.Context, f Filter) (float64, error) {
	cond, args := db.where(f)
	var sum sql.NullFloat64
	if err := db.conn.QueryRowContext(ctx, `SELECT SUM(CAST(Time AS REAL)) FROM Productivity`+cond, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("logstore: hours: %w", err)
	}
	return sum.Float64, nil
}

// Days returns the number of distinct dates among matching rows.
func (db *DB) Days(ctx context.Context, f Filter) (int, error) {
	cond, args := db.where(f)
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(DISTINCT Date) FROM Productivity`+cond, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("logstore: days: %w", err)
	}
	return n, nil
}

// DateRange returns the earliest and latest date among matching rows.
// It returns apperr.ErrAggregationMiss when nothing matches.
func (db *DB) DateRange(ctx context.Context, f Filter) (string, string, error) {
	cond, args := db.where(f)
	var first, last sql.NullString
	if err := db.conn.QueryRowContext(ctx, `SELECT MIN(Date), MAX(Date) FROM Productivity`+cond, args...).Scan(&first, &last); err != nil {
		return "", "", fmt.Errorf("logstore: date range: %w", err)
	}
	if !first.Valid || !last.Valid {
		return "", "", fmt.Errorf("logstore: date range %+v: %w", f, apperr.ErrAggregationMiss)
	}
	return first.String, last.String, nil
}

// Divisions returns one total per known division, in models.Divisions
// order, optionally restricted to a project.
func (db *DB) Divisions(ctx context.Context, project string) ([]DivisionTotal, error) {
	cond, args := db.where(Filter{Project: project})
	rows, err := db.conn.QueryContext(ctx,
		`SELECT Division, SUM(CAST(Time AS REAL)) FROM Productivity`+cond+` GROUP BY Division`, args...)
	if err != nil {
		return nil, fmt.Errorf("logstore: divisions: %w", err)
	}
	defer rows.Close()

	sums := make(map[string]float64)
	for rows.Next() {
		var div string
		var sum sql.NullFloat64
		if err := rows.Scan(&div, &sum); err != nil {
			return nil, err
		}
		sums[div] = sum.Float64
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]DivisionTotal, len(models.Divisions))
	for i, d := range models.Divisions {
		h, ok := sums[d]
		out[i] = DivisionTotal{Division: d, Hours: h, Present: ok}
	}
	return out, nil
}

// HasProject reports whether any row is logged against project.
func (db *DB) HasProject(ctx context.Context, project string) (bool, error) {
	cond, args := db.where(Filter{Project: project})
	var exists bool
	if err := db.conn.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM Productivity`+cond+`)`, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("logstore: has project: %w", err)
	}
	return exists, nil
}

// Rows returns the first limit rows in insertion order, header rows
// included.
func (db *DB) Rows(ctx context.Context, limit int) ([]models.LogEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT Date, Time, Project, Task, Division, Details FROM Productivity ORDER BY rowid LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("logstore: rows: %w", err)
	}
	defer rows.Close()

	var out []models.LogEntry
	for rows.Next() {
		var e models.LogEntry
		if err := rows.Scan(&e.Date, &e.Time, &e.Project, &e.Task, &e.Division, &e.Details); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
