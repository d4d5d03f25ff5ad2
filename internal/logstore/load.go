package logstore

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/starford/vos/internal/models"
)

// fieldCount is the number of logical columns per row; the last one
// absorbs any extra commas.
const fieldCount = 6

var quotedRe = regexp.MustCompile(`"(.*)"`)

// ParseLine splits one CSV line into a log entry. Fields are trimmed; the
// details column keeps embedded commas and loses one pair of surrounding
// double quotes.
func ParseLine(line string) models.LogEntry {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	fields := make([]string, fieldCount)
	if len(parts) < fieldCount {
		copy(fields, parts)
	} else {
		copy(fields, parts[:fieldCount-1])
		fields[fieldCount-1] = strings.Join(parts[fieldCount-1:], ",")
	}
	fields[5] = quotedRe.ReplaceAllString(fields[5], "$1")
	return models.LogEntry{
		Date:     fields[0],
		Time:     fields[1],
		Project:  fields[2],
		Task:     fields[3],
		Division: fields[4],
		Details:  fields[5],
	}
}

// Load reads every non-blank line from r into the Productivity table in a
// single transaction and returns the number of rows stored.
func (db *DB) Load(ctx context.Context, r io.Reader) (int, error) {
	var entries []models.LogEntry
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		entries = append(entries, ParseLine(line))
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("logstore: read csv: %w", err)
	}
	if err := db.Insert(ctx, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Insert appends entries in order within one transaction.
func (db *DB) Insert(ctx context.Context, entries []models.LogEntry) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("logstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO Productivity (Date, Time, Project, Task, Division, Details) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("logstore: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Date, e.Time, e.Project, e.Task, e.Division, e.Details); err != nil {
			return fmt.Errorf("logstore: insert row: %w", err)
		}
	}
	return tx.Commit()
}
