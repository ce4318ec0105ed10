package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const todosLogPrefix = "db:todos"

// TodoRepository is the todos table.
type TodoRepository struct {
	db *DB
}

// NewTodoRepository creates a new TodoRepository.
func NewTodoRepository(d *DB) *TodoRepository {
	return &TodoRepository{db: d}
}

// Create inserts a todo and returns its id.
func (r *TodoRepository) Create(ctx context.Context, t Todo) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		r.db.Rebind(`INSERT INTO todos (todo, author, category, done) VALUES (?, ?, ?, ?) RETURNING id`),
		t.Todo, t.Author, nullString(t.Category), t.Done,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s - failed to insert todo: %w", todosLogPrefix, err)
	}
	return id, nil
}

// List returns every todo ordered by id.
func (r *TodoRepository) List(ctx context.Context) ([]Todo, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, todo, author, category, done FROM todos ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to list todos: %w", todosLogPrefix, err)
	}
	defer rows.Close()

	todos := []Todo{}
	for rows.Next() {
		var (
			t        Todo
			category sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Todo, &t.Author, &category, &t.Done); err != nil {
			return nil, fmt.Errorf("%s - scan: %w", todosLogPrefix, err)
		}
		t.Category = category.String
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

// ToggleDone flips the done flag of id and returns the new value.
func (r *TodoRepository) ToggleDone(ctx context.Context, id int64) (bool, error) {
	var done bool
	err := r.db.QueryRowContext(ctx,
		r.db.Rebind(`UPDATE todos SET done = NOT done WHERE id = ? RETURNING done`), id,
	).Scan(&done)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("%s - todo %d: %w", todosLogPrefix, id, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("%s - failed to toggle todo %d: %w", todosLogPrefix, id, err)
	}
	return done, nil
}

// Delete removes id.
func (r *TodoRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "todos", id)
}

func deleteByID(ctx context.Context, d *DB, table string, id int64) error {
	res, err := d.ExecContext(ctx, d.Rebind("DELETE FROM "+table+" WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("db:%s - failed to delete %d: %w", table, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db:%s - rows affected: %w", table, err)
	}
	if n == 0 {
		return fmt.Errorf("db:%s - row %d: %w", table, id, ErrNotFound)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
