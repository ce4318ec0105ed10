// Package todos exposes the todo list as a registry resource.
package todos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/db"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/registry"
)

const (
	logPrefix = "todos:todos"

	// Name is the resource name in the registry.
	Name = "todos"
)

// Store persists todos. *db.TodoRepository satisfies it.
type Store interface {
	Create(ctx context.Context, t db.Todo) (int64, error)
	List(ctx context.Context) ([]db.Todo, error)
	ToggleDone(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

type todos struct {
	store Store
}

// New builds the todos resource over store.
func New(store Store, version string) (*registry.Resource, error) {
	if store == nil {
		return nil, fmt.Errorf("%s - store is required", logPrefix)
	}
	t := &todos{store: store}

	return registry.NewResource("Zack's todo list", version,
		registry.Action{
			Name:        "create",
			Description: "Add a todo.",
			Params: []registry.Param{
				registry.Required("todo", registry.KindString, "what needs doing"),
				registry.Required("author", registry.KindString, "who wrote it"),
				registry.Required("category", registry.KindString, "Development, Fun, Other or Work"),
				registry.Optional("done", registry.KindBool, false, "already done"),
			},
			Fn: t.create,
		},
		registry.Action{
			Name:        "read",
			Description: "List every todo.",
			Fn:          t.read,
		},
		registry.Action{
			Name:        "toggle_complete",
			Description: "Flip the done flag of a todo.",
			Params:      []registry.Param{registry.Required("id", registry.KindInt, "todo id")},
			Fn:          t.toggleComplete,
		},
		registry.Action{
			Name:        "delete",
			Description: "Remove a todo.",
			Params:      []registry.Param{registry.Required("id", registry.KindInt, "todo id")},
			Fn:          t.delete,
		},
	)
}

func (t *todos) create(ctx context.Context, args registry.Args) (interface{}, error) {
	var row db.Todo
	var err error
	if row.Todo, err = args.String("todo"); err != nil {
		return nil, err
	}
	if row.Author, err = args.String("author"); err != nil {
		return nil, err
	}
	if row.Category, err = args.String("category"); err != nil {
		return nil, err
	}
	if row.Done, err = args.Bool("done"); err != nil {
		return nil, err
	}

	id, err := t.store.Create(ctx, row)
	if err != nil {
		return nil, err
	}
	slog.Info(fmt.Sprintf("%s - %s added todo %d", logPrefix, row.Author, id))
	return map[string]interface{}{"success": true, "id": id}, nil
}

func (t *todos) read(ctx context.Context, _ registry.Args) (interface{}, error) {
	rows, err := t.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []db.Todo{}
	}
	return rows, nil
}

func (t *todos) toggleComplete(ctx context.Context, args registry.Args) (interface{}, error) {
	id, err := args.Int("id")
	if err != nil {
		return nil, err
	}
	done, err := t.store.ToggleDone(ctx, int64(id))
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("todo %d does not exist", id)
	}
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"success": true, "done": done}, nil
}

func (t *todos) delete(ctx context.Context, args registry.Args) (interface{}, error) {
	id, err := args.Int("id")
	if err != nil {
		return nil, err
	}
	err = t.store.Delete(ctx, int64(id))
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("todo %d does not exist", id)
	}
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"success": true}, nil
}
