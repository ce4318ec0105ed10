// Package nurse records site health checks.
package nurse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/db"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/registry"
)

const (
	logPrefix = "nurse:nurse"

	// Name is the resource name in the registry.
	Name = "nurse"
)

// Store persists health checks. *db.HealthCheckRepository satisfies it.
type Store interface {
	Add(ctx context.Context, site string, healthy bool) (int64, error)
	List(ctx context.Context) ([]db.HealthCheck, error)
	Delete(ctx context.Context, id int64) error
}

// New builds the nurse resource over store.
func New(store Store, version string) (*registry.Resource, error) {
	if store == nil {
		return nil, fmt.Errorf("%s - store is required", logPrefix)
	}

	return registry.NewResource("Site health checks", version,
		registry.Action{
			Name:        "get",
			Description: "List recorded health checks.",
			Fn: func(ctx context.Context, _ registry.Args) (interface{}, error) {
				checks, err := store.List(ctx)
				if err != nil {
					return nil, err
				}
				if checks == nil {
					checks = []db.HealthCheck{}
				}
				return checks, nil
			},
		},
		registry.Action{
			Name:        "add",
			Description: "Record a health check.",
			Params: []registry.Param{
				registry.Required("site", registry.KindString, "site that was checked"),
				registry.Required("healthy", registry.KindBool, "check outcome"),
			},
			Fn: func(ctx context.Context, args registry.Args) (interface{}, error) {
				site, err := args.String("site")
				if err != nil {
					return nil, err
				}
				if site == "" {
					return nil, registry.NewRegistryError(registry.CodeInvalidParameter, "site must not be empty")
				}
				healthy, err := args.Bool("healthy")
				if err != nil {
					return nil, err
				}
				id, err := store.Add(ctx, site, healthy)
				if err != nil {
					return nil, err
				}
				slog.Info(fmt.Sprintf("%s - %s healthy=%t (id %d)", logPrefix, site, healthy, id))
				return map[string]interface{}{"id": id}, nil
			},
		},
		registry.Action{
			Name:        "delete",
			Description: "Remove a health check.",
			Params:      []registry.Param{registry.Required("id", registry.KindInt, "health check id")},
			Fn: func(ctx context.Context, args registry.Args) (interface{}, error) {
				id, err := args.Int("id")
				if err != nil {
					return nil, err
				}
				err = store.Delete(ctx, int64(id))
				if errors.Is(err, db.ErrNotFound) {
					return nil, fmt.Errorf("health check %d does not exist", id)
				}
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{"success": true}, nil
			},
		},
	)
}
