package dispatcher

import (
	"context"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/registry"
)

// Invoke runs the action with already bound args. Errors and panics propagate unchanged;
// Dispatcher is the only place they are caught.
func Invoke(ctx context.Context, action *registry.Action, args registry.Args) (interface{}, error) {
	return action.Fn(ctx, args)
}
