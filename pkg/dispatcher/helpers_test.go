package dispatcher

import (
	"context"
	"errors"
	"testing"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/registry"
)

// stubRegistry builds the "stub" resource used across the dispatcher tests.
func stubRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	res, err := registry.NewResource("stub resource", "1.4.0",
		registry.Action{
			Name:   "echo",
			Params: []registry.Param{registry.Required("text", registry.KindString, "text to echo")},
			Fn: func(_ context.Context, args registry.Args) (interface{}, error) {
				return args.String("text")
			},
		},
		registry.Action{
			Name: "greet",
			Params: []registry.Param{
				registry.Required("name", registry.KindString, ""),
				registry.Optional("greeting", registry.KindString, "hello", ""),
				registry.Optional("times", registry.KindInt, 1, ""),
			},
			Fn: func(_ context.Context, args registry.Args) (interface{}, error) {
				name, err := args.String("name")
				if err != nil {
					return nil, err
				}
				greeting, err := args.String("greeting")
				if err != nil {
					return nil, err
				}
				times, err := args.Int("times")
				if err != nil {
					return nil, err
				}
				out := make([]string, 0, times)
				for i := 0; i < times; i++ {
					out = append(out, greeting+" "+name)
				}
				return out, nil
			},
		},
		registry.Action{
			Name: "fail",
			Fn: func(context.Context, registry.Args) (interface{}, error) {
				return nil, errors.New("division by zero")
			},
		},
		registry.Action{
			Name: "explode",
			Fn: func(context.Context, registry.Args) (interface{}, error) {
				panic("kaboom")
			},
		},
	)
	if err != nil {
		t.Fatalf("dispatcher:helpers_test - NewResource: %v", err)
	}

	reg := registry.NewRegistry()
	if err := reg.Register("stub", res); err != nil {
		t.Fatalf("dispatcher:helpers_test - Register: %v", err)
	}
	return reg
}
