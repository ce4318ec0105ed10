package dispatcher

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/registry"
)

const binderTestPrefix = "dispatcher:binder_test"

func action(params ...registry.Param) *registry.Action {
	return &registry.Action{Name: "act", Params: params, Fn: noop}
}

func noop(_ context.Context, _ registry.Args) (interface{}, error) { return nil, nil }

func TestBind_EmptySuppliedIffAllDefaulted(t *testing.T) {
	tests := []struct {
		name        string
		params      []registry.Param
		wantMissing []string
	}{
		{"no params", nil, nil},
		{"all optional", []registry.Param{
			registry.Optional("a", registry.KindInt, 1, ""),
			registry.Optional("b", registry.KindString, "x", ""),
		}, nil},
		{"one required", []registry.Param{
			registry.Optional("a", registry.KindInt, 1, ""),
			registry.Required("text", registry.KindString, ""),
		}, []string{"text"}},
		{"declaration order", []registry.Param{
			registry.Required("zeta", registry.KindAny, ""),
			registry.Optional("mid", registry.KindAny, nil, ""),
			registry.Required("alpha", registry.KindAny, ""),
		}, []string{"zeta", "alpha"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Bind(action(tt.params...), map[string]interface{}{})
			if tt.wantMissing == nil {
				if err != nil {
					t.Fatalf("%s - expected success, got %v", binderTestPrefix, err)
				}
				return
			}
			var regErr *registry.RegistryError
			if !errors.As(err, &regErr) || regErr.Code != registry.CodeMissingParameter {
				t.Fatalf("%s - expected MISSING_PARAMETER, got %v", binderTestPrefix, err)
			}
			if !reflect.DeepEqual(regErr.Details, tt.wantMissing) {
				t.Errorf("%s - missing = %v, want %v", binderTestPrefix, regErr.Details, tt.wantMissing)
			}
		})
	}
}

func TestBind_UnknownKeysAlwaysFail(t *testing.T) {
	a := action(registry.Required("text", registry.KindString, ""))

	tests := []map[string]interface{}{
		{"bogus": 1},
		{"text": "hi", "bogus": 1},
		{"zz": 1, "aa": 2},
	}
	for _, supplied := range tests {
		_, err := Bind(a, supplied)
		if registry.CodeOf(err) != registry.CodeUnknownParameter {
			t.Errorf("%s - Bind(%v) code = %s, want %s", binderTestPrefix, supplied, registry.CodeOf(err), registry.CodeUnknownParameter)
		}
	}

	_, err := Bind(a, map[string]interface{}{"zz": 1, "aa": 2})
	var regErr *registry.RegistryError
	errors.As(err, &regErr)
	if !reflect.DeepEqual(regErr.Details, []string{"aa", "zz"}) {
		t.Errorf("%s - unknown keys = %v, want sorted [aa zz]", binderTestPrefix, regErr.Details)
	}
}

func TestBind_ForwardsOnlySupplied(t *testing.T) {
	a := action(
		registry.Required("text", registry.KindString, ""),
		registry.Optional("topn", registry.KindInt, 10, ""),
	)
	args, err := Bind(a, map[string]interface{}{"text": "hi"})
	if err != nil {
		t.Fatalf("%s - Bind: %v", binderTestPrefix, err)
	}
	if args.Has("topn") {
		t.Errorf("%s - default leaked into supplied args", binderTestPrefix)
	}
	if n, _ := args.Int("topn"); n != 10 {
		t.Errorf("%s - topn = %d, want default 10", binderTestPrefix, n)
	}
}

func TestCoerceStrings(t *testing.T) {
	a := action(
		registry.Required("id", registry.KindInt, ""),
		registry.Optional("done", registry.KindBool, false, ""),
	)

	got, err := CoerceStrings(a, map[string]string{"id": "7", "done": "true", "extra": "x"})
	if err != nil {
		t.Fatalf("%s - CoerceStrings: %v", binderTestPrefix, err)
	}
	want := map[string]interface{}{"id": 7, "done": true, "extra": "x"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("%s - CoerceStrings = %v, want %v", binderTestPrefix, got, want)
	}

	_, err = CoerceStrings(a, map[string]string{"id": "seven"})
	if registry.CodeOf(err) != registry.CodeInvalidParameter {
		t.Errorf("%s - code = %s, want %s", binderTestPrefix, registry.CodeOf(err), registry.CodeInvalidParameter)
	}
}
