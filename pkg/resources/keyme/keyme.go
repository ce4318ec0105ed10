// Package keyme extracts ranked keywords from free text.
package keyme

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/registry"
)

const (
	logPrefix = "keyme:keyme"

	// Name is the resource name in the registry.
	Name = "keyme"
)

// New builds the keyme resource.
func New(version string) (*registry.Resource, error) {
	return registry.NewResource("Keyword extraction", version,
		registry.Action{
			Name:        "get_keywords",
			Description: "Rank the key phrases of text. Returns [[score, phrase], ...].",
			Params: []registry.Param{
				registry.Required("text", registry.KindString, "text to analyse"),
				registry.Optional("topn", registry.KindInt, 10, "number of phrases to return"),
			},
			Fn: getKeywords,
		},
	)
}

func getKeywords(_ context.Context, args registry.Args) (interface{}, error) {
	text, err := args.String("text")
	if err != nil {
		return nil, err
	}
	topn, err := args.Int("topn")
	if err != nil {
		return nil, err
	}
	if topn < 0 {
		return nil, registry.NewRegistryError(registry.CodeInvalidParameter, "topn must not be negative")
	}

	ranked := Rank(text)
	if len(ranked) > topn {
		ranked = ranked[:topn]
	}
	out := make([][]interface{}, 0, len(ranked))
	for _, k := range ranked {
		out = append(out, []interface{}{k.Score, k.Phrase})
	}
	slog.Debug(fmt.Sprintf("%s - %d phrases from %d chars", logPrefix, len(out), len(text)))
	return out, nil
}
