// Package sentimenter scores the polarity of short texts.
package sentimenter

import (
	"context"
	"regexp"
	"strings"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/registry"
)

// Name is the resource name in the registry.
const Name = "sentimenter"

// Sentiment buckets.
const (
	Positive        = "Positive"
	NeutralPositive = "Neutral/Positive"
	Neutral         = "Neutral"
	NeutralNegative = "Neutral/Negative"
	Negative        = "Negative"
)

// contractions come first so "isn't" stays one token instead of "isn" and "t"
var wordPattern = regexp.MustCompile(`[a-z]+n't|[a-z]+|n't`)

// Polarity averages the lexicon polarity of the scored words in text. A negation before a
// word flips and halves it; an intensifier scales it. The result is clamped to [-1, 1];
// text with no scored words is 0.
func Polarity(text string) float64 {
	words := wordPattern.FindAllString(strings.ReplaceAll(strings.ToLower(text), "’", "'"), -1)

	var sum float64
	var n int
	negate := false
	scale := 1.0
	for _, w := range words {
		if strings.HasSuffix(w, "n't") {
			negate = true
			continue
		}
		if negations[w] {
			negate = true
			continue
		}
		p, scored := lexicon[w]
		if !scored {
			if f, ok := intensifiers[w]; ok {
				scale = f
			}
			continue
		}
		p *= scale
		if negate {
			p *= -0.5
		}
		sum += clamp(p)
		n++
		negate, scale = false, 1.0
	}
	if n == 0 {
		return 0
	}
	return clamp(sum / float64(n))
}

// Bucket names the sentiment band of a polarity.
func Bucket(polarity float64) string {
	switch {
	case polarity == 0:
		return Neutral
	case polarity >= 0.5:
		return Positive
	case polarity > 0:
		return NeutralPositive
	case polarity <= -0.5:
		return Negative
	default:
		return NeutralNegative
	}
}

func clamp(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}

// New builds the sentimenter resource.
func New(version string) (*registry.Resource, error) {
	return registry.NewResource("Sentiment analysis", version,
		registry.Action{
			Name:        "get_sentiment",
			Description: "Score text from -1 (negative) to 1 (positive).",
			Params:      []registry.Param{registry.Required("text", registry.KindString, "text to score")},
			Fn: func(_ context.Context, args registry.Args) (interface{}, error) {
				text, err := args.String("text")
				if err != nil {
					return nil, err
				}
				score := Polarity(text)
				return map[string]interface{}{"sentiment": Bucket(score), "score": score}, nil
			},
		},
	)
}
