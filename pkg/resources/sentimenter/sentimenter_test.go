package sentimenter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/registry"
)

func TestBucket(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, Neutral},
		{0.1, NeutralPositive},
		{0.5, Positive},
		{1, Positive},
		{-0.1, NeutralNegative},
		{-0.5, Negative},
		{-1, Negative},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Bucket(tt.score), "Bucket(%v)", tt.score)
	}
}

func TestPolarity(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"", 0},
		{"the cat sat on the mat", 0},
		{"I love this", 0.5},
		{"This is terrible!", -1},
		{"good and bad", 0},
		{"this is not good", -0.35},
		{"it isn't good", -0.35},
		{"it doesn't look good", -0.35},
		{"it wasn’t good", -0.35},
		{"don't", 0},
		{"very good", 0.91},
		{"extremely awesome", 1},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.InDelta(t, tt.want, Polarity(tt.text), 1e-9)
		})
	}
}

func TestGetSentiment(t *testing.T) {
	res, err := New("1.0.0")
	require.NoError(t, err)
	a, err := res.Action("get_sentiment")
	require.NoError(t, err)

	out, err := a.Fn(context.Background(), registry.NewArgs(a.Params, map[string]interface{}{"text": "What a nice day"}))
	require.NoError(t, err)
	got := out.(map[string]interface{})
	assert.Equal(t, Positive, got["sentiment"])
	assert.InDelta(t, 0.6, got["score"], 1e-9)
}
