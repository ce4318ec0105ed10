package sentimenter

// lexicon maps words to a polarity in [-1, 1].
var lexicon = map[string]float64{
	"amazing":       0.6,
	"angry":         -0.5,
	"annoying":      -0.8,
	"awesome":       1.0,
	"awful":         -1.0,
	"bad":           -0.7,
	"beautiful":     0.85,
	"best":          1.0,
	"better":        0.5,
	"boring":        -1.0,
	"brilliant":     0.9,
	"broken":        -0.4,
	"calm":          0.3,
	"cheap":         0.4,
	"clean":         0.37,
	"cool":          0.35,
	"crap":          -0.8,
	"cute":          0.5,
	"dead":          -0.2,
	"delightful":    1.0,
	"difficult":     -0.5,
	"dirty":         -0.6,
	"disappointed":  -0.75,
	"disappointing": -0.6,
	"disgusting":    -1.0,
	"dull":          -0.31,
	"easy":          0.43,
	"enjoy":         0.4,
	"evil":          -1.0,
	"excellent":     1.0,
	"excited":       0.38,
	"exciting":      0.3,
	"fail":          -0.5,
	"failed":        -0.5,
	"fantastic":     0.4,
	"fast":          0.2,
	"fine":          0.42,
	"fun":           0.3,
	"funny":         0.25,
	"glad":          0.5,
	"good":          0.7,
	"great":         0.8,
	"happy":         0.8,
	"hard":          -0.29,
	"hate":          -0.8,
	"helpful":       0.5,
	"horrible":      -1.0,
	"important":     0.4,
	"impressive":    1.0,
	"interesting":   0.5,
	"lame":          -0.5,
	"lazy":          -0.25,
	"love":          0.5,
	"lovely":        0.5,
	"mad":           -0.63,
	"mediocre":      -0.5,
	"messy":         -0.4,
	"nasty":         -1.0,
	"nice":          0.6,
	"ok":            0.5,
	"okay":          0.5,
	"outstanding":   0.5,
	"painful":       -0.7,
	"perfect":       1.0,
	"pleasant":      0.73,
	"poor":          -0.4,
	"pretty":        0.25,
	"ridiculous":    -0.33,
	"rude":          -0.3,
	"sad":           -0.5,
	"scary":         -0.5,
	"slow":          -0.3,
	"smart":         0.21,
	"sorry":         -0.5,
	"strong":        0.43,
	"stupid":        -0.8,
	"super":         0.33,
	"terrible":      -1.0,
	"thanks":        0.2,
	"tired":         -0.4,
	"ugly":          -0.7,
	"unhappy":       -0.6,
	"useful":        0.3,
	"useless":       -0.5,
	"weak":          -0.38,
	"weird":         -0.5,
	"win":           0.8,
	"wonderful":     1.0,
	"worse":         -0.4,
	"worst":         -1.0,
	"wrong":         -0.5,
}

// intensifiers multiply the polarity of the next scored word.
var intensifiers = map[string]float64{
	"extremely":  1.5,
	"incredibly": 1.5,
	"really":     1.3,
	"so":         1.3,
	"super":      1.3,
	"totally":    1.3,
	"very":       1.3,
}

var negations = map[string]bool{
	"never":   true,
	"no":      true,
	"not":     true,
	"nothing": true,
	"n't":     true,
}
