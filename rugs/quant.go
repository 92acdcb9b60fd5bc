package rugs

// quant.go: lossy palette reduction ahead of the lossless payload compression

import (
	"slices"
	"strings"
)

// Level selects a palette budget for quantization
type Level int

const (
	None Level = iota
	Min
	Med
	High
	Ultra
)

var levels = [...]struct {
	name   string
	budget int
}{
	None:  {"none", 0},
	Min:   {"min", 5000},
	Med:   {"med", 2000},
	High:  {"high", 1000},
	Ultra: {"ultra", 250},
}

// Levels returns every level from least to most lossy
func Levels() []Level {
	return []Level{None, Min, Med, High, Ultra}
}

func ParseLevel(s string) (Level, error) {
	for l, v := range levels {
		if strings.EqualFold(s, v.name) {
			return Level(l), nil
		}
	}
	return None, ErrUnknownLevel
}

func (l Level) String() string {
	if l < None || l > Ultra {
		return "unknown"
	}
	return levels[l].name
}

// Budget is the max palette size for l. 0 means no quantization
func (l Level) Budget() int {
	if l < None || l > Ultra {
		return 0
	}
	return levels[l].budget
}

// Compress quantizes b in place with the budget of l
func (b *Buffer) Compress(l Level) {
	b.Pix = Quantize(b, l.Budget()).Pix
}

// Palette returns the (at most) budget most frequent colors of b.
// Colors that occur equally often keep the order they were first seen in
func Palette(b *Buffer, budget int) []Color {
	if budget <= 0 {
		return nil
	}

	counts := make(map[Color]int)
	var order []Color // first-seen order
	for _, c := range b.Pix {
		if _, ok := counts[c]; !ok {
			order = append(order, c)
		}
		counts[c]++
	}

	// stable, so ties fall back to first-seen order
	slices.SortStableFunc(order, func(x, y Color) int {
		return counts[y] - counts[x]
	})

	if len(order) > budget {
		order = order[:budget]
	}
	return slices.Clip(order)
}

// Quantize returns a copy of b drawn from its budget most frequent colors,
// every other color is replaced with its nearest survivor.
// budget <= 0 returns an unchanged copy, as does an empty buffer
func Quantize(b *Buffer, budget int) *Buffer {
	out := b.clone()
	if budget <= 0 || len(b.Pix) == 0 {
		return out
	}

	pl := Palette(b, budget)

	// every pixel of the same color maps to the same palette entry
	memo := make(map[Color]Color, len(pl))
	for i, c := range out.Pix {
		nc, ok := memo[c]
		if !ok {
			nc = closest(c, pl)
			memo[c] = nc
		}
		out.Pix[i] = nc
	}

	return out
}

// first palette entry with the smallest distance to c, pl must not be empty
func closest(c Color, pl []Color) Color {
	best := pl[0]
	bd := distsq(c, best)
	for _, p := range pl[1:] {
		if bd == 0 {
			break
		}
		if d := distsq(c, p); d < bd {
			bd = d
			best = p
		}
	}
	return best
}
