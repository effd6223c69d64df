package engine

import (
	"strconv"
	"strings"
)

// FormatTensor renders a vector as the short dense tensor literal the query
// generators emit, e.g. [0.5,-1,3.25]. Each component uses the shortest
// representation that round-trips through float32.
func FormatTensor(v []float32) string {
	var sb strings.Builder
	sb.Grow(len(v)*10 + 2)
	sb.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(x), 'g', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
