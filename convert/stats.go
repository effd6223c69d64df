package convert

import "fmt"

// Stats summarizes a conversion.
type Stats struct {
	Converted int
	Skipped   int
}

// Total returns the number of records that were considered.
func (s Stats) Total() int { return s.Converted + s.Skipped }

func (s Stats) String() string {
	return fmt.Sprintf("converted=%d skipped=%d", s.Converted, s.Skipped)
}
