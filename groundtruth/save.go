package groundtruth

import (
	"fmt"
	"math"

	"github.com/hupe1980/annbench/fvecs"
	"github.com/hupe1980/annbench/internal/fs"
)

// Save publishes truth as an ivecs file readable by FromIvecs. Identifiers
// must fit in uint32, as they do for every public ANN dataset.
func Save(path string, truth [][]uint64) error {
	rows := make([][]uint32, len(truth))
	for i, ids := range truth {
		row := make([]uint32, len(ids))
		for j, id := range ids {
			if id > math.MaxUint32 {
				return fmt.Errorf("groundtruth: query %d: id %d does not fit an ivecs record", i, id)
			}
			row[j] = uint32(id)
		}
		rows[i] = row
	}
	return fs.Publish(nil, path, func(f fs.File) error {
		return fvecs.WriteIvecs(f, rows)
	})
}
