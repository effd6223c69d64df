package convert

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
)

var (
	errNoEmbedding   = errors.New("no embedding field")
	errNotDocument   = errors.New("not a json object")
	errTensorShape   = errors.New("unsupported tensor representation")
	errNotNumber     = errors.New("tensor value is not a number")
	errOutOfRange    = errors.New("tensor value overflows float32")
	errCellAddress   = errors.New("invalid cell address")
	errCellOutOfDims = errors.New("cell address outside expected dimensions")
)

// cellLimits bounds the length of densified cell tensors.
type cellLimits struct {
	// dims is the exact length; zero derives it from the largest address.
	dims int
	// max caps a derived length.
	max int
}

// parseTensor accepts a flat array, an object with "values" or "cells", or a
// list of {address, value} cells.
func parseTensor(tensor any, lim cellLimits) ([]float32, error) {
	var seq []any
	switch t := tensor.(type) {
	case []any:
		seq = t
	case map[string]any:
		if v, ok := t["values"].([]any); ok {
			seq = v
		} else if v, ok := t["cells"].([]any); ok {
			seq = v
		} else {
			return nil, errTensorShape
		}
	default:
		return nil, errTensorShape
	}

	if len(seq) > 0 {
		if _, isCell := seq[0].(map[string]any); isCell {
			return densify(seq, lim)
		}
	}

	out := make([]float32, len(seq))
	for i, v := range seq {
		f, err := toFloat32(v)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

type cell struct {
	index int
	value float32
}

// densify expands cells into a zero-initialized vector. Its length is
// lim.dims when set, otherwise the largest address plus one, which must not
// exceed lim.max.
func densify(seq []any, lim cellLimits) ([]float32, error) {
	cells := make([]cell, 0, len(seq))
	maxIndex := -1
	for i, raw := range seq {
		c, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("cell %d: %w", i, errTensorShape)
		}
		index, err := cellIndex(c["address"])
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		value, err := toFloat32(c["value"])
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		switch {
		case lim.dims > 0 && index >= lim.dims:
			return nil, fmt.Errorf("cell %d: address %d: %w", i, index, errCellOutOfDims)
		case lim.dims == 0 && lim.max > 0 && index >= lim.max:
			return nil, fmt.Errorf("cell %d: address %d exceeds %d dimensions: %w", i, index, lim.max, errCellOutOfDims)
		}
		maxIndex = max(maxIndex, index)
		cells = append(cells, cell{index: index, value: value})
	}

	dims := lim.dims
	if dims == 0 {
		dims = maxIndex + 1
	}
	dense := make([]float32, dims)
	for _, c := range cells {
		dense[c.index] = c.value
	}
	return dense, nil
}

// cellIndex reads the dimension index from an address mapping such as
// {"x": "3"}. With several labels the lexicographically first one is used.
func cellIndex(address any) (int, error) {
	m, ok := address.(map[string]any)
	if !ok || len(m) == 0 {
		return 0, errCellAddress
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var (
		index int
		err   error
	)
	switch v := m[keys[0]].(type) {
	case string:
		index, err = strconv.Atoi(v)
	case float64:
		if v != math.Trunc(v) || v < 0 || v > math.MaxInt32 {
			return 0, errCellAddress
		}
		index = int(v)
	default:
		err = errCellAddress
	}
	if err != nil || index < 0 {
		return 0, errCellAddress
	}
	return index, nil
}

func toFloat32(v any) (float32, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, errNotNumber
	}
	if math.Abs(f) > math.MaxFloat32 {
		return 0, errOutOfRange
	}
	return float32(f), nil
}
