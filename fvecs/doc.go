// Package fvecs reads and writes the dimension-prefixed binary vector format.
//
// Each record is a little-endian uint32 dimension count followed by that many
// little-endian IEEE-754 float32 values. Records are concatenated with no
// header, delimiter, padding or trailer:
//
//	record := uint32_le(dim) float32_le[dim]
//
// Values are copied as raw bit patterns, so a write/read round trip is
// bit-exact.
//
// # Writing
//
//	w, err := fvecs.Create("queries.fvecs")
//	if err != nil { ... }
//	for _, v := range vectors {
//	    if err := w.Write(v); err != nil { ... }
//	}
//	err = w.Close()
//
// # Reading
//
//	for v, err := range fvecs.ReadAll("queries.fvecs") {
//	    if err != nil { ... } // *MalformedRecordError on a truncated tail
//	    use(v)
//	}
//
// MappedFile gives random access to fixed-dimension files, and ReadIvecs
// loads published ground-truth neighbor lists stored in the same layout
// with uint32 payloads.
package fvecs
