// Package testutil provides testing utilities for annbench.
//
// This package is intended for use in tests and benchmarks only.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	base := rng.UnitVectors(1000, 384)
//
// # Corpus Fixtures
//
//	path := testutil.WriteFvecs(t, dir, "base.fvecs", base)
//	docs := testutil.WriteJSONL(t, dir, "docs.jsonl", testutil.FieldsDocuments(base))
//	log := testutil.WriteQueryLog(t, dir, "queries.txt", queries)
package testutil
