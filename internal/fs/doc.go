// Package fs is the filesystem seam under every artifact the tool writes:
// downloaded corpora, converted fvecs files and decompressed archives.
//
// Artifacts are published with Publish, which writes a ".part" sibling and
// renames it over the destination only once it is complete, so a later run
// never mistakes a half-written file for a cached one.
//
// Tests swap in a FaultyFS to fail those writes at chosen points:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(fs.PartSuffix, fs.Fault{FailAfterBytes: 1024})
package fs
