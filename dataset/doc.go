// Package dataset resolves named benchmark datasets and prepares their
// corpora as fvecs files.
//
// A Catalog is an explicit value: tests register synthetic datasets on their
// own catalog and never touch DefaultCatalog. A Preparer locates the raw
// corpus of a dataset, converts it when it is not already in fvecs format and
// reuses a previously converted artifact when one exists.
package dataset
