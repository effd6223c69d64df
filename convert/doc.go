// Package convert turns heterogeneous vector corpora into fvecs files.
//
// Two adapters are provided:
//
//   - the embedding adapter reads a JSON array of documents or a JSONL stream
//     and extracts each document's embedding tensor;
//   - the query-log adapter reads URL-style query lines and decodes the query
//     tensor carried in one of their parameters.
//
// A document or line that cannot be converted is counted as skipped and the
// conversion continues. Only I/O failures and a corpus that cannot be framed
// at all (an unparsable JSON array) abort a conversion.
//
// Output depends only on the input and the options, so converting the same
// source twice yields byte-identical files.
package convert
