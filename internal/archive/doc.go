// Package archive handles intake of uploaded BOQ bundles.
//
// An upload is a single zip archive holding TDR folders of Excel workbooks.
// The package streams the upload to disk, then unpacks it into a per-job
// staging directory with the usual hostile-archive guards:
//
//   - the archive itself is capped (compressed size)
//   - every entry path must stay inside the staging directory
//   - entry count, per-entry decompressed size and total decompressed
//     size are all bounded
//   - symlink and other non-regular entries are skipped
//
// Violations abort the unpack with a sentinel error the transport layer
// maps to a client-facing problem response. The caller owns cleanup of
// the partially written staging directory.
package archive
