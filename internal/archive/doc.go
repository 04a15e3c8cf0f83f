// Package archive writes reproducible zip, tar and gzip-compressed tar
// archives.
//
// Entries are written in lexical name order with a fixed modification time
// and normalised permissions, so the same inputs always produce the same
// bytes regardless of the file system they were collected from.
package archive
