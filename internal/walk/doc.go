// SPDX-License-Identifier: MPL-2.0

// Package walk produces the ordered sequence of files a build ships.
//
// Traversal is depth-first and follows symlinks. Directories are identified by
// their device and inode (volume serial and file index on Windows) so that a
// symlink cycle is entered at most once. Within a directory, files are visited
// before subdirectories and both in lexical order, which makes the sequence
// deterministic.
package walk
