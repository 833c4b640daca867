// SPDX-License-Identifier: MPL-2.0

// Package archive writes wheel (zip) and sdist (PAX tar.gz) archives.
//
// Both writers stream entries into a private temporary file, hash every entry
// with sha256 while it is copied, and move the file to its final path only
// when Finish succeeds. In reproducible mode every timestamp, permission and
// ownership field is fixed, so identical inputs yield identical bytes.
package archive
