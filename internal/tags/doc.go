// Package tags reads and writes audio file metadata. Reading is
// format-agnostic (MP3, FLAC, M4A, OGG); writing targets ID3v2 tags, which
// covers catalog number, release year, and embedded cover art updates.
package tags
