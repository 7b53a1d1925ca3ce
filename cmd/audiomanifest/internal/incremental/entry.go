// Package incremental remembers which audio files a manifest was generated
// from so later runs can report what changed on disk.
package incremental

// Entry records one audio file as of the last refresh.
type Entry struct {
	Path    string `json:"path"`     // forward-slash, relative to the source dir
	Hash    string `json:"hash"`     // xxHash64 hex
	ModTime int64  `json:"mtime_ns"` // UnixNano
	Size    int64  `json:"size"`
}
