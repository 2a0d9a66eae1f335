package dom

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// Media is the playback state of an audio or video element.
type Media struct {
	CurrentTime  float64
	Duration     float64
	Volume       float64
	Muted        bool
	PlaybackRate float64
	Paused       bool
	Error        *MediaError
}

// MediaError mirrors a MediaError: a numeric code and a message.
type MediaError struct {
	Code    int
	Message string
}

// NewMedia returns paused media at full volume and normal rate.
func NewMedia() *Media {
	return &Media{Volume: 1, PlaybackRate: 1, Paused: true}
}

// File is an entry of a file picker.
type File struct {
	Name         string
	LastModified int64 // milliseconds since the epoch
	Size         int64
	MimeType     string

	// Path is read when Data is nil.
	Path string
	Data []byte
}

// Open returns the file content.
func (f File) Open() (io.ReadCloser, error) {
	if f.Data != nil {
		return io.NopCloser(bytes.NewReader(f.Data)), nil
	}
	if f.Path == "" {
		return nil, fmt.Errorf("file %q has no content", f.Name)
	}
	return os.Open(f.Path)
}

// FileFromPath describes a local file as a picker entry.
func FileFromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	return File{
		Name:         filepath.Base(path),
		LastModified: info.ModTime().UnixMilli(),
		Size:         info.Size(),
		MimeType:     mime.TypeByExtension(filepath.Ext(path)),
		Path:         path,
	}, nil
}
