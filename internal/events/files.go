package events

import (
	"encoding/base64"
	"io"

	"github.com/codewiresh/uibridge/internal/dom"
	"github.com/codewiresh/uibridge/internal/protocol"
)

// Messages reported by fileLoadingError besides read errors.
const (
	ErrFileNotFound     = "File not found"
	ErrInvalidPickerID  = "Invalid FilePicker id"
	defaultMimeDataType = "application/octet-stream"
)

func fileInfo(msg *protocol.Message, f dom.File) *protocol.Message {
	return msg.Put("name", protocol.Quoted(f.Name)).
		Put("last-modified", protocol.Int(f.LastModified)).
		Put("size", protocol.Int(f.Size)).
		Put("mime-type", protocol.Quoted(f.MimeType))
}

// FileSelected reports the files chosen in a file picker.
func (t *Translator) FileSelected(el *dom.Element) {
	files := make(protocol.List, 0, len(el.Files))
	for _, f := range el.Files {
		files = append(files, fileInfo(protocol.New("_"), f))
	}
	t.send(t.elementMessage("fileSelected", el).Put("files", files))
}

// LoadSelectedFile reads file index of a picker in the background and
// reports its content as a base64 data URL. Failures are reported as
// fileLoadingError for the same element and index.
func (t *Translator) LoadSelectedFile(id string, index int) {
	el := t.doc.ElementByID(id)
	if el == nil {
		t.fileError(id, index, ErrInvalidPickerID)
		return
	}
	if index < 0 || index >= len(el.Files) {
		t.fileError(id, index, ErrFileNotFound)
		return
	}
	f := el.Files[index]
	t.loads.Add(1)
	go func() {
		defer t.loads.Done()
		data, err := dataURL(f)
		if err != nil {
			t.logger.Warn("file load failed", "id", id, "index", index, "err", err)
			t.fileError(id, index, err.Error())
			return
		}
		msg := t.message("fileLoaded").
			Add("id", protocol.Text(id)).
			Put("index", protocol.Int(index))
		fileInfo(msg, f).Put("data", protocol.Raw(data))
		t.send(msg)
	}()
}

func (t *Translator) fileError(id string, index int, text string) {
	t.send(t.message("fileLoadingError").
		Add("id", protocol.Text(id)).
		Put("index", protocol.Int(index)).
		Put("error", protocol.RawSafe(text)))
}

// dataURL encodes the file content. The base64 alphabet never contains a
// backtick, so the result is safe as a raw literal.
func dataURL(f dom.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	content, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	mt := f.MimeType
	if mt == "" {
		mt = defaultMimeDataType
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(content), nil
}
