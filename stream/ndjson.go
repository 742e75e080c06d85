package stream

import (
	"encoding/json"
	"io"
	"net/http"
)

// ContentType is the media type served for NDJSON streams.
const ContentType = "application/x-ndjson"

// Writer encodes wire events as newline-delimited JSON. When the underlying
// writer supports flushing, each event is flushed immediately so clients see
// lines as they are produced.
type Writer struct {
	enc     *json.Encoder
	flusher http.Flusher
}

// NewWriter wraps w in an NDJSON writer.
func NewWriter(w io.Writer) *Writer {
	nw := &Writer{enc: json.NewEncoder(w)}
	if f, ok := w.(http.Flusher); ok {
		nw.flusher = f
	}
	return nw
}

// Write encodes a single event as one JSON line.
func (w *Writer) Write(e Event) error {
	if err := w.enc.Encode(e); err != nil {
		return err
	}
	if w.flusher != nil {
		w.flusher.Flush()
	}
	return nil
}
