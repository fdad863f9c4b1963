// Package responseformat writes HTTP response bodies as JSON or, when the
// client asks for it with ?format=msgpack, as MessagePack.
package responseformat

import (
	"encoding/json"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	ContentTypeJSON    = "application/json"
	ContentTypeMsgPack = "application/x-msgpack"
)

// Formatter picks the encoding for a response from the request.
type Formatter struct{}

// NewFormatter creates a new response formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Wants returns the content type the request asked for. JSON is the default.
func (f *Formatter) Wants(req *http.Request) string {
	if req.URL.Query().Get("format") == "msgpack" {
		return ContentTypeMsgPack
	}
	return ContentTypeJSON
}

// WriteResponse encodes data with the status code in the format the
// request asked for.
func (f *Formatter) WriteResponse(w http.ResponseWriter, req *http.Request, status int, data any) error {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	ct := f.Wants(req)
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(status)

	if ct == ContentTypeMsgPack {
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		return enc.Encode(data)
	}
	return json.NewEncoder(w).Encode(data)
}
