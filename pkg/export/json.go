package export

import (
	"io"

	"cogentcore.org/core/base/iox/jsonx"
)

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	return jsonx.WriteIndent(v, w)
}

// SaveJSON writes v as indented JSON to path.
func SaveJSON(path string, v any) error {
	return jsonx.SaveIndent(v, path)
}
