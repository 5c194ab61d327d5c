package utilities

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
)

const maxBodyBytes = 1 << 20

// FormValues reads the named fields from a urlencoded/multipart form or a
// flat JSON object, depending on Content-Type. Missing fields are "".
func FormValues(w http.ResponseWriter, r *http.Request, keys ...string) (map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	out := make(map[string]string, len(keys))

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/json" {
		raw := map[string]any{}
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode json body: %w", err)
		}
		for _, k := range keys {
			switch v := raw[k].(type) {
			case nil:
				out[k] = ""
			case string:
				out[k] = v
			default:
				out[k] = fmt.Sprint(v)
			}
		}
		return out, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	for _, k := range keys {
		out[k] = r.PostForm.Get(k)
	}
	return out, nil
}
