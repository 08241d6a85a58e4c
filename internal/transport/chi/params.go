package chi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// Path parameter names.
const (
	paramIndex = "index"
	paramType  = "type"
	paramID    = "id"
	paramKey   = "key"
)

// pathParam binds a required simple-style path parameter.
func pathParam(r *http.Request, name string) (string, error) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
	if err != nil {
		return "", fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return v, nil
}

// pathParams binds several path parameters in order, writing a 400 on the
// first failure. ok is false when a response has been written.
func pathParams(w http.ResponseWriter, r *http.Request, names ...string) (values []string, ok bool) {
	values = make([]string, 0, len(names))
	for _, name := range names {
		v, err := pathParam(r, name)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
			return nil, false
		}
		values = append(values, v)
	}
	return values, true
}

// readBody returns the raw request body, limited to limit bytes.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) (json.RawMessage, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return nil, false
	}
	return body, true
}

// readJSONObject is readBody plus a check that the body is one JSON object.
func readJSONObject(w http.ResponseWriter, r *http.Request, limit int64) (json.RawMessage, bool) {
	body, ok := readBody(w, r, limit)
	if !ok {
		return nil, false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil || probe == nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "request body must be a JSON object")
		return nil, false
	}
	return body, true
}

// decodeJSON decodes the body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
