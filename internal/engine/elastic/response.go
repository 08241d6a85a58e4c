package elastic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/kailas-cloud/indexgate/internal/engine"
)

const maxErrorBody = 64 << 10

type errorBody struct {
	Error  json.RawMessage `json:"error"`
	Result string          `json:"result"`
}

type errorCause struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// responseError turns an error response into *engine.Error, keeping the
// engine's type and reason when the body carries them.
func responseError(op, name string, res *esapi.Response) *engine.Error {
	e := &engine.Error{Op: op, Index: name, Status: res.StatusCode, Reason: res.Status()}
	if res.Body == nil {
		return e
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return e
	}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		e.Reason = string(bytes.TrimSpace(raw))
		return e
	}

	var cause errorCause
	switch {
	case len(body.Error) > 0 && json.Unmarshal(body.Error, &cause) == nil:
		e.Type, e.Reason = cause.Type, cause.Reason
	case len(body.Error) > 0:
		// Some endpoints answer with a bare string.
		var msg string
		if json.Unmarshal(body.Error, &msg) == nil {
			e.Reason = msg
		}
	case body.Result != "":
		e.Reason = body.Result
	}
	return e
}

func decode(op, name string, res *esapi.Response, v any) error {
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return &engine.Error{Op: op, Index: name, Status: res.StatusCode, Reason: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

func closeBody(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}
}
