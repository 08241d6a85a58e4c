package search

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kailas-cloud/indexgate/internal/domain"
	"github.com/kailas-cloud/indexgate/internal/domain/mapping"
	"github.com/kailas-cloud/indexgate/internal/schema"
)

const sortKey = "sort"

// Translate rewrites the client query for the physical index built from m.
// Sort keys naming a sortable field are pointed at its sort sub-field; every
// other byte of the query is kept, including key order.
func Translate(body json.RawMessage, m mapping.Mapping) (json.RawMessage, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return body, nil
	}

	sortable := m.SortFields()
	if len(sortable) == 0 {
		return body, nil
	}

	out, err := rewriteObject(body, func(key string, val json.RawMessage) (string, json.RawMessage, error) {
		if key != sortKey {
			return key, val, nil
		}
		rewritten, err := rewriteSort(val, sortable)
		return key, rewritten, err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}
	return out, nil
}

// rewriteSort handles the three sort shapes: "field", {"field": ...} and a list of either.
func rewriteSort(val json.RawMessage, sortable map[string]bool) (json.RawMessage, error) {
	switch firstByte(val) {
	case '"':
		return rewriteFieldName(val, sortable)
	case '{':
		return rewriteObject(val, renameSortable(sortable))
	case '[':
		return rewriteArray(val, func(elem json.RawMessage) (json.RawMessage, error) {
			switch firstByte(elem) {
			case '"':
				return rewriteFieldName(elem, sortable)
			case '{':
				return rewriteObject(elem, renameSortable(sortable))
			default:
				return elem, nil
			}
		})
	default:
		return val, nil
	}
}

func renameSortable(sortable map[string]bool) func(string, json.RawMessage) (string, json.RawMessage, error) {
	return func(key string, val json.RawMessage) (string, json.RawMessage, error) {
		return sortField(key, sortable), val, nil
	}
}

func rewriteFieldName(raw json.RawMessage, sortable map[string]bool) (json.RawMessage, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return nil, fmt.Errorf("sort field: %w", err)
	}
	renamed := sortField(name, sortable)
	if renamed == name {
		return raw, nil
	}
	return encodeString(renamed)
}

func sortField(name string, sortable map[string]bool) string {
	if !sortable[name] || strings.HasSuffix(name, "."+schema.SubFieldSort) {
		return name
	}
	return name + "." + schema.SubFieldSort
}

// rewriteObject streams the members of a JSON object through fn, preserving order.
func rewriteObject(
	raw json.RawMessage, fn func(key string, val json.RawMessage) (string, json.RawMessage, error),
) (json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := 0; dec.More(); i++ {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, fmt.Errorf("read value of %q: %w", key, err)
		}

		key, val, err = fn(key, val)
		if err != nil {
			return nil, err
		}
		encKey, err := encodeString(key)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(encKey)
		buf.WriteByte(':')
		buf.Write(val)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if err := expectEOF(dec); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func rewriteArray(raw json.RawMessage, fn func(json.RawMessage) (json.RawMessage, error)) (json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := 0; dec.More(); i++ {
		var elem json.RawMessage
		if err := dec.Decode(&elem); err != nil {
			return nil, fmt.Errorf("read element %d: %w", i, err)
		}
		elem, err := fn(elem)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(elem)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("expected %q: %w", want, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func expectEOF(dec *json.Decoder) error {
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("trailing data after JSON value")
	}
	return nil
}

func encodeString(s string) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encode %q: %w", s, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func firstByte(raw json.RawMessage) byte {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}
