package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/kailas-cloud/indexgate/internal/engine"
)

// IndexDocument stores doc under id (engine-assigned when id is empty),
// stamping it with docType.
func (c *Client) IndexDocument(
	ctx context.Context, name, docType, id string, doc json.RawMessage,
) (engine.WriteResult, error) {
	body, err := withType(doc, docType)
	if err != nil {
		return "", &engine.Error{Op: engine.OpIndexDocument, Index: name, Status: http.StatusBadRequest, Type: "invalid_document", Reason: err.Error()}
	}

	opts := []func(*esapi.IndexRequest){c.es.Index.WithContext(ctx)}
	if id != "" {
		opts = append(opts, c.es.Index.WithDocumentID(id))
	}
	if c.refresh != "" {
		opts = append(opts, c.es.Index.WithRefresh(c.refresh))
	}

	res, err := c.es.Index(name, bytes.NewReader(body), opts...)
	if err != nil {
		return "", engine.NewTransportError(engine.OpIndexDocument, name, err)
	}
	defer closeBody(res)
	if res.IsError() {
		return "", responseError(engine.OpIndexDocument, name, res)
	}

	var out struct {
		Result string `json:"result"`
	}
	if err := decode(engine.OpIndexDocument, name, res, &out); err != nil {
		return "", err
	}
	if out.Result == string(engine.Updated) {
		return engine.Updated, nil
	}
	return engine.Created, nil
}

// UpdateDocument merges partial into an existing document.
func (c *Client) UpdateDocument(ctx context.Context, name, docType, id string, partial json.RawMessage) error {
	doc, err := withType(partial, docType)
	if err != nil {
		return &engine.Error{Op: engine.OpUpdateDocument, Index: name, Status: http.StatusBadRequest, Type: "invalid_document", Reason: err.Error()}
	}
	body, err := json.Marshal(map[string]json.RawMessage{"doc": doc})
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}

	opts := []func(*esapi.UpdateRequest){c.es.Update.WithContext(ctx)}
	if c.refresh != "" {
		opts = append(opts, c.es.Update.WithRefresh(c.refresh))
	}

	res, err := c.es.Update(name, id, bytes.NewReader(body), opts...)
	if err != nil {
		return engine.NewTransportError(engine.OpUpdateDocument, name, err)
	}
	defer closeBody(res)
	if res.IsError() {
		return responseError(engine.OpUpdateDocument, name, res)
	}
	return nil
}

// DeleteDocument removes one document. docType is not checked; ids are unique per index.
func (c *Client) DeleteDocument(ctx context.Context, name, _, id string) error {
	opts := []func(*esapi.DeleteRequest){c.es.Delete.WithContext(ctx)}
	if c.refresh != "" {
		opts = append(opts, c.es.Delete.WithRefresh(c.refresh))
	}

	res, err := c.es.Delete(name, id, opts...)
	if err != nil {
		return engine.NewTransportError(engine.OpDeleteDocument, name, err)
	}
	defer closeBody(res)
	if res.IsError() {
		return responseError(engine.OpDeleteDocument, name, res)
	}
	return nil
}

// withType sets TypeField on a JSON object. An empty docType leaves doc as is.
func withType(doc json.RawMessage, docType string) (json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(doc, &obj); err != nil || obj == nil {
		return nil, fmt.Errorf("document must be a JSON object")
	}
	if docType == "" {
		return doc, nil
	}
	t, err := json.Marshal(docType)
	if err != nil {
		return nil, fmt.Errorf("encode type: %w", err)
	}
	obj[TypeField] = t
	out, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return out, nil
}
