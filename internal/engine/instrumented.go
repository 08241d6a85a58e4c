package engine

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/indexgate/internal/domain/index"
	"github.com/kailas-cloud/indexgate/internal/metrics"
)

// Op labels used for metrics and errors.
const (
	OpIndexExists    = "index_exists"
	OpCreateIndex    = "create_index"
	OpDeleteIndex    = "delete_index"
	OpIndexDocument  = "index_document"
	OpUpdateDocument = "update_document"
	OpDeleteDocument = "delete_document"
	OpSearch         = "search"
	OpCatalog        = "catalog"
	OpPing           = "ping"
)

// Instrumented wraps a Client with per-call timeouts, metrics and failure logs.
type Instrumented struct {
	inner   Client
	timeout time.Duration
	logger  *zap.Logger
}

var _ Client = (*Instrumented)(nil)

// NewInstrumented wraps inner. A zero timeout leaves caller deadlines untouched.
func NewInstrumented(inner Client, timeout time.Duration, logger *zap.Logger) *Instrumented {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Instrumented{inner: inner, timeout: timeout, logger: logger}
}

func (c *Instrumented) call(ctx context.Context, op, name string, fn func(ctx context.Context) error) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	metrics.EngineRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	result := "ok"
	if err != nil {
		var engErr *Error
		if !errors.As(err, &engErr) {
			engErr = NewTransportError(op, name, err)
			err = engErr
		}
		result = "error"
		if engErr.Unavailable() {
			result = "unavailable"
		}
		c.logger.Warn("Engine call failed",
			zap.String("op", op),
			zap.String("index", name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
	}
	metrics.EngineRequestsTotal.WithLabelValues(op, result).Inc()
	return err
}

// IndexExists implements Client.
func (c *Instrumented) IndexExists(ctx context.Context, name string) (bool, error) {
	var ok bool
	err := c.call(ctx, OpIndexExists, name, func(ctx context.Context) error {
		var err error
		ok, err = c.inner.IndexExists(ctx, name)
		return err
	})
	return ok, err
}

// CreateIndex implements Client.
func (c *Instrumented) CreateIndex(ctx context.Context, name string, definition json.RawMessage) error {
	return c.call(ctx, OpCreateIndex, name, func(ctx context.Context) error {
		return c.inner.CreateIndex(ctx, name, definition)
	})
}

// DeleteIndex implements Client.
func (c *Instrumented) DeleteIndex(ctx context.Context, name string) error {
	return c.call(ctx, OpDeleteIndex, name, func(ctx context.Context) error {
		return c.inner.DeleteIndex(ctx, name)
	})
}

// IndexDocument implements Client.
func (c *Instrumented) IndexDocument(
	ctx context.Context, name, docType, id string, doc json.RawMessage,
) (WriteResult, error) {
	var res WriteResult
	err := c.call(ctx, OpIndexDocument, name, func(ctx context.Context) error {
		var err error
		res, err = c.inner.IndexDocument(ctx, name, docType, id, doc)
		return err
	})
	return res, err
}

// UpdateDocument implements Client.
func (c *Instrumented) UpdateDocument(ctx context.Context, name, docType, id string, partial json.RawMessage) error {
	return c.call(ctx, OpUpdateDocument, name, func(ctx context.Context) error {
		return c.inner.UpdateDocument(ctx, name, docType, id, partial)
	})
}

// DeleteDocument implements Client.
func (c *Instrumented) DeleteDocument(ctx context.Context, name, docType, id string) error {
	return c.call(ctx, OpDeleteDocument, name, func(ctx context.Context) error {
		return c.inner.DeleteDocument(ctx, name, docType, id)
	})
}

// Search implements Client.
func (c *Instrumented) Search(ctx context.Context, name, docType string, body json.RawMessage) (SearchResult, error) {
	var res SearchResult
	err := c.call(ctx, OpSearch, name, func(ctx context.Context) error {
		var err error
		res, err = c.inner.Search(ctx, name, docType, body)
		return err
	})
	return res, err
}

// Catalog implements Client.
func (c *Instrumented) Catalog(ctx context.Context) ([]index.CatalogEntry, error) {
	var res []index.CatalogEntry
	err := c.call(ctx, OpCatalog, "", func(ctx context.Context) error {
		var err error
		res, err = c.inner.Catalog(ctx)
		return err
	})
	return res, err
}

// Ping implements Client.
func (c *Instrumented) Ping(ctx context.Context) error {
	return c.call(ctx, OpPing, "", c.inner.Ping)
}
