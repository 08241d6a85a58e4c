package indexgate

import (
	"encoding/json"
	"time"

	"github.com/kailas-cloud/indexgate/internal/domain/apikey"
	"github.com/kailas-cloud/indexgate/internal/domain/index"
	"github.com/kailas-cloud/indexgate/internal/domain/mapping"
	"github.com/kailas-cloud/indexgate/internal/domain/query"
	lifecycleuc "github.com/kailas-cloud/indexgate/internal/usecase/lifecycle"
)

// Records shared with the server.
type (
	// Mapping is the declarative schema of one index.
	Mapping = mapping.Mapping
	// Field describes how one document field is indexed.
	Field = mapping.Field
	// Key is an API key record.
	Key = apikey.Key
	// Access is the permission level of a key.
	Access = apikey.Access
	// IndexSummary describes one index visible to a key.
	IndexSummary = index.Summary
	// CatalogEntry is one physical index as reported by the engine.
	CatalogEntry = index.CatalogEntry
	// SearchResult is the flattened search envelope.
	SearchResult = query.Result
	// Hit is one flattened search result.
	Hit = query.Hit
	// CountResult carries aggregation buckets only.
	CountResult = query.CountResult
	// RemoveReport records which steps of an index removal took effect.
	RemoveReport = lifecycleuc.RemoveReport
	// TransitionResult is the outcome of activate and flush.
	TransitionResult = lifecycleuc.Result
)

// Access levels.
const (
	Read      = apikey.Read
	ReadWrite = apikey.ReadWrite
)

// WriteResult tells whether a document write created or replaced.
type WriteResult struct {
	Index  string `json:"index"`
	Type   string `json:"type"`
	ID     string `json:"id"`
	Result string `json:"result"`
}

// Created reports whether no document with the id existed before.
func (w WriteResult) Created() bool { return w.Result == "created" }

// KeyEntry pairs a key secret with its record.
type KeyEntry struct {
	Key    string `json:"key"`
	Record Key    `json:"record"`
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            `json:"status"` // "ok", "degraded", "error"
	Checks map[string]string `json:"checks"` // component → "ok"/"error"
	Time   time.Time         `json:"time"`
}

// Token is a tenant session token.
type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type mappingCreated struct {
	Index   string          `json:"index"`
	Mapping json.RawMessage `json:"mapping"`
}

type keyCreated struct {
	Key string `json:"key"`
}
