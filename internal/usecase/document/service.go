// Package document writes tenant documents into active indexes.
package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/kailas-cloud/indexgate/internal/domain"
	"github.com/kailas-cloud/indexgate/internal/domain/apikey"
	"github.com/kailas-cloud/indexgate/internal/engine"
)

// Service handles document add, update and remove for rw keys.
type Service struct {
	guard  Authorizer
	engine Engine
}

// New creates a document service.
func New(guard Authorizer, engine Engine) *Service {
	return &Service{guard: guard, engine: engine}
}

// Add stores doc under id, or under an engine-assigned id when id is empty.
// Writing into an index that has not been activated fails with ErrUnknownIndex,
// so the engine never creates an index without the compiled schema.
func (s *Service) Add(
	ctx context.Context, key, index, docType, id string, doc json.RawMessage,
) (engine.WriteResult, error) {
	if err := s.authorize(ctx, key, index); err != nil {
		return "", err
	}
	if err := s.requireActive(ctx, index); err != nil {
		return "", err
	}

	res, err := s.engine.IndexDocument(ctx, index, docType, id, doc)
	if err != nil {
		return "", fmt.Errorf("index document: %w", err)
	}
	return res, nil
}

// Update merges partial into the document id.
func (s *Service) Update(ctx context.Context, key, index, docType, id string, partial json.RawMessage) error {
	if err := s.authorize(ctx, key, index); err != nil {
		return err
	}
	if err := s.requireActive(ctx, index); err != nil {
		return err
	}
	if err := s.engine.UpdateDocument(ctx, index, docType, id, partial); err != nil {
		return fmt.Errorf("update document: %w", notFound(err))
	}
	return nil
}

// Remove deletes the document id.
func (s *Service) Remove(ctx context.Context, key, index, docType, id string) error {
	if err := s.authorize(ctx, key, index); err != nil {
		return err
	}
	if err := s.requireActive(ctx, index); err != nil {
		return err
	}
	if err := s.engine.DeleteDocument(ctx, index, docType, id); err != nil {
		return fmt.Errorf("delete document: %w", notFound(err))
	}
	return nil
}

func (s *Service) authorize(ctx context.Context, key, index string) error {
	_, err := s.guard.AuthorizeIndex(ctx, key, apikey.ReadWrite, index)
	return err //nolint:wrapcheck // authorization errors pass through as is
}

func (s *Service) requireActive(ctx context.Context, index string) error {
	exists, err := s.engine.IndexExists(ctx, index)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s is not active", domain.ErrUnknownIndex, index)
	}
	return nil
}

// notFound adds ErrNotFound to an engine 404 so callers can tell a missing
// document from other engine failures. The engine detail is kept.
func notFound(err error) error {
	var engErr *engine.Error
	if errors.As(err, &engErr) && engErr.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}
	return err
}
