package document

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/kailas-cloud/indexgate/internal/domain"
	"github.com/kailas-cloud/indexgate/internal/domain/apikey"
	"github.com/kailas-cloud/indexgate/internal/engine"
)

// --- Mocks ---

type mockGuard struct {
	err   error
	perm  apikey.Access
	index string
}

func (m *mockGuard) AuthorizeIndex(_ context.Context, _ string, perm apikey.Access, index string) (apikey.Key, error) {
	m.perm = perm
	m.index = index
	if m.err != nil {
		return apikey.Key{}, m.err
	}
	return apikey.Key{Name: "k", Access: apikey.ReadWrite, Indexes: []string{index}}, nil
}

type storedDoc struct {
	docType string
	body    json.RawMessage
}

type fakeEngine struct {
	indexes   map[string]map[string]storedDoc
	existsErr error
	calls     int
}

func newFakeEngine(indexes ...string) *fakeEngine {
	f := &fakeEngine{indexes: map[string]map[string]storedDoc{}}
	for _, name := range indexes {
		f.indexes[name] = map[string]storedDoc{}
	}
	return f
}

func (f *fakeEngine) IndexExists(_ context.Context, name string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.indexes[name]
	return ok, nil
}

func (f *fakeEngine) IndexDocument(
	_ context.Context, name, docType, id string, doc json.RawMessage,
) (engine.WriteResult, error) {
	f.calls++
	docs := f.indexes[name]
	if id == "" {
		id = "generated"
	}
	_, existed := docs[id]
	docs[id] = storedDoc{docType: docType, body: doc}
	if existed {
		return engine.Updated, nil
	}
	return engine.Created, nil
}

func (f *fakeEngine) UpdateDocument(_ context.Context, name, _, id string, partial json.RawMessage) error {
	f.calls++
	docs := f.indexes[name]
	cur, ok := docs[id]
	if !ok {
		return &engine.Error{
			Op:     engine.OpUpdateDocument,
			Index:  name,
			Status: http.StatusNotFound,
			Type:   "document_missing_exception",
		}
	}
	cur.body = partial
	docs[id] = cur
	return nil
}

func (f *fakeEngine) DeleteDocument(_ context.Context, name, _, id string) error {
	f.calls++
	docs := f.indexes[name]
	if _, ok := docs[id]; !ok {
		return &engine.Error{Op: engine.OpDeleteDocument, Index: name, Status: http.StatusNotFound, Reason: "not_found"}
	}
	delete(docs, id)
	return nil
}

// --- Tests ---

func TestAdd_CreatedThenUpdated(t *testing.T) {
	eng := newFakeEngine("books")
	g := &mockGuard{}
	svc := New(g, eng)
	ctx := context.Background()

	res, err := svc.Add(ctx, "k", "books", "book", "1", json.RawMessage(`{"title":"apple"}`))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if res != engine.Created {
		t.Errorf("first add = %q, want created", res)
	}
	if g.perm != apikey.ReadWrite || g.index != "books" {
		t.Errorf("guard called with %q/%q", g.perm, g.index)
	}

	res, err = svc.Add(ctx, "k", "books", "book", "1", json.RawMessage(`{"title":"Banana"}`))
	if err != nil {
		t.Fatalf("Add again: %v", err)
	}
	if res != engine.Updated {
		t.Errorf("second add = %q, want updated", res)
	}
	if got := eng.indexes["books"]["1"].docType; got != "book" {
		t.Errorf("stored type = %q", got)
	}
}

func TestAdd_InactiveIndex(t *testing.T) {
	eng := newFakeEngine()
	svc := New(&mockGuard{}, eng)

	_, err := svc.Add(context.Background(), "k", "books", "book", "1", json.RawMessage(`{}`))
	if !errors.Is(err, domain.ErrUnknownIndex) {
		t.Fatalf("expected ErrUnknownIndex, got %v", err)
	}
	if eng.calls != 0 {
		t.Errorf("engine write calls = %d, want 0", eng.calls)
	}
}

func TestAdd_GuardDenied(t *testing.T) {
	eng := newFakeEngine("books")
	svc := New(&mockGuard{err: domain.ErrPermissionDenied}, eng)

	_, err := svc.Add(context.Background(), "k", "books", "book", "1", json.RawMessage(`{}`))
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if len(eng.indexes["books"]) != 0 {
		t.Error("document written despite denial")
	}
}

func TestAdd_ExistsCheckFails(t *testing.T) {
	eng := newFakeEngine("books")
	eng.existsErr = engine.NewTransportError(engine.OpIndexExists, "books", context.DeadlineExceeded)
	svc := New(&mockGuard{}, eng)

	_, err := svc.Add(context.Background(), "k", "books", "book", "1", json.RawMessage(`{}`))
	if !errors.Is(err, domain.ErrEngineUnavailable) {
		t.Fatalf("expected ErrEngineUnavailable, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	eng := newFakeEngine("books")
	svc := New(&mockGuard{}, eng)
	ctx := context.Background()

	err := svc.Update(ctx, "k", "books", "book", "missing", json.RawMessage(`{"a":1}`))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !errors.Is(err, domain.ErrEngine) {
		t.Errorf("engine detail lost: %v", err)
	}

	if _, err := svc.Add(ctx, "k", "books", "book", "1", json.RawMessage(`{"a":0}`)); err != nil {
		t.Fatal(err)
	}
	if err := svc.Update(ctx, "k", "books", "book", "1", json.RawMessage(`{"a":1}`)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := string(eng.indexes["books"]["1"].body); got != `{"a":1}` {
		t.Errorf("body = %s", got)
	}
}

func TestRemove(t *testing.T) {
	eng := newFakeEngine("books")
	svc := New(&mockGuard{}, eng)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "k", "books", "book", "1", json.RawMessage(`{}`)); err != nil {
		t.Fatal(err)
	}
	if err := svc.Remove(ctx, "k", "books", "book", "1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := svc.Remove(ctx, "k", "books", "book", "1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second remove: expected ErrNotFound, got %v", err)
	}
}

func TestNotFound_OtherStatusUntouched(t *testing.T) {
	err := notFound(&engine.Error{Op: engine.OpDeleteDocument, Status: http.StatusConflict})
	if errors.Is(err, domain.ErrNotFound) {
		t.Error("409 must not map to ErrNotFound")
	}
	plain := errors.New("boom")
	if got := notFound(plain); got != plain { //nolint:errorlint // identity check
		t.Error("non-engine error must pass through")
	}
}
