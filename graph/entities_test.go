package graph

import (
	"context"
	"encoding/json"
	"testing"
)

func TestInsertEntityAssignsMonotonicIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id1, err := s.InsertEntity(ctx, "file", "a.go", nil, nil)
	if err != nil {
		t.Fatalf("InsertEntity: %v", err)
	}
	id2, err := s.InsertEntity(ctx, "file", "b.go", nil, nil)
	if err != nil {
		t.Fatalf("InsertEntity: %v", err)
	}
	if id2 <= id1 {
		t.Fatalf("want id2 > id1, got id1=%d id2=%d", id1, id2)
	}

	if err := s.DeleteEntity(ctx, id2); err != nil {
		t.Fatalf("DeleteEntity: %v", err)
	}
	id3, err := s.InsertEntity(ctx, "file", "c.go", nil, nil)
	if err != nil {
		t.Fatalf("InsertEntity: %v", err)
	}
	if id3 <= id2 {
		t.Fatalf("want id3 > id2 even after delete, got id2=%d id3=%d", id2, id3)
	}
}

func TestInsertEntityRejectsEmptyKindOrName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		kind     string
		entity   string
	}{
		{"empty kind", "", "a.go"},
		{"empty name", "file", ""},
		{"both empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.InsertEntity(ctx, tt.kind, tt.entity, nil, nil)
			if !Is(err, KindInvalidInput) {
				t.Fatalf("want KindInvalidInput, got %v", err)
			}
		})
	}
}

func TestInsertEntityDefaultsEmptyData(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.InsertEntity(ctx, "file", "a.go", nil, nil)
	if err != nil {
		t.Fatalf("InsertEntity: %v", err)
	}
	e, err := s.GetEntity(ctx, id)
	if err != nil {
		t.Fatalf("GetEntity: %v", err)
	}
	if string(e.Data) != "{}" {
		t.Fatalf("want {}, got %s", e.Data)
	}
}

func TestGetEntityNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetEntity(context.Background(), 999)
	if !Is(err, KindNotFound) {
		t.Fatalf("want KindNotFound, got %v", err)
	}
}

func TestEntityExists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.InsertEntity(ctx, "file", "a.go", nil, nil)
	if err != nil {
		t.Fatalf("InsertEntity: %v", err)
	}

	exists, err := s.EntityExists(ctx, id)
	if err != nil {
		t.Fatalf("EntityExists: %v", err)
	}
	if !exists {
		t.Fatal("want true")
	}

	exists, err = s.EntityExists(ctx, id+1000)
	if err != nil {
		t.Fatalf("EntityExists: %v", err)
	}
	if exists {
		t.Fatal("want false")
	}
}

func TestUpdateEntity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.InsertEntity(ctx, "file", "a.go", nil, nil)
	if err != nil {
		t.Fatalf("InsertEntity: %v", err)
	}

	path := "new/path.go"
	data := json.RawMessage(`{"x":1}`)
	if err := s.UpdateEntity(ctx, id, "symbol", "b.go", &path, data); err != nil {
		t.Fatalf("UpdateEntity: %v", err)
	}

	e, err := s.GetEntity(ctx, id)
	if err != nil {
		t.Fatalf("GetEntity: %v", err)
	}
	if e.Kind != "symbol" || e.Name != "b.go" || e.FilePath == nil || *e.FilePath != path {
		t.Fatalf("unexpected entity after update: %+v", e)
	}
	if string(e.Data) != `{"x":1}` {
		t.Fatalf("want data preserved, got %s", e.Data)
	}
}

func TestUpdateEntityRejectsEmptyKindOrName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.InsertEntity(ctx, "file", "a.go", nil, nil)
	if err != nil {
		t.Fatalf("InsertEntity: %v", err)
	}
	if err := s.UpdateEntity(ctx, id, "", "b.go", nil, nil); !Is(err, KindInvalidInput) {
		t.Fatalf("want KindInvalidInput, got %v", err)
	}
}

func TestUpdateEntityNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateEntity(context.Background(), 999, "file", "a.go", nil, nil)
	if !Is(err, KindNotFound) {
		t.Fatalf("want KindNotFound, got %v", err)
	}
}

func TestDeleteEntityNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.DeleteEntity(context.Background(), 999)
	if !Is(err, KindNotFound) {
		t.Fatalf("want KindNotFound, got %v", err)
	}
}

func TestDeleteEntityDoesNotCascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.InsertEntity(ctx, "file", "a.go", nil, nil)
	if err != nil {
		t.Fatalf("InsertEntity: %v", err)
	}
	b, err := s.InsertEntity(ctx, "file", "b.go", nil, nil)
	if err != nil {
		t.Fatalf("InsertEntity: %v", err)
	}
	edgeID, err := s.InsertEdge(ctx, a, b, "CALLS", nil)
	if err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}

	if err := s.DeleteEntity(ctx, a); err != nil {
		t.Fatalf("DeleteEntity: %v", err)
	}

	// The edge row survives as an orphan; DeleteEntity never cascades.
	edge, err := s.GetEdge(ctx, edgeID)
	if err != nil {
		t.Fatalf("GetEdge: %v", err)
	}
	if edge.FromID != a {
		t.Fatalf("want orphaned edge to retain from_id %d, got %d", a, edge.FromID)
	}
}

func TestAllEntityIDsAscending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var want []int64
	for i := 0; i < 5; i++ {
		id, err := s.InsertEntity(ctx, "file", "f.go", nil, nil)
		if err != nil {
			t.Fatalf("InsertEntity: %v", err)
		}
		want = append(want, id)
	}

	got, err := s.AllEntityIDs(ctx)
	if err != nil {
		t.Fatalf("AllEntityIDs: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("want %d ids, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids out of order: want %v, got %v", want, got)
		}
	}
}
