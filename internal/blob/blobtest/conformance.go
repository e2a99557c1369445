// Package blobtest holds behaviour checks every blob backend must pass.
package blobtest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"contactbook/internal/blob/core"
)

// Run exercises the core.Store contract against a fresh store from newStore.
func Run(t *testing.T, newStore func(t *testing.T) core.Store) {
	t.Helper()
	t.Run("put get head", func(t *testing.T) { putGetHead(t, newStore(t)) })
	t.Run("create only", func(t *testing.T) { createOnly(t, newStore(t)) })
	t.Run("missing keys", func(t *testing.T) { missing(t, newStore(t)) })
	t.Run("delete", func(t *testing.T) { deleteKey(t, newStore(t)) })
	t.Run("list by prefix", func(t *testing.T) { listPrefix(t, newStore(t)) })
}

func putGetHead(t *testing.T, s core.Store) {
	ctx := context.Background()
	info, err := s.Put(ctx, "exports/a.json", bytes.NewReader([]byte(`[{"lastname":"Doe"}]`)),
		core.PutOptions{ContentType: "application/json", Metadata: map[string]string{"records": "1"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "exports/a.json" || info.Size != 20 {
		t.Fatalf("unexpected put info %+v", info)
	}
	head, err := s.Head(ctx, "exports/a.json")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.ContentType != "application/json" || head.Metadata["records"] != "1" {
		t.Fatalf("unexpected head info %+v", head)
	}
	got, rc, err := s.Get(ctx, "exports/a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(body) != `[{"lastname":"Doe"}]` {
		t.Fatalf("unexpected body %q", body)
	}
	if got.ETag == "" || got.ETag != head.ETag {
		t.Fatalf("etag mismatch get=%q head=%q", got.ETag, head.ETag)
	}
	got.Metadata["records"] = "changed"
	again, err := s.Head(ctx, "exports/a.json")
	if err != nil || again.Metadata["records"] != "1" {
		t.Fatalf("metadata aliased: %+v %v", again, err)
	}
}

func createOnly(t *testing.T, s core.Store) {
	ctx := context.Background()
	if _, err := s.Put(ctx, "k.txt", bytes.NewReader([]byte("one")), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	_, err := s.Put(ctx, "k.txt", bytes.NewReader([]byte("two")), core.PutOptions{})
	if !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	_, rc, err := s.Get(ctx, "k.txt")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	if b, _ := io.ReadAll(rc); string(b) != "one" {
		t.Fatalf("existing blob overwritten: %q", b)
	}
}

func missing(t *testing.T, s core.Store) {
	ctx := context.Background()
	if _, _, err := s.Get(ctx, "nope.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Head(ctx, "nope.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("head: expected ErrNotFound, got %v", err)
	}
}

func deleteKey(t *testing.T, s core.Store) {
	ctx := context.Background()
	if _, err := s.Put(ctx, "d.txt", bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	ok, err := s.Delete(ctx, "d.txt")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	ok, err = s.Delete(ctx, "d.txt")
	if err != nil || ok {
		t.Fatalf("second delete should report false: %v %v", ok, err)
	}
}

func listPrefix(t *testing.T, s core.Store) {
	ctx := context.Background()
	for _, k := range []string{"exports/c.csv", "exports/a.json", "other/x", "exports/b.json"} {
		if _, err := s.Put(ctx, k, bytes.NewReader([]byte(k)), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	list, err := s.List(ctx, "exports/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"exports/a.json", "exports/b.json", "exports/c.csv"}
	if len(list) != len(want) {
		t.Fatalf("list returned %d entries, want %d: %+v", len(list), len(want), list)
	}
	for i, k := range want {
		if list[i].Key != k {
			t.Fatalf("entry %d: got %s want %s", i, list[i].Key, k)
		}
	}
	all, err := s.List(ctx, "")
	if err != nil || len(all) != 4 {
		t.Fatalf("list all: %v len=%d", err, len(all))
	}
	none, err := s.List(ctx, "nothing/")
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("empty list should be non-nil and empty: %v %v", none, err)
	}
}
