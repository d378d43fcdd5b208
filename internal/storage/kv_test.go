package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestKV(t *testing.T) *KV {
	t.Helper()
	kv, err := OpenKV(filepath.Join(t.TempDir(), "finview.db"))
	if err != nil {
		t.Fatalf("open kv: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return kv
}

func TestKVSetGetDelete(t *testing.T) {
	ctx := context.Background()
	kv := openTestKV(t)

	if v, err := kv.Get(ctx, "access_token"); err != nil || v != "" {
		t.Fatalf("expected empty for missing key, got %q (%v)", v, err)
	}

	if err := kv.Set(ctx, "access_token", "tok1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, _ := kv.Get(ctx, "access_token"); v != "tok1" {
		t.Fatalf("expected tok1, got %q", v)
	}

	// Upsert overwrites.
	if err := kv.Set(ctx, "access_token", "tok2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v, _ := kv.Get(ctx, "access_token"); v != "tok2" {
		t.Fatalf("expected tok2, got %q", v)
	}

	if err := kv.Delete(ctx, "access_token"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if v, _ := kv.Get(ctx, "access_token"); v != "" {
		t.Fatalf("expected empty after delete, got %q", v)
	}
}

func TestKVSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "finview.db")

	kv, err := OpenKV(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := kv.Set(ctx, "refresh_token", "r1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	kv.Close()

	kv2, err := OpenKV(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer kv2.Close()
	if v, _ := kv2.Get(ctx, "refresh_token"); v != "r1" {
		t.Fatalf("expected persisted value, got %q", v)
	}
}
