package stores

import (
	"context"
	"path/filepath"
	"testing"

	"doodle-server/core"
)

func TestGetStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, cfg := range []Config{
		{},
		{Type: "filesystem", LocalPath: filepath.Join(dir, "files")},
		{Type: "sqlite", DataSourceName: filepath.Join(dir, "doodle.db")},
	} {
		store, err := GetStore(ctx, cfg)
		if err != nil {
			t.Fatalf("GetStore(%+v) failed: %v", cfg, err)
		}
		id, err := store.Save(ctx, &core.Artifact{ContentType: "image/png", Data: []byte("x")})
		if err != nil {
			t.Fatalf("%s: Save() failed: %v", cfg.Type, err)
		}
		if _, err := store.Get(ctx, id); err != nil {
			t.Errorf("%s: Get() failed: %v", cfg.Type, err)
		}
	}
}

func TestGetStore_S3RequiresBucket(t *testing.T) {
	if _, err := GetStore(context.Background(), Config{Type: "s3"}); err == nil {
		t.Error("GetStore() with s3 and no bucket should fail")
	}
}
