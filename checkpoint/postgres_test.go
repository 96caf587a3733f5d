package checkpoint

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
)

// Runs against a real database when PROTIFY_TEST_DATABASE_URL is set.
func TestPGStore(t *testing.T) {
	url := os.Getenv("PROTIFY_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("PROTIFY_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	store, err := OpenPG(ctx, url, uuid.New())
	if err != nil {
		t.Fatalf("OpenPG error: %v", err)
	}
	defer store.Close()

	id := "test-" + uuid.NewString()
	for range 2 {
		if err := store.Commit(ctx, id); err != nil {
			t.Fatalf("Commit error: %v", err)
		}
	}
	if err := store.CommitBatch(ctx, []string{id, id + "-b"}); err != nil {
		t.Fatalf("CommitBatch error: %v", err)
	}

	done, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !done.Has(id) || !done.Has(id+"-b") {
		t.Fatalf("committed ids missing")
	}

	_, _ = store.pool.Exec(ctx, `DELETE FROM protify_checkpoints WHERE tic = ANY($1)`, []string{id, id + "-b"})
}
