package testsupport

import (
	"context"
	"encoding/json"
	"testing"

	"subvoice/internal/config"
	"subvoice/internal/logging"
	"subvoice/internal/profiles"
)

// MustOpenStore returns the profile store configured by cfg.
func MustOpenStore(t testing.TB, cfg *config.Config) *profiles.Store {
	t.Helper()
	return profiles.NewStore(cfg.Paths.ProfileStore, logging.NewNop())
}

// Enroll stores a profile with a placeholder embedding.
func Enroll(t testing.TB, store *profiles.Store, name string, style profiles.Style) {
	t.Helper()

	embedding, _ := json.Marshal("vp-" + name)
	if err := store.Put(context.Background(), name, profiles.Profile{Embedding: embedding, Style: style}); err != nil {
		t.Fatalf("store.Put(%s): %v", name, err)
	}
}
