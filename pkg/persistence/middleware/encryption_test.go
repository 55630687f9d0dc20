package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/ArnavBalyan/concierge/pkg/adapters/memory"
	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/persistence/middleware"
	"github.com/ArnavBalyan/concierge/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func encrypted(t *testing.T, next ports.SessionStore, cfg middleware.EncryptionConfig) ports.SessionStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	if err != nil {
		t.Fatalf("NewEncryptionMiddleware() failed: %v", err)
	}
	return mw(next)
}

func newSession(id string) *domain.Session {
	wf := &domain.Workflow{Name: "shop", Stages: []*domain.Stage{{Name: "browse"}}}
	return domain.NewSession(id, wf)
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	ctx := context.Background()
	sess := newSession("test-session")
	if err := sess.State.Set("user.card", "4111-1111"); err != nil {
		t.Fatal(err)
	}

	if err := secure.Save(ctx, sess.ID, sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	stored, err := underlying.Load(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if stored.State.Exists("user.card") {
		t.Fatal("Expected state to be hidden")
	}
	if stored.Workflow != "" || stored.CurrentStage != "" {
		t.Errorf("Expected workflow position to be hidden, got %q/%q", stored.Workflow, stored.CurrentStage)
	}

	loaded, err := secure.Load(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if v, _ := loaded.State.Get("user.card"); v != "4111-1111" {
		t.Errorf("Expected '4111-1111', got %v", v)
	}
	if loaded.CurrentStage != "browse" || loaded.Workflow != "shop" {
		t.Errorf("Session position lost: %+v", loaded)
	}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, encrypted(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	ctx := context.Background()
	secureOld := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	sess := newSession("rotation-session")
	_ = sess.State.Set("data", "encrypted-with-old-key")

	if err := secureOld.Save(ctx, sess.ID, sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	secureNew := encrypted(t, underlying, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	loaded, err := secureNew.Load(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	if v, _ := loaded.State.Get("data"); v != "encrypted-with-old-key" {
		t.Errorf("Decryption with fallback key failed, got %v", v)
	}

	_ = loaded.State.Set("data", "encrypted-with-new-key")
	if err := secureNew.Save(ctx, sess.ID, loaded); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}

	if _, err := secureOld.Load(ctx, sess.ID); err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_RejectsPlaintext(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	sess := newSession("plain")
	if err := underlying.Save(ctx, sess.ID, sess); err != nil {
		t.Fatal(err)
	}

	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	if _, err := secure.Load(ctx, sess.ID); err == nil {
		t.Error("Expected plaintext session to be rejected")
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	if _, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")}); err == nil {
		t.Error("Expected error for invalid key size")
	}
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	if err == nil {
		t.Error("Expected error for invalid fallback key size")
	}
}
