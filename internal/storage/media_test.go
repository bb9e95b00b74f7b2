package storage

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestMediaStore(t *testing.T) {
	store, err := NewMediaStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewMediaStore: %v", err)
	}

	t.Run("save and read round trip", func(t *testing.T) {
		id := uuid.Must(uuid.NewV7())
		payload := []byte("fake jpeg bytes")

		relPath, err := store.Save(id, "photo.JPG", bytes.NewReader(payload))
		if err != nil {
			t.Fatalf("Save: %v", err)
		}

		if relPath != id.String()+".jpg" {
			t.Errorf("relPath = %q, want %q", relPath, id.String()+".jpg")
		}

		got, err := store.Read(relPath)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}

		if !bytes.Equal(got, payload) {
			t.Errorf("Read returned %q, want %q", got, payload)
		}
	})

	t.Run("rejects unsupported extensions", func(t *testing.T) {
		_, err := store.Save(uuid.Must(uuid.NewV7()), "malware.exe", bytes.NewReader(nil))
		if !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("err = %v, want ErrUnsupportedType", err)
		}
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		id := uuid.Must(uuid.NewV7())

		relPath, err := store.Save(id, "a.png", bytes.NewReader([]byte("png")))
		if err != nil {
			t.Fatalf("Save: %v", err)
		}

		if err := store.Remove(relPath); err != nil {
			t.Fatalf("Remove: %v", err)
		}

		if err := store.Remove(relPath); err != nil {
			t.Errorf("second Remove: %v, want nil", err)
		}
	})
}
