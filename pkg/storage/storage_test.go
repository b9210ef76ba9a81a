package storage

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	apperrors "github.com/GianGoulart/printer-queue-generation/pkg/errors"
)

func TestLocalStoreWriteRead(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	path := "tenant/acme/outputs/job-1/base_1.pdf"
	want := []byte("%PDF-1.4 fake")

	if err := WriteWithRetry(context.Background(), store, path, want); err != nil {
		t.Fatalf("WriteWithRetry: %v", err)
	}

	got, err := ReadWithRetry(context.Background(), store, path)
	if err != nil {
		t.Fatalf("ReadWithRetry: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Read() = %q, want %q", got, want)
	}

	if _, err := filepath.Abs(filepath.Join(dir, path)); err != nil {
		t.Fatalf("computing abs path: %v", err)
	}
}

type failingWriter struct {
	failures int
	calls    int
}

func (f *failingWriter) Write(ctx context.Context, path string, data []byte) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("transient failure")
	}
	return nil
}

func TestWriteWithRetry_RetriesThenSucceeds(t *testing.T) {
	if testing.Short() {
		t.Skip("exercises the real 1s/2s backoff delay")
	}
	w := &failingWriter{failures: 2}
	if err := WriteWithRetry(context.Background(), w, "p", []byte("x")); err != nil {
		t.Fatalf("WriteWithRetry: %v", err)
	}
	if w.calls != 3 {
		t.Errorf("calls = %d, want 3", w.calls)
	}
}

func TestWriteWithRetry_ExhaustsRetries(t *testing.T) {
	if testing.Short() {
		t.Skip("exercises the real 1s/2s backoff delay")
	}
	w := &failingWriter{failures: 10}
	err := WriteWithRetry(context.Background(), w, "p", []byte("x"))
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if apperrors.GetCode(err) != apperrors.CodeStorageWriteFail {
		t.Errorf("code = %v, want %v", apperrors.GetCode(err), apperrors.CodeStorageWriteFail)
	}
	if w.calls != 3 {
		t.Errorf("calls = %d, want 3 (bounded retries)", w.calls)
	}
}
