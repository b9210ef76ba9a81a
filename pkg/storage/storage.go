// Package storage is the core's narrow write-side contract onto the
// artifact storage collaborator: it writes rendered base artifacts to
// the fixed tenant/{tenant}/outputs/{job}/base_{i}.{ext} layout and
// nothing else. Reading artwork bytes is a separate, even narrower
// contract (baserender.ArtworkSource) since the core never needs to
// read back what it writes.
//
// Both directions are wrapped in httputil.RetryWithBackoff: bounded
// retries with exponential backoff, at most 3 attempts, for every
// storage operation.
package storage

import (
	"context"

	apperrors "github.com/GianGoulart/printer-queue-generation/pkg/errors"
	"github.com/GianGoulart/printer-queue-generation/pkg/httputil"
)

// ArtifactWriter persists one rendered base artifact at path, relative
// to whatever root the implementation is configured with.
type ArtifactWriter interface {
	Write(ctx context.Context, path string, data []byte) error
}

// WriteWithRetry calls w.Write, making at most three attempts in total
// with exponential backoff between them, and wraps any final failure as a
// structured STORAGE_WRITE_FAIL error.
func WriteWithRetry(ctx context.Context, w ArtifactWriter, path string, data []byte) error {
	err := httputil.RetryWithBackoff(ctx, func() error {
		if werr := w.Write(ctx, path, data); werr != nil {
			return &httputil.RetryableError{Err: werr}
		}
		return nil
	})
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorageWriteFail, err, "writing artifact %s", path)
	}
	return nil
}

// ArtifactReader fetches previously-written bytes at path. LocalStore
// implements it; no CLI command and not the core pipeline, which only
// writes, calls it.
type ArtifactReader interface {
	Read(ctx context.Context, path string) ([]byte, error)
}

// ReadWithRetry calls r.Read, making at most three attempts in total
// with exponential backoff between them, and wraps any final failure as a
// structured STORAGE_READ_FAIL error.
func ReadWithRetry(ctx context.Context, r ArtifactReader, path string) ([]byte, error) {
	var data []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		d, rerr := r.Read(ctx, path)
		if rerr != nil {
			return &httputil.RetryableError{Err: rerr}
		}
		data = d
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageReadFail, err, "reading artifact %s", path)
	}
	return data, nil
}
