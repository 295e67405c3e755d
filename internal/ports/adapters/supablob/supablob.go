// Package supablob stores transient artifacts in a Supabase Storage bucket.
package supablob

import (
	"bytes"
	"context"
	"fmt"
	"io"

	supa "github.com/supabase-community/supabase-go"
)

// storage is the part of the Supabase Storage client the store uses. The
// upstream client takes no context, so cancellation is checked before each
// call only.
type storage interface {
	upload(bucket, key string, r io.Reader) error
	download(bucket, key string) ([]byte, error)
	remove(bucket string, keys []string) error
}

type Store struct {
	s      storage
	bucket string
}

func New(url, key, bucket string) (*Store, error) {
	client, err := supa.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("supabase client: %w", err)
	}
	return &Store{s: clientStorage{c: client}, bucket: bucket}, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.s.upload(s.bucket, key, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("supabase upload %s: %w", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := s.s.download(s.bucket, key)
	if err != nil {
		return nil, fmt.Errorf("supabase download %s: %w", key, err)
	}
	return b, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.s.remove(s.bucket, []string{key}); err != nil {
		return fmt.Errorf("supabase remove %s: %w", key, err)
	}
	return nil
}

func (s *Store) URI(key string) string {
	return fmt.Sprintf("supabase://%s/%s", s.bucket, key)
}

type clientStorage struct {
	c *supa.Client
}

func (c clientStorage) upload(bucket, key string, r io.Reader) error {
	_, err := c.c.Storage.UploadFile(bucket, key, r)
	return err
}

func (c clientStorage) download(bucket, key string) ([]byte, error) {
	return c.c.Storage.DownloadFile(bucket, key)
}

func (c clientStorage) remove(bucket string, keys []string) error {
	_, err := c.c.Storage.RemoveFile(bucket, keys)
	return err
}
