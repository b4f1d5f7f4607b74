package adapter

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"
)

// Storage keeps raw generation outputs as objects
type Storage interface {
	// Put writes data under key
	Put(ctx context.Context, key string, data []byte) error
	// Get reads data stored under key
	Get(ctx context.Context, key string) ([]byte, error)
}

// storageClient implements Storage interface using Cloud Storage
type storageClient struct {
	bucketName string
	prefix     string
	client     *storage.Client
}

// NewStorage creates a new Cloud Storage client. Keys are placed under prefix.
func NewStorage(ctx context.Context, bucketName, prefix string, opts ...option.ClientOption) (Storage, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &storageClient{
		bucketName: bucketName,
		prefix:     prefix,
		client:     client,
	}, nil
}

func (s *storageClient) Put(ctx context.Context, key string, data []byte) error {
	obj := s.client.Bucket(s.bucketName).Object(s.prefix + key)
	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write object", goerr.V("bucket", s.bucketName), goerr.V("key", key))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to close object writer", goerr.V("bucket", s.bucketName), goerr.V("key", key))
	}
	return nil
}

func (s *storageClient) Get(ctx context.Context, key string) ([]byte, error) {
	obj := s.client.Bucket(s.bucketName).Object(s.prefix + key)
	reader, err := obj.NewReader(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read from storage", goerr.V("bucket", s.bucketName), goerr.V("key", key))
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read object body", goerr.V("key", key))
	}
	return data, nil
}
