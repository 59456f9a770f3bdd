package source

import (
	"context"
	"fmt"
	"image"
	"sort"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// NewClient creates a MinIO/S3 client with static credentials.
func NewClient(endpoint, accessKey, secretKey string, secure bool) (*minio.Client, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("source: minio client for %q: %w", endpoint, err)
	}
	return client, nil
}

// Bucket lists image objects under prefix in an S3-compatible bucket, sorted
// by key. Objects are downloaded lazily when an entity is loaded.
func Bucket(ctx context.Context, client *minio.Client, bucket, prefix string) ([]Entity, error) {
	if client == nil {
		return nil, fmt.Errorf("source: minio client is nil")
	}
	var keys []string
	for obj := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("source: list %s/%s: %w", bucket, prefix, obj.Err)
		}
		if IsImage(obj.Key) {
			keys = append(keys, obj.Key)
		}
	}
	sort.Strings(keys)
	out := make([]Entity, 0, len(keys))
	for _, key := range keys {
		out = append(out, Entity{
			ID:   Identifier(key),
			Load: func(ctx context.Context) (image.Image, error) { return getObject(ctx, client, bucket, key) },
		})
	}
	return out, nil
}

func getObject(ctx context.Context, client *minio.Client, bucket, key string) (image.Image, error) {
	obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("source: get %s/%s: %w", bucket, key, err)
	}
	defer obj.Close()
	img, err := Decode(obj)
	if err != nil {
		return nil, fmt.Errorf("source: %s/%s: %w", bucket, key, err)
	}
	return img, nil
}
