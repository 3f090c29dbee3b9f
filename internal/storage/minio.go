package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// shareLinkTTL bounds presigned links; seven days is the presign maximum.
const shareLinkTTL = 7 * 24 * time.Hour

type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(endpoint, accessKey, secretKey string, useSSL bool, bucket string) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}

	return &MinioStore{client: client, bucket: bucket}, nil
}

// RenderedObjectKey builds the per-run key for a rendered document. Every
// run gets a fresh key (timestamp + nonce), so a regeneration never
// overwrites an earlier upload.
func RenderedObjectKey(submissionID int64, filename string, now time.Time, nonce string) string {
	base := strings.TrimSuffix(filename, ".pdf")
	return fmt.Sprintf("submissions/%d/%s_%d_%s.pdf", submissionID, base, now.Unix(), nonce)
}

// PutRendered uploads a rendered document under a fresh per-run key and
// returns the object key plus a presigned share link.
func (m *MinioStore) PutRendered(ctx context.Context, submissionID int64, filename string, content []byte) (string, string, error) {
	objectKey := RenderedObjectKey(submissionID, filename, time.Now().UTC(), uuid.NewString()[:8])
	_, err := m.client.PutObject(ctx, m.bucket, objectKey, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return "", "", err
	}
	link, err := m.shareLink(ctx, objectKey)
	if err != nil {
		return "", "", err
	}
	return objectKey, link, nil
}

// PutAttachment stores a user-uploaded intake file and returns its share link.
func (m *MinioStore) PutAttachment(ctx context.Context, filename string, content []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	objectKey := path.Join("attachments", uuid.NewString(), filename)
	_, err := m.client.PutObject(ctx, m.bucket, objectKey, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return m.shareLink(ctx, objectKey)
}

func (m *MinioStore) GetObject(ctx context.Context, objectKey string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data := new(bytes.Buffer)
	if _, err := data.ReadFrom(obj); err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return data.Bytes(), nil
}

func (m *MinioStore) shareLink(ctx context.Context, objectKey string) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, objectKey, shareLinkTTL, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
