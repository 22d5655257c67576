package storage

import (
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/invoicestack/config"
)

type fakeS3Client struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newFakeS3Client() *fakeS3Client {
	return &fakeS3Client{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3Client) Upload(_ context.Context, input s3manager.UploadInput) error {
	if f.err != nil {
		return f.err
	}
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return err
	}
	key := aws.StringValue(input.Bucket) + "/" + aws.StringValue(input.Key)
	f.objects[key] = data
	f.types[key] = aws.StringValue(input.ContentType)
	return nil
}

func (f *fakeS3Client) Delete(_ context.Context, bucket, key string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.objects, bucket+"/"+key)
	return nil
}

func TestObjectStorageService_UploadDelete(t *testing.T) {
	client := newFakeS3Client()
	service := NewStorageService(client, "invoice-documents")
	ctx := context.Background()

	require.NoError(t, service.Upload(ctx, "invoices/u-1/inv_1.pdf", []byte("%PDF"), "application/pdf"))
	assert.Equal(t, "application/pdf", client.types["invoice-documents/invoices/u-1/inv_1.pdf"])
	assert.Equal(t, []byte("%PDF"), client.objects["invoice-documents/invoices/u-1/inv_1.pdf"])

	require.NoError(t, service.Delete(ctx, "invoices/u-1/inv_1.pdf"))
	assert.NotContains(t, client.objects, "invoice-documents/invoices/u-1/inv_1.pdf")
}

func TestObjectStorageService_WrapsClientErrors(t *testing.T) {
	client := newFakeS3Client()
	client.err = errors.New("connection reset")
	service := NewStorageService(client, "invoice-documents")

	err := service.Upload(context.Background(), "k", []byte("x"), "image/png")
	assert.ErrorContains(t, err, "failed to upload k")
}

func TestDocumentKey(t *testing.T) {
	assert.Equal(t, "invoices/u-1/inv_1.pdf", DocumentKey("u-1", "inv_1", "Invoice.PDF", "application/octet-stream"))
	assert.Equal(t, "invoices/u-1/inv_1.jpg", DocumentKey("u-1", "inv_1", "scan", "image/jpeg"))
	assert.Equal(t, "invoices/u-1/inv_1.bin", DocumentKey("u-1", "inv_1", "", "application/octet-stream"))
}

func TestNewR2StorageService_DisabledWithoutCredentials(t *testing.T) {
	service, err := NewR2StorageService(&config.R2StorageConfig{DocumentBucket: "invoice-documents"})

	require.NoError(t, err)
	assert.Nil(t, service)
}
