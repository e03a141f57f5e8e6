package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockS3Client struct {
	objects map[string][]byte
	puts    []string
	putErr  error
	getErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	body, _ := io.ReadAll(in.Body)
	m.objects[*in.Key] = body
	m.puts = append(m.puts, *in.Key)
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.objects[*in.Key]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func newTestArchive(client S3API) *ReceiptArchive {
	a := NewReceiptArchive(client, "receipts-bucket", nil)
	a.now = func() time.Time { return time.Date(2026, 3, 4, 11, 0, 0, 0, time.UTC) }
	return a
}

func TestReceiptKey(t *testing.T) {
	o := sampleOrder()
	assert.Equal(t, "receipts/v1/by-date/2026/03/04/ORD654321_6f1c2b8e-0d4a-4f7e-9a51-3c2d1e0b9a77.json", ReceiptKey(o, o.PlacedAt))
	o.Key = ""
	assert.Equal(t, "receipts/v1/by-date/2026/03/04/ORD654321.json", ReceiptKey(o, o.PlacedAt))
}

func TestReceiptArchiveWritesReceiptAndManifest(t *testing.T) {
	mock := newMockS3()
	a := newTestArchive(mock)
	ctx := context.Background()

	require.NoError(t, a.Archive(ctx, sampleOrder()))
	second := sampleOrder()
	second.Key = "0b7d4c2a-5e61-4f38-8c0e-7a9b1d2e3f40"
	second.ID = "ORD654999"
	require.NoError(t, a.Archive(ctx, second))

	var receipt Order
	require.NoError(t, json.Unmarshal(mock.objects[ReceiptKey(sampleOrder(), sampleOrder().PlacedAt)], &receipt))
	assert.Equal(t, "ORD654321", receipt.ID)
	assert.Len(t, receipt.Lines, 3)

	manifest := strings.Split(strings.TrimSpace(string(mock.objects["receipts/v1/manifests/2026-03.jsonl"])), "\n")
	require.Len(t, manifest, 2)
	var entry ManifestEntry
	require.NoError(t, json.Unmarshal([]byte(manifest[1]), &entry))
	assert.Equal(t, "ORD654999", entry.OrderID)
	assert.Equal(t, second.Key, entry.OrderKey)
	assert.Equal(t, "65.00", entry.Total)
	assert.Equal(t, 3, entry.ItemCount)
}

func TestReceiptArchiveDisabled(t *testing.T) {
	mock := newMockS3()
	require.NoError(t, NewReceiptArchive(mock, "", nil).Archive(context.Background(), sampleOrder()))
	assert.Empty(t, mock.puts)

	var nilArchive *ReceiptArchive
	assert.False(t, nilArchive.Enabled())
}

func TestReceiptArchivePutFailure(t *testing.T) {
	mock := newMockS3()
	mock.putErr = errors.New("access denied")
	assert.Error(t, newTestArchive(mock).Archive(context.Background(), sampleOrder()))
}

func TestReceiptArchiveManifestFailureIsNotFatal(t *testing.T) {
	mock := newMockS3()
	mock.getErr = errors.New("throttled")

	require.NoError(t, newTestArchive(mock).Archive(context.Background(), sampleOrder()))
	assert.Equal(t, []string{ReceiptKey(sampleOrder(), sampleOrder().PlacedAt)}, mock.puts)
}
