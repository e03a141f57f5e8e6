package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/wolfman30/pharmacare-bot/pkg/logging"
)

// S3API is the subset of the S3 client used by ReceiptArchive.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ManifestEntry is one line of the monthly receipts manifest.
type ManifestEntry struct {
	OrderKey   string `json:"order_key,omitempty"`
	OrderID    string `json:"order_id"`
	S3Key      string `json:"s3_key"`
	Total      string `json:"total"`
	ItemCount  int    `json:"item_count"`
	PlacedAt   string `json:"placed_at"`
	ArchivedAt string `json:"archived_at"`
}

// ReceiptArchive writes order receipts to S3 as JSON.
type ReceiptArchive struct {
	bucket string
	client S3API
	logger *logging.Logger
	now    func() time.Time
}

// NewReceiptArchive returns an archive whose operations are no-ops when
// bucket is empty.
func NewReceiptArchive(client S3API, bucket string, logger *logging.Logger) *ReceiptArchive {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReceiptArchive{bucket: bucket, client: client, logger: logger, now: time.Now}
}

func (a *ReceiptArchive) Enabled() bool {
	return a != nil && a.bucket != "" && a.client != nil
}

// ReceiptKey is the object key for an order placed at placedAt. The storage
// key is appended when set so orders sharing a display id do not collide.
func ReceiptKey(o Order, placedAt time.Time) string {
	placedAt = placedAt.UTC()
	name := o.ID
	if o.Key != "" {
		name += "_" + o.Key
	}
	return fmt.Sprintf("receipts/v1/by-date/%d/%02d/%02d/%s.json", placedAt.Year(), placedAt.Month(), placedAt.Day(), name)
}

func manifestKey(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("receipts/v1/manifests/%d-%02d.jsonl", t.Year(), t.Month())
}

// Archive stores the receipt and appends it to the month's manifest. A
// manifest failure is logged; the receipt is already written.
func (a *ReceiptArchive) Archive(ctx context.Context, o Order) error {
	if !a.Enabled() {
		return nil
	}
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("orders: marshal receipt: %w", err)
	}
	placedAt := o.PlacedAt
	if placedAt.IsZero() {
		placedAt = a.now()
	}
	key := ReceiptKey(o, placedAt)

	if _, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return fmt.Errorf("orders: s3 put %s: %w", key, err)
	}
	a.logger.Info("archived order receipt", "order_id", o.ID, "s3_key", key)

	entry := ManifestEntry{
		OrderKey:   o.Key,
		OrderID:    o.ID,
		S3Key:      key,
		Total:      o.Total.String(),
		ItemCount:  len(o.Lines),
		PlacedAt:   placedAt.UTC().Format(time.RFC3339),
		ArchivedAt: a.now().UTC().Format(time.RFC3339),
	}
	if err := a.appendManifest(ctx, entry); err != nil {
		a.logger.Warn("failed to append receipts manifest", "error", err, "order_id", o.ID)
	}
	return nil
}

// appendManifest does a read-modify-write; S3 has no append.
func (a *ReceiptArchive) appendManifest(ctx context.Context, entry ManifestEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("orders: marshal manifest entry: %w", err)
	}
	key := manifestKey(a.now())

	var existing []byte
	resp, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	switch {
	case err == nil:
		existing, err = io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("orders: read manifest: %w", err)
		}
	case isNoSuchKey(err):
		a.logger.Debug("receipts manifest not found, creating new", "key", key)
	default:
		return fmt.Errorf("orders: get manifest: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.Write(line)
	buf.WriteByte('\n')

	if _, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	}); err != nil {
		return fmt.Errorf("orders: s3 put manifest: %w", err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	var nsk *s3types.NoSuchKey
	return errors.As(err, &nsk)
}
