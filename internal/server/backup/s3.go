// Package backup writes partition snapshots to S3-compatible object storage
// as JSON lines, one stored record per line.
package backup

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/whistles/internal/common"
	sc "github.com/dmitrijs2005/whistles/internal/server/config"
	"github.com/dmitrijs2005/whistles/internal/server/models"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
)

const contentType = "application/x-ndjson"

type S3Exporter struct {
	config *sc.Config
	now    func() time.Time
}

func NewS3Exporter(config *sc.Config) *S3Exporter {
	return &S3Exporter{config: config, now: time.Now}
}

// StorageKey names a snapshot object. Partition ids are hex digests, so the
// key needs no escaping.
func StorageKey(partitionID string, at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("partitions/%s/%d/%02d/%02d/%v.jsonl", partitionID, at.Year(), at.Month(), at.Day(), uuid.New())
}

func EncodeJSONLines(recs []*models.StoredRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range recs {
		if err := enc.Encode(r); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// DecodeJSONLines reads records written by EncodeJSONLines. Blank lines are
// skipped.
func DecodeJSONLines(r io.Reader) ([]*models.StoredRecord, error) {
	var out []*models.StoredRecord

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		b := bytes.TrimSpace(scanner.Bytes())
		if len(b) == 0 {
			continue
		}
		rec := &models.StoredRecord{}
		if err := json.Unmarshal(b, rec); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", common.ErrValidation, line, err)
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *S3Exporter) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(e.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			e.config.S3RootUser,
			e.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(e.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Export uploads recs and returns the object key.
func (e *S3Exporter) Export(ctx context.Context, partitionID string, recs []*models.StoredRecord) (string, error) {
	body, err := EncodeJSONLines(recs)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	client, err := e.client(ctx)
	if err != nil {
		return "", fmt.Errorf("s3 client: %w: %w", common.ErrUpstreamUnavailable, err)
	}

	bucket := e.config.S3Bucket
	key := StorageKey(partitionID, e.now())

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:        &bucket,
		Key:           &key,
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w: %w", common.ErrUpstreamUnavailable, err)
	}

	return key, nil
}
