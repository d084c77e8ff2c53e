package backup

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/whistles/internal/common"
	sc "github.com/dmitrijs2005/whistles/internal/server/config"
	"github.com/dmitrijs2005/whistles/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *sc.Config {
	return &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "whistles",
	}
}

func stubSeams(t *testing.T) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	origPut := putObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
		putObject = origPut
	})
}

func records() []*models.StoredRecord {
	return []*models.StoredRecord{
		{ObscuredMessageID: "m1", SaltedHashedFid: "f", ShiftedTimestamp: "1679481100000", EncryptedMessage: `{"i":"a","e":"b"}`, PartitionID: "p", SchemaVersion: "v1"},
		{ObscuredMessageID: "m2", SaltedHashedFid: "f", ShiftedTimestamp: "9007199254740993", EncryptedMessage: `{"i":"c","e":"d"}`, PartitionID: "p", SchemaVersion: "v1"},
	}
}

func TestStorageKey(t *testing.T) {
	key := StorageKey("abc", time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC))
	assert.True(t, strings.HasPrefix(key, "partitions/abc/2024/03/05/"), key)
	assert.True(t, strings.HasSuffix(key, ".jsonl"), key)
	assert.NotEqual(t, key, StorageKey("abc", time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC)))
}

func TestJSONLines_RoundTrip(t *testing.T) {
	body, err := EncodeJSONLines(records())
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(body), "\n"))

	got, err := DecodeJSONLines(strings.NewReader("\n" + string(body) + "\n"))
	require.NoError(t, err)
	assert.Equal(t, records(), got)
}

func TestDecodeJSONLines_BadLine(t *testing.T) {
	_, err := DecodeJSONLines(strings.NewReader("{}\nnot json\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Contains(t, err.Error(), "line 2")
}

func TestExport_Success(t *testing.T) {
	stubSeams(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	var gotBucket, gotKey, gotBody string
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		gotBucket = aws.ToString(in.Bucket)
		gotKey = aws.ToString(in.Key)
		b, err := io.ReadAll(in.Body)
		require.NoError(t, err)
		gotBody = string(b)
		return &s3.PutObjectOutput{}, nil
	}

	e := NewS3Exporter(testConfig())
	e.now = func() time.Time { return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) }

	key, err := e.Export(context.Background(), "p", records())
	require.NoError(t, err)

	assert.Equal(t, "whistles", gotBucket)
	assert.Equal(t, key, gotKey)
	assert.True(t, strings.HasPrefix(key, "partitions/p/2024/01/02/"))
	assert.Contains(t, gotBody, `"obscured_message_id":"m2"`)
	assert.Contains(t, gotBody, `"shifted_timestamp":"9007199254740993"`)
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
}

func TestExport_Errors(t *testing.T) {
	t.Run("config load", func(t *testing.T) {
		stubSeams(t)
		loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
			return aws.Config{}, errors.New("no config")
		}

		_, err := NewS3Exporter(testConfig()).Export(context.Background(), "p", records())
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)
	})

	t.Run("put object", func(t *testing.T) {
		stubSeams(t)
		loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
			return aws.Config{}, nil
		}
		newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
			return &s3.Client{}
		}
		putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			return nil, errors.New("denied")
		}

		_, err := NewS3Exporter(testConfig()).Export(context.Background(), "p", records())
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)
		assert.Contains(t, err.Error(), "denied")
	})
}
