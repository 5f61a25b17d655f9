package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/parkwarden/parkwarden/internal/logger"
	"github.com/parkwarden/parkwarden/pkg/store"
)

// PublisherConfig holds configuration for the S3 snapshot publisher.
type PublisherConfig struct {
	// Bucket is the S3 bucket name.
	Bucket string

	// Region is the AWS region (optional, uses SDK default if empty).
	Region string

	// Endpoint is the S3 endpoint URL (optional, for S3-compatible services).
	Endpoint string

	// KeyPrefix is prepended to all snapshot keys (e.g., "exports/").
	// Should end with "/" if non-empty.
	KeyPrefix string

	// ForcePathStyle forces path-style addressing (required for Localstack/MinIO).
	ForcePathStyle bool

	// AccessKeyID and SecretAccessKey configure static credentials. When
	// either is empty the SDK default credential chain is used instead.
	AccessKeyID     string
	SecretAccessKey string
}

// Publisher writes site snapshots to an S3 bucket, one object per site.
type Publisher struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	builder   *Builder
}

// NewPublisher creates a publisher with an existing S3 client.
func NewPublisher(client *s3.Client, config PublisherConfig, builder *Builder) *Publisher {
	return &Publisher{
		client:    client,
		bucket:    config.Bucket,
		keyPrefix: config.KeyPrefix,
		builder:   builder,
	}
}

// NewPublisherFromConfig creates a publisher by creating an S3 client from
// config. This is the preferred constructor when you don't have an existing
// S3 client.
func NewPublisherFromConfig(ctx context.Context, config PublisherConfig, builder *Builder) (*Publisher, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if config.Region != "" {
		opts = append(opts, awsconfig.WithRegion(config.Region))
	}
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			config.AccessKeyID,
			config.SecretAccessKey,
			"", // session token (empty for static credentials)
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if config.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
		})
	}
	if config.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return NewPublisher(s3.NewFromConfig(awsCfg, s3Opts...), config, builder), nil
}

// snapshotKey returns the object key for one site's snapshot.
func (p *Publisher) snapshotKey(siteID string) string {
	return p.keyPrefix + siteID + ".json"
}

// PublishSite builds and uploads the snapshot for one site.
func (p *Publisher) PublishSite(ctx context.Context, siteID string) (*Snapshot, error) {
	snapshot, err := p.builder.Build(ctx, siteID)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	key := p.snapshotKey(siteID)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 put object: %w", err)
	}

	logger.InfoCtx(ctx, "site snapshot published",
		logger.KeySiteID, siteID,
		"key", key,
		"whitelist", snapshot.Stats.WhitelistCount,
		"parking", snapshot.Stats.ActivePaymentsCount)
	return snapshot, nil
}

// PublishSchema uploads the JSON-Schema document for the snapshot format.
func (p *Publisher) PublishSchema(ctx context.Context) error {
	data, err := Schema()
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}

	key := p.keyPrefix + "schema.json"
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/schema+json"),
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}

// RunResult summarizes one publish-all run.
type RunResult struct {
	Sites     int `json:"sites"`
	Published int `json:"published"`
	Failed    int `json:"failed"`
}

// PublishAll uploads a snapshot for every active site. Per-site failures are
// logged and counted; the run continues.
func (p *Publisher) PublishAll(ctx context.Context, st store.Store) (*RunResult, error) {
	sites, err := st.ListActiveSites(ctx)
	if err != nil {
		return nil, err
	}

	result := &RunResult{Sites: len(sites)}
	for _, site := range sites {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := p.PublishSite(ctx, site.ID); err != nil {
			result.Failed++
			logger.WarnCtx(ctx, "site snapshot publish failed",
				logger.KeySiteID, site.ID,
				logger.KeyError, err)
			continue
		}
		result.Published++
	}
	return result, nil
}
