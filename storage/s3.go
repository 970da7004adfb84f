package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"epi-etl/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ObjectAPI ist die Teilmenge des S3-Clients, die hier gebraucht wird.
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// NewS3Client erstellt einen S3-Client; ohne S3_ENDPOINT gilt der AWS-Standard.
func NewS3Client(cfg *config.Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3Key != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3Key, cfg.S3Secret, "")))
	}
	if cfg.S3Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:               cfg.S3Endpoint,
					SigningRegion:     cfg.S3Region,
					HostnameImmutable: true,
				}, nil
			},
		)
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg), nil
}

// Archiver legt die Rohdaten eines Laufs im Bucket ab und rotiert alte Läufe.
type Archiver struct {
	Client ObjectAPI
	Bucket string
	Prefix string
	Keep   int
	Logger *zap.Logger

	// Source liest die zu archivierenden Quellen
	Source *Opener
}

// NewArchiver erstellt einen Archiver mit dem Standard-Präfix "extracts/".
func NewArchiver(client ObjectAPI, bucket string, keep int, logger *zap.Logger) *Archiver {
	return &Archiver{
		Client: client,
		Bucket: bucket,
		Prefix: "extracts/",
		Keep:   keep,
		Logger: logger,
		Source: NewOpener(client),
	}
}

// ArchiveRun legt alle Quellen eines Laufs unter einem gemeinsamen Präfix ab und rotiert danach.
// Der erste Fehler bricht ab; bereits hochgeladene Dateien bleiben liegen.
func (a *Archiver) ArchiveRun(ctx context.Context, runID string, at time.Time, locations []string) error {
	prefix := a.RunPrefix(runID, at)
	for _, loc := range locations {
		data, err := a.Source.ReadAll(ctx, loc)
		if err != nil {
			return eris.Wrapf(err, "read %s for archive", loc)
		}
		key, err := a.Upload(ctx, prefix, loc, data)
		if err != nil {
			return eris.Wrapf(err, "upload %s", loc)
		}
		a.Logger.Info("Extract archived", zap.String("run_id", runID), zap.String("key", key), zap.Int("bytes", len(data)))
	}
	return a.Rotate(ctx)
}

// RunPrefix liefert den Ordner eines Laufs. Der Zeitstempel vorne sorgt für lexikografische Reihenfolge.
func (a *Archiver) RunPrefix(runID string, at time.Time) string {
	return fmt.Sprintf("%s%s-%s/", a.Prefix, at.UTC().Format("2006-01-02T15-04-05Z"), runID)
}

// Upload lädt eine Datei unter dem Lauf-Präfix hoch und gibt den Schlüssel zurück.
func (a *Archiver) Upload(ctx context.Context, runPrefix, name string, data []byte) (string, error) {
	key := runPrefix + path.Base(name)
	_, err := a.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// Rotate löscht alle Lauf-Ordner außer den Keep neuesten.
func (a *Archiver) Rotate(ctx context.Context) error {
	if a.Keep <= 0 {
		return nil
	}
	byRun := map[string][]string{}
	var token *string
	for {
		out, err := a.Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(a.Bucket),
			Prefix:            aws.String(a.Prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return err
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			rest := strings.TrimPrefix(key, a.Prefix)
			run, _, found := strings.Cut(rest, "/")
			if !found {
				continue
			}
			byRun[run] = append(byRun[run], key)
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}

	if len(byRun) <= a.Keep {
		a.Logger.Debug("No archive rotation needed", zap.Int("runs", len(byRun)), zap.Int("keep", a.Keep))
		return nil
	}

	runs := make([]string, 0, len(byRun))
	for run := range byRun {
		runs = append(runs, run)
	}
	// neueste zuerst
	sort.Sort(sort.Reverse(sort.StringSlice(runs)))

	for _, run := range runs[a.Keep:] {
		for _, key := range byRun[run] {
			a.Logger.Info("Deleting old extract archive", zap.String("key", key))
			if _, err := a.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(a.Bucket),
				Key:    aws.String(key),
			}); err != nil {
				a.Logger.Warn("Failed to delete archived extract", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return nil
}

// getObject öffnet s3://bucket/key.
func getObject(ctx context.Context, client ObjectAPI, location string) (io.ReadCloser, error) {
	bucket, key, ok := strings.Cut(strings.TrimPrefix(location, "s3://"), "/")
	if !ok || bucket == "" || key == "" {
		return nil, eris.Errorf("invalid s3 location %q", location)
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}
