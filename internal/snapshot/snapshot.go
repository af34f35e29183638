// Package snapshot archives captured frames as PNG files.
package snapshot

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
	"github.com/GriffinCanCode/screenwatch/internal/frame"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Store saves a frame and returns where it was written.
type Store interface {
	Save(ctx context.Context, f *frame.Frame) (string, error)
}

var unsafeName = strings.NewReplacer(":", "-", "/", "-", "\\", "-", " ", "_")

// Name returns the file name for a frame of region captured at t, e.g.
// 2026-10-19T10-00-00.000Z_screen_1a2b3c4d.png. id keeps captures taken in
// the same millisecond apart.
func Name(t time.Time, region, id string) string {
	return unsafeName.Replace(t.UTC().Format("2006-01-02T15:04:05.000Z")+"_"+region+"_"+id) + ".png"
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func nameOf(f *frame.Frame, newID func() string) string {
	return Name(f.CapturedAt, f.RegionID, newID())
}

func encode(f *frame.Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, f.Image()); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRecordFailed, "encode snapshot")
	}
	return buf.Bytes(), nil
}

// DirStore writes snapshots into a local directory.
type DirStore struct {
	dir   string
	newID func() string
}

// NewDirStore creates dir if needed.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConfigInvalid, "create screenshot dir").WithMetadata("dir", dir)
	}
	return &DirStore{dir: dir, newID: shortID}, nil
}

// Save implements Store.
func (s *DirStore) Save(_ context.Context, f *frame.Frame) (string, error) {
	data, err := encode(f)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, nameOf(f, s.newID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeRecordFailed, "write snapshot").WithMetadata("path", path)
	}
	return path, nil
}

// PutObjectAPI is the subset of *s3.Client used by S3Store.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads snapshots to a bucket under a key prefix.
type S3Store struct {
	client PutObjectAPI
	bucket string
	prefix string
	newID  func() string
}

// NewS3Store uses the default AWS credential chain and region.
func NewS3Store(ctx context.Context, bucket, prefix string) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConfigInvalid, "load aws config")
	}
	return NewS3StoreWithClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// NewS3StoreWithClient wraps an existing client.
func NewS3StoreWithClient(client PutObjectAPI, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix, newID: shortID}
}

// Save implements Store and returns an s3:// URI.
func (s *S3Store) Save(ctx context.Context, f *frame.Frame) (string, error) {
	data, err := encode(f)
	if err != nil {
		return "", err
	}
	key := s.prefix + nameOf(f, s.newID)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeRecordFailed, "upload snapshot").WithMetadata("key", key)
	}
	return "s3://" + s.bucket + "/" + key, nil
}
