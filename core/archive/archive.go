package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"unisync/core/catalog"
	"unisync/core/source"
	"unisync/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ErrInvalidKey is returned for object keys outside the archive prefix.
var ErrInvalidKey = errors.New("invalid snapshot key")

// Snapshot is the normalized output of one successful fetch.
type Snapshot struct {
	RunID       string           `json:"run_id"`
	Institution string           `json:"institution"`
	Category    catalog.Category `json:"category"`
	FetchedAt   time.Time        `json:"fetched_at"`
	Records     []catalog.Record `json:"records"`
	// ParseErrors holds the messages of upstream records that were skipped.
	ParseErrors []string `json:"parse_errors,omitempty"`
}

// Entry describes a stored snapshot.
type Entry struct {
	Key          string           `json:"key"`
	Category     catalog.Category `json:"category"`
	RunID        string           `json:"run_id"`
	Size         int64            `json:"size"`
	LastModified time.Time        `json:"last_modified"`
}

// Archiver writes snapshots to object storage under
// <prefix>/<institution>/<category>/<run id>.json.
type Archiver struct {
	client storage.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// New creates an archiver.
func New(client storage.Client, bucket, prefix string, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

// Bucket returns the target bucket.
func (a *Archiver) Bucket() string { return a.bucket }

// EnsureBucket creates the bucket when it does not exist yet.
func (a *Archiver) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
	}
	a.logger.Info("Created snapshot bucket", zap.String("bucket", a.bucket))
	return nil
}

// Key returns the object key of a snapshot.
func (a *Archiver) Key(institution string, category catalog.Category, runID string) string {
	return path.Join(a.institutionPrefix(institution), string(category), runID+".json")
}

func (a *Archiver) institutionPrefix(institution string) string {
	return path.Join(a.prefix, source.NormalizeInstitutionCode(institution))
}

// Save uploads a snapshot and returns its key.
func (a *Archiver) Save(ctx context.Context, snap Snapshot) (string, error) {
	if snap.RunID == "" || snap.Institution == "" || !snap.Category.Valid() {
		return "", fmt.Errorf("%w: incomplete snapshot", ErrInvalidKey)
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	key := a.Key(snap.Institution, snap.Category, snap.RunID)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot %s: %w", key, err)
	}

	a.logger.Debug("Archived snapshot",
		zap.String("key", key),
		zap.Int("records", len(snap.Records)),
		zap.Int("bytes", len(body)),
	)
	return key, nil
}

// List returns the snapshots of an institution, optionally narrowed to one
// category.
func (a *Archiver) List(ctx context.Context, institution string, category catalog.Category) ([]Entry, error) {
	prefix := a.institutionPrefix(institution) + "/"
	if category != "" {
		prefix += string(category) + "/"
	}

	var entries []Entry
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list snapshots: %w", obj.Err)
		}
		entry, ok := a.parseKey(obj.Key)
		if !ok {
			continue
		}
		entry.Size = obj.Size
		entry.LastModified = obj.LastModified
		entries = append(entries, entry)
	}
	return entries, nil
}

// Open streams a stored snapshot. The key must lie inside the archive prefix.
func (a *Archiver) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if _, ok := a.parseKey(key); !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}
	return a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
}

// parseKey splits <prefix>/<institution>/<category>/<run id>.json.
func (a *Archiver) parseKey(key string) (Entry, bool) {
	rest := key
	if a.prefix != "" {
		var found bool
		rest, found = strings.CutPrefix(key, a.prefix+"/")
		if !found {
			return Entry{}, false
		}
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || !strings.HasSuffix(parts[2], ".json") {
		return Entry{}, false
	}
	category := catalog.Category(parts[1])
	runID := strings.TrimSuffix(parts[2], ".json")
	if !category.Valid() || runID == "" || strings.Contains(key, "..") {
		return Entry{}, false
	}
	return Entry{Key: key, Category: category, RunID: runID}, true
}
