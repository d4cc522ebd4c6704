package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"unisync/core/catalog"
	"unisync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEnsureBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("Existing bucket", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", ctx, "snapshots").Return(true, nil)

		require.NoError(t, New(client, "snapshots", "", nil).EnsureBucket(ctx))
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Missing bucket", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", ctx, "snapshots").Return(false, nil)
		client.On("MakeBucket", ctx, "snapshots", minio.MakeBucketOptions{}).Return(nil)

		require.NoError(t, New(client, "snapshots", "", nil).EnsureBucket(ctx))
		client.AssertExpectations(t)
	})

	t.Run("Check failure", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", ctx, "snapshots").Return(false, errors.New("access denied"))

		assert.ErrorContains(t, New(client, "snapshots", "", nil).EnsureBucket(ctx), "access denied")
	})
}

func TestSave(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)
	a := New(client, "snapshots", "/raw/", nil)

	var uploaded []byte
	client.On("PutObject", ctx, "snapshots", "raw/ualberta/course/run-1.json", mock.Anything, mock.AnythingOfType("int64"), mock.Anything).
		Run(func(args mock.Arguments) {
			uploaded, _ = io.ReadAll(args.Get(3).(io.Reader))
		}).
		Return(minio.UploadInfo{}, nil)

	key, err := a.Save(ctx, Snapshot{
		RunID:       "run-1",
		Institution: "UAlberta",
		Category:    catalog.CategoryCourse,
		FetchedAt:   time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		Records:     []catalog.Record{catalog.Course{Code: "CMPUT401", Name: "Software Process"}},
		ParseErrors: []string{"entry 4: missing title"},
	})
	require.NoError(t, err)
	assert.Equal(t, "raw/ualberta/course/run-1.json", key)

	var doc struct {
		RunID   string           `json:"run_id"`
		Records []map[string]any `json:"records"`
	}
	require.NoError(t, json.Unmarshal(uploaded, &doc))
	assert.Equal(t, "run-1", doc.RunID)
	require.Len(t, doc.Records, 1)
	assert.Equal(t, "CMPUT401", doc.Records[0]["code"])

	t.Run("Incomplete snapshot", func(t *testing.T) {
		_, err := a.Save(ctx, Snapshot{Institution: "ualberta", Category: catalog.CategoryCourse})
		assert.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("Upload failure", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(minio.UploadInfo{}, errors.New("bucket missing"))

		_, err := New(client, "snapshots", "", nil).Save(ctx, Snapshot{RunID: "r", Institution: "ualberta", Category: catalog.CategoryTerm})
		assert.ErrorContains(t, err, "bucket missing")
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)
	a := New(client, "snapshots", "raw", nil)

	modified := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	ch := make(chan minio.ObjectInfo, 4)
	ch <- minio.ObjectInfo{Key: "raw/ualberta/course/run-1.json", Size: 120, LastModified: modified}
	ch <- minio.ObjectInfo{Key: "raw/ualberta/course/notes.txt"}
	ch <- minio.ObjectInfo{Key: "raw/ualberta/rooms/run-2.json"}
	ch <- minio.ObjectInfo{Key: "raw/ualberta/exam/run-3.json", Size: 80}
	close(ch)

	client.On("ListObjects", ctx, "snapshots", minio.ListObjectsOptions{Prefix: "raw/ualberta/", Recursive: true}).
		Return((<-chan minio.ObjectInfo)(ch))

	entries, err := a.List(ctx, "ualberta", "")
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Key: "raw/ualberta/course/run-1.json", Category: catalog.CategoryCourse, RunID: "run-1", Size: 120, LastModified: modified},
		{Key: "raw/ualberta/exam/run-3.json", Category: catalog.CategoryExam, RunID: "run-3", Size: 80},
	}, entries)

	t.Run("Listing error", func(t *testing.T) {
		client := new(mocks.Client)
		errCh := make(chan minio.ObjectInfo, 1)
		errCh <- minio.ObjectInfo{Err: errors.New("timeout")}
		close(errCh)
		client.On("ListObjects", ctx, "snapshots", mock.Anything).Return((<-chan minio.ObjectInfo)(errCh))

		_, err := New(client, "snapshots", "", nil).List(ctx, "ualberta", catalog.CategoryCourse)
		assert.ErrorContains(t, err, "timeout")
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)
	a := New(client, "snapshots", "raw", nil)

	client.On("GetObject", ctx, "snapshots", "raw/ualberta/course/run-1.json", minio.GetObjectOptions{}).
		Return(io.NopCloser(strings.NewReader(`{"run_id":"run-1"}`)), nil)

	rc, err := a.Open(ctx, "raw/ualberta/course/run-1.json")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	assert.JSONEq(t, `{"run_id":"run-1"}`, string(body))

	for _, key := range []string{"other/ualberta/course/run-1.json", "raw/../secrets/course/x.json", "raw/ualberta/course/run-1.txt"} {
		_, err := a.Open(ctx, key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}
