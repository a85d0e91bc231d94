package common

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path"
	"strings"

	"tilbot/types"
)

// Archiver copies published videos and their metadata to a bucket
type Archiver struct {
	store  *S3
	bucket string
	prefix string
}

// NewArchiver stores objects under prefix in bucket. prefix may be empty.
func NewArchiver(store *S3, bucket, prefix string) *Archiver {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix != "" {
		prefix += "/"
	}
	return &Archiver{store: store, bucket: bucket, prefix: prefix}
}

// archiveRecord is the JSON sidecar written next to each video
type archiveRecord struct {
	Post     types.Post          `json:"post"`
	Metadata types.VideoMetadata `json:"metadata"`
	Publish  types.PublishResult `json:"publish"`
	Duration string              `json:"duration"`
}

// Keys returns the object keys used for a post's video and sidecar
func (a *Archiver) Keys(postID string) (videoKey, recordKey string) {
	base := a.prefix + path.Join("videos", postID)
	return base + ".mp4", base + ".json"
}

// Archive uploads the final video unless already present, then the JSON sidecar
func (a *Archiver) Archive(ctx context.Context, post types.Post, final types.FinalVideo, meta types.VideoMetadata, res types.PublishResult) error {
	videoKey, recordKey := a.Keys(post.ID)

	exists, err := a.store.Exists(ctx, a.bucket, videoKey)
	if err != nil {
		return fmt.Errorf("failed to check s3://%s/%s: %w", a.bucket, videoKey, err)
	}
	if !exists {
		f, err := os.Open(final.Path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", final.Path, err)
		}
		err = a.store.Put(ctx, a.bucket, videoKey, f, "video/mp4")
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to upload s3://%s/%s: %w", a.bucket, videoKey, err)
		}
	}

	data, err := json.MarshalIndent(archiveRecord{
		Post:     post,
		Metadata: meta,
		Publish:  res,
		Duration: final.Duration.String(),
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := a.store.Put(ctx, a.bucket, recordKey, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", a.bucket, recordKey, err)
	}

	log.Printf("[archive] ☁️  %s archived to s3://%s/%s", post.ID, a.bucket, videoKey)
	return nil
}
