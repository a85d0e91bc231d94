package youtube

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"tilbot/types"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// ErrUpload wraps transport and API failures during upload
var ErrUpload = errors.New("upload failed")

// ClientProvider returns an authorized HTTP client or ErrAuthorizationRequired
type ClientProvider interface {
	HTTPClient(ctx context.Context) (*http.Client, error)
}

// UploadChunkSize is the resumable upload chunk. Files no larger than one
// chunk go up in a single multipart request.
const UploadChunkSize = 4 * googleapi.MinUploadChunkSize

// Uploader publishes videos through the YouTube Data API
type Uploader struct {
	clients   ClientProvider
	opts      []option.ClientOption
	chunkSize int
}

// NewUploader creates an uploader. Extra client options are passed to youtube.NewService.
func NewUploader(clients ClientProvider, opts ...option.ClientOption) *Uploader {
	return &Uploader{clients: clients, opts: opts, chunkSize: UploadChunkSize}
}

// Upload performs a resumable upload of videoPath and returns the assigned video ID
func (u *Uploader) Upload(ctx context.Context, videoPath string, metadata types.VideoMetadata) (types.PublishResult, error) {
	httpClient, err := u.clients.HTTPClient(ctx)
	if err != nil {
		return types.PublishResult{}, err
	}

	service, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(httpClient)}, u.opts...)...)
	if err != nil {
		return types.PublishResult{}, fmt.Errorf("%w: unable to create YouTube service: %w", ErrUpload, err)
	}

	file, err := os.Open(videoPath)
	if err != nil {
		return types.PublishResult{}, fmt.Errorf("%w: failed to open video file: %w", ErrUpload, err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return types.PublishResult{}, fmt.Errorf("%w: failed to stat video file: %w", ErrUpload, err)
	}

	log.Printf("[youtube] 📤 Uploading: %s (%.2f MB) as %q", videoPath, float64(fileInfo.Size())/(1024*1024), metadata.Title)

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       metadata.Title,
			Description: metadata.Description,
			Tags:        metadata.Tags,
			CategoryId:  metadata.CategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           metadata.PrivacyStatus,
			SelfDeclaredMadeForKids: metadata.MadeForKids,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}

	call := service.Videos.Insert([]string{"snippet", "status"}, video)
	call = call.Media(file, googleapi.ChunkSize(u.chunkSize))

	response, err := call.Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized {
			return types.PublishResult{}, fmt.Errorf("%w: %v", ErrAuthorizationRequired, err)
		}
		return types.PublishResult{}, fmt.Errorf("%w: %w", ErrUpload, err)
	}

	videoID := response.Id
	url := fmt.Sprintf("https://youtube.com/shorts/%s", videoID)
	log.Printf("[youtube] ✅ Uploaded! %s", url)

	return types.PublishResult{
		VideoID:     videoID,
		URL:         url,
		PublishedAt: time.Now().UTC(),
	}, nil
}
