package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/npezzotti/go-chatclient/internal/types"
)

const uploadTimeout = 60 * time.Second

// UploadService stores a binary payload out of band and returns the
// descriptor to publish in its place.
type UploadService interface {
	Upload(ctx context.Context, roomID, sender, filename string, r io.Reader) (types.UploadDescriptor, error)
}

type UploadClient struct {
	baseURL string
	client  *http.Client
	log     *log.Logger
}

func NewUploadClient(baseURL string, logger *log.Logger) *UploadClient {
	return &UploadClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: uploadTimeout},
		log:     logger,
	}
}

func (u *UploadClient) Upload(ctx context.Context, roomID, sender, filename string, r io.Reader) (types.UploadDescriptor, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return types.UploadDescriptor{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return types.UploadDescriptor{}, fmt.Errorf("copy file: %w", err)
	}

	if err := mw.WriteField("roomId", roomID); err != nil {
		return types.UploadDescriptor{}, fmt.Errorf("write roomId field: %w", err)
	}
	if err := mw.WriteField("sender", sender); err != nil {
		return types.UploadDescriptor{}, fmt.Errorf("write sender field: %w", err)
	}

	if err := mw.Close(); err != nil {
		return types.UploadDescriptor{}, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		u.baseURL+"/api/files/upload", &buf)
	if err != nil {
		return types.UploadDescriptor{}, fmt.Errorf("upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return types.UploadDescriptor{}, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return types.UploadDescriptor{}, readRequestError(resp)
	}

	var desc types.UploadDescriptor
	if err := json.NewDecoder(resp.Body).Decode(&desc); err != nil {
		return types.UploadDescriptor{}, fmt.Errorf("decode upload response: %w", err)
	}

	return desc, nil
}
