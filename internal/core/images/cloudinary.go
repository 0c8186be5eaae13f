package images

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const (
	// DefaultAPIBase is Cloudinary's REST endpoint
	DefaultAPIBase = "https://api.cloudinary.com"

	// DefaultFolder groups every post image under one folder
	DefaultFolder = "findit-posts"
)

// CloudinaryConfig configures unsigned uploads against one cloud.
// HTTPClient is only used to discard uploads by token.
type CloudinaryConfig struct {
	HTTPClient   *http.Client
	CloudName    string
	UploadPreset string
	Folder       string
	APIBase      string
}

type cloudinaryUploader struct {
	cld          *cloudinary.Cloudinary
	client       *http.Client
	apiBase      string
	cloudName    string
	uploadPreset string
	folder       string
}

// NewCloudinaryUploader creates an Uploader for Cloudinary unsigned uploads
func NewCloudinaryUploader(cfg CloudinaryConfig) (Uploader, error) {
	if cfg.CloudName == "" {
		return nil, fmt.Errorf("cloudinary cloud name is required")
	}
	if cfg.UploadPreset == "" {
		return nil, fmt.Errorf("cloudinary upload preset is required")
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	apiBase := strings.TrimSuffix(cfg.APIBase, "/")
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	folder := cfg.Folder
	if folder == "" {
		folder = DefaultFolder
	}

	// Unsigned uploads need no API key or secret
	cld, err := cloudinary.NewFromParams(cfg.CloudName, "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}
	cld.Upload.Config.API.UploadPrefix = apiBase

	return &cloudinaryUploader{
		cld:          cld,
		client:       client,
		apiBase:      apiBase,
		cloudName:    cfg.CloudName,
		uploadPreset: cfg.UploadPreset,
		folder:       folder,
	}, nil
}

// Upload sends the file as an unsigned upload through the preset
// Flow:
// 1. UnsignedUpload with the preset and the post image folder
// 2. Surface an API error message as UploadError
// 3. Read delete_token (if the preset issues one) from the raw response
func (u *cloudinaryUploader) Upload(ctx context.Context, file File) (*Upload, error) {
	resp, err := u.cld.Upload.UnsignedUpload(ctx, bytes.NewReader(file.Data), u.uploadPreset, uploader.UploadParams{
		Folder: u.folder,
	})
	if err != nil {
		return nil, &UploadError{Message: "image store unreachable", Err: err}
	}
	if resp.Error.Message != "" {
		log.Printf("[IMAGE-UPLOAD-ERROR] %s rejected: %s", file.Name, resp.Error.Message)
		return nil, &UploadError{Message: resp.Error.Message}
	}
	if resp.SecureURL == "" {
		return nil, &UploadError{Message: "upload response missing secure_url"}
	}

	result := &Upload{
		URL:         resp.SecureURL,
		PublicID:    resp.PublicID,
		DeleteToken: deleteToken(resp.Response),
	}
	log.Printf("[IMAGE-UPLOAD] Uploaded %s (%d bytes)", result.PublicID, len(file.Data))
	return result, nil
}

func deleteToken(raw any) string {
	fields, ok := raw.(map[string]any)
	if !ok {
		return ""
	}
	token, _ := fields["delete_token"].(string)
	return token
}

// Discard deletes an upload through its short-lived delete token
func (u *cloudinaryUploader) Discard(ctx context.Context, upload *Upload) error {
	if upload == nil || upload.DeleteToken == "" {
		return nil
	}

	form := url.Values{"token": {upload.DeleteToken}}
	endpoint := fmt.Sprintf("%s/v1_1/%s/delete_by_token", u.apiBase, url.PathEscape(u.cloudName))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create discard request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	respBody, status, err := u.do(req)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &UploadError{StatusCode: status, Message: cloudinaryMessage(respBody)}
	}

	log.Printf("[IMAGE-DISCARD] Discarded orphaned upload %s", upload.PublicID)
	return nil
}

func (u *cloudinaryUploader) do(req *http.Request) ([]byte, int, error) {
	resp, err := u.client.Do(req)
	if err != nil {
		return nil, 0, &UploadError{Message: "image store unreachable", Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("Warning: failed to close image store response body: %v", closeErr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &UploadError{StatusCode: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "... (truncated)"
		}
		log.Printf("[IMAGE-DISCARD-ERROR] Status: %d, Body: %s", resp.StatusCode, bodyPreview)
	}
	return body, resp.StatusCode, nil
}

// cloudinaryMessage extracts error.message from an error response
func cloudinaryMessage(body []byte) string {
	var env struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		return env.Error.Message
	}
	return "unexpected response from image store"
}

// TransformURL inserts a delivery transformation (e.g. "c_fill,w_480,h_320")
// into a Cloudinary secure_url. URLs from other hosts are returned unchanged.
func TransformURL(secureURL, transform string) string {
	const marker = "/image/upload/"
	if transform == "" {
		return secureURL
	}
	i := strings.Index(secureURL, marker)
	if i < 0 || !strings.Contains(secureURL[:i], "res.cloudinary.com") {
		return secureURL
	}
	head := secureURL[:i+len(marker)]
	return head + transform + "/" + secureURL[i+len(marker):]
}
