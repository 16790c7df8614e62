// Package cloudinary stores check-in face snapshots.
package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultEndpoint is the Cloudinary upload API root.
const DefaultEndpoint = "https://api.cloudinary.com/v1_1"

// ErrEmptySnapshot is returned for an upload without image bytes.
var ErrEmptySnapshot = errors.New("cloudinary: empty snapshot")

// UploadError is a non-2xx answer from the upload API.
type UploadError struct {
	Code int
	Body string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("cloudinary: upload failed (%d): %s", e.Code, e.Body)
}

// Client uploads snapshots through the signed upload API.
type Client struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
	Endpoint  string
	HTTP      *http.Client
	now       func() time.Time
}

// New creates a Cloudinary client.
func New(cloudName, apiKey, apiSecret, folder string) *Client {
	return &Client{
		CloudName: cloudName,
		APIKey:    apiKey,
		APISecret: apiSecret,
		Folder:    folder,
		Endpoint:  DefaultEndpoint,
		HTTP:      &http.Client{Timeout: 30 * time.Second},
		now:       time.Now,
	}
}

// Snapshot is a stored check-in image.
type Snapshot struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Bytes     int    `json:"bytes"`
}

// UploadSnapshot stores a check-in image for an employee. The public id is
// derived from the employee and capture minute, so a retried check-in
// overwrites its earlier upload.
func (c *Client) UploadSnapshot(ctx context.Context, employeeID int64, image []byte) (*Snapshot, error) {
	if len(image) == 0 {
		return nil, ErrEmptySnapshot
	}
	at := c.now()
	params := c.signed(map[string]string{
		"timestamp": strconv.FormatInt(at.Unix(), 10),
		"public_id": fmt.Sprintf("checkin-%d-%s", employeeID, at.Format("20060102-1504")),
		"overwrite": "true",
		"folder":    c.Folder,
	})

	body, contentType, err := snapshotForm(params, image)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, body, contentType)
}

// signed adds the api key and signature to params, dropping empty values.
func (c *Client) signed(params map[string]string) map[string]string {
	out := make(map[string]string, len(params)+2)
	for k, v := range params {
		if v != "" {
			out[k] = v
		}
	}
	out["signature"] = c.sign(out)
	out["api_key"] = c.APIKey
	return out
}

func snapshotForm(params map[string]string, image []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range params {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("cloudinary: write %s: %w", k, err)
		}
	}
	part, err := w.CreateFormFile("file", "snapshot.jpg")
	if err != nil {
		return nil, "", fmt.Errorf("cloudinary: create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("cloudinary: write file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("cloudinary: close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) post(ctx context.Context, body io.Reader, contentType string) (*Snapshot, error) {
	endpoint := strings.TrimRight(c.Endpoint, "/") + "/" + c.CloudName + "/image/upload"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: upload: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode/100 != 2 {
		return nil, &UploadError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("cloudinary: decode upload response: %w", err)
	}
	return &snap, nil
}

// unsigned params never take part in the signature.
var unsigned = map[string]bool{"api_key": true, "file": true, "resource_type": true, "signature": true}

// sign hashes the sorted key=value pairs followed by the API secret.
func (c *Client) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if !unsigned[k] && v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k + "=" + params[k])
	}
	b.WriteString(c.APISecret)
	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
