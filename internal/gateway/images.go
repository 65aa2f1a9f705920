package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"vibewall/internal/models"
)

const maxImageBody = 10 << 20

// ProfileImage is a fetched avatar.
type ProfileImage struct {
	ContentType string
	Data        []byte
}

// UploadProfileImage replaces the caller's avatar with a multipart upload.
func (c *Client) UploadProfileImage(ctx context.Context, filename, contentType string, data []byte) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("building upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("building upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("building upload: %w", err)
	}

	return c.do(ctx, request{
		op:     "upload_profile_image",
		method: http.MethodPost,
		path:   "/users/me/profile-image",
		body:   &buf,
		ctype:  mw.FormDataContentType(),
	}, nil)
}

// FetchProfileImage downloads userID's avatar. The response body is fully
// read and closed before returning.
func (c *Client) FetchProfileImage(ctx context.Context, userID uint) (*ProfileImage, error) {
	path := fmt.Sprintf("/users/%d/profile-image", userID)
	resp, err := c.send(ctx, request{op: "fetch_profile_image", method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBody))
	if err != nil {
		return nil, &models.NetworkError{Method: http.MethodGet, Path: path, Err: err}
	}
	ctype := resp.Header.Get("Content-Type")
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	return &ProfileImage{ContentType: ctype, Data: data}, nil
}
