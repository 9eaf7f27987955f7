package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
)

// Upload posts file as multipart/form-data. The only content type sent is
// the generated multipart one. Responses are normalized like Request,
// including the 401 teardown.
func (c *Client) Upload(ctx context.Context, path string, file io.Reader, filename, fieldName string, extra map[string]string) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	if fieldName == "" {
		fieldName = "file"
	}
	if filename == "" {
		filename = fieldName
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(fieldName, filename)
	if err != nil {
		return Fail(fmt.Sprintf("failed to create form file: %v", err), 0)
	}
	if file != nil {
		if _, err := io.Copy(part, file); err != nil {
			return Fail(fmt.Sprintf("failed to read upload: %v", err), 0)
		}
	}

	// Deterministic field order
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writer.WriteField(k, extra[k]); err != nil {
			return Fail(fmt.Sprintf("failed to write form field %s: %v", k, err), 0)
		}
	}
	if err := writer.Close(); err != nil {
		return Fail(fmt.Sprintf("failed to finalize upload: %v", err), 0)
	}

	header := c.buildHeader(ctx)
	header.Set("Content-Type", writer.FormDataContentType())

	return c.do(ctx, http.MethodPost, path, header, &buf)
}
