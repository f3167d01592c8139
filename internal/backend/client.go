// Package backend is the portal's client for the ERP REST backend. A Client
// value is immutable: WithToken returns a copy that attaches the bearer
// header, so every portal session can hold its own authenticated client
// over one shared transport.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
)

const maxResponseBytes = 10 << 20

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// WithToken returns a copy of c that sends Authorization: Bearer token.
// An empty token yields an anonymous copy.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = strings.TrimSpace(token)
	return &clone
}

func (c *Client) Token() string {
	return c.token
}

// Upload is one file part of a multipart request.
type Upload struct {
	Field       string
	Filename    string
	ContentType string
	Body        io.Reader
}

type Form struct {
	Fields map[string]string
	Files  []Upload
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Kind: KindRejected, Message: "invalid request body", Err: err}
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Op: op, Kind: KindRejected, Message: "invalid request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, op, out)
}

func (c *Client) doMultipart(ctx context.Context, op, path string, form Form, out interface{}) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, value := range form.Fields {
		if err := writer.WriteField(name, value); err != nil {
			return &Error{Op: op, Kind: KindRejected, Message: "invalid form field", Err: err}
		}
	}
	for _, file := range form.Files {
		part, err := createFilePart(writer, file)
		if err != nil {
			return &Error{Op: op, Kind: KindRejected, Message: "invalid file part", Err: err}
		}
		if _, err := io.Copy(part, file.Body); err != nil {
			return &Error{Op: op, Kind: KindRejected, Message: "read upload failed", Err: err}
		}
	}
	if err := writer.Close(); err != nil {
		return &Error{Op: op, Kind: KindRejected, Message: "invalid form", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return &Error{Op: op, Kind: KindRejected, Message: "invalid request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.send(req, op, out)
}

func createFilePart(writer *multipart.Writer, file Upload) (io.Writer, error) {
	if file.ContentType == "" {
		return writer.CreateFormFile(file.Field, file.Filename)
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Filename))
	header.Set("Content-Type", file.ContentType)
	return writer.CreatePart(header)
}

func (c *Client) send(req *http.Request, op string, out interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		observe(op, KindNetwork)
		return &Error{Op: op, Kind: KindNetwork, Message: "backend unreachable", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		observe(op, KindNetwork)
		return &Error{Op: op, Kind: KindNetwork, Status: resp.StatusCode, Message: "read response failed", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := kindForStatus(resp.StatusCode)
		observe(op, kind)
		return &Error{Op: op, Kind: kind, Status: resp.StatusCode, Message: serverMessage(body, resp.StatusCode)}
	}
	if out != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			observe(op, KindDecode)
			return &Error{Op: op, Kind: KindDecode, Status: resp.StatusCode, Message: "unexpected response format", Err: err}
		}
	}
	observe(op, "")
	return nil
}

func serverMessage(body []byte, status int) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
	}
	return http.StatusText(status)
}

func escape(segment string) string {
	return url.PathEscape(strings.TrimSpace(segment))
}
