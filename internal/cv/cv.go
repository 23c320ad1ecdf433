// Package cv fetches the candidate's CV and turns it into plain text for
// the analysis prompts. Google Drive share links are rewritten to their
// direct download form before fetching.
package cv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxCVSize caps the downloaded document size.
const maxCVSize = 20 << 20

// TextExtractor extracts plain text from a binary document.
type TextExtractor interface {
	ExtractCVText(ctx context.Context, mimeType string, data []byte) (string, error)
}

// ResolveDriveURL rewrites Google Drive share links to their direct
// download form. Non-Drive URLs are returned unchanged.
func ResolveDriveURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid CV URL %q: %w", raw, err)
	}
	if !strings.HasSuffix(u.Host, "drive.google.com") {
		return raw, nil
	}

	// /file/d/{id}/view style links
	if id := fileIDFromPath(u.Path); id != "" {
		return "https://drive.google.com/uc?export=download&id=" + id, nil
	}
	// open?id={id} style links
	if id := u.Query().Get("id"); id != "" {
		return "https://drive.google.com/uc?export=download&id=" + id, nil
	}

	return "", fmt.Errorf("could not find a file id in Drive URL %q", raw)
}

func fileIDFromPath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if part == "d" && i+1 < len(parts) && parts[i+1] != "" {
			return parts[i+1]
		}
	}
	return ""
}

// Fetcher downloads CV documents.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher with a sensible timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Download fetches the document at url and returns its bytes and content type.
func (f *Fetcher) Download(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build CV request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download CV: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("CV download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCVSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read CV body: %w", err)
	}
	if len(data) > maxCVSize {
		return nil, "", fmt.Errorf("CV document exceeds %d bytes", maxCVSize)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("CV document is empty")
	}

	return data, detectMIMEType(resp.Header.Get("Content-Type"), data), nil
}

// detectMIMEType prefers the response header but falls back to sniffing,
// since Drive download responses are not always labeled correctly.
func detectMIMEType(header string, data []byte) string {
	if mt := strings.TrimSpace(strings.Split(header, ";")[0]); mt != "" && mt != "application/octet-stream" {
		return mt
	}
	if len(data) >= 5 && string(data[:5]) == "%PDF-" {
		return "application/pdf"
	}
	return http.DetectContentType(data)
}

// Ingest resolves, downloads and extracts the CV at rawURL into plain text.
// Plain text documents skip the model extraction call.
func Ingest(ctx context.Context, fetcher *Fetcher, extractor TextExtractor, rawURL string) (string, error) {
	resolved, err := ResolveDriveURL(rawURL)
	if err != nil {
		return "", err
	}

	data, mimeType, err := fetcher.Download(ctx, resolved)
	if err != nil {
		return "", err
	}

	if strings.HasPrefix(mimeType, "text/") {
		return strings.TrimSpace(string(data)), nil
	}

	text, err := extractor.ExtractCVText(ctx, mimeType, data)
	if err != nil {
		return "", fmt.Errorf("failed to extract CV text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("CV extraction produced no text")
	}
	return text, nil
}
