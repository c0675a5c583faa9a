// Package catalog looks up book metadata by ISBN in the public volumes catalog.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shelf-go/internal/model"
)

// DefaultBaseURL is the catalog host used when the config does not set one.
const DefaultBaseURL = "https://www.googleapis.com"

// imageLinkOrder is the preference order for picking a cover from imageLinks.
var imageLinkOrder = []string{"thumbnail", "smallThumbnail", "small", "medium", "large", "extraLarge"}

// Client fetches metadata for a single ISBN. Each call issues exactly one GET;
// there is no retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a catalog client. An empty baseURL selects DefaultBaseURL.
// A zero timeout leaves the transport default in place.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type volumesResponse struct {
	Items []struct {
		VolumeInfo *volumeInfo `json:"volumeInfo"`
	} `json:"items"`
}

type volumeInfo struct {
	Title         string            `json:"title"`
	Subtitle      string            `json:"subtitle"`
	Authors       []string          `json:"authors"`
	PublishedDate string            `json:"publishedDate"`
	PageCount     int               `json:"pageCount"`
	ImageLinks    map[string]string `json:"imageLinks"`
}

// FetchByISBN returns the first catalog match for isbn.
// Errors are *TransportError, ErrNotFound or *ParseError.
func (c *Client) FetchByISBN(ctx context.Context, isbn string) (*model.Metadata, error) {
	query := url.Values{"q": {"isbn:" + isbn}}
	endpoint := c.baseURL + "/books/v1/volumes?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	return parseVolumes(body)
}

// parseVolumes extracts metadata from a volumes response body.
func parseVolumes(body []byte) (*model.Metadata, error) {
	var envelope volumesResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &ParseError{Err: err}
	}

	if len(envelope.Items) == 0 {
		return nil, ErrNotFound
	}

	info := envelope.Items[0].VolumeInfo
	if info == nil {
		return nil, &ParseError{Err: errors.New("first item has no volumeInfo")}
	}

	meta := &model.Metadata{
		Title:         info.Title,
		Subtitle:      info.Subtitle,
		Authors:       strings.Join(info.Authors, ", "),
		PublishedDate: info.PublishedDate,
		PageCount:     info.PageCount,
	}
	for _, key := range imageLinkOrder {
		if link := info.ImageLinks[key]; link != "" {
			meta.ThumbnailURL = link
			break
		}
	}

	return meta, nil
}
