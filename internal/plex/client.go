// Package plex is a read-only client for the parts of the Plex server API
// the preview generator consumes: library sections, their items, and the
// per-item metadata tree carrying media part hashes and file paths.
package plex

import (
	"context"
	"crypto/tls"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// episodeType is Plex's numeric metadata type for episodes, used to flatten
// a show section into its episode leaves.
const episodeType = "4"

// ConnectionError means the Plex server could not be reached at startup.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to Plex server at %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Client talks to one Plex server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     hclog.Logger
}

// NewClient builds a client and verifies connectivity; a ConnectionError
// here is fatal to the caller before any work begins. TLS verification is
// disabled because Plex servers commonly present certificates for
// *.plex.direct names that do not match local addresses.
func NewClient(ctx context.Context, baseURL, token string, timeout time.Duration, log hclog.Logger) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		log: log.Named("plex"),
	}

	if _, err := c.get(ctx, "/identity", nil); err != nil {
		return nil, &ConnectionError{URL: baseURL, Err: err}
	}
	c.log.Info("connected to Plex server", "url", baseURL)
	return c, nil
}

// Section is one library section.
type Section struct {
	Key   string `xml:"key,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}

// Supported reports whether the section's content type gets previews.
func (s Section) Supported() bool {
	return s.Type == "movie" || s.Type == "show"
}

// Item is one media item (a movie or an episode).
type Item struct {
	RatingKey string `xml:"ratingKey,attr"`
	Key       string `xml:"key,attr"`
	Title     string `xml:"title,attr"`
}

// MediaPart is one physical file behind an item. Parts without a content
// hash have no bundle directory and cannot receive previews.
type MediaPart struct {
	Hash string
	File string
}

type sectionsContainer struct {
	Directories []Section `xml:"Directory"`
}

type itemsContainer struct {
	Videos []Item `xml:"Video"`
}

// Sections lists all library sections.
func (c *Client) Sections(ctx context.Context) ([]Section, error) {
	body, err := c.get(ctx, "/library/sections", nil)
	if err != nil {
		return nil, err
	}

	var container sectionsContainer
	if err := xml.Unmarshal(body, &container); err != nil {
		return nil, fmt.Errorf("failed to parse sections response: %w", err)
	}
	return container.Directories, nil
}

// SectionItems lists the previewable items of a section: movies directly,
// shows flattened to episodes.
func (c *Client) SectionItems(ctx context.Context, section Section) ([]Item, error) {
	query := url.Values{}
	if section.Type == "show" {
		query.Set("type", episodeType)
	}

	body, err := c.get(ctx, "/library/sections/"+section.Key+"/all", query)
	if err != nil {
		return nil, err
	}

	var container itemsContainer
	if err := xml.Unmarshal(body, &container); err != nil {
		return nil, fmt.Errorf("failed to parse section %s items: %w", section.Key, err)
	}
	return container.Videos, nil
}

// ItemTree fetches an item's full metadata tree and collects every media
// part in it, wherever it nests.
func (c *Client) ItemTree(ctx context.Context, itemKey string) ([]MediaPart, error) {
	body, err := c.get(ctx, itemKey+"/tree", nil)
	if err != nil {
		return nil, err
	}

	var parts []MediaPart
	decoder := xml.NewDecoder(strings.NewReader(string(body)))
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse tree for %s: %w", itemKey, err)
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "MediaPart" {
			continue
		}

		var part MediaPart
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "hash":
				part.Hash = attr.Value
			case "file":
				part.File = attr.Value
			}
		}
		parts = append(parts, part)
	}
	return parts, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/xml")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("plex returned %s for %s", resp.Status, path)
	}
	return io.ReadAll(resp.Body)
}
