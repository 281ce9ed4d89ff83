package wayback

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/user/deadpage-hunter/internal/entity"
	"github.com/user/deadpage-hunter/internal/repository"
)

// Elements that never carry article text.
const boilerplateSelector = "script, style, nav, footer, header, iframe"

type availability struct {
	ArchivedSnapshots struct {
		Closest *struct {
			Available bool   `json:"available"`
			URL       string `json:"url"`
			Timestamp string `json:"timestamp"`
			Status    string `json:"status"`
		} `json:"closest"`
	} `json:"archived_snapshots"`
}

// Client talks to the Wayback Machine availability API.
type Client struct {
	baseURL string
	lookup  *http.Client
	fetch   *http.Client
}

var _ repository.SnapshotRepository = (*Client)(nil)

// NewClient creates a client rooted at baseURL (https://archive.org in production).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		lookup:  &http.Client{Timeout: 10 * time.Second},
		fetch:   &http.Client{Timeout: 20 * time.Second},
	}
}

// Closest asks the availability API for the capture nearest to now.
func (c *Client) Closest(ctx context.Context, rawURL string) (*entity.Snapshot, error) {
	endpoint := c.baseURL + "/wayback/available?url=" + url.QueryEscape(rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build availability request: %w", err)
	}

	resp, err := c.lookup.Do(req)
	if err != nil {
		return nil, fmt.Errorf("availability request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("availability API returned status %d", resp.StatusCode)
	}

	var body availability
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode availability response: %w", err)
	}

	closest := body.ArchivedSnapshots.Closest
	if closest == nil || closest.URL == "" {
		return nil, repository.ErrNoSnapshot
	}
	return &entity.Snapshot{URL: closest.URL, Timestamp: closest.Timestamp}, nil
}

// FetchText downloads the capture and returns its visible text with
// boilerplate elements removed and whitespace collapsed.
func (c *Client) FetchText(ctx context.Context, snap *entity.Snapshot) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, snap.URL, nil)
	if err != nil {
		return "", fmt.Errorf("build snapshot request: %w", err)
	}

	resp, err := c.fetch.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("snapshot returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse snapshot: %w", err)
	}
	return CleanText(doc), nil
}

// CleanText strips boilerplate elements and joins the remaining text nodes
// with single spaces.
func CleanText(doc *goquery.Document) string {
	doc.Find(boilerplateSelector).Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	var words []string
	for _, n := range root.Nodes {
		for d := range n.Descendants() {
			if d.Type == html.TextNode {
				words = append(words, strings.Fields(d.Data)...)
			}
		}
	}
	return strings.Join(words, " ")
}
