package http

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/beevik/etree"
	"github.com/lotscan/lotscan"
)

// inventoryPathHints mark a sitemap URL as an inventory page worth
// scraping.
var inventoryPathHints = []string{
	"/inventory",
	"/vehicles",
	"/cars",
	"/used",
	"/new-vehicles",
	"/listings",
	"/collections",
}

// maxSitemapURLs caps how many sitemap entries are collected before
// filtering; some platforms publish one entry per vehicle.
const maxSitemapURLs = 2000

// maxPageBodyBytes caps how much of a page is read when looking for
// pagination links.
const maxPageBodyBytes = 2 << 20

// paginationSelectors match the pagination controls inventory pages use.
const paginationSelectors = `a[rel="next"], .pagination a, nav[class*="pag"] a, [class*="pager"] a`

// Ensure InventoryService implements the interface at compile time.
var _ lotscan.InventoryLocator = (*InventoryService)(nil)

// InventoryService locates additional inventory pages through the
// site's sitemap, discovered from robots.txt with a /sitemap.xml
// fallback.
type InventoryService struct {
	client *http.Client
}

// NewInventoryService creates a new InventoryService with the given
// HTTP client. If client is nil, http.DefaultClient is used.
func NewInventoryService(client *http.Client) *InventoryService {
	if client == nil {
		client = http.DefaultClient
	}
	return &InventoryService{client: client}
}

// Locate returns up to limit inventory page URLs from the site's
// sitemaps, topped up from the seed page's own pagination links when
// the sitemaps come up short. The seed URL itself is excluded. A site
// without sitemaps or pagination yields an empty slice, not an error.
func (s *InventoryService) Locate(ctx context.Context, siteURL string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	base, err := url.Parse(siteURL)
	if err != nil || base.Host == "" {
		return nil, lotscan.Errorf(lotscan.EINVALID, "invalid site URL %q", siteURL)
	}
	origin := *base
	origin.Path = ""
	origin.RawQuery = ""

	sitemapURLs, err := s.findSitemapURLs(ctx, &origin)
	if err != nil {
		return nil, err
	}

	seenSitemaps := make(map[string]bool)
	seenURLs := make(map[string]bool)
	var all []string
	for _, sitemapURL := range sitemapURLs {
		urls, err := s.processSitemap(ctx, sitemapURL, seenSitemaps)
		if err != nil {
			return nil, err
		}
		for _, u := range urls {
			if !seenURLs[u] {
				seenURLs[u] = true
				all = append(all, u)
			}
			if len(all) >= maxSitemapURLs {
				break
			}
		}
	}

	var out []string
	outSeen := make(map[string]bool)
	for _, u := range all {
		if len(out) >= limit {
			break
		}
		if u == siteURL {
			continue
		}
		if isInventoryURL(u, base.Hostname()) {
			out = append(out, u)
			outSeen[u] = true
		}
	}

	// Pagination links are best effort: many inventory pages are not in
	// any sitemap but do link to their own page 2, 3, and so on.
	if len(out) < limit {
		links, err := s.paginationLinks(ctx, siteURL, base)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		for _, u := range links {
			if len(out) >= limit {
				break
			}
			if u == siteURL || outSeen[u] {
				continue
			}
			out = append(out, u)
			outSeen[u] = true
		}
	}
	return out, nil
}

// paginationLinks fetches the seed page over plain HTTP and extracts
// same-host pagination anchors.
func (s *InventoryService) paginationLinks(ctx context.Context, pageURL string, base *url.URL) ([]string, error) {
	body, err := s.fetchURL(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(body, maxPageBodyBytes))
	if err != nil {
		return nil, err
	}

	var links []string
	seen := make(map[string]bool)
	doc.Find(paginationSelectors).Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		if !strings.EqualFold(resolved.Hostname(), base.Hostname()) {
			return
		}
		if u := resolved.String(); !seen[u] {
			seen[u] = true
			links = append(links, u)
		}
	})
	return links, nil
}

// isInventoryURL keeps same-host URLs whose path looks like an
// inventory page.
func isInventoryURL(rawURL, host string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if !strings.EqualFold(parsed.Hostname(), host) {
		return false
	}
	path := strings.ToLower(parsed.Path)
	for _, hint := range inventoryPathHints {
		if strings.Contains(path, hint) {
			return true
		}
	}
	return false
}

// findSitemapURLs discovers sitemap URLs from robots.txt or falls back
// to /sitemap.xml.
func (s *InventoryService) findSitemapURLs(ctx context.Context, base *url.URL) ([]string, error) {
	robotsURL := base.ResolveReference(&url.URL{Path: "/robots.txt"})
	sitemaps, err := s.parseSitemapsFromRobots(ctx, robotsURL.String())
	if err == nil && len(sitemaps) > 0 {
		return sitemaps, nil
	}

	sitemapURL := base.ResolveReference(&url.URL{Path: "/sitemap.xml"})
	body, err := s.fetchURL(ctx, sitemapURL.String())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	body.Close()
	return []string{sitemapURL.String()}, nil
}

// parseSitemapsFromRobots extracts Sitemap: directives from robots.txt.
func (s *InventoryService) parseSitemapsFromRobots(ctx context.Context, robotsURL string) ([]string, error) {
	body, err := s.fetchURL(ctx, robotsURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var sitemaps []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(strings.ToLower(line), "sitemap:") {
			sitemapURL := strings.TrimSpace(line[len("sitemap:"):])
			if sitemapURL != "" {
				sitemaps = append(sitemaps, sitemapURL)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading robots.txt: %w", err)
	}

	return sitemaps, nil
}

// processSitemap fetches and parses a sitemap, handling both urlset and
// sitemapindex documents.
func (s *InventoryService) processSitemap(ctx context.Context, sitemapURL string, seen map[string]bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if seen[sitemapURL] {
		return nil, nil
	}
	seen[sitemapURL] = true

	body, err := s.fetchURL(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		return nil, fmt.Errorf("parsing sitemap XML: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("empty sitemap XML")
	}

	if root.Tag == "sitemapindex" {
		var all []string
		for _, sitemap := range root.SelectElements("sitemap") {
			loc := sitemap.SelectElement("loc")
			if loc == nil {
				continue
			}
			child := strings.TrimSpace(loc.Text())
			if child == "" {
				continue
			}
			urls, err := s.processSitemap(ctx, child, seen)
			if err != nil {
				return nil, err
			}
			all = append(all, urls...)
		}
		return all, nil
	}

	var urls []string
	for _, u := range root.SelectElements("url") {
		loc := u.SelectElement("loc")
		if loc == nil {
			continue
		}
		if text := strings.TrimSpace(loc.Text()); text != "" {
			urls = append(urls, text)
		}
	}
	return urls, nil
}

func (s *InventoryService) fetchURL(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, rawURL)
	}
	return resp.Body, nil
}
