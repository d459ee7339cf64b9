package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"newsdigest/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

const htmlMaxEntries = 30

// fetchHTML scrapes a plain HTML page for article links. Headlines are taken
// from anchors inside common article containers; pages without publish dates
// simply yield articles with a nil timestamp.
func (f *Fetcher) fetchHTML(ctx context.Context, source domain.FeedSource) ([]domain.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	base, err := url.Parse(source.URL)
	if err != nil {
		return nil, fmt.Errorf("parse source URL: %w", err)
	}

	var articles []domain.Article
	seen := make(map[string]struct{})

	for _, selector := range []string{"article a[href]", "h2 a[href]", "h3 a[href]"} {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			if len(articles) >= htmlMaxEntries {
				return
			}

			title := strings.Join(strings.Fields(sel.Text()), " ")
			href, _ := sel.Attr("href")

			link := resolveLink(base, href)
			if title == "" || link == "" {
				return
			}

			if _, ok := seen[link]; ok {
				return
			}
			seen[link] = struct{}{}

			articles = append(articles, domain.Article{
				ID:       domain.ArticleID(link, title),
				Title:    title,
				Link:     link,
				Source:   source.Name,
				Category: source.Category,
			})
		})

		if len(articles) > 0 {
			break
		}
	}

	return articles, nil
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}

	return resolved.String()
}
