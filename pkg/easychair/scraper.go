package easychair

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samvad-hq/shiksha/internal/domain"
	"github.com/samvad-hq/shiksha/pkg/httpclient"
)

const (
	// DefaultURL is the public call-for-papers listing.
	DefaultURL = "https://easychair.org/cfp/"

	siteURL      = "https://easychair.org"
	userAgent    = "ShikshaConferenceFinder/1.0 (purpose: academic research)"
	rowSelector  = `table[id="ec:table1"] tbody tr.green`
	minColumns   = 6
	missingValue = "N/A"
)

// Logger defines the logging surface the scraper relies on.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{}) {}

// Scraper fetches and parses the EasyChair CFP table.
type Scraper struct {
	client httpclient.Client
	url    string
	log    Logger
}

// NewScraper builds a scraper. An empty url means DefaultURL.
func NewScraper(client httpclient.Client, url string, log Logger) *Scraper {
	if strings.TrimSpace(url) == "" {
		url = DefaultURL
	}
	if log == nil {
		log = noopLogger{}
	}
	return &Scraper{client: client, url: url, log: log}
}

// Search fetches the listing and keeps conferences whose topics match topicDomain.
func (s *Scraper) Search(ctx context.Context, topicDomain string) ([]domain.Conference, error) {
	all, err := s.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	filtered := FilterByDomain(all, topicDomain)
	s.log.InfoObj("easychair search completed", "easychair_search", map[string]any{
		"domain":   topicDomain,
		"scraped":  len(all),
		"returned": len(filtered),
	})
	return filtered, nil
}

// Fetch downloads and parses every listed conference.
func (s *Scraper) Fetch(ctx context.Context) ([]domain.Conference, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("easychair scraper is not initialized")
	}
	resp, err := httpclient.Get(ctx, s.client, s.url, map[string]string{"User-Agent": userAgent})
	if err != nil {
		return nil, fmt.Errorf("fetch easychair cfp: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("easychair cfp returned status %d", resp.StatusCode())
	}

	confs, err := Parse(resp.Body())
	if err != nil {
		return nil, err
	}
	if len(confs) == 0 {
		s.log.WarnObj("no conference rows found", "easychair_parse", map[string]any{"url": s.url})
	}
	return confs, nil
}

// Parse extracts conferences from the CFP page. Rows with fewer than six cells are skipped.
func Parse(html []byte) ([]domain.Conference, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse easychair html: %w", err)
	}

	var out []domain.Conference
	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() < minColumns {
			return
		}

		acronym, link := missingValue, missingValue
		if a := cols.Eq(0).Find("a").First(); a.Length() > 0 {
			acronym = strings.TrimSpace(a.Text())
			if href, ok := a.Attr("href"); ok {
				link = absoluteLink(href)
			}
		}

		out = append(out, domain.Conference{
			Acronym:            acronym,
			Name:               strings.TrimSpace(cols.Eq(1).Text()),
			Link:               link,
			Location:           strings.TrimSpace(cols.Eq(2).Text()),
			SubmissionDeadline: dateCell(cols.Eq(3)),
			StartDate:          dateCell(cols.Eq(4)),
			Topics:             topics(cols.Eq(5)),
		})
	})
	return out, nil
}

// FilterByDomain keeps conferences with a topic containing topicDomain, case-insensitively.
// An empty domain keeps everything.
func FilterByDomain(confs []domain.Conference, topicDomain string) []domain.Conference {
	needle := strings.ToLower(strings.TrimSpace(topicDomain))
	if needle == "" {
		return confs
	}
	out := make([]domain.Conference, 0, len(confs))
	for _, c := range confs {
		for _, topic := range c.Topics {
			if strings.Contains(strings.ToLower(topic), needle) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func absoluteLink(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return missingValue
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return siteURL + href
}

func dateCell(cell *goquery.Selection) string {
	span := cell.Find("span.cfp_date").First()
	if span.Length() == 0 {
		return missingValue
	}
	return strings.TrimSpace(span.Text())
}

func topics(cell *goquery.Selection) []string {
	var out []string
	cell.Find("a").Each(func(_ int, a *goquery.Selection) {
		if tag := a.Find("span.tag").First(); tag.Length() > 0 {
			out = append(out, strings.TrimSpace(tag.Text()))
		}
	})
	if len(out) == 0 {
		return []string{missingValue}
	}
	return out
}
