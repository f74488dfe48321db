package portal

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/samvad-hq/shiksha/internal/domain"
	"github.com/samvad-hq/shiksha/pkg/httpclient"
)

// ConferenceQuery filters the conference search. The backend filters on Domain
// only; PaperType and Format are forwarded as given.
type ConferenceQuery struct {
	Domain    string `json:"domain" validate:"required"`
	PaperType string `json:"paper_type" validate:"required"`
	Format    string `json:"format" validate:"required"`
}

// SearchConferences queries the backend's scraped conference listing.
func (s *Service) SearchConferences(ctx context.Context, q ConferenceQuery) ([]domain.Conference, error) {
	q.Domain = strings.TrimSpace(q.Domain)
	q.PaperType = strings.TrimSpace(q.PaperType)
	q.Format = strings.TrimSpace(q.Format)
	if err := s.check(q); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("domain", q.Domain)
	params.Set("paper_type", q.PaperType)
	params.Set("format", q.Format)

	resp, err := httpclient.Get(ctx, s.client, s.endpoints.ai(s.endpoints.Conferences)+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("conference search request: %w", err)
	}

	var out []domain.Conference
	if err := s.expect("conference search", resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}
