// Package contacts finds contact emails on restaurant websites.
package contacts

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ougirez/restorank/internal/domain"
	"github.com/ougirez/restorank/internal/pkg/logger"
	"golang.org/x/sync/errgroup"
)

type Store interface {
	ListRestaurantsWithoutEmail(ctx context.Context, limit uint64) ([]*domain.Restaurant, error)
	UpdateRestaurantEmail(ctx context.Context, id int64, email string) error
}

type Config struct {
	Concurrency int
	Timeout     time.Duration
}

type Service struct {
	store       Store
	client      *http.Client
	concurrency int
}

func NewContactsService(store Store, cfg Config) *Service {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Service{
		store:       store,
		client:      &http.Client{Timeout: cfg.Timeout},
		concurrency: cfg.Concurrency,
	}
}

var emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// ignoredEmailSuffixes drops addresses that are page assets or placeholders.
var ignoredEmailSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", "@example.com", "@sentry.io"}

// FindEmails fetches the given websites concurrently and returns the first
// contact email found on each. Websites that fail or carry no email are
// absent from the result.
func (s *Service) FindEmails(ctx context.Context, websites map[int64]string) map[int64]string {
	var (
		found   = make(map[int64]string, len(websites))
		foundMx sync.Mutex
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.concurrency)
	for id, website := range websites {
		id, website := id, website
		eg.Go(func() error {
			email, err := s.extract(egCtx, website)
			if err != nil {
				logger.Debugf(egCtx, "extract email, restaurant_id-%d: %s", id, err.Error())
				return nil
			}
			if email == "" {
				return nil
			}

			foundMx.Lock()
			defer foundMx.Unlock()
			found[id] = email
			return nil
		})
	}
	_ = eg.Wait()

	return found
}

// EnrichEmails looks up emails for up to limit active restaurants that have a
// website but no email, stores what it finds and returns how many were stored.
func (s *Service) EnrichEmails(ctx context.Context, limit uint64) (int, error) {
	restaurants, err := s.store.ListRestaurantsWithoutEmail(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("store.ListRestaurantsWithoutEmail: %w", err)
	}

	websites := make(map[int64]string, len(restaurants))
	for _, r := range restaurants {
		websites[r.ID] = r.Website
	}

	found := s.FindEmails(ctx, websites)
	for id, email := range found {
		if err = s.store.UpdateRestaurantEmail(ctx, id, email); err != nil {
			return 0, fmt.Errorf("store.UpdateRestaurantEmail, restaurant_id-%d: %w", id, err)
		}
	}

	logger.Infof(ctx, "found emails for %d of %d restaurants", len(found), len(restaurants))
	return len(found), nil
}

func (s *Service) extract(ctx context.Context, website string) (string, error) {
	if !strings.HasPrefix(website, "http://") && !strings.HasPrefix(website, "https://") {
		website = "https://" + website
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, website, nil)
	if err != nil {
		return "", fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("User-Agent", "restorank-contacts/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http.Do: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status code error: %d %s", resp.StatusCode, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("goquery.NewDocumentFromReader: %w", err)
	}

	return findEmail(doc), nil
}

// findEmail prefers mailto links over addresses spotted in the page text.
func findEmail(doc *goquery.Document) string {
	var email string
	doc.Find(`a[href^="mailto:"], a[href^="MAILTO:"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		address := href[len("mailto:"):]
		if i := strings.IndexByte(address, '?'); i >= 0 {
			address = address[:i]
		}
		if candidate := normalize(address); candidate != "" {
			email = candidate
			return false
		}
		return true
	})
	if email != "" {
		return email
	}

	doc.Find("script, style, noscript").Remove()
	for _, match := range emailRe.FindAllString(doc.Text(), -1) {
		if candidate := normalize(match); candidate != "" {
			return candidate
		}
	}

	return ""
}

func normalize(address string) string {
	address = strings.ToLower(strings.TrimSpace(address))
	for _, suffix := range ignoredEmailSuffixes {
		if strings.HasSuffix(address, suffix) {
			return ""
		}
	}

	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return ""
	}
	return parsed.Address
}
