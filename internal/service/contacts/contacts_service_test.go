package contacts

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/ougirez/restorank/internal/domain"
	"github.com/ougirez/restorank/internal/pkg/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d
}

func TestFindEmail(t *testing.T) {
	cases := map[string]struct {
		html string
		want string
	}{
		"mailto wins over text": {
			html: `<p>write to press@bistro.com</p><a href="mailto:Hello@Bistro.com?subject=Booking">mail us</a>`,
			want: "hello@bistro.com",
		},
		"text fallback": {
			html: `<footer>Contact: info@trattoria.it</footer>`,
			want: "info@trattoria.it",
		},
		"asset names ignored": {
			html: `<img src="logo@2x.png"><p>logo@2x.png reservations@cafe.fr</p>`,
			want: "reservations@cafe.fr",
		},
		"scripts ignored": {
			html: `<script>var e = "bot@tracker.io";</script><p>no email here</p>`,
			want: "",
		},
		"placeholder ignored": {
			html: `<a href="mailto:you@example.com">x</a>`,
			want: "",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, findEmail(doc(t, tc.html)))
		})
	}
}

func TestEnrichEmails(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = fmt.Fprint(w, `<html><body><a href="mailto:owner@bistro.com">Email</a></body></html>`)
		case "/empty":
			_, _ = fmt.Fprint(w, `<html><body>Call us</body></html>`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	st := storetest.New(t)
	ids := map[string]int64{}
	for _, path := range []string{"ok", "empty", "missing"} {
		id, err := st.InsertRestaurant(ctx, &domain.Restaurant{Name: path, IsActive: true, Website: srv.URL + "/" + path})
		require.NoError(t, err)
		ids[path] = id
	}
	_, err := st.InsertRestaurant(ctx, &domain.Restaurant{Name: "no site", IsActive: true})
	require.NoError(t, err)

	svc := NewContactsService(st, Config{Concurrency: 2})
	n, err := svc.EnrichEmails(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	r, err := st.GetRestaurant(ctx, ids["ok"])
	require.NoError(t, err)
	assert.Equal(t, "owner@bistro.com", r.Email)

	r, err = st.GetRestaurant(ctx, ids["missing"])
	require.NoError(t, err)
	assert.Empty(t, r.Email)

	// found emails drop out of the next run
	left, err := st.ListRestaurantsWithoutEmail(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, left, 2)
}

func TestFindEmails_Unreachable(t *testing.T) {
	svc := NewContactsService(nil, Config{})
	assert.Empty(t, svc.FindEmails(context.Background(), map[int64]string{1: "http://127.0.0.1:1/"}))
}
