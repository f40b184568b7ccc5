package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// HTTPTitleProber déduit un titre en allant chercher la page et en lisant
// og:title puis <title>. Best-effort uniquement: les plateformes rendent
// l'essentiel côté client, on accepte une précision médiocre.
type HTTPTitleProber struct {
	Client *http.Client
}

func NewHTTPTitleProber() *HTTPTitleProber {
	return &HTTPTitleProber{Client: &http.Client{Timeout: 5 * time.Second}}
}

func (p *HTTPTitleProber) ProbeTitle(ctx context.Context, url string) string {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}
	resp, err := client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if title := strings.TrimSpace(og); title != "" {
			return title
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
