package ingest

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"psgc-api/internal/logger"
	"psgc-api/internal/psgc"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

// ErrNoPublication：发布页面上没有符合命名规则的数据文件链接
var ErrNoPublication = errors.New("no PSGC publication link found")

// Publication：发布页上的一个数据文件链接
type Publication struct {
	URL      string
	Filename string
	Quarter  int
	Year     int
}

func (p Publication) newerThan(o Publication) bool {
	if p.Year != o.Year {
		return p.Year > o.Year
	}
	return p.Quarter > o.Quarter
}

// Crawler：抓取发布页并找出最新一期数据文件
type Crawler struct {
	Client  *http.Client
	PageURL string
}

func NewCrawler(pageURL string) *Crawler {
	return &Crawler{Client: &http.Client{Timeout: 30 * time.Second}, PageURL: pageURL}
}

// Latest：按（年，季度）取最大者；相对链接按页面地址解析为绝对地址
func (c *Crawler) Latest(ctx context.Context) (Publication, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.PageURL, nil)
	if err != nil {
		return Publication{}, errors.Wrap(err, "build crawl request")
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return Publication{}, errors.Wrap(err, "fetch publication page")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Publication{}, errors.Errorf("fetch publication page: status %d", resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Publication{}, errors.Wrap(err, "parse publication page")
	}
	base, err := url.Parse(c.PageURL)
	if err != nil {
		return Publication{}, errors.Wrap(err, "parse page url")
	}

	var latest Publication
	found := false
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		p, ok := parsePublicationLink(base, strings.TrimSpace(href))
		if !ok {
			return
		}
		if !found || p.newerThan(latest) {
			latest = p
			found = true
		}
	})
	if !found {
		logger.L().Warn("crawl_no_publication", "page", c.PageURL)
		return Publication{}, ErrNoPublication
	}
	logger.L().Info("crawl_latest_publication", "filename", latest.Filename, "url", latest.URL)
	return latest, nil
}

func parsePublicationLink(base *url.URL, href string) (Publication, bool) {
	m := psgc.FilenamePattern.FindStringSubmatch(href)
	if m == nil {
		return Publication{}, false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return Publication{}, false
	}
	abs := base.ResolveReference(ref)
	q, _ := strconv.Atoi(m[1])
	y, _ := strconv.Atoi(m[2])
	return Publication{URL: abs.String(), Filename: m[0], Quarter: q, Year: y}, true
}
