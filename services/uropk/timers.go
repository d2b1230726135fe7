// Package uropk scrapes the uRO PK website for MVP respawn countdowns. The
// page embeds the countdown table's data as a javascript object in a script
// tag right after the table markup.
package uropk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"junkobot/core"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"
)

const defaultPageURL = "https://www.uropk.com.br/?module=mvp&action=index&search=&status=1&submit=1"

// trackedMVPs maps the site's monster ids to display names. Only these ids
// are reported.
var trackedMVPs = map[string]string{
	"1": "Balam (unholy)",
	"2": "Shax (unholy)",
	"3": "Raum (unholy)",
	"4": "Paimon (unholy)",
	"5": "Apollyon (unholy)",
}

// Timer is one countdown entry from the page.
type Timer struct {
	ID   string `json:"id"`
	Date string `json:"date"`
}

// countdown mirrors the javascript object embedded in the page.
type countdown struct {
	Enable     bool    `json:"enable"`
	ServerTime string  `json:"servertime"`
	Offset     int64   `json:"offset"`
	Elements   []Timer `json:"elements"`
}

// Config holds the configuration for the timer scraper.
type Config struct {
	PageURL string        `json:"page_url"`
	Timeout time.Duration `json:"timeout"`
}

// DefaultConfig returns a Config pointing at the live site.
func DefaultConfig() Config {
	return Config{
		PageURL: defaultPageURL,
		Timeout: 15 * time.Second,
	}
}

// Scraper fetches and parses the countdown page. It holds no mutable state;
// every call is independent.
type Scraper struct {
	config     Config
	httpClient *http.Client
	logger     *core.Logger
}

// NewScraper creates a timer scraper with the provided config.
func NewScraper(config Config, logger *core.Logger) *Scraper {
	defaults := DefaultConfig()
	if config.PageURL == "" {
		config.PageURL = defaults.PageURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if logger == nil {
		logger = core.GetLogger()
	}
	return &Scraper{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}
}

// FetchTimers downloads the page and returns every countdown entry it embeds.
func (s *Scraper) FetchTimers(ctx context.Context) ([]Timer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.PageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build timer request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch timer page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("timer page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse timer page: %w", err)
	}

	script := doc.Find(".table-responsive + script").First()
	if script.Length() == 0 {
		return nil, errors.New("countdown script tag not found")
	}

	parsed, err := parseCountdown(script.Text())
	if err != nil {
		return nil, err
	}

	s.logger.With(map[string]interface{}{
		"servertime": parsed.ServerTime,
		"entries":    len(parsed.Elements),
	}).Debug("fetched countdown table")
	return parsed.Elements, nil
}

// parseCountdown slices the javascript object literal out of the script body
// and decodes it. The site uses single-quoted strings, which are normalized
// to JSON before decoding.
func parseCountdown(script string) (countdown, error) {
	start := strings.Index(script, "{")
	end := strings.LastIndex(script, "}")
	if start < 0 || end < start {
		return countdown{}, errors.New("countdown object not found in script")
	}

	jsonObject := strings.ReplaceAll(script[start:end+1], "'", `"`)

	var parsed countdown
	if err := sonic.Unmarshal([]byte(jsonObject), &parsed); err != nil {
		return countdown{}, fmt.Errorf("decode countdown object: %w", err)
	}
	return parsed, nil
}

// Report fetches the timers and formats respawn lines for the tracked MVPs,
// ordered by id. Untracked ids are dropped.
func (s *Scraper) Report(ctx context.Context) (string, error) {
	timers, err := s.FetchTimers(ctx)
	if err != nil {
		return "", err
	}

	tracked := make([]Timer, 0, len(timers))
	for _, timer := range timers {
		if _, ok := trackedMVPs[timer.ID]; ok {
			tracked = append(tracked, timer)
		}
	}
	sort.Slice(tracked, func(i, j int) bool { return tracked[i].ID < tracked[j].ID })

	var b strings.Builder
	b.WriteString("MVPs respawn timers: \n")
	for _, timer := range tracked {
		b.WriteString(trackedMVPs[timer.ID])
		b.WriteString("\t")
		b.WriteString(timer.Date)
		b.WriteString("\n")
	}
	return b.String(), nil
}
