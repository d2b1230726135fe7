package uropk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const fixturePage = `<!doctype html>
<html><body>
<div class="table-responsive"><table><tr><td>mvp table</td></tr></table></div>
<script>
var countdown = {'enable': true, 'servertime': '2024-05-01 10:00:00', 'offset': -10800,
'elements': [{'id': '2', 'date': '2024-05-01 11:30:00'},
{'id': '99', 'date': '2024-05-01 12:00:00'},
{'id': '1', 'date': '2024-05-01 10:45:00'}]};
countdown.start();
</script>
</body></html>`

func newTestScraper(t *testing.T, handler http.HandlerFunc) *Scraper {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewScraper(Config{PageURL: srv.URL}, nil)
}

func TestFetchTimers_ParsesEmbeddedObject(t *testing.T) {
	scraper := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(fixturePage))
	})

	timers, err := scraper.FetchTimers(context.Background())
	if err != nil {
		t.Fatalf("FetchTimers failed: %v", err)
	}
	if len(timers) != 3 {
		t.Fatalf("expected 3 timers, got %d", len(timers))
	}
	if timers[0].ID != "2" || timers[0].Date != "2024-05-01 11:30:00" {
		t.Fatalf("unexpected first timer %+v", timers[0])
	}
}

func TestFetchTimers_MissingScriptTag(t *testing.T) {
	scraper := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>nothing here</p></body></html>"))
	})

	if _, err := scraper.FetchTimers(context.Background()); err == nil {
		t.Fatal("expected error for missing script tag")
	}
}

func TestFetchTimers_BadStatus(t *testing.T) {
	scraper := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	if _, err := scraper.FetchTimers(context.Background()); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestReport_FiltersAndOrdersTrackedMVPs(t *testing.T) {
	scraper := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(fixturePage))
	})

	report, err := scraper.Report(context.Background())
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(report, "\n"), "\n")
	if lines[0] != "MVPs respawn timers: " {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if len(lines) != 3 {
		t.Fatalf("expected 2 tracked timers, got lines %q", lines)
	}
	if !strings.HasPrefix(lines[1], "Balam (unholy)") {
		t.Fatalf("expected Balam first, got %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "Shax (unholy)") {
		t.Fatalf("expected Shax second, got %q", lines[2])
	}
	if strings.Contains(report, "99") {
		t.Fatalf("untracked id leaked into report:\n%s", report)
	}
}

func TestParseCountdown_RejectsGarbage(t *testing.T) {
	if _, err := parseCountdown("no object here"); err == nil {
		t.Fatal("expected error for script without object literal")
	}
	if _, err := parseCountdown("{'enable': tru"); err == nil {
		t.Fatal("expected error for truncated object")
	}
}
