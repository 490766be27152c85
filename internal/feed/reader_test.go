package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"podenrich/internal/episode"
	"podenrich/internal/services"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">
  <channel>
    <title>Data Talks</title>
    <link>https://example.com</link>
    <description>Analytics podcast</description>
    <item>
      <title>Data Strategy with Jane Doe</title>
      <link>https://example.com/ep1</link>
      <description>First episode</description>
      <pubDate>Mon, 02 Jan 2023 10:00:00 GMT</pubDate>
      <enclosure url="https://cdn.example.com/ep1.mp3" length="1234" type="audio/mpeg"/>
    </item>
    <item>
      <title>Show notes only</title>
      <link>https://example.com/notes</link>
      <enclosure url="https://cdn.example.com/notes.pdf" length="10" type="application/pdf"/>
    </item>
    <item>
      <title>Weekly Roundup</title>
      <link>https://example.com/ep2</link>
      <atom:link rel="alternate" type="audio/x-m4a" href="https://cdn.example.com/ep2.m4a"/>
      <enclosure url="https://cdn.example.com/ep2.mp3" length="99" type="audio/mpeg"/>
    </item>
  </channel>
</rss>`

const atomFixture = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Data Talks</title>
  <id>urn:feed</id>
  <updated>2023-01-02T10:00:00Z</updated>
  <entry>
    <title>AI in Practice with Sam Lee</title>
    <id>urn:ep1</id>
    <updated>2023-01-02T10:00:00Z</updated>
    <published>2023-01-02T10:00:00Z</published>
    <link rel="alternate" type="text/html" href="https://example.com/ep1"/>
    <link rel="alternate" type="audio/mpeg" href="https://cdn.example.com/ep1.mp3"/>
    <summary>Episode one</summary>
  </entry>
  <entry>
    <title>Blog post</title>
    <id>urn:post</id>
    <updated>2023-01-03T10:00:00Z</updated>
    <link rel="alternate" type="text/html" href="https://example.com/post"/>
  </entry>
  <entry>
    <title>Lakehouse Basics</title>
    <id>urn:ep2</id>
    <updated>2023-01-04T10:00:00Z</updated>
    <link rel="enclosure" type="audio/mp4" href="https://cdn.example.com/ep2.m4a"/>
  </entry>
</feed>`

func serve(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "podenrich/test" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchRSSDropsEntriesWithoutAudio(t *testing.T) {
	srv := serve(t, rssFixture)
	reader := NewReader(time.Second, "podenrich/test")

	got, err := reader.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d descriptors, want 2: %+v", len(got), got)
	}
	first := got[0]
	if first.Title != "Data Strategy with Jane Doe" || first.AudioURL != "https://cdn.example.com/ep1.mp3" {
		t.Fatalf("unexpected first descriptor: %+v", first)
	}
	if first.Link != "https://example.com/ep1" || first.Description != "First episode" || first.Published == "" {
		t.Fatalf("optional fields not carried: %+v", first)
	}
	if got[1].AudioURL != "https://cdn.example.com/ep2.m4a" {
		t.Fatalf("typed audio link should win over enclosure, got %q", got[1].AudioURL)
	}
	if got[1].Description != "" {
		t.Fatalf("missing description should be empty, got %q", got[1].Description)
	}
}

func TestFetchAtomUsesTypedLinksAndEnclosures(t *testing.T) {
	srv := serve(t, atomFixture)
	reader := NewReader(time.Second, "podenrich/test")

	got, err := reader.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := []string{"https://cdn.example.com/ep1.mp3", "https://cdn.example.com/ep2.m4a"}
	if len(got) != len(want) {
		t.Fatalf("got %d descriptors, want %d: %+v", len(got), len(want), got)
	}
	for i, url := range want {
		if got[i].AudioURL != url {
			t.Fatalf("descriptor %d audio %q, want %q", i, got[i].AudioURL, url)
		}
	}
	if got[0].Title != "AI in Practice with Sam Lee" {
		t.Fatalf("feed order not preserved: %+v", got)
	}
}

func TestFetchNon2xxIsAcquisitionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewReader(time.Second, "").Fetch(context.Background(), srv.URL)
	if !errors.Is(err, services.ErrAcquisition) {
		t.Fatalf("expected acquisition error, got %v", err)
	}
}

func TestFetchEmptyURLIsConfigurationError(t *testing.T) {
	_, err := NewReader(time.Second, "").Fetch(context.Background(), " ")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := NewReader(0, "").Parse("definitely not xml"); !errors.Is(err, services.ErrAcquisition) {
		t.Fatalf("expected acquisition error, got %v", err)
	}
}

func TestSelect(t *testing.T) {
	all := []episode.Descriptor{{Title: "a"}, {Title: "b"}, {Title: "c"}}
	cases := []struct {
		max  int
		want int
	}{
		{0, 3}, {-1, 3}, {2, 2}, {3, 3}, {10, 3},
	}
	for _, tc := range cases {
		got := Select(all, tc.max)
		if len(got) != tc.want {
			t.Fatalf("Select(max=%d) returned %d", tc.max, len(got))
		}
		if len(got) > 0 && got[0].Title != "a" {
			t.Fatalf("Select changed order: %+v", got)
		}
	}
}
