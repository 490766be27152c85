package feed

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"

	"podenrich/internal/episode"
	"podenrich/internal/logging"
	"podenrich/internal/services"
)

const (
	defaultTimeout = 30 * time.Second
	audioLinkKey   = "podenrich_audio_link"
)

// Reader fetches and parses a feed.
type Reader struct {
	parser *gofeed.Parser
	logger *slog.Logger
}

// Option customizes a Reader.
type Option func(*Reader)

// WithHTTPClient overrides the client used for fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Reader) {
		if client != nil {
			r.parser.Client = client
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReader builds a Reader with the given request timeout and user agent.
func NewReader(timeout time.Duration, userAgent string, opts ...Option) *Reader {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	parser := gofeed.NewParser()
	parser.AtomTranslator = &audioAtomTranslator{}
	parser.Client = &http.Client{Timeout: timeout}
	if ua := strings.TrimSpace(userAgent); ua != "" {
		parser.UserAgent = ua
	}
	r := &Reader{parser: parser, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fetch retrieves feedURL and returns descriptors for entries with audio, in
// feed order.
func (r *Reader) Fetch(ctx context.Context, feedURL string) ([]episode.Descriptor, error) {
	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "feed", "fetch", "Feed URL is empty; pass --feed or set feed.url", nil)
	}
	parsed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, services.Wrap(services.ErrAcquisition, "feed", "fetch", "Feed server returned "+httpErr.Status, err)
		}
		return nil, services.Wrap(services.ErrAcquisition, "feed", "parse", "Failed to fetch or parse feed", err)
	}
	return r.describe(parsed), nil
}

// Parse converts a feed document already in memory.
func (r *Reader) Parse(body string) ([]episode.Descriptor, error) {
	parsed, err := r.parser.ParseString(body)
	if err != nil {
		return nil, services.Wrap(services.ErrAcquisition, "feed", "parse", "Failed to parse feed", err)
	}
	return r.describe(parsed), nil
}

func (r *Reader) describe(parsed *gofeed.Feed) []episode.Descriptor {
	if parsed == nil {
		return nil
	}
	descriptors := make([]episode.Descriptor, 0, len(parsed.Items))
	dropped := 0
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		audioURL := AudioURL(item)
		if audioURL == "" {
			dropped++
			r.logger.Debug("feed entry without audio dropped", logging.String(logging.FieldTitle, item.Title))
			continue
		}
		descriptors = append(descriptors, episode.Descriptor{
			Title:       strings.TrimSpace(item.Title),
			Link:        strings.TrimSpace(item.Link),
			Description: item.Description,
			Published:   item.Published,
			AudioURL:    audioURL,
		})
	}
	r.logger.Info("feed parsed",
		logging.String("feed_title", parsed.Title),
		logging.Int("entries", len(parsed.Items)),
		logging.Int("with_audio", len(descriptors)),
		logging.Int("dropped", dropped),
	)
	return descriptors
}

// AudioURL resolves an item's audio link: a typed audio link first, then an
// audio enclosure. It returns an empty string when neither exists.
func AudioURL(item *gofeed.Item) string {
	if item == nil {
		return ""
	}
	if href := item.Custom[audioLinkKey]; href != "" {
		return href
	}
	for _, link := range item.Extensions["atom"]["link"] {
		if isAudioType(link.Attrs["type"]) && strings.TrimSpace(link.Attrs["href"]) != "" {
			return strings.TrimSpace(link.Attrs["href"])
		}
	}
	for _, enclosure := range item.Enclosures {
		if enclosure == nil {
			continue
		}
		if isAudioType(enclosure.Type) && strings.TrimSpace(enclosure.URL) != "" {
			return strings.TrimSpace(enclosure.URL)
		}
	}
	return ""
}

// Select returns the first max descriptors; max <= 0 returns all of them.
func Select(descriptors []episode.Descriptor, max int) []episode.Descriptor {
	if max <= 0 || max >= len(descriptors) {
		return descriptors
	}
	return descriptors[:max]
}

func isAudioType(value string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(value)), "audio/")
}

// audioAtomTranslator keeps the typed <link> elements that gofeed's default
// Atom translation flattens into plain strings.
type audioAtomTranslator struct {
	base gofeed.DefaultAtomTranslator
}

func (t *audioAtomTranslator) Translate(feed interface{}) (*gofeed.Feed, error) {
	translated, err := t.base.Translate(feed)
	if err != nil {
		return nil, err
	}
	source, ok := feed.(*atom.Feed)
	if !ok || len(source.Entries) != len(translated.Items) {
		return translated, nil
	}
	for i, entry := range source.Entries {
		if entry == nil || translated.Items[i] == nil {
			continue
		}
		for _, link := range entry.Links {
			if link == nil || !isAudioType(link.Type) || strings.TrimSpace(link.Href) == "" {
				continue
			}
			if translated.Items[i].Custom == nil {
				translated.Items[i].Custom = map[string]string{}
			}
			translated.Items[i].Custom[audioLinkKey] = strings.TrimSpace(link.Href)
			break
		}
	}
	return translated, nil
}
