package server

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type rss struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Description string  `xml:"description"`
	GUID        rssGUID `xml:"guid"`
	PubDate     string  `xml:"pubDate"`
	Category    string  `xml:"category"`
}

type rssGUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

// handleFeed publishes the filtered preview as an RSS 2.0 feed, accepting
// the same query parameters as /api/v1/tweets.
func (s *Server) handleFeed(c echo.Context) error {
	res, err := s.filtered(c)
	if err != nil {
		return err
	}

	feed := rss{
		Version: "2.0",
		Channel: rssChannel{
			Title:       s.feedTitle(),
			Link:        "/",
			Description: fmt.Sprintf("%d tweets match, showing %d", res.Count, res.Shown()),
		},
	}
	for _, t := range res.Matches {
		feed.Channel.Items = append(feed.Channel.Items, rssItem{
			Title:       fmt.Sprintf("[%s] %s", t.Sentiment, t.CreatedAt.Format(time.DateTime)),
			Description: t.CleanText,
			GUID:        rssGUID{Value: "tweet:" + string(t.ID)},
			PubDate:     t.CreatedAt.Format(time.RFC1123Z),
			Category:    t.Sentiment,
		})
	}

	body, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return fmt.Errorf("encode feed: %w", err)
	}
	return c.Blob(http.StatusOK, "application/rss+xml; charset=utf-8", append([]byte(xml.Header), body...))
}

func (s *Server) feedTitle() string {
	if s.options.Title != "" {
		return s.options.Title
	}
	return "sentiboard"
}
