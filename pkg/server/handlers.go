package server

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/elonfeng/sentiboard/internal/metrics"
	"github.com/elonfeng/sentiboard/pkg/dashboard"
	"github.com/elonfeng/sentiboard/pkg/dataset"
	"github.com/elonfeng/sentiboard/pkg/filter"
	"github.com/elonfeng/sentiboard/pkg/media"
	"github.com/labstack/echo/v4"
)

// tweetView is the API shape of a tweet with its parsed timestamp.
type tweetView struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CleanText string    `json:"clean_text"`
	Created   time.Time `json:"tweet_created"`
	Sentiment string    `json:"sentiment"`
}

type timelineView struct {
	Date     string  `json:"date"`
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDashboard(c echo.Context) error {
	ctx := c.Request().Context()

	d, err := s.snapshot(ctx)
	if err != nil {
		var buf bytes.Buffer
		if rerr := dashboard.RenderError(&buf, dashboard.ErrorPage{
			Title:   s.options.Title,
			Heading: datasetHeading(err),
			Detail:  err.Error(),
		}); rerr != nil {
			return rerr
		}
		return c.HTMLBlob(datasetStatus(err), buf.Bytes())
	}

	page, err := dashboard.Build(ctx, d, dashboard.Request{
		Wordcloud: c.QueryParam("wordcloud"),
		Sentiment: c.QueryParam("sentiment"),
		Start:     c.QueryParam("start"),
		End:       c.QueryParam("end"),
	}, s.images, s.options)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := dashboard.Render(&buf, page); err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// filtered loads a snapshot and applies the criteria from the query string.
func (s *Server) filtered(c echo.Context) (filter.Result, error) {
	d, err := s.snapshot(c.Request().Context())
	if err != nil {
		return filter.Result{}, echo.NewHTTPError(datasetStatus(err), err.Error())
	}

	criteria, err := filter.ParseCriteria(
		c.QueryParam("sentiment"),
		c.QueryParam("start"),
		c.QueryParam("end"),
		filter.DefaultsFor(d),
	)
	if err != nil {
		return filter.Result{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res := filter.ApplyLimit(d.Tweets, criteria, s.options.PreviewLimit)
	metrics.RecordFilter(criteria.Category, res.Count)
	return res, nil
}

func (s *Server) handleTweets(c echo.Context) error {
	res, err := s.filtered(c)
	if err != nil {
		return err
	}

	views := make([]tweetView, 0, len(res.Matches))
	for _, t := range res.Matches {
		views = append(views, tweetView{
			ID:        string(t.ID),
			Text:      t.Text,
			CleanText: t.CleanText,
			Created:   t.CreatedAt,
			Sentiment: t.Sentiment,
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data":    views,
		"count":   res.Count,
		"shown":   res.Shown(),
		"message": dashboard.CountMessage(res),
	})
}

func (s *Server) handleTimeline(c echo.Context) error {
	d, err := s.snapshot(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(datasetStatus(err), err.Error())
	}

	views := make([]timelineView, 0, len(d.Timeline))
	for _, p := range d.Timeline {
		views = append(views, timelineView{
			Date:     p.Day.Format(dataset.DateLayout),
			Positive: p.Positive,
			Neutral:  p.Neutral,
			Negative: p.Negative,
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data":  views,
		"count": len(views),
	})
}

func (s *Server) handleSummary(c echo.Context) error {
	d, err := s.snapshot(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(datasetStatus(err), err.Error())
	}
	if len(d.RawSummary) > 0 {
		return c.JSONBlob(http.StatusOK, d.RawSummary)
	}
	return c.JSON(http.StatusOK, d.Summary)
}

func (s *Server) handleCategories(c echo.Context) error {
	d, err := s.snapshot(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(datasetStatus(err), err.Error())
	}

	resp := map[string]any{
		"sentiments": filter.Options(d),
		"wordclouds": dashboard.WordcloudCategories(d),
	}
	if first, last, ok := d.Span(); ok {
		resp["start"] = first.Format(dataset.DateLayout)
		resp["end"] = last.Format(dataset.DateLayout)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDistribution(c echo.Context) error {
	img, err := s.images.Resolve(c.Request().Context(), s.options.DistributionRef)
	if err != nil {
		return imageError(err)
	}
	return c.Blob(http.StatusOK, img.ContentType, img.Data)
}

func (s *Server) handleWordcloud(c echo.Context) error {
	d, err := s.snapshot(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(datasetStatus(err), err.Error())
	}

	img, err := s.images.Wordcloud(c.Request().Context(), d.Wordclouds, c.Param("category"))
	if err != nil {
		return imageError(err)
	}
	return c.Blob(http.StatusOK, img.ContentType, img.Data)
}

func imageError(err error) error {
	if errors.Is(err, media.ErrImageUnavailable) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return err
}
