// Package metrics mounts the Prometheus scrape endpoint of the org chart server.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgchart/pkg/application"
)

const DefaultPath = "/debug/prometheus"

// ScrapeController serves a gatherer (the default registry unless replaced).
// A collector that fails is logged; the remaining families are still served.
type ScrapeController struct {
	path     string
	gatherer prometheus.Gatherer
	logger   logrus.FieldLogger
}

type ScrapeOption func(*ScrapeController)

func WithGatherer(g prometheus.Gatherer) ScrapeOption {
	return func(c *ScrapeController) { c.gatherer = g }
}

func WithLogger(logger logrus.FieldLogger) ScrapeOption {
	return func(c *ScrapeController) { c.logger = logger }
}

func NewScrapeController(path string, opts ...ScrapeOption) application.Controller {
	if path == "" {
		path = DefaultPath
	}
	c := &ScrapeController{
		path:     path,
		gatherer: prometheus.DefaultGatherer,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ScrapeController) Key() string {
	return "metrics:" + c.path
}

func (c *ScrapeController) Register(r *mux.Router) {
	handler := promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{
		ErrorLog:      scrapeErrorLog{c.logger.WithField("endpoint", c.path)},
		ErrorHandling: promhttp.ContinueOnError,
	})
	r.Handle(c.path, handler).Methods(http.MethodGet, http.MethodHead)
}

// scrapeErrorLog adapts logrus to promhttp.Logger.
type scrapeErrorLog struct {
	logger logrus.FieldLogger
}

func (l scrapeErrorLog) Println(v ...any) {
	l.logger.Error("metrics scrape: " + fmt.Sprint(v...))
}
