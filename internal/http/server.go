package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"seven23/internal/cache"
	"seven23/internal/calendar"
	"seven23/internal/core"
	"seven23/internal/log"
	appweb "seven23/web"
)

// SeriesSource provides the heat-map input and a version that changes
// whenever the stored data does.
type SeriesSource interface {
	Recent(ctx context.Context) (calendar.Series, error)
	Series(ctx context.Context, from, to core.Date) (calendar.Series, error)
	Version(ctx context.Context) (int64, error)
}

type TransactionRecorder interface {
	Record(ctx context.Context, t core.Transaction) (core.Transaction, error)
	DayReport(ctx context.Context, d core.Date) (core.DaySummary, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configure the server. Zero values select defaults.
type Options struct {
	Currency core.Currency
	Theme    calendar.Theme
	Color    string
	Quantile float64
	// Calendar holds the default width, months per line and weekday
	// convention; requests may override them.
	Calendar  CalendarParams
	CacheSize int
	CacheTTL  time.Duration
	Logger    *log.Logger
	Now       func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Currency.Code == "" {
		o.Currency, _ = core.LookupCurrency("EUR")
	}
	if o.Quantile == 0 {
		o.Quantile = calendar.DefaultQuantile
	}
	if o.Calendar.Width == 0 {
		o.Calendar.Width = calendar.DefaultWidth
	}
	if o.Calendar.Weekday == "" {
		o.Calendar.Weekday = calendar.Monday
	}
	if o.CacheSize == 0 {
		o.CacheSize = 64
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = 5 * time.Minute
	}
	if o.Logger == nil {
		o.Logger = log.New(log.DefaultConfig())
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type Server struct {
	http.Server
	templates    *template.Template
	series       SeriesSource
	transactions TransactionRecorder
	pinger       Pinger
	opts         Options
	logger       *log.Logger
	requestLog   *log.RequestLogger

	renders      *cache.LRUCache[[]byte]
	cacheManager *cache.Manager
	renderGroup  singleflight.Group

	rateLimiter  *rateLimiter
	metrics      *securityMetrics
	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
// pinger may be nil.
func NewServer(addr string, series SeriesSource, transactions TransactionRecorder, pinger Pinger, opts Options) *Server {
	opts = opts.withDefaults()
	mux := http.NewServeMux()
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           log.Middleware(logger)(mux),
			ReadHeaderTimeout: 10 * time.Second,
		},
		series:       series,
		transactions: transactions,
		pinger:       pinger,
		opts:         opts,
		logger:       logger,
		requestLog:   log.NewRequestLogger(opts.Logger),
		renders:      cache.NewLRUCache[[]byte](opts.CacheSize, opts.CacheTTL),
		cacheManager: cache.NewManager(opts.Logger.Logger),
		rateLimiter:  newRateLimiter(rateLimitRequests, rateLimitWindow),
		metrics:      &securityMetrics{},
		started:      opts.Now(),
	}
	s.cacheManager.Register(s.renders)
	s.cacheManager.StartCleanup(time.Minute)
	go s.rateLimiter.startCleanup()

	t, err := template.New("").Funcs(templateFuncs(opts.Currency)).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	} else {
		s.templates = t
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/", s.withSecurity(s.handleIndex))
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/calendar.svg", s.withSecurity(s.handleCalendarSVG))
	mux.HandleFunc("/ui/calendar", s.withSecurity(s.handleCalendarPartial))
	mux.HandleFunc("/ui/day", s.withSecurity(s.handleDayReport))
	mux.HandleFunc("/transactions", s.withSecurity(s.handleCreateTransaction))

	return s
}

// InvalidateRenders drops every cached calendar rendering.
func (s *Server) InvalidateRenders() {
	s.renders.Purge()
}

// Shutdown stops background cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func templateFuncs(cur core.Currency) template.FuncMap {
	return template.FuncMap{
		"money": func(m core.Money) string { return cur.Format(m.Cents) },
		"longDate": func(d core.Date) string {
			return d.Format("Monday, January 2, 2006")
		},
	}
}
