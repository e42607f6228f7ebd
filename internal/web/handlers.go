package web

import (
	"io"
	"net/http"
	"strconv"

	"github.com/hpungsan/mealtrace/internal/config"
	"github.com/hpungsan/mealtrace/internal/errors"
	"github.com/hpungsan/mealtrace/internal/nutrition"
	"github.com/hpungsan/mealtrace/internal/ops"
	"github.com/hpungsan/mealtrace/internal/report"
)

// Handlers contains HTTP route handlers for the report viewer.
type Handlers struct {
	ds       *ops.Dataset
	cfg      *config.Config
	dbPath   string
	renderer *Renderer
	reports  *report.Renderer
}

// NewHandlers wires the handlers to a loaded dataset.
func NewHandlers(ds *ops.Dataset, cfg *config.Config, renderer *Renderer, dbPath string) (*Handlers, error) {
	fields, err := nutrition.NewOutputFields(cfg.OutputFields)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	return &Handlers{
		ds:       ds,
		cfg:      cfg,
		dbPath:   dbPath,
		renderer: renderer,
		reports:  report.New(fields),
	}, nil
}

// HandleFoods handles GET /foods.
func (h *Handlers) HandleFoods(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	out := ops.FoodsReport(h.ds, rng)
	h.respond(w, r, h.page(r, "Food events", "foods"), out, func(w io.Writer, f report.Format) error {
		return h.reports.Foods(w, f, out)
	})
}

// HandleMeals handles GET /meals. The gap query parameter overrides the configured meal gap.
func (h *Handlers) HandleMeals(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	gap, err := ops.MealGap(h.cfg, parseIntParam(r, "gap", 0))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	out := ops.MealsReport(h.ds, rng, gap)
	page := h.page(r, "Meals", "meals")
	page.ShowGap = true
	page.Gap = out.GapMinutes
	h.respond(w, r, page, out, func(w io.Writer, f report.Format) error {
		return h.reports.Meals(w, f, out)
	})
}

// HandleWeeklyFoods handles GET /weekly/foods.
func (h *Handlers) HandleWeeklyFoods(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	out := ops.WeeklyFoodsReport(h.ds, rng)
	h.respond(w, r, h.page(r, "Weekly foods", "weekly-foods"), out, func(w io.Writer, f report.Format) error {
		return h.reports.WeeklyFoods(w, f, out)
	})
}

// HandleWeeklySlots handles GET /weekly/slots.
func (h *Handlers) HandleWeeklySlots(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	out := ops.WeeklySlotsReport(h.ds, rng)
	h.respond(w, r, h.page(r, "Weekly foods by meal slot", "weekly-slots"), out, func(w io.Writer, f report.Format) error {
		return h.reports.WeeklySlots(w, f, out)
	})
}

// HandleRuns handles GET /runs: stored snapshot runs, newest first.
func (h *Handlers) HandleRuns(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Runs(r.Context(), ops.RunsInput{
		DBPath: h.dbPath,
		Limit:  parseIntParam(r, "limit", ops.DefaultRunsLimit),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "runs", RunsPageData{
		PageData: PageData{
			Title:   "Snapshot runs",
			Version: h.renderer.version,
			Nav:     "runs",
		},
		DBPath: h.dbPath,
		Runs:   result.Runs,
	})
}

// HandleRun handles GET /runs/{id}: the food events stored for one run.
func (h *Handlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	result, err := ops.RunEvents(r.Context(), ops.RunEventsInput{
		DBPath: h.dbPath,
		RunID:  r.PathValue("id"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "run", RunPageData{
		PageData: PageData{
			Title:   "Run " + result.Run.ID,
			Version: h.renderer.version,
			Nav:     "runs",
		},
		Run:    result.Run,
		Events: result.Events,
	})
}

func (h *Handlers) page(r *http.Request, title, nav string) ReportPageData {
	return ReportPageData{
		PageData: PageData{
			Title:   title,
			Version: h.renderer.version,
			Nav:     nav,
		},
		Path: r.URL.Path,
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	}
}

// respond writes a report as JSON, as a raw text/csv/markdown body, or as an HTML page.
func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, page ReportPageData, data any, render func(io.Writer, report.Format) error) {
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, data)
		return
	}

	f := report.FormatHTML
	if s := r.URL.Query().Get("format"); s != "" {
		parsed, err := report.ParseFormat(s)
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		f = parsed
	}

	if f != report.FormatHTML {
		body, err := report.Render(func(w io.Writer) error { return render(w, f) })
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInternal(err))
			return
		}
		w.Header().Set("Content-Type", f.ContentType())
		if f == report.FormatCSV {
			w.Header().Set("Content-Disposition", `attachment; filename="`+page.Nav+`.csv"`)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}

	md, err := report.Render(func(w io.Writer) error { return render(w, report.FormatMarkdown) })
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInternal(err))
		return
	}
	body, err := report.MarkdownToHTML(md)
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInternal(err))
		return
	}
	page.Body = body
	h.renderer.renderPage(w, r, "report", page)
}

// parseRange reads the from/to query parameters.
func parseRange(r *http.Request) (ops.DateRange, error) {
	q := r.URL.Query()
	return ops.ParseDateRange(q.Get("from"), q.Get("to"))
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
