package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	laserframe "github.com/mitchmindtree/laser-frame"
	"github.com/mitchmindtree/laser-frame/internal/laser"
	"github.com/mitchmindtree/laser-frame/internal/streammux"
)

// echartsAssetsPrefix points the chart pages at the go-echarts assets
// bundle so they work without a local static file server.
const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// emittedWindowSize bounds the in-memory window of recently emitted
// points kept for the emitted chart and the projection render.
const emittedWindowSize = 2048

// viridisColors is the palette used for scan-order visual maps.
var viridisColors = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// ChartServer renders debug charts for the live point stream. It
// mirrors emitted batches from the stream mux into a bounded window so
// the emitted-trace views can show recent activity without replaying
// the stream.
type ChartServer struct {
	mux   *streammux.StreamMux[laser.Point]
	stats *StreamStats

	windowMu sync.Mutex
	window   []laserframe.Point[laser.Point]
}

// NewChartServer creates a chart server over the given stream mux and
// stats block.
func NewChartServer(mux *streammux.StreamMux[laser.Point], stats *StreamStats) *ChartServer {
	return &ChartServer{
		mux:   mux,
		stats: stats,
	}
}

// Run subscribes to the stream mux and mirrors emitted batches into the
// chart window until the context is cancelled or the mux closes.
func (cs *ChartServer) Run(ctx context.Context) {
	id, ch := cs.mux.Subscribe()
	defer cs.mux.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-ch:
			if !ok {
				return
			}
			cs.extendWindow(batch)
		}
	}
}

func (cs *ChartServer) extendWindow(batch []laserframe.Point[laser.Point]) {
	if len(batch) == 0 {
		return
	}
	cs.windowMu.Lock()
	defer cs.windowMu.Unlock()
	cs.window = append(cs.window, batch...)
	if n := len(cs.window); n > emittedWindowSize {
		// Copy down rather than reslice so the backing array stays
		// bounded.
		copy(cs.window, cs.window[n-emittedWindowSize:])
		cs.window = cs.window[:emittedWindowSize]
	}
}

// EmittedWindow returns a copy of the recently emitted points.
func (cs *ChartServer) EmittedWindow() []laserframe.Point[laser.Point] {
	cs.windowMu.Lock()
	defer cs.windowMu.Unlock()
	out := make([]laserframe.Point[laser.Point], len(cs.window))
	copy(out, cs.window)
	return out
}

// RegisterRoutes mounts the chart pages and their data endpoints.
func (cs *ChartServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/charts/frame", cs.handleFrameChart)
	mux.HandleFunc("/debug/charts/emitted", cs.handleEmittedChart)
	mux.HandleFunc("/debug/charts/totals", cs.handleTotalsChart)
	mux.HandleFunc("/debug/charts/frame.png", cs.handleFramePNG)
	mux.HandleFunc("/debug/charts/projection.png", cs.handleProjectionPNG)
	mux.HandleFunc("/api/charts/frame", cs.handleChartFrameJSON)
	mux.HandleFunc("/api/charts/emitted", cs.handleChartEmittedJSON)
	mux.HandleFunc("/api/charts/totals", cs.handleChartTotalsJSON)
}

// handleFrameChart renders the current frame as a scatter chart with
// the scan order mapped onto a colour ramp.
func (cs *ChartServer) handleFrameChart(w http.ResponseWriter, r *http.Request) {
	frame := cs.mux.CurrentFrame()
	if len(frame) == 0 {
		cs.writeJSONError(w, http.StatusNotFound, "no frame loaded")
		return
	}

	data := PrepareFrameChartData(frame)

	items := make([]opts.ScatterData, 0, len(data.Points))
	for _, p := range data.Points {
		items = append(items, opts.ScatterData{Value: []interface{}{p.X, p.Y, float64(p.Index)}})
	}

	// Force a square plot by using equal width/height and symmetric axis ranges
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Laser Frame", Theme: "dark", Width: "900px", Height: "900px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Current Frame", Subtitle: fmt.Sprintf("points=%d (colour = scan order)", data.NumPoints)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -data.MaxAbs, Max: data.MaxAbs, Name: "X", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -data.MaxAbs, Max: data.MaxAbs, Name: "Y", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(data.MaxIndex),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridisColors},
		}),
	)

	scatter.AddSeries("frame", items, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		cs.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleEmittedChart renders the recent emitted window with blanked
// points highlighted against the regular trace.
func (cs *ChartServer) handleEmittedChart(w http.ResponseWriter, r *http.Request) {
	window := cs.EmittedWindow()
	if len(window) == 0 {
		cs.writeJSONError(w, http.StatusNotFound, "no emitted points yet")
		return
	}

	data := PrepareEmittedChartData(window)

	regular := make([]opts.ScatterData, 0, len(data.Regular))
	for _, p := range data.Regular {
		regular = append(regular, opts.ScatterData{Value: []interface{}{p.X, p.Y}})
	}
	blanked := make([]opts.ScatterData, 0, len(data.Blanks))
	for _, p := range data.Blanks {
		blanked = append(blanked, opts.ScatterData{Value: []interface{}{p.X, p.Y}})
	}

	subtitle := fmt.Sprintf(
		"window=%d regular=%d blanked=%d (%.2f%% blanked)",
		data.NumPoints,
		len(data.Regular),
		data.BlankCount,
		data.BlankPercent,
	)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Laser Emitted Window", Theme: "dark", Width: "900px", Height: "900px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Emitted Window", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -data.MaxAbs, Max: data.MaxAbs, Name: "X", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -data.MaxAbs, Max: data.MaxAbs, Name: "Y", NameLocation: "middle", NameGap: 30}),
	)

	scatter.AddSeries("regular", regular, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#9e9e9e"}))
	scatter.AddSeries("blanked", blanked, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff5252"}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		cs.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render emitted chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleTotalsChart renders a bar chart of emission rates and counter
// totals.
func (cs *ChartServer) handleTotalsChart(w http.ResponseWriter, r *http.Request) {
	if cs.stats == nil {
		cs.writeJSONError(w, http.StatusNotFound, "no stream stats available")
		return
	}

	snap := cs.stats.GetLatestSnapshot()
	if snap == nil {
		snap = &StatsSnapshot{Timestamp: time.Now()}
	}

	data := PrepareTotalsData(snap, cs.mux.Status())

	x := []string{"Points/s", "Blanks/s", "Total points", "Total blanks", "Wraps", "Frames"}
	y := []opts.BarData{
		{Value: data.PointsPerSec},
		{Value: data.BlanksPerSec},
		{Value: data.TotalPoints},
		{Value: data.TotalBlanks},
		{Value: data.TotalWraps},
		{Value: data.TotalFrames},
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "720px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Stream Totals", Subtitle: snap.Timestamp.Format(time.RFC3339)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("stream", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsPrefix)
	page.AddCharts(bar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		cs.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleChartFrameJSON returns the current-frame chart data as JSON.
func (cs *ChartServer) handleChartFrameJSON(w http.ResponseWriter, r *http.Request) {
	frame := cs.mux.CurrentFrame()
	if len(frame) == 0 {
		cs.writeJSONError(w, http.StatusNotFound, "no frame loaded")
		return
	}
	cs.writeJSON(w, http.StatusOK, PrepareFrameChartData(frame))
}

// handleChartEmittedJSON returns the emitted-window chart data as JSON.
func (cs *ChartServer) handleChartEmittedJSON(w http.ResponseWriter, r *http.Request) {
	window := cs.EmittedWindow()
	if len(window) == 0 {
		cs.writeJSONError(w, http.StatusNotFound, "no emitted points yet")
		return
	}
	cs.writeJSON(w, http.StatusOK, PrepareEmittedChartData(window))
}

// handleChartTotalsJSON returns rates and totals as JSON. The counter
// totals come from the mux, so this responds even before the first
// stats interval has elapsed.
func (cs *ChartServer) handleChartTotalsJSON(w http.ResponseWriter, r *http.Request) {
	if cs.stats == nil {
		cs.writeJSONError(w, http.StatusNotFound, "no stream stats available")
		return
	}
	cs.writeJSON(w, http.StatusOK, PrepareTotalsData(cs.stats.GetLatestSnapshot(), cs.mux.Status()))
}

// writeJSON writes a JSON response with the given status code.
func (cs *ChartServer) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("JSON encoding error: %v", err)
	}
}

// writeJSONError writes a JSON error response.
func (cs *ChartServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
