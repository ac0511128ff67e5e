// Package chart builds the price and RSI figures with go-echarts.
//
// The price figure overlays SMA 50, SMA 200 and the Bollinger bands on a
// candlestick series. The RSI figure plots RSI (14) on a fixed 0-100 axis.
// Undefined indicator values are emitted as "-", which ECharts draws as a gap.
package chart

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/guregu/null/v6"

	"QuantLab/internal/model"
)

// gap is the ECharts marker for a missing data point.
const gap = "-"

const (
	background = "#0e1117"
	textColor  = "#fafafa"
)

// Series colors.
const (
	ColorUp        = "green"
	ColorDown      = "red"
	ColorSMA50     = "blue"
	ColorSMA200    = "yellow"
	ColorUpperBand = "white"
	ColorLowerBand = "grey"
	ColorRSI       = "brown"
)

// DefaultAssetsHost serves echarts.min.js when no host is configured.
const DefaultAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// Options controls figure sizing and where the ECharts assets are loaded from.
type Options struct {
	Width       int
	PriceHeight int
	RSIHeight   int
	AssetsHost  string
}

// DefaultOptions returns the 1700x700 price and 1700x300 RSI layout.
func DefaultOptions() Options {
	return Options{Width: 1700, PriceHeight: 700, RSIHeight: 300, AssetsHost: DefaultAssetsHost}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.PriceHeight <= 0 {
		o.PriceHeight = d.PriceHeight
	}
	if o.RSIHeight <= 0 {
		o.RSIHeight = d.RSIHeight
	}
	if o.AssetsHost == "" {
		o.AssetsHost = DefaultAssetsHost
	}
	return o
}

// PriceTitle is the title of the price figure for a ticker.
func PriceTitle(symbol string) string {
	return fmt.Sprintf("%s Chart", symbol)
}

// Charts builds the price and RSI figures for a dashboard.
func Charts(dash *model.Dashboard, o Options) (*charts.Kline, *charts.Line, error) {
	if dash == nil || dash.Series == nil || len(dash.Series.Bars) == 0 {
		return nil, nil, fmt.Errorf("chart: %w", model.ErrNoData)
	}
	if len(dash.Indicators) != len(dash.Series.Bars) {
		return nil, nil, fmt.Errorf("chart: %d indicator rows for %d bars: %w",
			len(dash.Indicators), len(dash.Series.Bars), model.ErrInvalidInput)
	}
	o = o.withDefaults()
	return priceChart(dash, o), rsiChart(dash, o), nil
}

func priceChart(dash *model.Dashboard, o Options) *charts.Kline {
	dates := dash.Series.Dates()

	candles := make([]opts.KlineData, len(dash.Series.Bars))
	for i, b := range dash.Series.Bars {
		// ECharts order: open, close, low, high.
		candles[i] = opts.KlineData{Value: [4]float64{b.Open, b.AdjClose, b.Low, b.High}}
	}

	k := charts.NewKLine()
	k.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts("price", PriceTitle(dash.Series.Symbol), o.Width, o.PriceHeight, o.AssetsHost)),
		charts.WithTitleOpts(opts.Title{
			Title:      PriceTitle(dash.Series.Symbol),
			TitleStyle: &opts.TextStyle{Color: textColor},
		}),
		charts.WithLegendOpts(opts.Legend{Show: true, Top: "5%", TextStyle: &opts.TextStyle{Color: textColor}}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Date", SplitNumber: 20}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Price", Scale: true}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside", Start: 0, End: 100}),
	)
	k.SetXAxis(dates).AddSeries("Candlestick", candles,
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        ColorUp,
			Color0:       ColorDown,
			BorderColor:  ColorUp,
			BorderColor0: ColorDown,
		}),
	)

	k.Overlap(
		overlay(dates, model.IndicatorSMA50, ColorSMA50, dash.Indicators, func(r model.IndicatorRow) null.Float { return r.SMA50 }),
		overlay(dates, model.IndicatorSMA200, ColorSMA200, dash.Indicators, func(r model.IndicatorRow) null.Float { return r.SMA200 }),
		overlay(dates, model.IndicatorUpperBand, ColorUpperBand, dash.Indicators, func(r model.IndicatorRow) null.Float { return r.UpperBand }),
		overlay(dates, model.IndicatorLowerBand, ColorLowerBand, dash.Indicators, func(r model.IndicatorRow) null.Float { return r.LowerBand }),
	)
	return k
}

func overlay(dates []string, name, color string, rows model.IndicatorSet, pick func(model.IndicatorRow) null.Float) *charts.Line {
	l := charts.NewLine()
	l.SetXAxis(dates).AddSeries(name, lineData(rows, pick),
		charts.WithLineStyleOpts(opts.LineStyle{Color: color, Width: 1.5}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: false}),
	)
	return l
}

func rsiChart(dash *model.Dashboard, o Options) *charts.Line {
	l := charts.NewLine()
	l.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts("rsi", model.IndicatorRSI14, o.Width, o.RSIHeight, o.AssetsHost)),
		charts.WithTitleOpts(opts.Title{
			Title:      model.IndicatorRSI14,
			TitleStyle: &opts.TextStyle{Color: textColor},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Date", SplitNumber: 20}),
		charts.WithYAxisOpts(opts.YAxis{Name: "RSI", Min: 0, Max: 100}),
	)
	l.SetXAxis(dash.Series.Dates()).AddSeries("RSI",
		lineData(dash.Indicators, func(r model.IndicatorRow) null.Float { return r.RSI14 }),
		charts.WithLineStyleOpts(opts.LineStyle{Color: ColorRSI, Width: 1.5}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: ColorRSI}),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: false}),
	)
	return l
}

func initOpts(id, title string, width, height int, assetsHost string) opts.Initialization {
	return opts.Initialization{
		PageTitle:       title,
		ChartID:         id,
		Width:           fmt.Sprintf("%dpx", width),
		Height:          fmt.Sprintf("%dpx", height),
		BackgroundColor: background,
		AssetsHost:      assetsHost,
	}
}

func lineData(rows model.IndicatorSet, pick func(model.IndicatorRow) null.Float) []opts.LineData {
	out := make([]opts.LineData, len(rows))
	for i, r := range rows {
		out[i] = opts.LineData{Value: value(pick(r))}
	}
	return out
}

func value(v null.Float) any {
	if !v.Valid {
		return gap
	}
	return v.Float64
}

// Figure is one chart ready to embed in a page.
type Figure struct {
	ID     string
	Width  string
	Height string
	Option template.JS
}

// Figures builds both charts and returns their ECharts options as JSON.
// The JSON escapes <, > and & so it is safe inside an inline script.
func Figures(dash *model.Dashboard, o Options) ([]Figure, error) {
	price, rsi, err := Charts(dash, o)
	if err != nil {
		return nil, err
	}
	price.Validate()
	rsi.Validate()

	priceOpt, err := json.Marshal(price.JSON())
	if err != nil {
		return nil, fmt.Errorf("encode price chart: %w", err)
	}
	rsiOpt, err := json.Marshal(rsi.JSON())
	if err != nil {
		return nil, fmt.Errorf("encode rsi chart: %w", err)
	}
	return []Figure{
		{ID: price.ChartID, Width: price.Initialization.Width, Height: price.Initialization.Height, Option: template.JS(priceOpt)},
		{ID: rsi.ChartID, Width: rsi.Initialization.Width, Height: rsi.Initialization.Height, Option: template.JS(rsiOpt)},
	}, nil
}

// ScriptURL is the echarts bundle location for the configured assets host.
func (o Options) ScriptURL() string {
	return o.withDefaults().AssetsHost + "echarts.min.js"
}

// Render writes a standalone HTML page holding both charts.
func Render(w io.Writer, dash *model.Dashboard, o Options) error {
	price, rsi, err := Charts(dash, o)
	if err != nil {
		return err
	}
	page := components.NewPage()
	page.PageTitle = PriceTitle(dash.Series.Symbol)
	page.AssetsHost = o.withDefaults().AssetsHost
	page.AddCharts(price, rsi)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render charts: %w", err)
	}
	return nil
}
