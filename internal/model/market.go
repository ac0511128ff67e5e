package model

import "time"

// PriceBar represents one trading day for a single ticker.
type PriceBar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   float64   `json:"volume"`
}

// PriceSeries holds the bars fetched for one ticker over one date range.
// Bars are ordered by date ascending and unique per date.
type PriceSeries struct {
	Symbol    string     `json:"symbol"`
	Provider  string     `json:"provider"`
	Start     time.Time  `json:"start"`
	End       time.Time  `json:"end"`
	Bars      []PriceBar `json:"bars"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// Point is the minimal engine input: a date and its adjusted close.
type Point struct {
	Date  time.Time
	Value float64
}

// Points extracts the adjusted-close points of the series.
func (s *PriceSeries) Points() []Point {
	pts := make([]Point, len(s.Bars))
	for i, b := range s.Bars {
		pts[i] = Point{Date: b.Date, Value: b.AdjClose}
	}
	return pts
}

// Dates returns the bar dates formatted as YYYY-MM-DD.
func (s *PriceSeries) Dates() []string {
	out := make([]string, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Date.Format(DateLayout)
	}
	return out
}

// DateLayout is the calendar date format used on every surface.
const DateLayout = "2006-01-02"
