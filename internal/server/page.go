package server

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"QuantLab/internal/chart"
	"QuantLab/internal/logger"
	"QuantLab/internal/model"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type pageData struct {
	Ticker    string
	Start     string
	End       string
	Info      string
	Error     string
	ScriptURL string
	Figures   []chart.Figure
	Summary   *model.Summary
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, data pageData) {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		slog.Error("render page", append(logger.Attrs(r.Context()), "error", err)...)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
