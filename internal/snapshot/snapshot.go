// Package snapshot captures a rendered dashboard page as a PNG with headless Chrome.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// ReadySelector matches the last chart drawn on the dashboard page.
const ReadySelector = "#rsi canvas"

// ErrPageScript is returned when the page raised a JavaScript exception.
var ErrPageScript = errors.New("page script error")

// Options controls the browser used for a capture.
type Options struct {
	Headless bool
	Timeout  time.Duration
	Width    int
	Height   int
	// ReadySelector overrides the element waited for before the capture.
	ReadySelector string
}

// DefaultOptions returns a headless 1800x1200 capture with a one minute budget.
func DefaultOptions() Options {
	return Options{Headless: true, Timeout: 60 * time.Second, Width: 1800, Height: 1200}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.ReadySelector == "" {
		o.ReadySelector = ReadySelector
	}
	return o
}

func (o Options) allocatorOptions() []chromedp.ExecAllocatorOption {
	return append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", o.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(o.Width, o.Height),
	)
}

// scriptErrors collects exceptions thrown by the page.
type scriptErrors struct {
	mu   sync.Mutex
	msgs []string
}

func (s *scriptErrors) add(ev *runtime.EventExceptionThrown) {
	msg := ev.ExceptionDetails.Text
	if ev.ExceptionDetails.Exception != nil && ev.ExceptionDetails.Exception.Description != "" {
		msg = ev.ExceptionDetails.Exception.Description
	}
	s.mu.Lock()
	s.msgs = append(s.msgs, msg)
	s.mu.Unlock()
}

func (s *scriptErrors) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrPageScript, strings.Join(s.msgs, "; "))
}

// Capture loads url, waits for the charts to draw and returns a full-page PNG.
func Capture(ctx context.Context, url string, o Options) ([]byte, error) {
	o = o.withDefaults()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, o.allocatorOptions()...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	runCtx, cancel := context.WithTimeout(browserCtx, o.Timeout)
	defer cancel()

	var scripts scriptErrors
	chromedp.ListenTarget(runCtx, func(ev interface{}) {
		if ev, ok := ev.(*runtime.EventExceptionThrown); ok {
			scripts.add(ev)
		}
	})

	start := time.Now()
	var png []byte
	err := chromedp.Run(runCtx,
		runtime.Enable(),
		chromedp.EmulateViewport(int64(o.Width), int64(o.Height)),
		chromedp.Navigate(url),
		chromedp.WaitVisible(o.ReadySelector, chromedp.ByQuery),
		chromedp.FullScreenshot(&png, 100),
	)
	if serr := scripts.err(); serr != nil {
		return nil, serr
	}
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", url, err)
	}

	slog.Info("snapshot captured", "url", url, "bytes", len(png), "duration", time.Since(start))
	return png, nil
}
