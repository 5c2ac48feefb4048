package observer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/dmitrijs2005/tarkovsync/internal/common"
	"github.com/dmitrijs2005/tarkovsync/internal/config"
	"github.com/dmitrijs2005/tarkovsync/internal/filex"
	"github.com/dmitrijs2005/tarkovsync/internal/logging"
	"github.com/dmitrijs2005/tarkovsync/internal/models"
)

// extractMarkersJS collects marker positions from a rendered map page. The
// site renders markers through Leaflet, so three sources are probed in order
// of reliability: the Nuxt payload (carries real uids and map coordinates),
// SVG overlay elements, and positioned leaflet icons.
const extractMarkersJS = `() => {
	const markers = [];

	const leafletMarkers = document.querySelectorAll('.leaflet-marker-icon');
	leafletMarkers.forEach((el, idx) => {
		const transform = el.style.transform;
		const match = transform.match(/translate3d\(([^,]+)px,\s*([^,]+)px/);
		if (match) {
			markers.push({
				index: idx,
				x: parseFloat(match[1]),
				y: parseFloat(match[2]),
				source: 'leaflet'
			});
		}
	});

	const svgMarkers = document.querySelectorAll('svg circle, svg g[data-id]');
	svgMarkers.forEach(el => {
		const cx = el.getAttribute('cx') || el.dataset.x;
		const cy = el.getAttribute('cy') || el.dataset.y;
		const id = el.dataset.id || el.id;
		if (cx && cy) {
			markers.push({
				id: id,
				x: parseFloat(cx),
				y: parseFloat(cy),
				source: 'svg'
			});
		}
	});

	if (window.__NUXT__?.data) {
		const nuxtMarkers = window.__NUXT__.data.markers || [];
		nuxtMarkers.forEach(m => {
			if (m.geometry) {
				markers.push({
					id: m.uid,
					name: m.name,
					x: m.geometry.x,
					y: m.geometry.y,
					source: 'nuxt'
				});
			}
		});
	}

	return markers;
}`

// locateMarkerJS finds one marker element by data-id, highlights it for the
// screenshot and reports its viewport position.
const locateMarkerJS = `(markerId) => {
	const el = document.querySelector('[data-id="' + markerId + '"]');
	if (!el) {
		return { found: false };
	}
	el.scrollIntoView({ behavior: 'instant', block: 'center' });
	el.style.border = '3px solid red';
	const r = el.getBoundingClientRect();
	return { found: true, x: r.x + r.width / 2, y: r.y + r.height / 2 };
}`

type rawPoint struct {
	ID     string  `json:"id"`
	Index  int     `json:"index"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Source string  `json:"source"`
}

type locateResult struct {
	Found bool    `json:"found"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// RodSource observes marker positions by rendering map pages with a headless
// Chromium controlled via CDP. The browser is launched lazily on first use
// and reused across maps.
type RodSource struct {
	cfg *config.Config
	log logging.Logger

	mu      sync.Mutex
	browser *rod.Browser
	lcher   *launcher.Launcher
}

func NewRodSource(cfg *config.Config, log logging.Logger) *RodSource {
	return &RodSource{cfg: cfg, log: log}
}

// ensureStarted launches the browser on first call. Callers must hold s.mu.
func (s *RodSource) ensureStarted(ctx context.Context) (*rod.Browser, error) {
	if s.browser != nil {
		return s.browser, nil
	}

	l := launcher.New().Headless(s.cfg.Headless)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	s.lcher = l
	s.browser = b
	s.log.Debug(ctx, "browser started", "control_url", controlURL, "headless", s.cfg.Headless)
	return b, nil
}

func (s *RodSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser == nil {
		return nil
	}
	err := s.browser.Close()
	if s.lcher != nil {
		s.lcher.Cleanup()
	}
	s.browser = nil
	s.lcher = nil
	return err
}

// openMapPage navigates to the map page and waits for the marker layer to
// settle. The render wait mirrors the fixed settle delay the site needs
// after load before Leaflet has positioned its icons.
func (s *RodSource) openMapPage(ctx context.Context, mapName string) (*rod.Page, error) {
	s.mu.Lock()
	browser, err := s.ensureStarted(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RenderTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/maps/%s", s.cfg.BaseURL, mapName)
	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", url, err)
	}

	if err := page.Context(ctx).WaitLoad(); err != nil {
		_ = page.Close()
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s did not load within %s", common.ErrRenderTimeout, url, s.cfg.RenderTimeout)
		}
		return nil, fmt.Errorf("waiting for %s: %w", url, err)
	}

	select {
	case <-time.After(s.cfg.RenderWait):
	case <-ctx.Done():
		_ = page.Close()
		return nil, fmt.Errorf("%w: %s", common.ErrRenderTimeout, url)
	}

	return page, nil
}

func (s *RodSource) Observe(ctx context.Context, mapName string) ([]Point, error) {
	page, err := s.openMapPage(ctx, mapName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = page.Close() }()

	res, err := page.Context(ctx).Evaluate(&rod.EvalOptions{JS: extractMarkersJS})
	if err != nil {
		return nil, fmt.Errorf("extracting markers from %s: %w", mapName, err)
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("reading extraction result: %w", err)
	}
	var rawPoints []rawPoint
	if err := json.Unmarshal(raw, &rawPoints); err != nil {
		return nil, fmt.Errorf("parsing extraction result: %w", err)
	}

	points := toPoints(rawPoints)
	s.log.Info(ctx, "observed markers", "map", mapName, "count", len(points))
	return points, nil
}

// toPoints converts raw page extractions to Points. Entries without an id
// (leaflet icons) get a synthetic positional uid so downstream reporting can
// still reference them.
func toPoints(raw []rawPoint) []Point {
	points := make([]Point, 0, len(raw))
	for _, r := range raw {
		uid := r.ID
		if uid == "" {
			uid = fmt.Sprintf("web_%d", r.Index)
		}
		points = append(points, Point{
			UID:      uid,
			Position: models.Position{X: r.X, Y: r.Y},
		})
	}
	return points
}

func (s *RodSource) Locate(ctx context.Context, mapName, markerUID string, screenshot bool) (*Point, string, error) {
	page, err := s.openMapPage(ctx, mapName)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = page.Close() }()

	res, err := page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:      locateMarkerJS,
		JSArgs:  []interface{}{markerUID},
		ByValue: true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("locating marker %s: %w", markerUID, err)
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, "", fmt.Errorf("reading locate result: %w", err)
	}
	var loc locateResult
	if err := json.Unmarshal(raw, &loc); err != nil {
		return nil, "", fmt.Errorf("parsing locate result: %w", err)
	}

	var path string
	if screenshot {
		path, err = s.saveScreenshot(ctx, page, markerUID)
		if err != nil {
			return nil, "", err
		}
	}

	if !loc.Found {
		return nil, path, nil
	}
	return &Point{UID: markerUID, Position: models.Position{X: loc.X, Y: loc.Y}}, path, nil
}

func (s *RodSource) saveScreenshot(ctx context.Context, page *rod.Page, markerUID string) (string, error) {
	path := filepath.Join(s.cfg.ScreenshotDir, markerUID+".png")
	if err := filex.EnsureParentDir(path); err != nil {
		return "", err
	}

	data, err := page.Context(ctx).Screenshot(false, nil)
	if err != nil {
		return "", fmt.Errorf("capturing screenshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing screenshot: %w", err)
	}
	s.log.Info(ctx, "screenshot saved", "path", path)
	return path, nil
}
