// Package insights scans a project for framework, styling and design-token
// conventions and caches the result so generation can follow them.
package insights

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTTL is how long an analysis stays fresh.
	DefaultTTL = 5 * time.Minute

	// analyzedScore and fallbackScore are fixed compatibility heuristics.
	analyzedScore = 0.9
	fallbackScore = 0.75

	maxComponentFiles = 50
	maxFileSize       = 512 << 10
)

// representativeFiles are scanned when present, in this order.
var representativeFiles = []string{
	"package.json",
	"tailwind.config.js",
	"tailwind.config.ts",
	"tailwind.config.cjs",
	"src/App.jsx",
	"src/App.tsx",
	"src/App.js",
	"src/App.vue",
	"src/index.css",
	"src/globals.css",
	"app/globals.css",
	"app/layout.tsx",
	"app/page.tsx",
	"pages/index.js",
	"pages/index.tsx",
	"index.html",
	"public/index.html",
}

// componentDirs are listed (non-recursively) for additional component files.
var componentDirs = []string{"src/components", "components", "app/components"}

// ErrNothingToScan is returned by scan when no representative file exists.
var ErrNothingToScan = errors.New("no representative project files found")

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Analyzer extracts Insights from a project directory and caches the result
// for the configured project root.
type Analyzer struct {
	root   string
	ttl    time.Duration
	clock  Clock
	logger *slog.Logger
	fsys   func(dir string) fs.FS

	group singleflight.Group

	mu       sync.RWMutex
	cached   *Insights
	cachedAt time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithTTL sets the cache lifetime. Non-positive values keep the default.
func WithTTL(ttl time.Duration) Option {
	return func(a *Analyzer) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// WithClock replaces the wall clock (for testing).
func WithClock(c Clock) Option {
	return func(a *Analyzer) { a.clock = c }
}

// WithLogger sets the logger used for skipped files and fallbacks.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithFS replaces directory access (for testing with fstest.MapFS).
func WithFS(open func(dir string) fs.FS) Option {
	return func(a *Analyzer) { a.fsys = open }
}

// NewAnalyzer creates an Analyzer for the project at root.
func NewAnalyzer(root string, opts ...Option) *Analyzer {
	a := &Analyzer{
		root:   root,
		ttl:    DefaultTTL,
		clock:  realClock{},
		logger: slog.Default(),
		fsys:   func(dir string) fs.FS { return os.DirFS(dir) },
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Root returns the project root the cache belongs to.
func (a *Analyzer) Root() string { return a.root }

// GetOrAnalyze returns the cached insights while fresh, otherwise analyzes
// the project root. Concurrent refreshes share a single scan, which runs
// detached from the cancellation of whichever caller started it.
func (a *Analyzer) GetOrAnalyze(ctx context.Context) Insights {
	a.mu.RLock()
	if a.cached != nil && a.clock.Now().Before(a.cachedAt.Add(a.ttl)) {
		in := a.cached.Clone()
		a.mu.RUnlock()
		return in
	}
	a.mu.RUnlock()

	v, _, _ := a.group.Do(a.root, func() (any, error) {
		return a.Analyze(context.WithoutCancel(ctx), a.root), nil
	})
	return v.(Insights).Clone()
}

// Cached returns the cached insights if present and fresh.
func (a *Analyzer) Cached() (Insights, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.cached == nil || !a.clock.Now().Before(a.cachedAt.Add(a.ttl)) {
		return Insights{}, false
	}
	return a.cached.Clone(), true
}

// ClearCache drops the cached insights.
func (a *Analyzer) ClearCache() {
	a.mu.Lock()
	a.cached = nil
	a.mu.Unlock()
}

// Analyze scans projectPath and returns its insights. It never fails: a file
// that can't be read or parsed is skipped, and if the scan as a whole fails
// the fallback insights are returned. Results for the analyzer's own root
// replace the cache, unless the scan was cut short by ctx.
func (a *Analyzer) Analyze(ctx context.Context, projectPath string) (in Insights) {
	if projectPath == "" {
		projectPath = a.root
	}
	cancelled := false
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("context analysis panicked, using fallback", "path", projectPath, "panic", r)
			in = Fallback(a.clock.Now())
		}
		if projectPath == a.root && !cancelled {
			a.store(in)
		}
	}()

	result, err := a.scan(ctx, projectPath)
	if err != nil {
		cancelled = ctx.Err() != nil && errors.Is(err, ctx.Err())
		a.logger.Warn("context analysis failed, using fallback", "path", projectPath, "error", err)
		return Fallback(a.clock.Now())
	}
	return result
}

func (a *Analyzer) store(in Insights) {
	cp := in.Clone()
	a.mu.Lock()
	a.cached = &cp
	a.cachedAt = a.clock.Now()
	a.mu.Unlock()
}

// Files lists the project-relative files a scan of projectPath would read.
func (a *Analyzer) Files(projectPath string) []string {
	fsys := a.fsys(projectPath)
	var files []string
	for _, name := range representativeFiles {
		if info, err := fs.Stat(fsys, name); err == nil && !info.IsDir() {
			files = append(files, name)
		}
	}
	for _, dir := range componentDirs {
		entries, err := fs.ReadDir(fsys, dir)
		if err != nil {
			continue
		}
		n := 0
		for _, e := range entries {
			if e.IsDir() || !isScannable(e.Name()) {
				continue
			}
			files = append(files, path.Join(dir, e.Name()))
			n++
			if n >= maxComponentFiles {
				break
			}
		}
	}
	return files
}

func (a *Analyzer) scan(ctx context.Context, projectPath string) (Insights, error) {
	info, err := os.Stat(projectPath)
	if err == nil && !info.IsDir() {
		return Insights{}, fmt.Errorf("%s is not a directory", projectPath)
	}

	fsys := a.fsys(projectPath)
	files := a.Files(projectPath)
	if len(files) == 0 {
		return Insights{}, ErrNothingToScan
	}

	c := newCollector()
	scanned := 0
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return Insights{}, err
		}
		data, err := readLimited(fsys, name)
		if err != nil {
			a.logger.Warn("skipping unreadable project file", "file", name, "error", err)
			continue
		}
		if err := c.addFile(name, data); err != nil {
			a.logger.Warn("skipping unparseable project file", "file", name, "error", err)
			continue
		}
		scanned++
	}
	if scanned == 0 {
		return Insights{}, ErrNothingToScan
	}

	usage := c.frameworkUsage()
	approach := c.stylingApproach()
	ds := DesignSystem{
		Colors:       c.colors.list(),
		Typography:   c.typography.list(),
		Spacing:      c.spacing.list(),
		BorderRadius: c.radius.list(),
		Shadows:      c.shadows.list(),
		InlineStyles: c.inlineStyles(),
	}
	components := c.components.list()
	best := components
	if len(best) > 5 {
		best = best[:5]
	}

	a.logger.Debug("context analysis complete",
		"path", projectPath,
		"files", scanned,
		"frameworks", strings.Join(sortedKeys(usage), ","),
		"styling", approach,
	)

	return Insights{
		FrameworkUsage:     usage,
		StylingApproach:    approach,
		DesignSystem:       ds,
		ExistingComponents: components,
		Recommendations: Recommendations{
			BestMatches:        cloneStrings(best),
			SuggestedPatterns:  suggestedPatterns(approach, ds, usage),
			CompatibilityScore: analyzedScore,
		},
		FilesScanned: scanned,
		AnalyzedAt:   a.clock.Now(),
	}, nil
}

func readLimited(fsys fs.FS, name string) ([]byte, error) {
	info, err := fs.Stat(fsys, name)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("file too large (%d bytes)", info.Size())
	}
	return fs.ReadFile(fsys, name)
}

func isScannable(name string) bool {
	switch path.Ext(name) {
	case ".jsx", ".tsx", ".js", ".ts", ".vue", ".svelte", ".html", ".css":
		return true
	}
	return false
}

// Fallback returns the hard-coded insights used when a scan fails.
func Fallback(now time.Time) Insights {
	ds := DesignSystem{
		Colors:       []string{"blue-600", "gray-900", "gray-500"},
		Typography:   []string{"text-sm", "text-lg", "font-medium", "font-bold"},
		Spacing:      []string{"p-4", "px-6", "py-3", "gap-4"},
		BorderRadius: []string{"rounded-lg"},
		Shadows:      []string{"shadow-md"},
	}
	usage := map[string]int{"react": 1, "tailwind": 1}
	return Insights{
		FrameworkUsage:     usage,
		StylingApproach:    "tailwind",
		DesignSystem:       ds,
		ExistingComponents: []string{},
		Recommendations: Recommendations{
			BestMatches:        []string{},
			SuggestedPatterns:  suggestedPatterns("tailwind", ds, usage),
			CompatibilityScore: fallbackScore,
		},
		AnalyzedAt: now,
		Fallback:   true,
	}
}

// relevant reports whether a change to the project-relative path rel can
// alter the result of a scan.
func relevant(rel string) bool {
	for _, name := range representativeFiles {
		if rel == name {
			return true
		}
	}
	dir := path.Dir(rel)
	for _, d := range componentDirs {
		if dir == d {
			return isScannable(rel)
		}
	}
	return false
}
