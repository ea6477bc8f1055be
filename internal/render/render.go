package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// cssPlaceholder marks where the stylesheet gets inlined; documents must not
// reference external assets at render time.
const cssPlaceholder = `<link rel="stylesheet" href="INLINE_CSS_HERE">`

// Viewport is the renderer's page size.
type Viewport struct {
	Width  int
	Height int
}

// Renderer is the external rendering engine: it takes a self-contained HTML
// document on disk and returns an image of the fully rendered page.
type Renderer interface {
	RenderFile(ctx context.Context, path string, viewport Viewport) ([]byte, error)
}

// Error is the render failure kind: renderer unavailable, missing asset, or
// timeout. Callers abort the comparison and notify the user.
type Error struct {
	Stage string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("render %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRenderError reports whether err is a render-stage failure.
func IsRenderError(err error) bool {
	var re *Error
	return errors.As(err, &re)
}

// Adapter wraps the external renderer. It inlines the stylesheet, stages the
// document in a uniquely named temp file, and deletes it on every exit path.
type Adapter struct {
	renderer Renderer
	cssPath  string
	tmpDir   string
	viewport Viewport
	timeout  time.Duration
}

// NewAdapter builds an adapter rendering into tmpDir (os.TempDir when empty)
// with the stylesheet at cssPath inlined into every document.
func NewAdapter(renderer Renderer, cssPath, tmpDir string, viewport Viewport, timeout time.Duration) *Adapter {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &Adapter{
		renderer: renderer,
		cssPath:  cssPath,
		tmpDir:   tmpDir,
		viewport: viewport,
		timeout:  timeout,
	}
}

// Render turns an HTML document into an image. All failures come back as
// *Error; the staged temp file is removed whether rendering succeeds or not.
func (a *Adapter) Render(ctx context.Context, document string) ([]byte, error) {
	css, err := os.ReadFile(a.cssPath)
	if err != nil {
		return nil, &Error{Stage: "stylesheet", Err: err}
	}
	document = strings.Replace(document, cssPlaceholder, "<style>"+string(css)+"</style>", 1)

	path := filepath.Join(a.tmpDir, "comparison-"+uuid.NewString()+".html")
	if err := os.WriteFile(path, []byte(document), 0o600); err != nil {
		return nil, &Error{Stage: "staging", Err: err}
	}
	defer os.Remove(path)

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	image, err := a.renderer.RenderFile(ctx, path, a.viewport)
	if err != nil {
		return nil, &Error{Stage: "engine", Err: err}
	}
	return image, nil
}
