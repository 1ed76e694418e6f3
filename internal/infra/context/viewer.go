package context

import (
	"context"

	"github.com/mkrupp/chroniclex/internal/domain"
)

const contextKeyViewer = contextKey("viewer")

// ViewerFromContext extracts the viewer the request was admitted for.
// Returns an anonymous viewer and false if none is present.
func ViewerFromContext(ctx context.Context) (domain.Viewer, bool) {
	viewer, ok := ctx.Value(contextKeyViewer).(domain.Viewer)

	return viewer, ok
}

// WithViewer creates a new context carrying the viewer, so that everything
// rendered for one request sees the same session snapshot.
func WithViewer(ctx context.Context, viewer domain.Viewer) context.Context {
	return context.WithValue(ctx, contextKeyViewer, viewer)
}
