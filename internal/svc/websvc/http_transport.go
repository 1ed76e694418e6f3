package websvc

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mkrupp/chroniclex/internal/domain"
	context_ "github.com/mkrupp/chroniclex/internal/infra/context"
	"github.com/mkrupp/chroniclex/internal/infra/logging"
	http_ "github.com/mkrupp/chroniclex/internal/infra/transport/http"
	"github.com/mkrupp/chroniclex/internal/svc/authsvc/authclient"
	"github.com/mkrupp/chroniclex/internal/svc/blogsvc/blogclient"
	"github.com/mkrupp/chroniclex/internal/svc/guard"
	"github.com/mkrupp/chroniclex/internal/svc/session"
)

// Route names, as used in the route table.
const (
	RouteBlogList   = "blog_list"
	RouteBlogNew    = "blog_new"
	RouteBlogDetail = "blog_detail"
	RouteBlogEdit   = "blog_edit"
	RouteBlogDelete = "blog_delete"
	RouteAuth       = "auth"
	RouteLogout     = "logout"
)

const idParam = "id"

var (
	errUnknownPage = errors.New("unknown page")
	errBadPostID   = errors.New("bad post id")
)

// SessionStore is the part of the session the console drives.
type SessionStore interface {
	Snapshot() session.Snapshot
	Login(ctx context.Context, user domain.User, tok domain.AuthToken) error
	Logout(ctx context.Context)
}

// HTTPTransport serves the console: the blog pages, the auth page and
// logout. Every route is gated by the route guard.
type HTTPTransport struct {
	sessions SessionStore
	auth     authclient.AuthClient
	blogs    blogclient.BlogClient
	routes   *guard.RouteTable
	router   *mux.Router
	pages    pages
	flashes  *flashes
	log      logging.Logger
	cfg      WebConfig
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates the console transport and binds every route of
// the table to its page.
func NewHTTPTransport(
	sessions SessionStore,
	auth authclient.AuthClient,
	blogs blogclient.BlogClient,
	routes *guard.RouteTable,
	cfg WebConfig,
) (*HTTPTransport, error) {
	if cfg.PageSize <= 0 {
		cfg.PageSize = domain.DefaultPageSize
	}

	log := logging.GetLogger("svc.websvc.http_transport")

	ht := &HTTPTransport{
		sessions: sessions,
		auth:     auth,
		blogs:    blogs,
		routes:   routes,
		router:   mux.NewRouter(),
		flashes:  newFlashes(cfg.SessionKey, log),
		log:      log,
		cfg:      cfg,
	}

	pages, err := parsePages(template.FuncMap{"url": ht.url})
	if err != nil {
		return nil, fmt.Errorf("parse pages: %w", err)
	}

	ht.pages = pages

	handlers := map[string]http.Handler{
		RouteBlogList:   http.HandlerFunc(ht.HandleList),
		RouteBlogNew:    http.HandlerFunc(ht.HandleCreate),
		RouteBlogDetail: http.HandlerFunc(ht.HandleDetail),
		RouteBlogEdit:   http.HandlerFunc(ht.HandleEdit),
		RouteBlogDelete: http.HandlerFunc(ht.HandleDelete),
		RouteAuth:       http.HandlerFunc(ht.HandleAuth),
		RouteLogout:     http.HandlerFunc(ht.HandleLogout),
	}

	if err := routes.Bind(ht.router, handlers); err != nil {
		return nil, fmt.Errorf("bind routes: %w", err)
	}

	pending := http.HandlerFunc(ht.HandlePending)

	ht.router.Use(http_.GuardingMiddlewareFunc(sessions, routes, pending, log))
	ht.router.NotFoundHandler = http_.GuardingMiddleware(http.HandlerFunc(ht.HandleNotFound), sessions, routes, pending, log)

	return ht, nil
}

// ServeHTTP implements http.Handler. Cross-site form posts are refused
// before routing.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	http_.SameOriginMiddleware(ht.router, ht.log).ServeHTTP(w, r)
}

// HandlePending answers a protected request while the session is still
// being restored. The page refreshes itself.
func (ht *HTTPTransport) HandlePending(w http.ResponseWriter, r *http.Request) {
	ht.render(w, r, http.StatusServiceUnavailable, pagePending, page{Title: "Loading"})
}

// HandleNotFound renders the not found page.
func (ht *HTTPTransport) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	ht.render(w, r, http.StatusNotFound, pageNotFound, page{Title: "Not Found"})
}

// render fills the layout fields of data from the request and writes the page.
func (ht *HTTPTransport) render(w http.ResponseWriter, r *http.Request, status int, name string, data page) {
	data.Viewer = viewer(r)
	data.Flashes = append(data.Flashes, ht.flashes.take(w, r)...)

	if err := ht.pages.render(w, status, name, data); err != nil {
		ht.log.ErrorContext(r.Context(), "render failed", "page", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// redirect sends the browser to the named route with 303 See Other.
func (ht *HTTPTransport) redirect(w http.ResponseWriter, r *http.Request, name string, pairs ...any) {
	location, err := ht.url(name, pairs...)
	if err != nil {
		ht.log.ErrorContext(r.Context(), "build redirect failed", "route", name, "error", err)

		location = "/"
	}

	http.Redirect(w, r, location, http.StatusSeeOther)
}

// url builds the path of a named route, as the "url" template function.
func (ht *HTTPTransport) url(name string, pairs ...any) (string, error) {
	route := ht.router.Get(name)
	if route == nil {
		return "", fmt.Errorf("%w: %s", guard.ErrUnboundRoute, name)
	}

	values := make([]string, len(pairs))
	for i, v := range pairs {
		values[i] = fmt.Sprint(v)
	}

	u, err := route.URLPath(values...)
	if err != nil {
		return "", fmt.Errorf("build url %s: %w", name, err)
	}

	return u.String(), nil
}

func viewer(r *http.Request) domain.Viewer {
	v, _ := context_.ViewerFromContext(r.Context())

	return v
}

func postID(r *http.Request) (domain.PostID, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[idParam], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", errBadPostID, mux.Vars(r)[idParam])
	}

	return domain.PostID(id), nil
}

// errorStatus picks the response status for a page that failed on err.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, errBadPostID):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
