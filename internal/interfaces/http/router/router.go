// Package router mounts the dashboard's route groups under a versioned API
// prefix.
package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar is anything that can attach routes to a parent group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Route is one registered method and full path.
type Route struct {
	Method string
	Path   string
}

// Router mounts registrars on /api/<version>.
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithAPIVersion replaces the default "v1" prefix segment.
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues registrars for Setup.
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

func (r *Router) basePath() string {
	return "/api/" + r.apiVersion
}

// Setup attaches every queued registrar and returns the resulting routes.
func (r *Router) Setup() []Route {
	api := r.engine.Group(r.basePath())
	var routes []Route
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
		if dg, ok := registrar.(*DomainGroup); ok {
			routes = append(routes, dg.Routes(r.basePath())...)
		}
	}
	return routes
}

type endpoint struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// DomainGroup collects one area's endpoints under a shared prefix and
// middleware chain. Subgroups inherit the middleware.
type DomainGroup struct {
	name       string
	prefix     string
	endpoints  []endpoint
	children   []*DomainGroup
	middleware []gin.HandlerFunc
}

func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use appends middleware run before every endpoint of the group.
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

func (dg *DomainGroup) add(method, relPath string, handlers []gin.HandlerFunc) *DomainGroup {
	dg.endpoints = append(dg.endpoints, endpoint{method: method, path: relPath, handlers: handlers})
	return dg
}

func (dg *DomainGroup) GET(relPath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.add(http.MethodGet, relPath, handlers)
}

func (dg *DomainGroup) POST(relPath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.add(http.MethodPost, relPath, handlers)
}

func (dg *DomainGroup) PUT(relPath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.add(http.MethodPut, relPath, handlers)
}

func (dg *DomainGroup) DELETE(relPath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.add(http.MethodDelete, relPath, handlers)
}

// Group nests a new group under dg and returns it.
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	child := NewDomainGroup(name, prefix)
	dg.children = append(dg.children, child)
	return child
}

// RegisterRoutes implements RouteRegistrar.
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix, dg.middleware...)
	for _, ep := range dg.endpoints {
		group.Handle(ep.method, ep.path, ep.handlers...)
	}
	for _, child := range dg.children {
		child.RegisterRoutes(group)
	}
}

// Routes lists the group's endpoints, children included, as full paths
// below base.
func (dg *DomainGroup) Routes(base string) []Route {
	prefix := joinPath(base, dg.prefix)
	routes := make([]Route, 0, len(dg.endpoints))
	for _, ep := range dg.endpoints {
		routes = append(routes, Route{Method: ep.method, Path: joinPath(prefix, ep.path)})
	}
	for _, child := range dg.children {
		routes = append(routes, child.Routes(prefix)...)
	}
	return routes
}

// joinPath matches gin's joining: an empty relative path adds nothing.
func joinPath(base, rel string) string {
	if rel == "" {
		return base
	}
	return path.Join(base, rel)
}
