// Package router assembles the gin engine and the versioned API route groups.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// Group is a set of routes under one path prefix, e.g. /payments
type Group struct {
	prefix     string
	middleware []gin.HandlerFunc
	routes     []route
}

// NewGroup creates an empty group mounted at prefix
func NewGroup(prefix string) *Group {
	return &Group{prefix: prefix}
}

// Use adds middleware that runs for this group only, after the API middleware
func (g *Group) Use(middleware ...gin.HandlerFunc) *Group {
	g.middleware = append(g.middleware, middleware...)
	return g
}

// GET adds a GET route
func (g *Group) GET(path string, handlers ...gin.HandlerFunc) *Group {
	return g.add(http.MethodGet, path, handlers)
}

// POST adds a POST route
func (g *Group) POST(path string, handlers ...gin.HandlerFunc) *Group {
	return g.add(http.MethodPost, path, handlers)
}

func (g *Group) add(method, path string, handlers []gin.HandlerFunc) *Group {
	g.routes = append(g.routes, route{method: method, path: path, handlers: handlers})
	return g
}

// Prefix returns the mount path of the group
func (g *Group) Prefix() string {
	return g.prefix
}

// Routes lists the group's routes as "METHOD /prefix/path"
func (g *Group) Routes() []string {
	out := make([]string, len(g.routes))
	for i, r := range g.routes {
		out[i] = r.method + " " + g.prefix + r.path
	}
	return out
}

func (g *Group) install(rg *gin.RouterGroup) {
	sub := rg.Group(g.prefix, g.middleware...)
	for _, r := range g.routes {
		sub.Handle(r.method, r.path, r.handlers...)
	}
}

// API mounts groups under /api/<version> behind shared middleware
type API struct {
	version    string
	middleware []gin.HandlerFunc
	groups     []*Group
}

// NewAPI creates an API for version, e.g. "v1"
func NewAPI(version string) *API {
	return &API{version: version}
}

// Use adds middleware for every API route
func (a *API) Use(middleware ...gin.HandlerFunc) *API {
	a.middleware = append(a.middleware, middleware...)
	return a
}

// Mount adds route groups
func (a *API) Mount(groups ...*Group) *API {
	a.groups = append(a.groups, groups...)
	return a
}

// BasePath returns the path every group is mounted under
func (a *API) BasePath() string {
	return "/api/" + a.version
}

// Install registers every group on r
func (a *API) Install(r gin.IRouter) {
	api := r.Group(a.BasePath(), a.middleware...)
	for _, g := range a.groups {
		g.install(api)
	}
}
