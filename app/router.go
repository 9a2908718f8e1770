package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)

	// posts
	router.HandlerFunc(http.MethodGet, "/v1/posts", app.getPostsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/posts/featured", app.getFeaturedPostsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/posts/category/:category", app.getPostsByCategoryHandler)
	router.HandlerFunc(http.MethodGet, "/v1/posts/slug/:slug", app.getPostBySlugHandler)
	router.HandlerFunc(http.MethodPost, "/v1/posts", app.requireAdmin(app.createPostHandler))
	router.HandlerFunc(http.MethodPatch, "/v1/posts/:id", app.requireAdmin(app.updatePostHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/posts/:id", app.requireAdmin(app.deletePostHandler))

	// taxonomy
	router.HandlerFunc(http.MethodGet, "/v1/categories", app.getCategoriesHandler)
	router.HandlerFunc(http.MethodGet, "/v1/categories/:slug", app.getCategoryHandler)
	router.HandlerFunc(http.MethodGet, "/v1/tags", app.getTagsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/tags/:slug", app.getTagHandler)

	// admin session
	router.Handler(http.MethodPost, "/v1/admin/login", app.rateLimit(http.HandlerFunc(app.loginHandler)))
	router.HandlerFunc(http.MethodPost, "/v1/admin/logout", app.requireAdmin(app.logoutHandler))
	router.HandlerFunc(http.MethodGet, "/v1/admin/session", app.sessionHandler)

	return app.recoverPanic(app.requestID(app.logRequest(app.enableCORS(router))))
}
