// Package middleware adapts the sentinelgate engine to net/http handler
// chains. The guards compose in a fixed order: rate governance first,
// anti-forgery second, authentication and authorization last. Rate
// decisions must happen before any credential work, and anti-forgery
// before the token is trusted, so [Pipeline] wires them in that order and
// individual middlewares are exported for routers that assemble their own
// chains.
package middleware
