package constants

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
)

const (
	DefaultPlayerName = "Player 1"
)

const (
	RouteHealthz     = "/healthz"
	RouteStartGame   = "/api/game/start"
	RouteGame        = "/api/game/:id"
	RouteSubmit      = "/api/game/:id/submit"
	RouteNewWord     = "/api/game/:id/word"
	RouteSummary     = "/api/game/:id/summary"
	RouteRoundStream = "/api/game/:id/stream"
)

const (
	HeaderRequestID     = "X-Request-Id"
	HeaderForwardedFor  = "X-Forwarded-For"
	HeaderRateLimitCap  = "X-RateLimit-Limit"
	HeaderRateLimitSpan = "X-RateLimit-Window"
)

const (
	ErrorCodeSessionNotFound = "session_not_found"
	ErrorCodeRateLimited     = "rate_limited"
	ErrorCodeWordUnavailable = "word_unavailable"
	ErrorCodeInvalidRequest  = "invalid_request"
	ErrorCodeInternal        = "internal_error"
)
