package middlewares

// gin context keys shared by middlewares and handlers.
const (
	CtxUserID    = "auth.userID"
	CtxEmail     = "auth.email"
	CtxRole      = "auth.role"
	CtxRequestID = "request_id"
	CtxJobID     = "job_id"
	CtxLang      = "lang"
)
