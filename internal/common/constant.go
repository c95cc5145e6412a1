package common

const (
	// AuthorizationHeaderName carries "Bearer <token>" on authenticated requests.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme is the only supported authorization scheme.
	BearerScheme = "Bearer"

	// TokenTypeBearer is returned as token_type in login/refresh responses.
	TokenTypeBearer = "bearer"
)
