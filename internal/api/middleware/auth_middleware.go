package middleware

import (
	"context"
	"log"
	"net/http"
	"parking_console/internal/domain"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	AuthorizationHeaderKey  = "Authorization"
	AuthorizationTypeBearer = "Bearer"
	ActorKey                = "actor"
	AccessTokenKey          = "accessToken"
)

// TokenValidator resolves a bearer token to the caller it was issued to.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (domain.Actor, error)
}

type AuthMiddleware struct {
	tokens TokenValidator
}

func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate validates the bearer token and stores the actor in the context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeaderKey)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header", "code": "Unauthorized"})
			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) < 2 || !strings.EqualFold(fields[0], AuthorizationTypeBearer) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format", "code": "Unauthorized"})
			return
		}

		accessToken := fields[1]
		actor, err := m.tokens.ValidateToken(c.Request.Context(), accessToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": "Unauthorized"})
			return
		}

		c.Set(ActorKey, actor)
		c.Set(AccessTokenKey, accessToken)
		c.Next()
	}
}

// AuthorizeRole lets the request through only for the listed roles.
// Services re-check the role, this just fails fast at the edge.
func (m *AuthMiddleware) AuthorizeRole(requiredRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			log.Printf("AuthorizeRole: no actor in context, Authenticate() must run first")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied", "code": "Forbidden"})
			return
		}
		if !actor.Is(requiredRoles...) {
			log.Printf("AuthorizeRole: user '%s' with role '%s' denied (requires %v)", actor.Username, actor.Role, requiredRoles)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied for role " + string(actor.Role), "code": "Forbidden"})
			return
		}
		c.Next()
	}
}

func ActorFromContext(c *gin.Context) (domain.Actor, bool) {
	v, exists := c.Get(ActorKey)
	if !exists {
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok
}
