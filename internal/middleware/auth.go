package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/openclass/examcore/config"
	"github.com/openclass/examcore/internal/dto"
	"github.com/rs/zerolog/log"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	// RoleSystem is used by the timeout trigger that auto-submits attempts.
	RoleSystem = "system"
)

const principalKey = "principal"

// Principal is the authenticated identity this service trusts as given.
type Principal struct {
	UserID uint
	Role   string
}

type claims struct {
	UserID uint   `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Auth validates the Bearer token and attaches the principal to the request
// context.
func Auth(cfg *config.Config) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		tokenStr, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenStr == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Missing bearer token"})
			return
		}

		var c claims
		token, err := jwt.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (any, error) {
			return []byte(cfg.Auth.JWTSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			log.Warn().Err(err).Msg("Auth: token rejected")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Invalid token"})
			return
		}

		ctx.Set(principalKey, Principal{UserID: c.UserID, Role: c.Role})
		ctx.Next()
	}
}

// RequireRole gates a route group to the given roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		p := PrincipalFrom(ctx)
		for _, role := range roles {
			if p.Role == role {
				ctx.Next()
				return
			}
		}
		ctx.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{Message: "Insufficient role"})
	}
}

func PrincipalFrom(ctx *gin.Context) Principal {
	if v, ok := ctx.Get(principalKey); ok {
		if p, ok := v.(Principal); ok {
			return p
		}
	}
	return Principal{}
}
