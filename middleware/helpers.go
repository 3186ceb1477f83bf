package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/golang-jwt/jwt/v4"
)

// Имена JWT claims. Провайдер кладёт идентификатор пользователя в sub, старые токены - в user_id.
const (
	jwtClaimSubject = "sub"
	jwtClaimUserID  = "user_id"
	jwtClaimRole    = "role"
)

var errNoClaims = errors.New("user claims not found in context or invalid type")

func GetUserIDFromContext(ctx context.Context) (string, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return "", errNoClaims
	}
	for _, name := range []string{jwtClaimSubject, jwtClaimUserID} {
		switch v := claims[name].(type) {
		case string:
			if v != "" {
				return v, nil
			}
		case float64:
			if v == float64(int64(v)) && v > 0 {
				return fmt.Sprintf("%d", int64(v)), nil
			}
		}
	}
	return "", fmt.Errorf("missing '%s' claim in token", jwtClaimSubject)
}

func GetUserRoleFromContext(ctx context.Context) (models.UserRole, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return "", errNoClaims
	}
	roleClaim, ok := claims[jwtClaimRole]
	if !ok {
		return "", fmt.Errorf("missing '%s' claim in token", jwtClaimRole)
	}
	roleStr, ok := roleClaim.(string)
	if !ok {
		return "", fmt.Errorf("invalid type for '%s' claim: expected string, got %T", jwtClaimRole, roleClaim)
	}
	role := models.UserRole(roleStr)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role value in claim: %q", roleStr)
	}
	return role, nil
}

// CallerFromContext собирает идентичность для сервисного слоя.
func CallerFromContext(ctx context.Context) (models.Caller, error) {
	id, err := GetUserIDFromContext(ctx)
	if err != nil {
		return models.Caller{}, err
	}
	role, err := GetUserRoleFromContext(ctx)
	if err != nil {
		return models.Caller{}, err
	}
	return models.Caller{UserID: id, Role: role}, nil
}
