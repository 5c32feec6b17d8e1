package security

import (
	"context"
	"errors"
	"strconv"
	"time"

	"shelfwise/internal/common"
	"shelfwise/internal/domain/model"
	"shelfwise/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTKey, nil)
}

// Claims is the typed view of a verified token. Representation ambiguity
// (user_type as number vs string) is resolved here once; nothing downstream
// re-checks it.
type Claims struct {
	UserID    string
	Username  string
	IsSuper   bool
	UserType  model.UserType
	ExpiresAt time.Time
}

func GenerateToken(user *model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":   user.ID,
		"username":  user.Username,
		"is_super":  user.IsSuper,
		"user_type": int(user.UserType),
		"exp":       now.Add(config.AppConfig.JWTExp).Unix(),
		"iat":       now.Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

// DecodeToken verifies signature and expiry and returns typed claims. It is
// a pure function of the token and the signing key; no storage lookups.
func DecodeToken(tokenString string) (Claims, error) {
	token, err := jwtauth.VerifyToken(TokenAuth, tokenString)
	if err != nil {
		if errors.Is(err, jwtauth.ErrExpired) {
			return Claims{}, common.ErrTokenExpired
		}
		return Claims{}, common.Errorf("invalid token: %w", common.ErrUnauthorized)
	}
	claimsMap, err := token.AsMap(context.Background())
	if err != nil {
		return Claims{}, common.Errorf("invalid token claims: %w", common.ErrUnauthorized)
	}
	return ClaimsFromMap(claimsMap)
}

// ClaimsFromMap normalizes the raw claim map the verifier middleware leaves
// in the request context.
func ClaimsFromMap(m map[string]interface{}) (Claims, error) {
	userID, ok := m["user_id"].(string)
	if !ok || userID == "" {
		return Claims{}, common.Errorf("user_id claim missing: %w", common.ErrUnauthorized)
	}
	username, _ := m["username"].(string)
	isSuper, _ := m["is_super"].(bool)

	userType, err := userTypeFromClaim(m["user_type"])
	if err != nil {
		return Claims{}, err
	}

	claims := Claims{
		UserID:   userID,
		Username: username,
		IsSuper:  isSuper,
		UserType: userType,
	}
	switch exp := m["exp"].(type) {
	case time.Time:
		claims.ExpiresAt = exp
	case float64:
		claims.ExpiresAt = time.Unix(int64(exp), 0)
	case int64:
		claims.ExpiresAt = time.Unix(exp, 0)
	}
	return claims, nil
}

func userTypeFromClaim(v interface{}) (model.UserType, error) {
	var t model.UserType
	switch ut := v.(type) {
	case float64:
		t = model.UserType(int(ut))
	case int:
		t = model.UserType(ut)
	case int64:
		t = model.UserType(ut)
	case string:
		n, err := strconv.Atoi(ut)
		if err != nil {
			return 0, common.Errorf("user_type claim malformed: %w", common.ErrUnauthorized)
		}
		t = model.UserType(n)
	case nil:
		t = model.UserTypeReader
	default:
		return 0, common.Errorf("user_type claim malformed: %w", common.ErrUnauthorized)
	}
	if !t.Valid() {
		return 0, common.Errorf("user_type claim out of range: %w", common.ErrUnauthorized)
	}
	return t, nil
}
