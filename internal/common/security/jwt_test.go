package security

import (
	"errors"
	"testing"
	"time"

	"shelfwise/internal/common"
	"shelfwise/internal/domain/model"
	"shelfwise/internal/platform/config"

	"github.com/golang-jwt/jwt/v5"
)

func initTestJWT(t *testing.T, exp time.Duration) {
	t.Helper()
	config.AppConfig = &config.Config{
		JWTKey: []byte("test-secret"),
		JWTExp: exp,
	}
	InitJWT()
}

func TestGenerateAndDecodeToken(t *testing.T) {
	initTestJWT(t, time.Hour)

	user := &model.User{
		ID:       "a2f9d8e0-0000-0000-0000-000000000001",
		Username: "alice",
		IsSuper:  true,
		UserType: model.UserTypeLibrarian,
	}

	tokenString, err := GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := DecodeToken(tokenString)
	if err != nil {
		t.Fatalf("DecodeToken: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("UserID = %s, want %s", claims.UserID, user.ID)
	}
	if claims.Username != "alice" {
		t.Errorf("Username = %s, want alice", claims.Username)
	}
	if !claims.IsSuper {
		t.Error("IsSuper should round-trip")
	}
	if claims.UserType != model.UserTypeLibrarian {
		t.Errorf("UserType = %d, want %d", claims.UserType, model.UserTypeLibrarian)
	}
	if claims.ExpiresAt.Before(time.Now()) {
		t.Error("ExpiresAt should be in the future")
	}
}

func TestDecodeExpiredToken(t *testing.T) {
	initTestJWT(t, -time.Hour)

	tokenString, err := GenerateToken(&model.User{ID: "u1", Username: "bob"})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	_, err = DecodeToken(tokenString)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestDecodeTamperedToken(t *testing.T) {
	initTestJWT(t, time.Hour)

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	tokenString, err := other.SignedString([]byte("wrong-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = DecodeToken(tokenString)
	if !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestClaimsFromMap(t *testing.T) {
	t.Run("user_type as float64", func(t *testing.T) {
		claims, err := ClaimsFromMap(map[string]interface{}{
			"user_id":   "u1",
			"user_type": float64(2),
			"exp":       float64(time.Now().Add(time.Hour).Unix()),
		})
		if err != nil {
			t.Fatalf("ClaimsFromMap: %v", err)
		}
		if claims.UserType != model.UserTypeSystemAdmin {
			t.Errorf("UserType = %d, want %d", claims.UserType, model.UserTypeSystemAdmin)
		}
	})

	t.Run("user_type as string", func(t *testing.T) {
		claims, err := ClaimsFromMap(map[string]interface{}{
			"user_id":   "u1",
			"user_type": "1",
		})
		if err != nil {
			t.Fatalf("ClaimsFromMap: %v", err)
		}
		if claims.UserType != model.UserTypeLibrarian {
			t.Errorf("UserType = %d, want %d", claims.UserType, model.UserTypeLibrarian)
		}
	})

	t.Run("missing user_type defaults to reader", func(t *testing.T) {
		claims, err := ClaimsFromMap(map[string]interface{}{"user_id": "u1"})
		if err != nil {
			t.Fatalf("ClaimsFromMap: %v", err)
		}
		if claims.UserType != model.UserTypeReader {
			t.Errorf("UserType = %d, want reader", claims.UserType)
		}
	})

	t.Run("out of range user_type rejected", func(t *testing.T) {
		_, err := ClaimsFromMap(map[string]interface{}{
			"user_id":   "u1",
			"user_type": float64(9),
		})
		if !errors.Is(err, common.ErrUnauthorized) {
			t.Fatalf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("missing user_id rejected", func(t *testing.T) {
		_, err := ClaimsFromMap(map[string]interface{}{"username": "bob"})
		if !errors.Is(err, common.ErrUnauthorized) {
			t.Fatalf("err = %v, want ErrUnauthorized", err)
		}
	})
}
