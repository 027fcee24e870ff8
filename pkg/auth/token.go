package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Profile struct {
		UserID   string `json:"userId"`
		Name     string `json:"name"`
		Role     Role   `json:"role"`
		MemberID string `json:"memberId,omitempty"`
	} `json:"profile"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Tokens struct {
	key    []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{
		key:    []byte(secret),
		ttl:    ttl,
		issuer: "library-catalog",
		now:    time.Now,
	}
}

// Issue signs an HS256 token for the identity and returns it with its expiry.
func (t *Tokens) Issue(id Identity) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)

	claims := &Claims{Email: id.Email}
	claims.Profile.UserID = id.UserID.String()
	claims.Profile.Name = id.Name
	claims.Profile.Role = id.Role
	if id.MemberID != uuid.Nil {
		claims.Profile.MemberID = id.MemberID.String()
	}
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    t.issuer,
		Subject:   id.UserID.String(),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.key)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign token")
	}
	return signed, expiresAt, nil
}

func (t *Tokens) Parse(tokenStr string) (Identity, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.key, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Profile.UserID)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	id := Identity{
		UserID: userID,
		Email:  claims.Email,
		Name:   claims.Profile.Name,
		Role:   claims.Profile.Role,
	}
	if claims.Profile.MemberID != "" {
		if id.MemberID, err = uuid.Parse(claims.Profile.MemberID); err != nil {
			return Identity{}, ErrInvalidToken
		}
	}
	if !id.Authenticated() {
		return Identity{}, ErrInvalidToken
	}
	return id, nil
}
