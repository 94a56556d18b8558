package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"

	"github.com/ompro/ompro_end/models"
)

// Claims identity carried by an access token
type Claims struct {
	ID    string          `json:"id"`
	Email string          `json:"email"`
	Name  string          `json:"name"`
	Role  models.UserRole `json:"role"`
	jwt.StandardClaims
}

// TokenIssuer signs and verifies access tokens
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a token issuer
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// GenerateToken signs a token for user
func (t *TokenIssuer) GenerateToken(user models.UserProfile) (string, error) {
	now := time.Now()
	claims := Claims{
		ID:    user.ID.Hex(),
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
		StandardClaims: jwt.StandardClaims{
			Subject:   user.ID.Hex(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(t.ttl).Unix(),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		Logger.Error().Err(err).Str("email", user.Email).Msg("failed to sign token")
		return "", err
	}
	return tokenString, nil
}

// ParseToken verifies tokenString and returns its claims
func (t *TokenIssuer) ParseToken(tokenString string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.ID == "" || !claims.Role.Valid() {
		return nil, errors.New("token is missing required claims")
	}
	return claims, nil
}

// HashPassword hashes a password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks password against a bcrypt hash
func VerifyPassword(password, hashedPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

var whitespace = regexp.MustCompile(`\s+`)

// LoginEmail turns a login into an e-mail; bare user names become <name>@domain
func LoginEmail(login, domain string) string {
	login = strings.TrimSpace(login)
	if strings.Contains(login, "@") {
		return strings.ToLower(login)
	}
	slug := whitespace.ReplaceAllString(FoldDiacritics(strings.ToLower(login)), ".")
	return slug + "@" + domain
}

// Capability resources
const (
	ResourceGroups  = "groups"
	ResourceTasks   = "tasks"
	ResourceUsers   = "users"
	ResourceReports = "reports"
	ResourceStats   = "stats"
)

// Capability actions
const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionImport = "import"
	ActionExport = "export"
)

// capabilities role -> resource -> allowed actions
var capabilities = map[models.UserRole]map[string][]string{
	models.UserRoleManager: {
		ResourceGroups:  {ActionRead, ActionCreate, ActionDelete},
		ResourceTasks:   {ActionRead, ActionImport, ActionUpdate, ActionDelete},
		ResourceUsers:   {ActionRead, ActionCreate, ActionDelete},
		ResourceReports: {ActionRead, ActionExport},
		ResourceStats:   {ActionRead},
	},
	models.UserRoleAdmin: {
		ResourceGroups:  {ActionRead},
		ResourceTasks:   {ActionRead, ActionUpdate},
		ResourceUsers:   {ActionRead},
		ResourceReports: {ActionRead, ActionExport},
		ResourceStats:   {ActionRead},
	},
	models.UserRoleExecutor: {
		ResourceGroups: {ActionRead},
		ResourceTasks:  {ActionRead, ActionUpdate},
	},
}

// HasPermission consults the capability table
func HasPermission(role models.UserRole, resource string, action string) bool {
	for _, a := range capabilities[role][resource] {
		if a == action {
			return true
		}
	}
	return false
}
