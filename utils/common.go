package utils

import (
	"errors"
	"unicode"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ompro/ompro_end/models"
)

// ContextUserKey gin context key holding the authenticated *Claims
const ContextUserKey = "user"

// LoginUser authenticated caller
type LoginUser struct {
	ID    string
	Email string
	Name  string
	Role  models.UserRole
}

// GetUser returns the authenticated caller stored by the auth middleware
func GetUser(c *gin.Context) (*LoginUser, error) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, errors.New("unauthenticated request")
	}
	claims, ok := value.(*Claims)
	if !ok {
		return nil, errors.New("invalid user claims")
	}
	return &LoginUser{
		ID:    claims.ID,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  claims.Role,
	}, nil
}

// ParseObjectID parses a hex id taken from the request path
func ParseObjectID(id string, resource string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, CreateBadRequestError("invalid " + resource + " id")
	}
	return objID, nil
}

// FoldDiacritics strips combining marks after canonical decomposition ("ç" -> "c")
func FoldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
