package lineitem

import (
	"encoding/json"

	"github.com/yungbote/boostcart-backend/internal/domain/catalog"
)

const (
	MinPostCount = 1
	MaxPostCount = 10
)

// Payload is the auxiliary data of a line item. The concrete type is decided
// by the product's sub-category, never by anything inside the payload.
type Payload interface {
	SubCategoryKind() string
	json.Marshaler
}

// FollowerPayload is carried by followers products.
type FollowerPayload struct {
	Username string
}

func (FollowerPayload) SubCategoryKind() string { return string(catalog.SubCategoryFollowers) }

func (p FollowerPayload) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Username string `json:"username"`
	}{Username: p.Username})
}

// LinksPayload is carried by likes, views and comments products.
type LinksPayload struct {
	PostCount int
	Links     []string
}

func (LinksPayload) SubCategoryKind() string { return "links" }

func (p LinksPayload) MarshalJSON() ([]byte, error) {
	links := p.Links
	if links == nil {
		links = []string{}
	}
	return json.Marshal(struct {
		PostCount int      `json:"postCount"`
		Links     []string `json:"links"`
	}{PostCount: p.PostCount, Links: links})
}
