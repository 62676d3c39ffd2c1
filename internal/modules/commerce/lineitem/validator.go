package lineitem

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	domainagg "github.com/yungbote/boostcart-backend/internal/domain/aggregates"
	"github.com/yungbote/boostcart-backend/internal/domain/catalog"
)

const op = "Commerce.LineItem.Validate"

const (
	FieldQuantity  = "quantity"
	FieldUsername  = "username"
	FieldPostCount = "postCount"
	FieldLinks     = "links"
)

// Validated is a line item that passed the product's current rules.
type Validated struct {
	ProductID uuid.UUID
	Quantity  int
	Payload   Payload
	// Normalized is the trimmed payload as it should be persisted.
	Normalized json.RawMessage
}

// Validate checks quantity against the product bounds, then the auxiliary
// payload against the shape required by the product's sub-category.
// Strings are trimmed before emptiness checks.
func Validate(product *catalog.Product, quantity int, raw json.RawMessage) (Validated, error) {
	var out Validated
	if product == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "product is required", nil)
	}
	if !product.AcceptsQuantity(quantity) {
		return out, domainagg.Reject(domainagg.CodeValidation, domainagg.ReasonQuantityOutOfRange, op, FieldQuantity,
			fmt.Sprintf("quantity must be between %d and %d", product.MinQuantity, product.MaxQuantity))
	}

	fields := decodeObject(raw)

	var payload Payload
	var err error
	if product.SubCategory == catalog.SubCategoryFollowers {
		payload, err = followerPayload(fields)
	} else {
		payload, err = linksPayload(fields)
	}
	if err != nil {
		return out, err
	}

	normalized, err := payload.MarshalJSON()
	if err != nil {
		return out, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return Validated{
		ProductID:  product.ID,
		Quantity:   quantity,
		Payload:    payload,
		Normalized: normalized,
	}, nil
}

// decodeObject returns nil when raw is absent or not a JSON object.
func decodeObject(raw json.RawMessage) map[string]json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return fields
}

func followerPayload(fields map[string]json.RawMessage) (Payload, error) {
	username, ok := trimmedString(fields[FieldUsername])
	if !ok || username == "" {
		return nil, domainagg.Reject(domainagg.CodeValidation, domainagg.ReasonMissingField, op, FieldUsername,
			"username is required")
	}
	return FollowerPayload{Username: username}, nil
}

func linksPayload(fields map[string]json.RawMessage) (Payload, error) {
	rawCount, ok := fields[FieldPostCount]
	if !ok {
		rawCount = fields["post_count"]
	}
	count, ok := parseCount(rawCount)
	if !ok || count < MinPostCount || count > MaxPostCount {
		return nil, domainagg.Reject(domainagg.CodeValidation, domainagg.ReasonInvalidCount, op, FieldPostCount,
			fmt.Sprintf("postCount must be an integer between %d and %d", MinPostCount, MaxPostCount))
	}

	incomplete := domainagg.Reject(domainagg.CodeValidation, domainagg.ReasonIncompleteLinks, op, FieldLinks,
		fmt.Sprintf("exactly %d non-empty links are required", count))

	var entries []json.RawMessage
	if err := json.Unmarshal(orNull(fields[FieldLinks]), &entries); err != nil || len(entries) != count {
		return nil, incomplete
	}
	links := make([]string, 0, count)
	for _, entry := range entries {
		link, ok := trimmedString(entry)
		if !ok || link == "" {
			return nil, incomplete
		}
		links = append(links, link)
	}
	return LinksPayload{PostCount: count, Links: links}, nil
}

func trimmedString(raw json.RawMessage) (string, bool) {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// parseCount accepts only a JSON integer literal. Strings, floats and
// exponents are rejected.
func parseCount(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' {
		return 0, false
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

func orNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
