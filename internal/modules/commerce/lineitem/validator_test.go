package lineitem

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	domainagg "github.com/yungbote/boostcart-backend/internal/domain/aggregates"
	"github.com/yungbote/boostcart-backend/internal/domain/catalog"
)

func product(sub catalog.SubCategory, min, max int) *catalog.Product {
	return &catalog.Product{
		ID:          uuid.New(),
		Name:        "pkg",
		Price:       decimal.RequireFromString("9.99"),
		Category:    catalog.CategoryPlatformA,
		SubCategory: sub,
		MinQuantity: min,
		MaxQuantity: max,
		Active:      true,
	}
}

func requireReason(t *testing.T, err error, reason domainagg.Reason, field string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", reason)
	}
	var aggErr *domainagg.Error
	if !errors.As(err, &aggErr) {
		t.Fatalf("expected *aggregates.Error, got %T: %v", err, err)
	}
	if aggErr.Code != domainagg.CodeValidation || aggErr.Reason != reason || aggErr.Field != field {
		t.Fatalf("got code=%s reason=%s field=%s, want validation/%s/%s", aggErr.Code, aggErr.Reason, aggErr.Field, reason, field)
	}
}

func TestValidate_QuantityBounds(t *testing.T) {
	p := product(catalog.SubCategoryFollowers, 10, 1000)
	payload := json.RawMessage(`{"username":"alice"}`)

	_, err := Validate(p, 5, payload)
	requireReason(t, err, domainagg.ReasonQuantityOutOfRange, FieldQuantity)

	_, err = Validate(p, 1001, payload)
	requireReason(t, err, domainagg.ReasonQuantityOutOfRange, FieldQuantity)

	for _, q := range []int{10, 500, 1000} {
		if _, err := Validate(p, q, payload); err != nil {
			t.Fatalf("quantity %d: unexpected err %v", q, err)
		}
	}
}

func TestValidate_QuantityCheckedBeforePayload(t *testing.T) {
	p := product(catalog.SubCategoryFollowers, 10, 1000)
	_, err := Validate(p, 1, json.RawMessage(`{}`))
	requireReason(t, err, domainagg.ReasonQuantityOutOfRange, FieldQuantity)
}

func TestValidate_FollowersUsername(t *testing.T) {
	p := product(catalog.SubCategoryFollowers, 1, 100)
	rejected := []string{
		``,
		`null`,
		`[]`,
		`"alice"`,
		`{}`,
		`{"username":""}`,
		`{"username":"   "}`,
		`{"username":"\t\n"}`,
		`{"username":42}`,
		`{"username":null}`,
	}
	for _, raw := range rejected {
		_, err := Validate(p, 1, json.RawMessage(raw))
		requireReason(t, err, domainagg.ReasonMissingField, FieldUsername)
	}

	got, err := Validate(p, 1, json.RawMessage(`{"username":"  alice  ","extra":true}`))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	fp, ok := got.Payload.(FollowerPayload)
	if !ok || fp.Username != "alice" {
		t.Fatalf("unexpected payload %#v", got.Payload)
	}
	if string(got.Normalized) != `{"username":"alice"}` {
		t.Fatalf("normalized=%s", got.Normalized)
	}
	if got.ProductID != p.ID || got.Quantity != 1 {
		t.Fatalf("unexpected validated item %+v", got)
	}
}

func TestValidate_PostCountRange(t *testing.T) {
	for _, sub := range []catalog.SubCategory{catalog.SubCategoryLikes, catalog.SubCategoryViews, catalog.SubCategoryComments} {
		p := product(sub, 1, 100)
		for _, raw := range []string{
			`{}`,
			`{"postCount":0,"links":[]}`,
			`{"postCount":11,"links":[]}`,
			`{"postCount":-1}`,
			`{"postCount":2.5,"links":["a","b"]}`,
			`{"postCount":"two","links":["a","b"]}`,
			`{"postCount":"2","links":["a","b"]}`,
			`{"postCount":" 3 ","links":["a","b","c"]}`,
			`{"post_count":"1","links":["a"]}`,
			`{"postCount":1e0,"links":["a"]}`,
			`{"postCount":null}`,
			`{"username":"alice"}`,
		} {
			_, err := Validate(p, 1, json.RawMessage(raw))
			requireReason(t, err, domainagg.ReasonInvalidCount, FieldPostCount)
		}
	}
}

func TestValidate_Links(t *testing.T) {
	p := product(catalog.SubCategoryLikes, 1, 100)
	for _, raw := range []string{
		`{"postCount":2}`,
		`{"postCount":2,"links":null}`,
		`{"postCount":2,"links":["a"]}`,
		`{"postCount":2,"links":["a","b","c"]}`,
		`{"postCount":2,"links":["a","  "]}`,
		`{"postCount":2,"links":["a",null]}`,
		`{"postCount":2,"links":["a",7]}`,
		`{"postCount":1,"links":"a"}`,
	} {
		_, err := Validate(p, 1, json.RawMessage(raw))
		requireReason(t, err, domainagg.ReasonIncompleteLinks, FieldLinks)
	}

	got, err := Validate(p, 1, json.RawMessage(`{"post_count":2,"links":[" https://a/1 ","https://a/2"]}`))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	lp, ok := got.Payload.(LinksPayload)
	if !ok || lp.PostCount != 2 || lp.Links[0] != "https://a/1" {
		t.Fatalf("unexpected payload %#v", got.Payload)
	}
	if string(got.Normalized) != `{"postCount":2,"links":["https://a/1","https://a/2"]}` {
		t.Fatalf("normalized=%s", got.Normalized)
	}
}

// Accepted iff postCount in [1,10], len(links) == postCount and every link is non-blank.
func TestValidate_LinksAcceptanceIsExact(t *testing.T) {
	p := product(catalog.SubCategoryViews, 1, 100)
	for count := 0; count <= 11; count++ {
		for n := 0; n <= 11; n++ {
			for _, blank := range []bool{false, true} {
				links := make([]string, n)
				for i := range links {
					links[i] = fmt.Sprintf("https://p/%d", i)
				}
				if blank && n > 0 {
					links[n-1] = strings.Repeat(" ", 3)
				}
				raw, _ := json.Marshal(map[string]any{"postCount": count, "links": links})
				_, err := Validate(p, 1, raw)
				want := count >= MinPostCount && count <= MaxPostCount && n == count && !(blank && n > 0)
				if (err == nil) != want {
					t.Fatalf("count=%d n=%d blank=%v: err=%v want accept=%v", count, n, blank, err, want)
				}
			}
		}
	}
}

func TestValidate_NormalizedRevalidates(t *testing.T) {
	p := product(catalog.SubCategoryComments, 1, 100)
	first, err := Validate(p, 3, json.RawMessage(`{"postCount":1,"links":[" x "]}`))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	second, err := Validate(p, 3, first.Normalized)
	if err != nil {
		t.Fatalf("normalized payload rejected: %v", err)
	}
	if string(second.Normalized) != string(first.Normalized) {
		t.Fatalf("normalization not stable: %s vs %s", first.Normalized, second.Normalized)
	}
}

func TestValidate_NilProduct(t *testing.T) {
	_, err := Validate(nil, 1, nil)
	if !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
