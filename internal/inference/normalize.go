package inference

import (
	"errors"
	"strconv"

	"github.com/osroflo/openapi-generator/internal/models"
)

// Normalize cleans up a raw schema tree in place:
//   - empty property maps and empty or nil item lists are removed from
//     their node
//   - item lists collapse to their first element, so an array node ends up
//     with a single representative item schema
//   - falsy examples (false, "", "0" and numbers equal to zero) and empty
//     descriptions are removed from leaves
//   - every surviving child is normalized in turn
//
// Normalize is idempotent.
func Normalize(n *models.Node) {
	NormalizeWith(n, false)
}

// NormalizeWith is Normalize with control over falsy leaf members. When
// keepFalsy is set, falsy examples and empty descriptions survive.
func NormalizeWith(n *models.Node, keepFalsy bool) {
	if n == nil {
		return
	}

	if !keepFalsy && n.IsLeaf() {
		if n.HasExample && isFalsy(n.Example) {
			n.Example = nil
			n.HasExample = false
		}
		if n.Description != nil && *n.Description == "" {
			n.Description = nil
		}
	}

	if n.Properties != nil {
		var drop []string
		for pair := n.Properties.Oldest(); pair != nil; pair = pair.Next() {
			if pair.Value == nil {
				drop = append(drop, pair.Key)
				continue
			}
			NormalizeWith(pair.Value, keepFalsy)
		}
		for _, key := range drop {
			n.Properties.Delete(key)
		}
		if n.Properties.Len() == 0 {
			n.Properties = nil
		}
	}

	if n.Items != nil {
		n.Items = collapse(n.Items)
		if len(n.Items) == 0 {
			n.Items = nil
		} else {
			NormalizeWith(n.Items[0], keepFalsy)
		}
	}
}

// collapse keeps the first element of a sequentially indexed item list.
func collapse(items []*models.Node) []*models.Node {
	for _, item := range items {
		if item != nil {
			return []*models.Node{item}
		}
	}
	return nil
}

// isFalsy reports whether an example literal counts as empty: false, the
// empty string, the string "0" or a number whose value is zero.
func isFalsy(v models.JSONValue) bool {
	switch v := v.(type) {
	case nil:
		return true
	case bool:
		return !v
	case string:
		return v == "" || v == "0"
	case models.Number:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return false
		}
		return f == 0
	}
	return false
}
