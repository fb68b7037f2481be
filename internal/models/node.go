package models

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Schema node types. OpenAPI has no bare "double" type; doubles are
// reported as TypeNumber with FormatDouble.
const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"

	FormatDouble = "double"
)

// Properties is the ordered property map of an object node.
type Properties = orderedmap.OrderedMap[string, *Node]

// NewProperties returns an empty ordered property map.
func NewProperties() *Properties {
	return orderedmap.New[string, *Node]()
}

// Node is a single node of an inferred schema tree.
type Node struct {
	Type     string
	Format   string
	Nullable bool

	// Description is non-nil only when descriptions are requested.
	Description *string

	// Example is the literal scalar observed in the sample; only meaningful
	// on leaves when HasExample is set.
	Example    JSONValue
	HasExample bool

	// Properties is set on object nodes.
	Properties *Properties

	// Items holds one node per inferred element until the tree is
	// normalized, after which it holds at most one representative element.
	Items []*Node
}

// IsLeaf reports whether the node describes a scalar.
func (n *Node) IsLeaf() bool {
	return n.Type != TypeObject && n.Type != TypeArray
}

// Item returns the representative element of an array node, or nil.
func (n *Node) Item() *Node {
	if len(n.Items) == 0 {
		return nil
	}
	return n.Items[0]
}

// Property returns the named property of an object node, or nil.
func (n *Node) Property(name string) *Node {
	if n.Properties == nil {
		return nil
	}
	child, _ := n.Properties.Get(name)
	return child
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	if n.Description != nil {
		d := *n.Description
		out.Description = &d
	}
	if n.Properties != nil {
		out.Properties = NewProperties()
		for pair := n.Properties.Oldest(); pair != nil; pair = pair.Next() {
			out.Properties.Set(pair.Key, pair.Value.Clone())
		}
	}
	if n.Items != nil {
		out.Items = make([]*Node, len(n.Items))
		for i, item := range n.Items {
			out.Items[i] = item.Clone()
		}
	}
	return &out
}

// ToValue renders the node as an ordered JSON object, ready to be handed to
// a serializer. Key order is type, nullable, example, format, description,
// then properties or items.
func (n *Node) ToValue() JSONObject {
	obj := JSONObject{{Key: "type", Value: n.Type}}
	if n.Nullable {
		obj = append(obj, Member{Key: "nullable", Value: true})
	}
	if n.HasExample {
		obj = append(obj, Member{Key: "example", Value: n.Example})
	}
	if n.Format != "" {
		obj = append(obj, Member{Key: "format", Value: n.Format})
	}
	if n.Description != nil {
		obj = append(obj, Member{Key: "description", Value: *n.Description})
	}
	if n.Properties != nil {
		obj = append(obj, Member{Key: "properties", Value: PropertiesValue(n.Properties)})
	}
	if n.Items != nil {
		// raw trees keep one item per element
		if len(n.Items) == 1 {
			obj = append(obj, Member{Key: "items", Value: n.Items[0].ToValue()})
		} else {
			items := make(JSONArray, len(n.Items))
			for i, item := range n.Items {
				items[i] = item.ToValue()
			}
			obj = append(obj, Member{Key: "items", Value: items})
		}
	}
	return obj
}

// PropertiesValue renders a property map as an ordered JSON object.
func PropertiesValue(props *Properties) JSONObject {
	if props == nil {
		return JSONObject{}
	}
	obj := make(JSONObject, 0, props.Len())
	for pair := props.Oldest(); pair != nil; pair = pair.Next() {
		obj = append(obj, Member{Key: pair.Key, Value: pair.Value.ToValue()})
	}
	return obj
}
