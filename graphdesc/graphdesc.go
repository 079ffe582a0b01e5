// Package graphdesc decodes the structural graph-description document
// (spec.md §6) into plain Go values. Per the specification's scope, JSON
// loading itself stays a thin structural deserializer — there is no
// hand-rolled grammar or recursive-descent parser here, only
// encoding/json plus the token-based object decoding needed to preserve
// declaration order, which §5 requires to be visible in summary
// rendering and dim-var allocation (Go's encoding/json does not
// preserve object key order when decoding into a map, so a small
// ordered-object reader sits in front of it — see decodeOrdered below).
package graphdesc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// VertexDesc is one node of the description tree: either a composite
// ("name" == "Model", carrying submodels/connections/exposed_keys) or a
// primitive (bare "name" naming a registered op, no submodels/connections).
type VertexDesc struct {
	Name string

	SubmodelOrder []string
	Submodels     map[string]*VertexDesc

	ConnectionOrder []string
	Connections     map[string]*ConnectionSet

	ExposedKeys    []string
	HasExposedKeys bool
}

// ConnectionSet is the per-submodel port->endpoint mapping, order-preserved.
type ConnectionSet struct {
	PortOrder []string
	Ports     map[string]Endpoint
}

// EndpointKind discriminates the four endpoint-spec shapes from §6.
type EndpointKind uint8

const (
	// EndpointAlias is a bare string: an external alias.
	EndpointAlias EndpointKind = iota
	// EndpointConnect is {"connect": [[submodel, port], ...]}.
	EndpointConnect
	// EndpointAnnotated is {"name": "...", "type": {...}}.
	EndpointAnnotated
	// EndpointLiteral is a bare number or boolean.
	EndpointLiteral
)

// ConnectRef is one [submodel, port] pair inside a "connect" endpoint.
type ConnectRef struct {
	Submodel string
	Port     string
}

// TypeAnnotation is the optional {"type": ...} half of an annotated
// endpoint: either a bare scalar name ("float") or {"Tensor": [...]}.
type TypeAnnotation struct {
	IsTensor bool
	Scalars  []string // element names for Tensor, or a single bare scalar name otherwise
}

// Endpoint is a decoded connection endpoint spec.
type Endpoint struct {
	Kind EndpointKind

	Alias string // EndpointAlias

	Connects []ConnectRef // EndpointConnect

	AnnotatedName string          // EndpointAnnotated
	AnnotatedType *TypeAnnotation // EndpointAnnotated, optional

	LiteralIsBool bool    // EndpointLiteral
	LiteralBool   bool    // EndpointLiteral
	LiteralFloat  float64 // EndpointLiteral
}

// StaticInputShapes decodes the top-level static_input_shapes directive.
type StaticInputShapes map[string][]int

// Document is the full decoded input: the root model plus the optional
// static-input directive.
type Document struct {
	Root               *VertexDesc
	StaticInputShapes  StaticInputShapes
	HasStaticInputSpec bool
}

// Decode reads a graph description document from r.
func Decode(r io.Reader) (*Document, error) {
	raw, err := decodeOrderedTop(r)
	if err != nil {
		return nil, fmt.Errorf("graphdesc: %w", err)
	}

	doc := &Document{}
	root, err := vertexFromOrdered(raw)
	if err != nil {
		return nil, fmt.Errorf("graphdesc: %w", err)
	}
	doc.Root = root

	if sis, ok := raw.get("static_input_shapes"); ok {
		var m map[string][]int
		if err := json.Unmarshal(sis, &m); err != nil {
			return nil, fmt.Errorf("graphdesc: static_input_shapes: %w", err)
		}
		doc.StaticInputShapes = m
		doc.HasStaticInputSpec = true
	}

	return doc, nil
}

// DecodeBytes is sugar for Decode(bytes.NewReader(data)).
func DecodeBytes(data []byte) (*Document, error) {
	return Decode(bytes.NewReader(data))
}

// --- ordered object decoding -------------------------------------------------
//
// encoding/json's Decoder exposes a Token() stream that *does* preserve
// object key order; we use it to build an orderedObject (parallel slices
// of keys and raw values) instead of a map, then project that into the
// typed VertexDesc/ConnectionSet/Endpoint structures above. Every leaf
// value is still decoded with plain json.Unmarshal.

type orderedObject struct {
	keys   []string
	values []json.RawMessage
}

func (o *orderedObject) get(key string) (json.RawMessage, bool) {
	for i, k := range o.keys {
		if k == key {
			return o.values[i], true
		}
	}
	return nil, false
}

func decodeOrderedTop(r io.Reader) (*orderedObject, error) {
	dec := json.NewDecoder(r)
	return decodeOrderedObject(dec)
}

// decodeOrderedObject expects the decoder positioned just before a JSON
// object (it consumes the leading '{' token itself) and returns the
// object's key/value pairs in declaration order.
func decodeOrderedObject(dec *json.Decoder) (*orderedObject, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	obj := &orderedObject{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("object value for %q: %w", key, err)
		}
		obj.keys = append(obj.keys, key)
		obj.values = append(obj.values, raw)
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return nil, err
	}
	return obj, nil
}

func decodeOrderedObjectFromRaw(raw json.RawMessage) (*orderedObject, error) {
	return decodeOrderedObject(json.NewDecoder(bytes.NewReader(raw)))
}

// vertexFromOrdered projects a decoded top-level object onto VertexDesc.
func vertexFromOrdered(obj *orderedObject) (*VertexDesc, error) {
	v := &VertexDesc{}

	if raw, ok := obj.get("name"); ok {
		if err := json.Unmarshal(raw, &v.Name); err != nil {
			return nil, fmt.Errorf("name: %w", err)
		}
	}

	if raw, ok := obj.get("submodels"); ok {
		subObj, err := decodeOrderedObjectFromRaw(raw)
		if err != nil {
			return nil, fmt.Errorf("submodels: %w", err)
		}
		v.Submodels = make(map[string]*VertexDesc, len(subObj.keys))
		for i, key := range subObj.keys {
			childObj, err := decodeOrderedObjectFromRaw(subObj.values[i])
			if err != nil {
				return nil, fmt.Errorf("submodels.%s: %w", key, err)
			}
			child, err := vertexFromOrdered(childObj)
			if err != nil {
				return nil, fmt.Errorf("submodels.%s: %w", key, err)
			}
			v.Submodels[key] = child
			v.SubmodelOrder = append(v.SubmodelOrder, key)
		}
	}

	if raw, ok := obj.get("connections"); ok {
		connObj, err := decodeOrderedObjectFromRaw(raw)
		if err != nil {
			return nil, fmt.Errorf("connections: %w", err)
		}
		v.Connections = make(map[string]*ConnectionSet, len(connObj.keys))
		for i, subName := range connObj.keys {
			portObj, err := decodeOrderedObjectFromRaw(connObj.values[i])
			if err != nil {
				return nil, fmt.Errorf("connections.%s: %w", subName, err)
			}
			cs := &ConnectionSet{Ports: make(map[string]Endpoint, len(portObj.keys))}
			for j, portName := range portObj.keys {
				ep, err := decodeEndpoint(portObj.values[j])
				if err != nil {
					return nil, fmt.Errorf("connections.%s.%s: %w", subName, portName, err)
				}
				cs.Ports[portName] = ep
				cs.PortOrder = append(cs.PortOrder, portName)
			}
			v.Connections[subName] = cs
			v.ConnectionOrder = append(v.ConnectionOrder, subName)
		}
	}

	if raw, ok := obj.get("exposed_keys"); ok {
		var keys []string
		if err := json.Unmarshal(raw, &keys); err != nil {
			return nil, fmt.Errorf("exposed_keys: %w", err)
		}
		v.ExposedKeys = keys
		v.HasExposedKeys = true
	}

	return v, nil
}

// decodeEndpoint classifies and decodes one endpoint-spec value per §6's
// grammar: string -> alias, object with "connect" -> internal edge,
// object with "name"/"type" -> annotated alias, number/bool -> literal.
func decodeEndpoint(raw json.RawMessage) (Endpoint, error) {
	var probe interface{}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Endpoint{}, err
	}

	switch val := probe.(type) {
	case string:
		return Endpoint{Kind: EndpointAlias, Alias: val}, nil
	case bool:
		return Endpoint{Kind: EndpointLiteral, LiteralIsBool: true, LiteralBool: val}, nil
	case float64:
		return Endpoint{Kind: EndpointLiteral, LiteralFloat: val}, nil
	case map[string]interface{}:
		if _, hasConnect := val["connect"]; hasConnect {
			var body struct {
				Connect [][2]string `json:"connect"`
			}
			if err := json.Unmarshal(raw, &body); err != nil {
				return Endpoint{}, fmt.Errorf("connect: %w", err)
			}
			refs := make([]ConnectRef, len(body.Connect))
			for i, pair := range body.Connect {
				refs[i] = ConnectRef{Submodel: pair[0], Port: pair[1]}
			}
			return Endpoint{Kind: EndpointConnect, Connects: refs}, nil
		}
		var body struct {
			Name string          `json:"name"`
			Type json.RawMessage `json:"type"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return Endpoint{}, fmt.Errorf("annotated alias: %w", err)
		}
		ep := Endpoint{Kind: EndpointAnnotated, AnnotatedName: body.Name}
		if len(body.Type) > 0 {
			ann, err := decodeTypeAnnotation(body.Type)
			if err != nil {
				return Endpoint{}, fmt.Errorf("type: %w", err)
			}
			ep.AnnotatedType = ann
		}
		return ep, nil
	default:
		return Endpoint{}, fmt.Errorf("unrecognized endpoint spec shape %T", probe)
	}
}

func decodeTypeAnnotation(raw json.RawMessage) (*TypeAnnotation, error) {
	var asTensor struct {
		Tensor []string `json:"Tensor"`
	}
	if err := json.Unmarshal(raw, &asTensor); err == nil && asTensor.Tensor != nil {
		return &TypeAnnotation{IsTensor: true, Scalars: asTensor.Tensor}, nil
	}
	var asScalar string
	if err := json.Unmarshal(raw, &asScalar); err == nil {
		return &TypeAnnotation{Scalars: []string{asScalar}}, nil
	}
	return nil, fmt.Errorf("unrecognized type annotation shape")
}
