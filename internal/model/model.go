// Package model representa los proyectos LCAbyg en JSON: una lista de
// registros Node y Edge cuyo contenido va etiquetado con el nombre del tipo.
//
//	{"Node": {"Construction": {...}}}
//	{"Edge": [{"ConstructionToProduct": {...}}, "<desde>", "<hacia>"]}
//
// Solo Construction y ConstructionToProduct se modelan con tipos propios. El
// resto del contenido se conserva en crudo para que Parse seguido de Marshal
// no pierda información.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// File es un proyecto LCAbyg completo, en el orden del archivo original
type File []Record

// Record es un elemento de File. Exactamente uno de Node, Edge o Raw está presente.
type Record struct {
	Node *Node
	Edge *Edge
	Raw  json.RawMessage // registro que no es ni Node ni Edge
}

// Node envuelve el contenido de un nodo
type Node struct {
	Content NodeContent
}

// Edge envuelve el contenido de una arista y los ids de sus extremos
type Edge struct {
	Content EdgeContent
	From    string
	To      string
}

// NodeContent es la unión cerrada de contenidos de nodo conocidos
type NodeContent interface {
	nodeKind() string
}

// EdgeContent es la unión cerrada de contenidos de arista conocidos
type EdgeContent interface {
	edgeKind() string
}

// Opaque guarda contenido no reconocido junto con su etiqueta original
type Opaque struct {
	Kind string
	Raw  json.RawMessage
}

func (o *Opaque) nodeKind() string { return o.Kind }
func (o *Opaque) edgeKind() string { return o.Kind }

// Parse decodifica un proyecto LCAbyg
func Parse(data []byte) (File, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("el proyecto debe ser una lista JSON: %w", err)
	}

	file := make(File, 0, len(raw))
	for i, item := range raw {
		var rec Record
		if err := json.Unmarshal(item, &rec); err != nil {
			return nil, fmt.Errorf("registro %d: %w", i, err)
		}
		file = append(file, rec)
	}
	return file, nil
}

// ReadFile lee y decodifica un proyecto desde disco
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("no se pudo leer el proyecto (%s): %w", path, err)
	}
	file, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// Marshal serializa el proyecto al formato que espera la API
func (f File) Marshal() ([]byte, error) {
	if f == nil {
		f = File{}
	}
	return json.Marshal([]Record(f))
}

// ConstructionToProducts devuelve las aristas cuyo monto se puede perturbar,
// en el orden del archivo. Los punteros apuntan dentro de f.
func (f File) ConstructionToProducts() []*Edge {
	var edges []*Edge
	for _, rec := range f {
		if rec.Edge == nil {
			continue
		}
		if _, ok := rec.Edge.Content.(*ConstructionToProduct); ok {
			edges = append(edges, rec.Edge)
		}
	}
	return edges
}

// Clone hace una copia profunda: ningún puntero ni slice se comparte con f
func (f File) Clone() File {
	if f == nil {
		return nil
	}
	out := make(File, len(f))
	for i, rec := range f {
		out[i] = rec.clone()
	}
	return out
}

func (r Record) clone() Record {
	var out Record
	if r.Raw != nil {
		out.Raw = cloneRaw(r.Raw)
	}
	if r.Node != nil {
		out.Node = &Node{Content: cloneNodeContent(r.Node.Content)}
	}
	if r.Edge != nil {
		out.Edge = &Edge{
			Content: cloneEdgeContent(r.Edge.Content),
			From:    r.Edge.From,
			To:      r.Edge.To,
		}
	}
	return out
}

func cloneNodeContent(c NodeContent) NodeContent {
	switch v := c.(type) {
	case *Construction:
		cp := *v
		return &cp
	case *Opaque:
		return &Opaque{Kind: v.Kind, Raw: cloneRaw(v.Raw)}
	}
	return c
}

func cloneEdgeContent(c EdgeContent) EdgeContent {
	switch v := c.(type) {
	case *ConstructionToProduct:
		cp := *v
		return &cp
	case *Opaque:
		return &Opaque{Kind: v.Kind, Raw: cloneRaw(v.Raw)}
	}
	return c
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	return append(json.RawMessage(nil), raw...)
}

// UnmarshalJSON reconoce {"Node": ...} y {"Edge": [...]}; cualquier otra
// forma se guarda en Raw
func (r *Record) UnmarshalJSON(data []byte) error {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil || len(wrapper) != 1 {
		r.Raw = cloneRaw(data)
		return nil
	}

	if body, ok := wrapper["Node"]; ok {
		content, err := decodeNodeContent(body)
		if err != nil {
			return fmt.Errorf("Node: %w", err)
		}
		r.Node = &Node{Content: content}
		return nil
	}

	if body, ok := wrapper["Edge"]; ok {
		edge, err := decodeEdge(body)
		if err != nil {
			return fmt.Errorf("Edge: %w", err)
		}
		r.Edge = edge
		return nil
	}

	r.Raw = cloneRaw(data)
	return nil
}

// MarshalJSON invierte UnmarshalJSON
func (r Record) MarshalJSON() ([]byte, error) {
	switch {
	case r.Node != nil:
		body, err := encodeTagged(r.Node.Content.nodeKind(), r.Node.Content)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]json.RawMessage{"Node": body})
	case r.Edge != nil:
		body, err := encodeTagged(r.Edge.Content.edgeKind(), r.Edge.Content)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string][]any{"Edge": {body, r.Edge.From, r.Edge.To}})
	case r.Raw != nil:
		return r.Raw, nil
	}
	return nil, fmt.Errorf("registro vacío")
}

func decodeNodeContent(body json.RawMessage) (NodeContent, error) {
	kind, inner, err := decodeTagged(body)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "Construction":
		var c Construction
		if err := json.Unmarshal(inner, &c); err != nil {
			return nil, fmt.Errorf("Construction: %w", err)
		}
		return &c, nil
	}
	return &Opaque{Kind: kind, Raw: cloneRaw(inner)}, nil
}

func decodeEdge(body json.RawMessage) (*Edge, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil {
		return nil, fmt.Errorf("se esperaba [contenido, id, id]: %w", err)
	}
	if len(parts) != 3 {
		return nil, fmt.Errorf("se esperaban 3 elementos, hay %d", len(parts))
	}

	edge := &Edge{}
	if err := json.Unmarshal(parts[1], &edge.From); err != nil {
		return nil, fmt.Errorf("id de origen: %w", err)
	}
	if err := json.Unmarshal(parts[2], &edge.To); err != nil {
		return nil, fmt.Errorf("id de destino: %w", err)
	}

	kind, inner, err := decodeTagged(parts[0])
	if err != nil {
		return nil, err
	}
	switch kind {
	case "ConstructionToProduct":
		var c ConstructionToProduct
		if err := json.Unmarshal(inner, &c); err != nil {
			return nil, fmt.Errorf("ConstructionToProduct: %w", err)
		}
		edge.Content = &c
	default:
		edge.Content = &Opaque{Kind: kind, Raw: cloneRaw(inner)}
	}
	return edge, nil
}

// decodeTagged separa {"Tipo": {...}} en etiqueta y contenido
func decodeTagged(body json.RawMessage) (string, json.RawMessage, error) {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(body, &tagged); err != nil {
		return "", nil, fmt.Errorf("contenido etiquetado inválido: %w", err)
	}
	if len(tagged) != 1 {
		return "", nil, fmt.Errorf("se esperaba una sola etiqueta, hay %d", len(tagged))
	}
	for kind, inner := range tagged {
		return kind, inner, nil
	}
	return "", nil, nil
}

func encodeTagged(kind string, content any) (json.RawMessage, error) {
	var inner []byte
	if o, ok := content.(*Opaque); ok {
		inner = o.Raw
	} else {
		b, err := json.Marshal(content)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		inner = b
	}

	var buf bytes.Buffer
	key, _ := json.Marshal(kind)
	buf.WriteByte('{')
	buf.Write(key)
	buf.WriteByte(':')
	buf.Write(inner)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
