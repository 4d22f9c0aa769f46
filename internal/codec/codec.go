// Package codec converts operation chains to and from their JSON document
// form, and renders errors for the HTTP surface.
//
// A document is an object with a "type", an optional "payload", and, for
// chains, an "operations" array:
//
//	{"type": "OperationChain", "operations": [
//	  {"type": "GetElements", "payload": {"ids": ["a"]}},
//	  {"operations": [{"type": "Limit", "payload": {"limit": 10}}]}
//	]}
//
// An object carrying "operations" decodes to *domain.Chain; anything else
// decodes to *domain.Op. A null entry decodes to a nil operation. Chains may
// nest at most domain.MaxChainDepth levels deep.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tjfontaine/opchain-gateway/internal/core/domain"
)

// Document is the serialized form of an operation.
type Document struct {
	Type       string         `json:"type,omitempty" yaml:"type,omitempty"`
	Payload    map[string]any `json:"payload,omitempty" yaml:"payload,omitempty"`
	Operations *[]*Document   `json:"operations,omitempty" yaml:"operations,omitempty"`
}

type rawDocument struct {
	Type       string            `json:"type"`
	Payload    map[string]any    `json:"payload"`
	Operations []json.RawMessage `json:"operations"`
}

// ToDocument converts op to its document form. Operations other than
// *domain.Op and *domain.Chain are written as their type id only.
func ToDocument(op domain.Operation) *Document {
	switch v := op.(type) {
	case nil:
		return nil
	case *domain.Chain:
		if v == nil {
			return nil
		}
		ops := make([]*Document, 0, v.Len())
		for _, child := range v.Snapshot() {
			ops = append(ops, ToDocument(child))
		}
		return &Document{Type: v.TypeID(), Operations: &ops}
	case *domain.Op:
		if v == nil {
			return nil
		}
		return &Document{Type: v.Type, Payload: v.Payload}
	default:
		return &Document{Type: op.TypeID()}
	}
}

// Encode returns the JSON document for op.
func Encode(op domain.Operation) ([]byte, error) {
	data, err := json.Marshal(ToDocument(op))
	if err != nil {
		return nil, fmt.Errorf("failed to encode operation: %w", err)
	}
	return data, nil
}

// DecodeChain decodes a chain document. A bare JSON array is accepted as
// the operations of an untyped chain.
func DecodeChain(data []byte) (*domain.Chain, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, domain.ErrInvalidChain("empty chain document")
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, domain.ErrInvalidChain(fmt.Sprintf("failed to decode chain: %v", err))
		}
		ops, err := decodeList(items, "operations", 1)
		if err != nil {
			return nil, err
		}
		return domain.NewChain(ops...), nil
	}

	op, err := decode(trimmed, "$", 0)
	if err != nil {
		return nil, err
	}
	chain, ok := op.(*domain.Chain)
	if !ok || chain == nil {
		return nil, domain.ErrInvalidChain("document is not a chain: missing \"operations\"")
	}
	return chain, nil
}

// DecodeOperation decodes a single operation or chain document.
func DecodeOperation(data []byte) (domain.Operation, error) {
	return decode(bytes.TrimSpace(data), "$", 0)
}

// decode parses one document; depth counts the chains enclosing it.
func decode(data []byte, path string, depth int) (domain.Operation, error) {
	if bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, domain.ErrInvalidChain(fmt.Sprintf("%s: %v", path, err))
	}

	if raw.Operations != nil {
		if depth >= domain.MaxChainDepth {
			return nil, domain.ErrInvalidChain(fmt.Sprintf("%s: chain nesting exceeds %d levels", path, domain.MaxChainDepth))
		}
		ops, err := decodeList(raw.Operations, path+".operations", depth+1)
		if err != nil {
			return nil, err
		}
		chain := domain.NewChain(ops...)
		if raw.Type != domain.ChainTypeID {
			chain.Type = raw.Type
		}
		return chain, nil
	}

	if raw.Type == "" {
		return nil, domain.ErrInvalidChain(fmt.Sprintf("%s: operation type is required", path))
	}
	return &domain.Op{Type: raw.Type, Payload: raw.Payload}, nil
}

func decodeList(items []json.RawMessage, path string, depth int) ([]domain.Operation, error) {
	ops := make([]domain.Operation, 0, len(items))
	for i, item := range items {
		op, err := decode(item, fmt.Sprintf("%s[%d]", path, i), depth)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}
