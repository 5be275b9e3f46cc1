package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// The JSON form of a tree is kind-tagged: every node is an object with a
// "kind" field naming its statement, expression, or object type. The set of
// kinds is closed; unknown kinds are decode errors.
//
// EncodeStmt and DecodeStmt are inverses up to variable identity: the
// decoder interns variables by name, so every occurrence of a name in one
// document decodes to the same *Var. This is what lets a storage_scope
// annotation and the allocation it governs agree on the buffer they name.

// Statement, expression, and object kind tags.
const (
	kindProducerConsumer = "producer_consumer"
	kindAttr             = "attr"
	kindAllocate         = "allocate"
	kindSeq              = "seq"
	kindFor              = "for"
	kindStore            = "store"
	kindEvaluate         = "evaluate"
	kindIfThenElse       = "if_then_else"

	kindInt     = "int"
	kindString  = "string"
	kindVar     = "var"
	kindAdd     = "add"
	kindMul     = "mul"
	kindIterVar = "iter_var"
)

// EncodeStmt marshals a statement tree to kind-tagged JSON.
func EncodeStmt(s Stmt) ([]byte, error) {
	v, err := stmtValue(s)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode stmt: %w", err)
	}
	return buf.Bytes(), nil
}

// stmtValue converts a statement to its generic JSON value. The same value
// feeds both EncodeStmt and MarshalCanonical.
func stmtValue(s Stmt) (map[string]any, error) {
	switch s := s.(type) {
	case *ProducerConsumer:
		return withBody(map[string]any{
			"kind":        kindProducerConsumer,
			"is_producer": s.IsProducer,
		}, s.Body)
	case *AttrStmt:
		node, err := objectValue(s.Node)
		if err != nil {
			return nil, err
		}
		value, err := exprValue(s.Value)
		if err != nil {
			return nil, err
		}
		return withBody(map[string]any{
			"kind":  kindAttr,
			"key":   s.Key,
			"node":  node,
			"value": value,
		}, s.Body)
	case *Allocate:
		extents := make([]any, len(s.Extents))
		for i, e := range s.Extents {
			v, err := exprValue(e)
			if err != nil {
				return nil, err
			}
			extents[i] = v
		}
		return withBody(map[string]any{
			"kind":    kindAllocate,
			"buffer":  varValue(s.Buffer),
			"dtype":   s.DType.String(),
			"extents": extents,
		}, s.Body)
	case *SeqStmt:
		stmts := make([]any, len(s.Stmts))
		for i, child := range s.Stmts {
			v, err := stmtValue(child)
			if err != nil {
				return nil, err
			}
			stmts[i] = v
		}
		return map[string]any{"kind": kindSeq, "stmts": stmts}, nil
	case *For:
		min, err := exprValue(s.Min)
		if err != nil {
			return nil, err
		}
		extent, err := exprValue(s.Extent)
		if err != nil {
			return nil, err
		}
		return withBody(map[string]any{
			"kind":     kindFor,
			"loop_var": varValue(s.LoopVar),
			"min":      min,
			"extent":   extent,
		}, s.Body)
	case *Store:
		value, err := exprValue(s.Value)
		if err != nil {
			return nil, err
		}
		index, err := exprValue(s.Index)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"kind":   kindStore,
			"buffer": varValue(s.Buffer),
			"value":  value,
			"index":  index,
		}, nil
	case *Evaluate:
		value, err := exprValue(s.Value)
		if err != nil {
			return nil, err
		}
		return map[string]any{"kind": kindEvaluate, "value": value}, nil
	case *IfThenElse:
		cond, err := exprValue(s.Condition)
		if err != nil {
			return nil, err
		}
		then, err := stmtValue(s.Then)
		if err != nil {
			return nil, err
		}
		m := map[string]any{
			"kind":      kindIfThenElse,
			"condition": cond,
			"then":      then,
		}
		if s.Else != nil {
			els, err := stmtValue(s.Else)
			if err != nil {
				return nil, err
			}
			m["else"] = els
		}
		return m, nil
	case nil:
		return nil, fmt.Errorf("encode: nil statement")
	default:
		return nil, fmt.Errorf("encode: unsupported statement %T", s)
	}
}

func withBody(m map[string]any, body Stmt) (map[string]any, error) {
	if body != nil {
		v, err := stmtValue(body)
		if err != nil {
			return nil, err
		}
		m["body"] = v
	}
	return m, nil
}

func exprValue(e PrimExpr) (map[string]any, error) {
	switch e := e.(type) {
	case *IntImm:
		return map[string]any{
			"kind":  kindInt,
			"dtype": e.DType.String(),
			"value": e.Value,
		}, nil
	case *StringImm:
		return map[string]any{"kind": kindString, "value": e.Value}, nil
	case *Var:
		return varValue(e), nil
	case *Add:
		return binaryValue(kindAdd, e.A, e.B)
	case *Mul:
		return binaryValue(kindMul, e.A, e.B)
	case nil:
		return nil, fmt.Errorf("encode: nil expression")
	default:
		return nil, fmt.Errorf("encode: unsupported expression %T", e)
	}
}

func binaryValue(kind string, a, b PrimExpr) (map[string]any, error) {
	av, err := exprValue(a)
	if err != nil {
		return nil, err
	}
	bv, err := exprValue(b)
	if err != nil {
		return nil, err
	}
	return map[string]any{"kind": kind, "a": av, "b": bv}, nil
}

func objectValue(o Object) (map[string]any, error) {
	switch o := o.(type) {
	case *Var:
		return varValue(o), nil
	case *IterVar:
		return map[string]any{"kind": kindIterVar, "var": varValue(o.Var)}, nil
	case nil:
		return nil, fmt.Errorf("encode: nil attribute node")
	default:
		return nil, fmt.Errorf("encode: unsupported attribute node %T", o)
	}
}

func varValue(v *Var) map[string]any {
	return map[string]any{
		"kind":  kindVar,
		"name":  v.Name,
		"dtype": v.DType.String(),
	}
}

// DecodeStmt parses kind-tagged JSON produced by EncodeStmt.
func DecodeStmt(data []byte) (Stmt, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber() // preserve integers above 2^53
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode stmt: %w", err)
	}
	d := &treeDecoder{vars: make(map[string]*Var)}
	return d.stmt(raw)
}

// treeDecoder holds the variable interning table for one document.
type treeDecoder struct {
	vars map[string]*Var
}

func (d *treeDecoder) stmt(raw any) (Stmt, error) {
	m, kind, err := nodeKind(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case kindProducerConsumer:
		isProducer, _ := m["is_producer"].(bool)
		body, err := d.optBody(m)
		if err != nil {
			return nil, err
		}
		return &ProducerConsumer{IsProducer: isProducer, Body: body}, nil
	case kindAttr:
		key, err := stringField(m, "key")
		if err != nil {
			return nil, err
		}
		node, err := d.object(m["node"])
		if err != nil {
			return nil, err
		}
		value, err := d.expr(m["value"])
		if err != nil {
			return nil, err
		}
		body, err := d.optBody(m)
		if err != nil {
			return nil, err
		}
		return &AttrStmt{Key: key, Node: node, Value: value, Body: body}, nil
	case kindAllocate:
		buffer, err := d.varRef(m["buffer"])
		if err != nil {
			return nil, err
		}
		dtype, err := dtypeField(m, "dtype")
		if err != nil {
			return nil, err
		}
		rawExtents, _ := m["extents"].([]any)
		extents := make([]PrimExpr, len(rawExtents))
		for i, re := range rawExtents {
			e, err := d.expr(re)
			if err != nil {
				return nil, err
			}
			extents[i] = e
		}
		body, err := d.optBody(m)
		if err != nil {
			return nil, err
		}
		return &Allocate{Buffer: buffer, DType: dtype, Extents: extents, Body: body}, nil
	case kindSeq:
		rawStmts, _ := m["stmts"].([]any)
		stmts := make([]Stmt, len(rawStmts))
		for i, rs := range rawStmts {
			s, err := d.stmt(rs)
			if err != nil {
				return nil, err
			}
			stmts[i] = s
		}
		return &SeqStmt{Stmts: stmts}, nil
	case kindFor:
		loopVar, err := d.varRef(m["loop_var"])
		if err != nil {
			return nil, err
		}
		min, err := d.expr(m["min"])
		if err != nil {
			return nil, err
		}
		extent, err := d.expr(m["extent"])
		if err != nil {
			return nil, err
		}
		body, err := d.optBody(m)
		if err != nil {
			return nil, err
		}
		return &For{LoopVar: loopVar, Min: min, Extent: extent, Body: body}, nil
	case kindStore:
		buffer, err := d.varRef(m["buffer"])
		if err != nil {
			return nil, err
		}
		value, err := d.expr(m["value"])
		if err != nil {
			return nil, err
		}
		index, err := d.expr(m["index"])
		if err != nil {
			return nil, err
		}
		return &Store{Buffer: buffer, Value: value, Index: index}, nil
	case kindEvaluate:
		value, err := d.expr(m["value"])
		if err != nil {
			return nil, err
		}
		return &Evaluate{Value: value}, nil
	case kindIfThenElse:
		cond, err := d.expr(m["condition"])
		if err != nil {
			return nil, err
		}
		then, err := d.stmt(m["then"])
		if err != nil {
			return nil, err
		}
		var els Stmt
		if rawElse, ok := m["else"]; ok {
			els, err = d.stmt(rawElse)
			if err != nil {
				return nil, err
			}
		}
		return &IfThenElse{Condition: cond, Then: then, Else: els}, nil
	default:
		return nil, fmt.Errorf("decode: unknown statement kind %q", kind)
	}
}

func (d *treeDecoder) optBody(m map[string]any) (Stmt, error) {
	raw, ok := m["body"]
	if !ok || raw == nil {
		return nil, nil
	}
	return d.stmt(raw)
}

func (d *treeDecoder) expr(raw any) (PrimExpr, error) {
	m, kind, err := nodeKind(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case kindInt:
		dtype, err := dtypeField(m, "dtype")
		if err != nil {
			return nil, err
		}
		value, err := intField(m, "value")
		if err != nil {
			return nil, err
		}
		return &IntImm{DType: dtype, Value: value}, nil
	case kindString:
		value, err := stringField(m, "value")
		if err != nil {
			return nil, err
		}
		return &StringImm{Value: value}, nil
	case kindVar:
		return d.internVar(m)
	case kindAdd:
		a, b, err := d.binary(m)
		if err != nil {
			return nil, err
		}
		return &Add{A: a, B: b}, nil
	case kindMul:
		a, b, err := d.binary(m)
		if err != nil {
			return nil, err
		}
		return &Mul{A: a, B: b}, nil
	default:
		return nil, fmt.Errorf("decode: unknown expression kind %q", kind)
	}
}

func (d *treeDecoder) binary(m map[string]any) (PrimExpr, PrimExpr, error) {
	a, err := d.expr(m["a"])
	if err != nil {
		return nil, nil, err
	}
	b, err := d.expr(m["b"])
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func (d *treeDecoder) object(raw any) (Object, error) {
	m, kind, err := nodeKind(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case kindVar:
		return d.internVar(m)
	case kindIterVar:
		v, err := d.varRef(m["var"])
		if err != nil {
			return nil, err
		}
		return &IterVar{Var: v}, nil
	default:
		return nil, fmt.Errorf("decode: unknown attribute node kind %q", kind)
	}
}

// varRef decodes a node that must be a variable.
func (d *treeDecoder) varRef(raw any) (*Var, error) {
	m, kind, err := nodeKind(raw)
	if err != nil {
		return nil, err
	}
	if kind != kindVar {
		return nil, fmt.Errorf("decode: expected var node, got %q", kind)
	}
	return d.internVar(m)
}

// internVar returns the canonical *Var for the name in m, creating it on
// first sight. The first occurrence's dtype wins.
func (d *treeDecoder) internVar(m map[string]any) (*Var, error) {
	name, err := stringField(m, "name")
	if err != nil {
		return nil, err
	}
	if v, ok := d.vars[name]; ok {
		return v, nil
	}
	dtype, err := dtypeField(m, "dtype")
	if err != nil {
		return nil, err
	}
	v := &Var{Name: name, DType: dtype}
	d.vars[name] = v
	return v, nil
}

func nodeKind(raw any) (map[string]any, string, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, "", fmt.Errorf("decode: expected object node, got %T", raw)
	}
	kind, ok := m["kind"].(string)
	if !ok {
		return nil, "", fmt.Errorf("decode: node missing kind tag")
	}
	return m, kind, nil
}

func stringField(m map[string]any, key string) (string, error) {
	s, ok := m[key].(string)
	if !ok {
		return "", fmt.Errorf("decode: missing or non-string field %q", key)
	}
	return s, nil
}

func intField(m map[string]any, key string) (int64, error) {
	n, ok := m[key].(json.Number)
	if !ok {
		return 0, fmt.Errorf("decode: missing or non-integer field %q", key)
	}
	v, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("decode: field %q: %w", key, err)
	}
	return v, nil
}

func dtypeField(m map[string]any, key string) (DType, error) {
	s, err := stringField(m, key)
	if err != nil {
		return DType{}, err
	}
	t, err := ParseDType(s)
	if err != nil {
		return DType{}, fmt.Errorf("decode: field %q: %w", key, err)
	}
	return t, nil
}
