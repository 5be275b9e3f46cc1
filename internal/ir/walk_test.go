package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEachChildYieldsLexicalOrder(t *testing.T) {
	first := &Evaluate{Value: Int(1)}
	second := &Evaluate{Value: Int(2)}
	third := &Evaluate{Value: Int(3)}
	seq := Seq(first, second, third)

	var got []Stmt
	EachChild(seq, func(s Stmt) { got = append(got, s) })

	assert.Equal(t, []Stmt{first, second, third}, got)
}

func TestEachChildLeafStatements(t *testing.T) {
	buf := NewVar("A", Float32)
	for _, leaf := range []Stmt{
		&Store{Buffer: buf, Value: Int(0), Index: Int(0)},
		&Evaluate{Value: Int(0)},
	} {
		called := false
		EachChild(leaf, func(Stmt) { called = true })
		assert.False(t, called, "%T has no child statements", leaf)
	}
}

func TestEachChildSkipsNilBodies(t *testing.T) {
	pc := &ProducerConsumer{IsProducer: true}
	called := false
	EachChild(pc, func(Stmt) { called = true })
	assert.False(t, called)
}

func TestWalkVisitsPreOrder(t *testing.T) {
	inner := &Evaluate{Value: Int(0)}
	attr := &AttrStmt{
		Key:   AttrStorageScope,
		Node:  NewVar("A", Float32),
		Value: Str("shared"),
		Body:  inner,
	}
	root := &ProducerConsumer{IsProducer: true, Body: attr}

	var visited []Stmt
	Walk(root, func(s Stmt) bool {
		visited = append(visited, s)
		return true
	})

	assert.Equal(t, []Stmt{root, attr, inner}, visited)
}

func TestWalkSkipsSubtreeWhenVisitReturnsFalse(t *testing.T) {
	inner := &Evaluate{Value: Int(0)}
	attr := &AttrStmt{Key: "pragma", Node: NewVar("x", Int32), Value: Int(1), Body: inner}
	root := Seq(attr, &Evaluate{Value: Int(7)})

	var visited []Stmt
	Walk(root, func(s Stmt) bool {
		visited = append(visited, s)
		_, isAttr := s.(*AttrStmt)
		return !isAttr
	})

	assert.Contains(t, visited, attr)
	assert.NotContains(t, visited, inner)
}

func TestWalkBothBranchesOfIfThenElse(t *testing.T) {
	thenStmt := &Evaluate{Value: Int(1)}
	elseStmt := &Evaluate{Value: Int(2)}
	root := &IfThenElse{Condition: Int(1), Then: thenStmt, Else: elseStmt}

	var visited []Stmt
	Walk(root, func(s Stmt) bool {
		visited = append(visited, s)
		return true
	})

	assert.Equal(t, []Stmt{root, thenStmt, elseStmt}, visited)
}
