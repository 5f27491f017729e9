// Package surtype provides reflection-based mapping between Go structs
// and table records.
package surtype

import "github.com/CaliLuke/go-surreal/surql"

// Record is the marker interface for table record types. Structs that
// map to records must satisfy this interface, typically by embedding the
// BaseRecord type.
type Record interface {
	record()
	// GetID returns the record id assigned by the server or the caller.
	GetID() surql.Thing
	// SetID assigns the record id.
	SetID(id surql.Thing)
}

// BaseRecord is an embeddable base type for all Go structs mapping to
// table records. It carries the record id.
//
// Example usage:
//
//	type Person struct {
//	    surtype.BaseRecord
//	    Name string `surreal:"name,key"`
//	}
type BaseRecord struct {
	id surql.Thing
}

func (BaseRecord) record() {}

// GetID returns the record id.
func (r *BaseRecord) GetID() surql.Thing { return r.id }

// SetID sets the record id.
func (r *BaseRecord) SetID(id surql.Thing) { r.id = id }

// Edge is the marker interface for graph edge types. An edge is a record
// with in and out endpoints, created with RELATE.
type Edge interface {
	Record
	edge()
	// GetIn returns the record the edge starts from.
	GetIn() surql.Thing
	// SetIn assigns the edge's starting record.
	SetIn(id surql.Thing)
	// GetOut returns the record the edge points to.
	GetOut() surql.Thing
	// SetOut assigns the edge's target record.
	SetOut(id surql.Thing)
}

// BaseEdge is an embeddable base type for structs mapping to graph
// edges.
//
// Example usage:
//
//	type Purchased struct {
//	    surtype.BaseEdge
//	    Price float64 `surreal:"price"`
//	}
type BaseEdge struct {
	BaseRecord
	in  surql.Thing
	out surql.Thing
}

func (BaseEdge) edge() {}

// GetIn returns the record the edge starts from.
func (e *BaseEdge) GetIn() surql.Thing { return e.in }

// SetIn sets the edge's starting record.
func (e *BaseEdge) SetIn(id surql.Thing) { e.in = id }

// GetOut returns the record the edge points to.
func (e *BaseEdge) GetOut() surql.Thing { return e.out }

// SetOut sets the edge's target record.
func (e *BaseEdge) SetOut(id surql.Thing) { e.out = id }
