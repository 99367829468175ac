package splat

import (
	"fmt"
	"strconv"
)

// Flatten turns rows of groups x width numbers into rows of
// groups*width numbers, group 0 first. Row count doesn't change.
// The data is shared, only the shape changes.
func Flatten(a *Array, groups, width int) (*Array, error) {
	if a.rows == 0 && !a.IsRagged() {
		return &Array{Name: a.Name, Shape: []int{groups * width}}, nil
	}
	if a.IsRagged() || len(a.Shape) != 2 || a.Shape[0] != groups || a.Shape[1] != width {
		return nil, fmt.Errorf("%w: array '%s': expected rows of %d x %d, got %s", ErrShapeMismatch, a.Name, groups, width, a.shapeString())
	}
	return &Array{
		Name:  a.Name,
		Shape: []int{groups * width},
		data:  a.data,
		rows:  a.rows,
	}, nil
}

// Limit is an optional maximum number of rows. The zero value means no limit
type Limit struct {
	n   int
	set bool
}

// NoLimit doesn't truncate
var NoLimit = Limit{}

// LimitTo limits to at most n rows
func LimitTo(n int) Limit {
	if n < 0 {
		n = 0
	}
	return Limit{n: n, set: true}
}

// Get returns the limit and true if it's set
func (l Limit) Get() (int, bool) {
	return l.n, l.set
}

// Apply returns min(n, limit)
func (l Limit) Apply(n int) int {
	if l.set && l.n < n {
		return l.n
	}
	return n
}

func (l Limit) String() string {
	if !l.set {
		return "none"
	}
	return strconv.Itoa(l.n)
}

// Truncate returns the first l rows of a, or a if it's shorter
func Truncate(a *Array, l Limit) *Array {
	return a.Slice(l.Apply(a.Len()))
}

// Domain is a group of arrays that share the number of rows
type Domain int

const (
	Vertices Domain = iota
	Faces
	Gaussians
)

func (d Domain) String() string {
	switch d {
	case Vertices:
		return "vertices"
	case Faces:
		return "faces"
	case Gaussians:
		return "gaussians"
	}
	return "domain(" + strconv.Itoa(int(d)) + ")"
}

// Limits are row limits for each domain
type Limits struct {
	Vertices  Limit
	Faces     Limit
	Gaussians Limit
}

// For returns the limit for domain d
func (l Limits) For(d Domain) Limit {
	switch d {
	case Vertices:
		return l.Vertices
	case Faces:
		return l.Faces
	case Gaussians:
		return l.Gaussians
	}
	return NoLimit
}
