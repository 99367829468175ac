package splat

import (
	"fmt"

	"github.com/kjk/plysplat/ply"
)

// Arity says how a field's array rows are written
type Arity int

const (
	// AsScalar writes one number (Field.Column) of each row
	AsScalar Arity = iota
	// AsFixed writes the whole row as fixed number of values, no count
	AsFixed
	// AsList writes the whole row prefixed with its length
	AsList
)

func (a Arity) String() string {
	switch a {
	case AsScalar:
		return "scalar"
	case AsFixed:
		return "fixed"
	case AsList:
		return "list"
	}
	return fmt.Sprintf("arity(%d)", int(a))
}

// ParseArity parses "scalar", "fixed" or "list"
func ParseArity(s string) (Arity, error) {
	for _, a := range []Arity{AsScalar, AsFixed, AsList} {
		if a.String() == s {
			return a, nil
		}
	}
	return AsScalar, fmt.Errorf("unknown arity '%s'", s)
}

// WholeRow is Field.Column of a scalar field whose rows are single numbers
const WholeRow = -1

// Field maps an array from a Store to a property of an element
type Field struct {
	// property name
	Name string
	// name of the array in the store
	Key string
	// for AsScalar, index of number in a row. WholeRow means rows
	// must have exactly one number
	Column    int
	Type      ply.ValueType
	Arity     Arity
	CountType ply.ValueType
	// if > 0, every row must have that many values (after flattening)
	Count int
	// if Groups > 0, rows of Groups x Width numbers are flattened first
	Groups int
	Width  int
}

// Block describes an element of the output file
type Block struct {
	Name     string
	Domain   Domain
	Comments []string
	Fields   []Field
}

// Layout describes all elements of the output file
type Layout struct {
	Name   string
	Blocks []*Block
	// rendered before "end_header"
	EndComments []string
}

// sharesArray returns true if another field of b reads the same array as f
func sharesArray(b *Block, f *Field) bool {
	for i := range b.Fields {
		other := &b.Fields[i]
		if other != f && other.Key == f.Key {
			return true
		}
	}
	return false
}

// Override changes type and arity of a field with a given property name.
// A field changed to AsScalar must have rows of a single number.
func (l *Layout) Override(name string, t ply.ValueType, arity Arity) error {
	found := false
	for _, b := range l.Blocks {
		for i := range b.Fields {
			f := &b.Fields[i]
			if f.Name != name {
				continue
			}
			if f.Arity == AsScalar && arity != AsScalar && sharesArray(b, f) {
				return fmt.Errorf("property '%s' is column %d of array '%s', can only be a scalar", name, f.Column, f.Key)
			}
			if arity == AsScalar && f.Arity != AsScalar {
				f.Column = WholeRow
			}
			f.Type = t
			f.Arity = arity
			if arity == AsList && f.CountType == ply.Invalid {
				f.CountType = ply.Uint8
			}
			found = true
		}
	}
	if !found {
		return fmt.Errorf("layout '%s' has no property '%s'", l.Name, name)
	}
	return nil
}

func scalar(name, key string, column int, t ply.ValueType) Field {
	return Field{Name: name, Key: key, Column: column, Type: t, Arity: AsScalar}
}

func list(name, key string, countType, t ply.ValueType) Field {
	return Field{Name: name, Key: key, Type: t, Arity: AsList, CountType: countType}
}

func fixed(name, key string, t ply.ValueType, count int) Field {
	return Field{Name: name, Key: key, Type: t, Arity: AsFixed, Count: count}
}

func flattened(f Field, groups, width int) Field {
	f.Groups = groups
	f.Width = width
	return f
}

func vertexBlock(t ply.ValueType) *Block {
	return &Block{
		Name:     "vertex",
		Domain:   Vertices,
		Comments: []string{"mesh vertices and frosting layer bounds"},
		Fields: []Field{
			scalar("x", KeyVertices, 0, t),
			scalar("y", KeyVertices, 1, t),
			scalar("z", KeyVertices, 2, t),
			scalar("outer_dist", KeyOuterDist, 0, t),
			scalar("inner_dist", KeyInnerDist, 0, t),
		},
	}
}

func gaussianBlock(name string, f Field) *Block {
	return &Block{
		Name:   name,
		Domain: Gaussians,
		Fields: []Field{f},
	}
}

// SplitLayout has a separate element for each gaussian attribute.
// This is the default layout.
func SplitLayout() *Layout {
	l := &Layout{
		Name: "split",
		Blocks: []*Block{
			vertexBlock(ply.Float64),
			{
				Name:   "face",
				Domain: Faces,
				Fields: []Field{list("vertex_indices", KeyFaces, ply.Uint8, ply.Uint32)},
			},
			gaussianBlock("gaussian_index", scalar("i", KeyCellIndices, 0, ply.Int32)),
			gaussianBlock("gaussian_bary_coords", list("bary_coords", KeyBaryCoords, ply.Uint8, ply.Float64)),
			gaussianBlock("gaussian_scales", list("scales", KeyScales, ply.Uint8, ply.Float32)),
			gaussianBlock("gaussian_quaternions", list("quaternions", KeyQuaternions, ply.Uint8, ply.Float64)),
			gaussianBlock("gaussian_opacity", scalar("opacity", KeyOpacities, 0, ply.Float64)),
			gaussianBlock("gaussian_sh_dc", flattened(list("sh_dc_coordinates", KeySHDC, ply.Uint8, ply.Float32), 1, 3)),
			gaussianBlock("gaussian_sh_rest", flattened(list("sh_rest_coordinates", KeySHRest, ply.Uint8, ply.Float64), shRestGroups, shRestGroupWidth)),
		},
	}
	l.Blocks[2].Comments = []string{"gaussians and their properties"}
	l.Blocks[7].Comments = []string{"spherical harmonics coefficients"}
	return l
}

func combinedGaussianFields(arity Arity) []Field {
	multi := func(name, key string, count int) Field {
		if arity == AsFixed {
			return fixed(name, key, ply.Float32, count)
		}
		return list(name, key, ply.Uint8, ply.Float32)
	}
	return []Field{
		scalar("i", KeyCellIndices, 0, ply.Int32),
		multi("bary_coords", KeyBaryCoords, 0),
		multi("scale", KeyScales, 3),
		multi("quaternion", KeyQuaternions, 4),
		scalar("opacity", KeyOpacities, 0, ply.Float32),
		flattened(multi("sh_coordinates_dc", KeySHDC, 3), 1, 3),
		flattened(multi("sh_coordinates_rest", KeySHRest, shRestGroups*shRestGroupWidth), shRestGroups, shRestGroupWidth),
	}
}

func combinedLayout(name string, arity Arity) *Layout {
	return &Layout{
		Name: name,
		Blocks: []*Block{
			vertexBlock(ply.Float32),
			{
				Name:     "face",
				Domain:   Faces,
				Comments: []string{"mesh faces"},
				Fields:   []Field{list("vertex_indices", KeyFaces, ply.Uint8, ply.Int32)},
			},
			{
				Name:     "gaussian",
				Domain:   Gaussians,
				Comments: []string{"gaussians by index and their properties"},
				Fields:   combinedGaussianFields(arity),
			},
		},
	}
}

// CombinedLayout has all gaussian attributes in a single "gaussian"
// element, with lists for multi-value attributes
func CombinedLayout() *Layout {
	return combinedLayout("combined", AsList)
}

// CompactLayout is like CombinedLayout but multi-value attributes
// are fixed-width (no per-row count)
func CompactLayout() *Layout {
	return combinedLayout("compact", AsFixed)
}

// LayoutByName returns a preset layout: "split", "combined" or "compact"
func LayoutByName(name string) (*Layout, error) {
	switch name {
	case "", "split":
		return SplitLayout(), nil
	case "combined":
		return CombinedLayout(), nil
	case "compact":
		return CompactLayout(), nil
	}
	return nil, fmt.Errorf("unknown layout '%s'", name)
}
