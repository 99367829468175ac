package splat

import (
	"errors"
	"fmt"
	"sort"
)

// ErrMissingAttribute is returned when a store doesn't have a required array
var ErrMissingAttribute = errors.New("missing attribute")

// names of arrays in a frosting checkpoint
const (
	KeyVertices      = "_shell_base_verts"
	KeyOuterDist     = "_outer_dist"
	KeyInnerDist     = "_inner_dist"
	KeyFaces         = "_shell_base_faces"
	KeyCellIndices   = "_point_cell_indices"
	KeyBaryCoords    = "_bary_coords"
	KeyScales        = "_scales"
	KeyQuaternions   = "_quaternions"
	KeyOpacities     = "_opacities"
	KeySHDC          = "_sh_coordinates_dc"
	KeySHRest        = "_sh_coordinates_rest"
	shRestGroups     = 15
	shRestGroupWidth = 3
)

// Keys lists all arrays a checkpoint has
var Keys = []string{
	KeyVertices, KeyOuterDist, KeyInnerDist, KeyFaces,
	KeyCellIndices, KeyBaryCoords, KeyScales, KeyQuaternions,
	KeyOpacities, KeySHDC, KeySHRest,
}

// Store provides arrays by name
type Store interface {
	Array(key string) (*Array, bool)
}

// MapStore is an in-memory Store
type MapStore struct {
	m map[string]*Array
}

// NewMapStore creates an empty store
func NewMapStore() *MapStore {
	return &MapStore{
		m: map[string]*Array{},
	}
}

// Set adds an array under key, replacing previous value
func (s *MapStore) Set(key string, a *Array) {
	s.m[key] = a
}

// Array returns array for a key
func (s *MapStore) Array(key string) (*Array, bool) {
	a, ok := s.m[key]
	return a, ok
}

// Keys returns sorted names of arrays in the store
func (s *MapStore) Keys() []string {
	var res []string
	for k := range s.m {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}

// Require returns array for key or ErrMissingAttribute
func Require(s Store, key string) (*Array, error) {
	a, ok := s.Array(key)
	if !ok || a == nil {
		return nil, fmt.Errorf("%w: '%s'", ErrMissingAttribute, key)
	}
	return a, nil
}
