package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/hupe1980/probecarto/blueprint"
	"github.com/pelletier/go-toml/v2"
)

// ErrUnknownFormat is returned for geometry files with an unrecognized extension.
var ErrUnknownFormat = errors.New("config: unknown geometry file format")

// GeometryFile is the on-disk description of a probe layout. Either Dense
// or Sites must be given.
//
//	name: np24
//	dx: 32
//	dy: 15
//	dense: {shanks: 4, rows: 640, columns: 2}
type GeometryFile struct {
	Name  string     `yaml:"name,omitempty" toml:"name,omitempty"`
	DX    int        `yaml:"dx" toml:"dx"`
	DY    int        `yaml:"dy" toml:"dy"`
	Dense *DenseGrid `yaml:"dense,omitempty" toml:"dense,omitempty"`
	// Sites lists [shank, x, y] in physical units.
	Sites [][3]int `yaml:"sites,omitempty" toml:"sites,omitempty"`
}

// DenseGrid describes a full rectangular lattice per shank.
type DenseGrid struct {
	Shanks  int `yaml:"shanks" toml:"shanks"`
	Rows    int `yaml:"rows" toml:"rows"`
	Columns int `yaml:"columns" toml:"columns"`
}

// Geometry builds the coordinate arrays described by the file.
func (f *GeometryFile) Geometry() (blueprint.Geometry, error) {
	dx, dy := max(f.DX, 1), max(f.DY, 1)
	switch {
	case f.Dense != nil && len(f.Sites) > 0:
		return blueprint.Geometry{}, errors.New("config: geometry has both dense and sites")
	case f.Dense != nil:
		d := f.Dense
		if d.Shanks <= 0 || d.Rows <= 0 || d.Columns <= 0 {
			return blueprint.Geometry{}, fmt.Errorf("config: invalid dense grid %dx%dx%d", d.Shanks, d.Rows, d.Columns)
		}
		g := blueprint.Dummy(d.Shanks, d.Rows, d.Columns).Geometry()
		for i := range g.X {
			g.X[i] *= dx
			g.Y[i] *= dy
		}
		g.DX, g.DY = dx, dy
		return g, nil
	case len(f.Sites) > 0:
		g := blueprint.Geometry{
			Shank: make([]int, len(f.Sites)),
			X:     make([]int, len(f.Sites)),
			Y:     make([]int, len(f.Sites)),
			DX:    dx,
			DY:    dy,
		}
		for i, s := range f.Sites {
			g.Shank[i], g.X[i], g.Y[i] = s[0], s[1], s[2]
		}
		return g, nil
	}
	return blueprint.Geometry{}, errors.New("config: geometry has no sites")
}

// Grid builds the grid described by the file.
func (f *GeometryFile) Grid() (*blueprint.Grid, error) {
	geom, err := f.Geometry()
	if err != nil {
		return nil, err
	}
	return blueprint.NewGrid(geom)
}

// FromGrid describes g site by site.
func FromGrid(name string, g *blueprint.Grid) *GeometryFile {
	geom := g.Geometry()
	f := &GeometryFile{Name: name, DX: geom.DX, DY: geom.DY, Sites: make([][3]int, len(geom.X))}
	for i := range geom.X {
		f.Sites[i] = [3]int{geom.Shank[i], geom.X[i], geom.Y[i]}
	}
	return f
}

// ParseGeometry decodes a geometry document. format is "yaml" or "toml".
func ParseGeometry(data []byte, format string) (*GeometryFile, error) {
	var f GeometryFile
	var err error
	switch format {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &f)
	case "toml":
		err = toml.Unmarshal(data, &f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("config: parse geometry: %w", err)
	}
	return &f, nil
}

// MarshalGeometry encodes f as "yaml" or "toml".
func MarshalGeometry(f *GeometryFile, format string) ([]byte, error) {
	switch format {
	case "yaml", "yml":
		return yaml.Marshal(f)
	case "toml":
		return toml.Marshal(f)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func formatOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// LoadGeometry reads a .yaml, .yml or .toml geometry file and builds its grid.
func LoadGeometry(path string) (*blueprint.Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := ParseGeometry(data, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f.Grid()
}

// SaveGeometry writes g to path in the format implied by its extension.
func SaveGeometry(path, name string, g *blueprint.Grid) error {
	data, err := MarshalGeometry(FromGrid(name, g), formatOf(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
