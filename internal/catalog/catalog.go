// Package catalog serves the read-only seed pieces shown on the museum pages
// and the dashboard.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed pieces.yaml
var piecesYAML []byte

var ErrPieceNotFound = errors.New("piece not found")

// Piece is a catalogued museum piece. Tags match the record form fields.
type Piece struct {
	ID                  string   `yaml:"id" json:"id"`
	Museo               string   `yaml:"museo" json:"museo"`
	Categoria           string   `yaml:"categoria" json:"categoria"`
	Nombre              string   `yaml:"nombre" json:"nombre"`
	Descripcion         string   `yaml:"descripcion" json:"descripcion"`
	ContextoHistorico   string   `yaml:"contexto_historico" json:"contexto_historico"`
	ProcesoConstruccion string   `yaml:"proceso_construccion" json:"proceso_construccion"`
	Materiales          []string `yaml:"materiales" json:"materiales"`
	EstadoConservacion  string   `yaml:"estado_conservacion" json:"estado_conservacion"`
	Dimensiones         string   `yaml:"dimensiones" json:"dimensiones"`
	Peso                string   `yaml:"peso" json:"peso"`
	Sala                string   `yaml:"sala" json:"sala"`
	Periodo             string   `yaml:"periodo" json:"periodo"`
	Autor               string   `yaml:"autor" json:"autor"`
	Comunidad           string   `yaml:"comunidad,omitempty" json:"comunidad,omitempty"`
	AnioAproximado      string   `yaml:"anio_aproximado" json:"anio_aproximado"`
	Imagenes            []string `yaml:"imagenes" json:"imagenes"`
	NotasCuratoriales   string   `yaml:"notas_curatoriales" json:"notas_curatoriales"`
}

// Stats are the dashboard counters.
type Stats struct {
	Total         int `json:"total"`
	Pendientes    int `json:"pendientes"`
	Aprobadas     int `json:"aprobadas"`
	Observaciones int `json:"observaciones"`
}

// museumSlugs maps URL slugs to museum names.
var museumSlugs = map[string]string{
	"museo-del-mar":   "Museo del Mar",
	"museo-de-trajes": "Museo de Trajes",
}

// Catalog is immutable after Load and safe for concurrent use.
type Catalog struct {
	pieces []Piece
	byID   map[string]int
	review reviewCounts
}

type reviewCounts struct {
	Pendientes    int `yaml:"pendientes"`
	Aprobadas     int `yaml:"aprobadas"`
	Observaciones int `yaml:"observaciones"`
}

// Load parses the embedded seed data.
func Load() (*Catalog, error) {
	return Parse(piecesYAML)
}

// Parse builds a catalog from YAML with a review_counts map and a pieces list.
func Parse(data []byte) (*Catalog, error) {
	var doc struct {
		ReviewCounts reviewCounts `yaml:"review_counts"`
		Pieces       []Piece      `yaml:"pieces"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{
		pieces: doc.Pieces,
		byID:   make(map[string]int, len(doc.Pieces)),
		review: doc.ReviewCounts,
	}

	for i := range c.pieces {
		p := &c.pieces[i]
		if p.ID == "" {
			return nil, fmt.Errorf("parse catalog: piece %d has no id", i)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("parse catalog: duplicate piece id %q", p.ID)
		}
		if p.Materiales == nil {
			p.Materiales = []string{}
		}
		if p.Imagenes == nil {
			p.Imagenes = []string{}
		}
		c.byID[p.ID] = i
	}
	return c, nil
}

// All returns every piece in catalog order.
func (c *Catalog) All() []Piece {
	out := make([]Piece, len(c.pieces))
	copy(out, c.pieces)
	return out
}

// ByMuseum returns the pieces of one museum, by name.
func (c *Catalog) ByMuseum(museum string) []Piece {
	out := []Piece{}
	for _, p := range c.pieces {
		if p.Museo == museum {
			out = append(out, p)
		}
	}
	return out
}

// MuseumBySlug resolves a URL slug such as "museo-del-mar".
func MuseumBySlug(slug string) (string, bool) {
	name, ok := museumSlugs[slug]
	return name, ok
}

func (c *Catalog) ByID(id string) (Piece, error) {
	i, ok := c.byID[id]
	if !ok {
		return Piece{}, ErrPieceNotFound
	}
	return c.pieces[i], nil
}

func (c *Catalog) Stats() Stats {
	return Stats{
		Total:         len(c.pieces),
		Pendientes:    c.review.Pendientes,
		Aprobadas:     c.review.Aprobadas,
		Observaciones: c.review.Observaciones,
	}
}
