package plans

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_plans.yaml
var defaultPlans []byte

// Catalog is a read-only set of plans. Safe for concurrent use.
type Catalog struct {
	plans map[string]Plan
}

// NewCatalog validates the plans and returns a catalog holding copies of them.
func NewCatalog(plans ...Plan) (*Catalog, error) {
	if len(plans) == 0 {
		return nil, errors.Join(ErrInvalidPlanConfiguration, errors.New("at least one plan is required"))
	}

	c := &Catalog{plans: make(map[string]Plan, len(plans))}
	for _, p := range plans {
		p.ID = strings.TrimSpace(p.ID)
		switch {
		case p.ID == "":
			return nil, errors.Join(ErrInvalidPlanConfiguration, errors.New("plan id is empty"))
		case p.Seats < 1:
			return nil, errors.Join(ErrInvalidPlanConfiguration, fmt.Errorf("plan %q: seats must be at least 1", p.ID))
		case p.TrialDays < 0:
			return nil, errors.Join(ErrInvalidPlanConfiguration, fmt.Errorf("plan %q: negative trial days", p.ID))
		}
		if _, dup := c.plans[p.ID]; dup {
			return nil, errors.Join(ErrInvalidPlanConfiguration, fmt.Errorf("duplicate plan %q", p.ID))
		}
		c.plans[p.ID] = p
	}

	return c, nil
}

// MustCatalog is like NewCatalog but panics on invalid input.
func MustCatalog(plans ...Plan) *Catalog {
	c, err := NewCatalog(plans...)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the catalog embedded in the binary.
func Default() *Catalog {
	c, err := Decode(bytes.NewReader(defaultPlans))
	if err != nil {
		panic(err)
	}
	return c
}

type document struct {
	Plans []Plan `yaml:"plans"`
}

// Decode reads a YAML document of the form:
//
//	plans:
//	  - id: family
//	    name: Family
//	    seats: 6
//	    trial_days: 14
func Decode(r io.Reader) (*Catalog, error) {
	var doc document

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	return NewCatalog(doc.Plans...)
}

// LoadFile decodes the catalog stored at path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	defer f.Close()

	return Decode(f)
}

// Get returns the plan with the given id.
func (c *Catalog) Get(id string) (Plan, error) {
	p, ok := c.plans[id]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	return p, nil
}

// Seats returns the seat capacity of the plan with the given id.
func (c *Catalog) Seats(id string) (int, error) {
	p, err := c.Get(id)
	if err != nil {
		return 0, err
	}
	return p.Seats, nil
}

// List returns all plans ordered by capacity, then id.
func (c *Catalog) List() []Plan {
	list := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		list = append(list, p)
	}
	slices.SortFunc(list, func(a, b Plan) int {
		if a.Seats != b.Seats {
			return a.Seats - b.Seats
		}
		return strings.Compare(a.ID, b.ID)
	})
	return list
}
