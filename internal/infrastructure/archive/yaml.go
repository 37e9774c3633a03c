package archive

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/garyjia/budget-approval/internal/application/port"
	"github.com/garyjia/budget-approval/internal/domain/entity"
)

// YAMLTaxonomy reads the taxonomy from a yaml file on every Fetch:
//
//	categories:
//	  - name: Office
//	    groups:
//	      - name: Supplies
//	        partners: [Acme]
type YAMLTaxonomy struct {
	path string
}

// NewYAMLTaxonomy creates a provider for path
func NewYAMLTaxonomy(path string) *YAMLTaxonomy {
	return &YAMLTaxonomy{path: path}
}

func (y *YAMLTaxonomy) Fetch(ctx context.Context) (entity.Taxonomy, error) {
	data, err := os.ReadFile(y.path)
	if err != nil {
		return entity.Taxonomy{}, fmt.Errorf("failed to read taxonomy file: %w", err)
	}
	var t entity.Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return entity.Taxonomy{}, fmt.Errorf("failed to parse taxonomy file %s: %w", y.path, err)
	}
	return t, nil
}

var _ port.TaxonomyProvider = (*YAMLTaxonomy)(nil)
