package catalog

import (
	"embed"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"sedcat-backend/internal/domain"
	"sedcat-backend/internal/domain/spectral"
	appErrors "sedcat-backend/pkg/errors"
)

//go:embed data/*.yaml
var dataFS embed.FS

// catalogFile mirrors the YAML layout of a bundled catalog data file.
type catalogFile struct {
	Variant     string       `yaml:"variant"`
	Description string       `yaml:"description"`
	Sources     []sourceSpec `yaml:"sources"`
}

type sourceSpec struct {
	Name           string               `yaml:"name"`
	Classification string               `yaml:"classification"`
	EnergyRange    spectral.EnergyRange `yaml:"energy_range"`
	Model          modelSpec            `yaml:"model"`
	FluxPoints     []domain.FluxPoint   `yaml:"flux_points"`
}

// modelSpec is the union of all model parameters; which fields apply is
// decided by Type. Covariance rows follow the parameter order documented
// on each model's SetCovariance method.
type modelSpec struct {
	Type       string      `yaml:"type"`
	Amplitude  float64     `yaml:"amplitude"`
	Index      float64     `yaml:"index"`
	Cutoff     float64     `yaml:"cutoff"`
	Alpha      float64     `yaml:"alpha"`
	Beta       float64     `yaml:"beta"`
	Reference  float64     `yaml:"reference"`
	Covariance [][]float64 `yaml:"covariance"`
}

// BundledVariants lists the catalog variants compiled into the binary.
func BundledVariants() []string {
	entries, err := dataFS.ReadDir("data")
	if err != nil {
		// The embed directive guarantees the directory exists.
		return nil
	}
	variants := make([]string, 0, len(entries))
	for _, e := range entries {
		variants = append(variants, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(variants)
	return variants
}

// Load builds the catalog for a bundled variant. Unknown variants yield a
// not-found error.
func Load(variant string) (*Catalog, error) {
	f, err := dataFS.Open(path.Join("data", variant+".yaml"))
	if err != nil {
		return nil, appErrors.NewNotFound(fmt.Sprintf("no bundled catalog %q", variant))
	}
	defer f.Close()

	cat, err := Parse(f)
	if err != nil {
		return nil, appErrors.Wrap(err, fmt.Sprintf("catalog %q", variant))
	}
	return cat, nil
}

// Parse decodes a catalog data file and validates every record.
func Parse(r io.Reader) (*Catalog, error) {
	var file catalogFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, appErrors.NewInternal("failed to decode catalog data", err)
	}
	if file.Variant == "" {
		return nil, appErrors.NewValidation("catalog data has no variant identifier")
	}
	if len(file.Sources) == 0 {
		return nil, appErrors.NewValidation(fmt.Sprintf("catalog %q has no sources", file.Variant))
	}

	cat := &Catalog{
		variant:     file.Variant,
		description: file.Description,
		names:       make([]string, 0, len(file.Sources)),
		byName:      make(map[string]*domain.SourceRecord, len(file.Sources)),
	}

	for _, spec := range file.Sources {
		model, err := buildModel(spec.Model)
		if err != nil {
			return nil, appErrors.Wrap(err, fmt.Sprintf("source %q", spec.Name))
		}
		rec := &domain.SourceRecord{
			Name:           spec.Name,
			Classification: spec.Classification,
			Model:          model,
			Range:          spec.EnergyRange,
			Points:         spec.FluxPoints,
		}
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		if _, dup := cat.byName[rec.Name]; dup {
			return nil, appErrors.NewValidation(fmt.Sprintf("duplicate source %q in catalog %q", rec.Name, file.Variant))
		}
		cat.names = append(cat.names, rec.Name)
		cat.byName[rec.Name] = rec
	}

	return cat, nil
}

func buildModel(spec modelSpec) (spectral.Model, error) {
	reference := spec.Reference
	if reference == 0 {
		reference = 1.0
	}

	switch spec.Type {
	case spectral.TypePowerLaw:
		m, err := spectral.NewPowerLaw(spec.Amplitude, spec.Index, reference)
		if err != nil {
			return nil, err
		}
		if spec.Covariance != nil {
			if err := m.SetCovariance(spec.Covariance); err != nil {
				return nil, err
			}
		}
		return m, nil

	case spectral.TypeExpCutoffPL:
		m, err := spectral.NewExpCutoffPowerLaw(spec.Amplitude, spec.Index, spec.Cutoff, reference)
		if err != nil {
			return nil, err
		}
		if spec.Covariance != nil {
			if err := m.SetCovariance(spec.Covariance); err != nil {
				return nil, err
			}
		}
		return m, nil

	case spectral.TypeLogParabola:
		m, err := spectral.NewLogParabola(spec.Amplitude, spec.Alpha, spec.Beta, reference)
		if err != nil {
			return nil, err
		}
		if spec.Covariance != nil {
			if err := m.SetCovariance(spec.Covariance); err != nil {
				return nil, err
			}
		}
		return m, nil
	}

	return nil, appErrors.NewValidation(fmt.Sprintf("unknown spectral model type %q", spec.Type))
}
