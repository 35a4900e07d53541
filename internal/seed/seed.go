// Package seed loads catalog and apartment fixtures from YAML.
//
// A seed document declares space and element types, incidence templates,
// question templates with their versions, and apartments. References between
// entries are by code and are checked by Validate before anything is written.
package seed

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/persistorai/aptaudit/internal/models"
)

// Document is the root of a seed file.
type Document struct {
	SpaceTypes         []TypeDoc              `yaml:"space_types"`
	ElementTypes       []TypeDoc              `yaml:"element_types"`
	IncidenceTemplates []IncidenceTemplateDoc `yaml:"incidence_templates"`
	Templates          []TemplateDoc          `yaml:"templates"`
	Apartments         []ApartmentDoc         `yaml:"apartments"`
}

// TypeDoc is a space or element type.
type TypeDoc struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// IncidenceTemplateDoc is an incidence blueprint.
type IncidenceTemplateDoc struct {
	Code              string                   `yaml:"code"`
	Title             string                   `yaml:"title"`
	Description       string                   `yaml:"description"`
	CorrectiveAction  string                   `yaml:"corrective_action"`
	Category          models.QuestionCategory  `yaml:"category"`
	Severity          models.IncidenceSeverity `yaml:"severity"`
	NonConformityType models.NonConformityType `yaml:"non_conformity_type"`
	ResponsibleType   models.ResponsibleType   `yaml:"responsible_type"`
	ResolutionDays    int                      `yaml:"resolution_days"`
}

// TemplateDoc is a question template with its published versions.
type TemplateDoc struct {
	Code        string       `yaml:"code"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Versions    []VersionDoc `yaml:"versions"`
}

// VersionDoc is one immutable version of a template.
type VersionDoc struct {
	Version   int           `yaml:"version"`
	Name      string        `yaml:"name"`
	Default   bool          `yaml:"default"`
	Questions []QuestionDoc `yaml:"questions"`
}

// QuestionDoc is a catalog question. SpaceType and ElementType are type codes.
type QuestionDoc struct {
	Code        string                    `yaml:"code"`
	Text        string                    `yaml:"text"`
	AnswerType  models.AnswerType         `yaml:"answer_type"`
	Category    models.QuestionCategory   `yaml:"category"`
	Impact      models.ImpactLevel        `yaml:"impact"`
	Target      models.QuestionTargetType `yaml:"target"`
	SpaceType   string                    `yaml:"space_type,omitempty"`
	ElementType string                    `yaml:"element_type,omitempty"`
	Mandatory   bool                      `yaml:"mandatory"`
	Active      *bool                     `yaml:"active,omitempty"`
	Weight      float64                   `yaml:"weight"`
	SortOrder   int                       `yaml:"sort_order"`
	Options     []OptionDoc               `yaml:"options,omitempty"`
}

// IsActive defaults to true when the field is omitted.
func (q *QuestionDoc) IsActive() bool {
	return q.Active == nil || *q.Active
}

// OptionDoc is an answer option. Incidences lists incidence template codes;
// FollowUps reference questions of the same version by code.
type OptionDoc struct {
	Code       string        `yaml:"code"`
	Label      string        `yaml:"label"`
	SortOrder  int           `yaml:"sort_order"`
	Penalty    float64       `yaml:"penalty"`
	Incidences []string      `yaml:"incidences,omitempty"`
	FollowUps  []FollowUpDoc `yaml:"follow_ups,omitempty"`
}

// FollowUpDoc binds an option to a child question.
type FollowUpDoc struct {
	Question  string `yaml:"question"`
	Required  bool   `yaml:"required"`
	SortOrder int    `yaml:"sort_order"`
}

// ApartmentDoc is an apartment with its spaces.
type ApartmentDoc struct {
	Code    string     `yaml:"code"`
	Name    string     `yaml:"name"`
	Address string     `yaml:"address"`
	Spaces  []SpaceDoc `yaml:"spaces"`
}

// SpaceDoc is a space of an apartment. Type is a space type code.
type SpaceDoc struct {
	Name      string       `yaml:"name"`
	Type      string       `yaml:"type"`
	SortOrder int          `yaml:"sort_order"`
	Elements  []ElementDoc `yaml:"elements,omitempty"`
}

// ElementDoc is an element of a space. Type is an element type code.
type ElementDoc struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	SortOrder int    `yaml:"sort_order"`
}

// Stats counts rows written by an import.
type Stats struct {
	Types              int `json:"types"`
	IncidenceTemplates int `json:"incidence_templates"`
	Versions           int `json:"versions"`
	Questions          int `json:"questions"`
	Rules              int `json:"rules"`
	Apartments         int `json:"apartments"`
}

// Load reads and validates a seed file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration.
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates a seed document. Unknown fields are rejected.
func Parse(data []byte) (*Document, error) {
	var doc Document

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	return &doc, nil
}

// Validate checks enum values and cross references. All problems are
// reported together.
func (d *Document) Validate() error {
	var errs []error

	spaceTypes := codeSet(d.SpaceTypes)
	elementTypes := codeSet(d.ElementTypes)
	incidences := make(map[string]struct{}, len(d.IncidenceTemplates))

	for _, t := range d.IncidenceTemplates {
		incidences[t.Code] = struct{}{}

		if !t.Category.Valid() || !t.Severity.Valid() || !t.NonConformityType.Valid() || !t.ResponsibleType.Valid() {
			errs = append(errs, fmt.Errorf("incidence template %q: invalid enum value", t.Code))
		}
	}

	defaults := 0

	for _, tpl := range d.Templates {
		for _, v := range tpl.Versions {
			if v.Default {
				defaults++
			}

			errs = append(errs, validateVersion(tpl.Code, &v, spaceTypes, elementTypes, incidences)...)
		}
	}

	if defaults > 1 {
		errs = append(errs, fmt.Errorf("%d template versions marked default, at most one allowed", defaults))
	}

	for _, a := range d.Apartments {
		if a.Code == "" {
			errs = append(errs, errors.New("apartment without code"))
		}

		for _, s := range a.Spaces {
			if _, ok := spaceTypes[s.Type]; !ok {
				errs = append(errs, fmt.Errorf("apartment %q space %q: unknown space type %q", a.Code, s.Name, s.Type))
			}

			for _, e := range s.Elements {
				if _, ok := elementTypes[e.Type]; !ok {
					errs = append(errs, fmt.Errorf("apartment %q element %q: unknown element type %q", a.Code, e.Name, e.Type))
				}
			}
		}
	}

	return errors.Join(errs...)
}

func validateVersion(
	tplCode string, v *VersionDoc, spaceTypes, elementTypes, incidences map[string]struct{},
) []error {
	var errs []error

	where := fmt.Sprintf("template %q v%d", tplCode, v.Version)
	questions := make(map[string]struct{}, len(v.Questions))

	for _, q := range v.Questions {
		if _, dup := questions[q.Code]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate question %q", where, q.Code))
		}

		questions[q.Code] = struct{}{}
	}

	for _, q := range v.Questions {
		if !q.AnswerType.Valid() || !q.Category.Valid() || !q.Impact.Valid() || !q.Target.Valid() {
			errs = append(errs, fmt.Errorf("%s question %q: invalid enum value", where, q.Code))
		}

		switch q.Target {
		case models.TargetSpace:
			if _, ok := spaceTypes[q.SpaceType]; !ok {
				errs = append(errs, fmt.Errorf("%s question %q: unknown space type %q", where, q.Code, q.SpaceType))
			}
		case models.TargetElement:
			if _, ok := elementTypes[q.ElementType]; !ok {
				errs = append(errs, fmt.Errorf("%s question %q: unknown element type %q", where, q.Code, q.ElementType))
			}
		}

		for _, o := range q.Options {
			for _, code := range o.Incidences {
				if _, ok := incidences[code]; !ok {
					errs = append(errs, fmt.Errorf("%s option %s.%s: unknown incidence template %q", where, q.Code, o.Code, code))
				}
			}

			for _, f := range o.FollowUps {
				if _, ok := questions[f.Question]; !ok {
					errs = append(errs, fmt.Errorf("%s option %s.%s: unknown follow-up question %q", where, q.Code, o.Code, f.Question))
				}
			}
		}
	}

	return errs
}

func codeSet(types []TypeDoc) map[string]struct{} {
	out := make(map[string]struct{}, len(types))
	for _, t := range types {
		out[t.Code] = struct{}{}
	}

	return out
}
