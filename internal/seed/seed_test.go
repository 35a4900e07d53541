package seed

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/persistorai/aptaudit/internal/models"
)

func TestLoad_Fixture(t *testing.T) {
	doc, err := Load(filepath.Join("testdata", "catalog.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(doc.SpaceTypes) != 3 || len(doc.ElementTypes) != 2 {
		t.Fatalf("types = %d/%d, want 3/2", len(doc.SpaceTypes), len(doc.ElementTypes))
	}

	if len(doc.Templates) != 1 || len(doc.Templates[0].Versions) != 1 {
		t.Fatalf("templates = %+v", doc.Templates)
	}

	v := doc.Templates[0].Versions[0]
	if !v.Default || len(v.Questions) != 4 {
		t.Fatalf("version = %+v", v)
	}

	keys := v.Questions[0]
	if keys.AnswerType != models.AnswerSingleChoice || !keys.IsActive() {
		t.Errorf("APT_KEYS = %+v", keys)
	}

	missing := keys.Options[1]
	if len(missing.Incidences) != 1 || missing.Incidences[0] != "KEYS_MISSING" {
		t.Errorf("incidences = %v", missing.Incidences)
	}

	if len(missing.FollowUps) != 1 || !missing.FollowUps[0].Required || missing.FollowUps[0].SortOrder != 10 {
		t.Errorf("follow-ups = %+v", missing.FollowUps)
	}

	if !v.Questions[1].IsActive() {
		t.Error("KEYS_DETAIL should default to active")
	}

	if len(doc.Apartments) != 1 || len(doc.Apartments[0].Spaces) != 3 {
		t.Fatalf("apartments = %+v", doc.Apartments)
	}

	if got := len(doc.Apartments[0].Spaces[0].Elements); got != 2 {
		t.Errorf("kitchen elements = %d, want 2", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want ErrNotExist", err)
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("space_types:\n  - {code: A, name: A, colour: red}\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want []string
	}{
		{
			name: "unknown space type on question",
			yaml: `
templates:
  - code: T
    versions:
      - version: 1
        questions:
          - {code: Q, text: q, answer_type: BOOLEAN, category: SAFETY, impact: LOW, target: SPACE, space_type: ATTIC}
`,
			want: []string{`unknown space type "ATTIC"`},
		},
		{
			name: "bad enums and dangling references",
			yaml: `
incidence_templates:
  - {code: I, title: i, category: SAFETY, severity: HUGE, non_conformity_type: MINOR, responsible_type: OWNER}
templates:
  - code: T
    versions:
      - version: 1
        questions:
          - code: Q
            text: q
            answer_type: SINGLE_CHOICE
            category: SAFETY
            impact: LOW
            target: APARTMENT
            options:
              - code: O
                label: o
                incidences: [NOPE]
                follow_ups: [{question: GHOST}]
`,
			want: []string{
				`incidence template "I": invalid enum value`,
				`unknown incidence template "NOPE"`,
				`unknown follow-up question "GHOST"`,
			},
		},
		{
			name: "two defaults",
			yaml: `
templates:
  - code: A
    versions: [{version: 1, default: true}]
  - code: B
    versions: [{version: 1, default: true}]
`,
			want: []string{"2 template versions marked default"},
		},
		{
			name: "apartment with unknown types",
			yaml: `
space_types: [{code: KITCHEN, name: Kitchen}]
apartments:
  - code: A1
    spaces:
      - name: Loft
        type: LOFT
      - name: Kitchen
        type: KITCHEN
        elements: [{name: Oven, type: OVEN}]
`,
			want: []string{`unknown space type "LOFT"`, `unknown element type "OVEN"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}

			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("error %q missing %q", err, w)
				}
			}
		})
	}
}
