package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/persistorai/aptaudit/internal/models"
)

// Instantiator expands a template version against an apartment graph.
type Instantiator struct {
	questions *QuestionCache
}

// NewInstantiator creates an Instantiator.
func NewInstantiator(questions *QuestionCache) *Instantiator {
	return &Instantiator{questions: questions}
}

// Instantiate loads the active questions of versionID through src and crosses
// them with graph.
func (in *Instantiator) Instantiate(
	ctx context.Context, src Catalog, versionID int64, graph *models.ApartmentGraph,
) ([]models.AuditItemDraft, error) {
	questions, err := in.questions.Questions(ctx, src, versionID)
	if err != nil {
		return nil, fmt.Errorf("loading questions for template version %d: %w", versionID, err)
	}

	return ExpandQuestions(questions, graph)
}

// ExpandQuestions is the structural cross-product between question targeting
// and apartment composition:
//
//	APARTMENT → one item
//	SPACE     → one item per space of the question's space type
//	ELEMENT   → one item per element of the question's element type
//
// Inactive and follow-up-only questions are skipped. An empty result is
// ErrNoApplicableQuestions.
func ExpandQuestions(questions []models.Question, graph *models.ApartmentGraph) ([]models.AuditItemDraft, error) {
	ordered := make([]*models.Question, 0, len(questions))
	for i := range questions {
		if questions[i].IsActive && !questions[i].FollowUpOnly {
			ordered = append(ordered, &questions[i])
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].SortOrder < ordered[j].SortOrder })

	spaces := make([]*models.Space, 0, len(graph.Spaces))
	for i := range graph.Spaces {
		spaces = append(spaces, &graph.Spaces[i])
	}

	sort.SliceStable(spaces, func(i, j int) bool { return spaces[i].SortOrder < spaces[j].SortOrder })

	drafts := make([]models.AuditItemDraft, 0, len(ordered))

	for _, q := range ordered {
		switch q.TargetType {
		case models.TargetApartment:
			drafts = append(drafts, models.DraftFromQuestion(q, nil, nil))

		case models.TargetSpace:
			if q.SpaceTypeID == nil {
				continue
			}

			for _, s := range spaces {
				if s.SpaceTypeID == *q.SpaceTypeID {
					drafts = append(drafts, models.DraftFromQuestion(q, int64Ptr(s.ID), nil))
				}
			}

		case models.TargetElement:
			if q.ElementTypeID == nil {
				continue
			}

			for _, s := range spaces {
				for _, e := range sortedElements(s.Elements) {
					if e.ElementTypeID == *q.ElementTypeID {
						drafts = append(drafts, models.DraftFromQuestion(q, int64Ptr(s.ID), int64Ptr(e.ID)))
					}
				}
			}
		}
	}

	if len(drafts) == 0 {
		return nil, models.ErrNoApplicableQuestions
	}

	return drafts, nil
}

func sortedElements(elems []models.Element) []models.Element {
	out := make([]models.Element, len(elems))
	copy(out, elems)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })

	return out
}

func int64Ptr(v int64) *int64 { return &v }
