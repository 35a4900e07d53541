package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/aptaudit/internal/models"
	"github.com/persistorai/aptaudit/internal/service"
)

var _ service.ApartmentGraph = (*apartmentReader)(nil)

// apartmentReader reads apartment composition on q.
type apartmentReader struct {
	q querier
}

// ApartmentWithSpacesAndElements loads an apartment with its spaces and their
// elements, each ordered by sort order.
func (s *apartmentReader) ApartmentWithSpacesAndElements(ctx context.Context, apartmentID int64) (*models.ApartmentGraph, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var g models.ApartmentGraph

	err := s.q.QueryRow(ctx,
		"SELECT id, code, name, address FROM apartments WHERE id = $1", apartmentID,
	).Scan(&g.ID, &g.Code, &g.Name, &g.Address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrApartmentNotFound
		}

		return nil, fmt.Errorf("getting apartment: %w", err)
	}

	rows, err := s.q.Query(ctx, `
		SELECT id, apartment_id, space_type_id, name, sort_order
		FROM spaces WHERE apartment_id = $1 ORDER BY sort_order, id`, apartmentID)
	if err != nil {
		return nil, fmt.Errorf("querying spaces: %w", err)
	}

	g.Spaces, err = collect(rows, "space", func(scan func(dest ...any) error) (*models.Space, error) {
		var sp models.Space
		if err := scan(&sp.ID, &sp.ApartmentID, &sp.SpaceTypeID, &sp.Name, &sp.SortOrder); err != nil {
			return nil, err
		}

		return &sp, nil
	})
	if err != nil {
		return nil, err
	}

	rows, err = s.q.Query(ctx, `
		SELECT e.id, e.space_id, e.element_type_id, e.name, e.sort_order
		FROM elements e JOIN spaces s ON s.id = e.space_id
		WHERE s.apartment_id = $1 ORDER BY e.sort_order, e.id`, apartmentID)
	if err != nil {
		return nil, fmt.Errorf("querying elements: %w", err)
	}

	elements, err := collect(rows, "element", func(scan func(dest ...any) error) (*models.Element, error) {
		var e models.Element
		if err := scan(&e.ID, &e.SpaceID, &e.ElementTypeID, &e.Name, &e.SortOrder); err != nil {
			return nil, err
		}

		return &e, nil
	})
	if err != nil {
		return nil, err
	}

	bySpace := make(map[int64][]models.Element, len(g.Spaces))
	for _, e := range elements {
		bySpace[e.SpaceID] = append(bySpace[e.SpaceID], e)
	}

	for i := range g.Spaces {
		g.Spaces[i].Elements = bySpace[g.Spaces[i].ID]
	}

	return &g, nil
}
