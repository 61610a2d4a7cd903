package catalog

import (
	"fmt"

	"courtreserve/internal/domain/models"
)

const CourtCount = 4

// DefaultCourts is the court seed used by migrations and the in-memory store.
func DefaultCourts() []models.Court {
	out := make([]models.Court, 0, CourtCount)
	for i := int64(1); i <= CourtCount; i++ {
		view := "City View"
		if i%2 == 1 {
			view = "Night Lights"
		}
		out = append(out, models.Court{
			ID:       i,
			Name:     fmt.Sprintf("Court %d", i),
			Category: "outdoor",
			Features: []string{"Premium Surface", view},
		})
	}
	return out
}
