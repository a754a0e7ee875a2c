package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/splitsettle/internal/models"
)

// GenerateTitle creates a title from participant names for splits saved without one.
func GenerateTitle(participants []models.Participant) string {
	if len(participants) == 0 {
		return fmt.Sprintf("Split - %s", time.Now().Format("Jan 2, 2006"))
	}
	names := make([]string, len(participants))
	for i, p := range participants {
		names[i] = p.DisplayName
		if names[i] == "" {
			names[i] = p.ID
		}
	}
	if len(names) <= 3 {
		return fmt.Sprintf("Split with %s", strings.Join(names, ", "))
	}
	return fmt.Sprintf("Split with %s and %d others",
		strings.Join(names[:2], ", "),
		len(names)-2,
	)
}
