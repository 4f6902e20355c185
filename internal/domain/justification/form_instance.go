package justification

import (
	"strings"
	"time"

	"github.com/advisory/backoffice/internal/domain/shared"
)

// DefaultFormStatus is assigned to form instances created without a status
const DefaultFormStatus = "נוצר"

// FormInstance records one filled PDF form for a new product.
type FormInstance struct {
	ID               uint
	NewProductID     uint
	TemplateFilename string
	GeneratedAt      time.Time
	Status           string
	FilledData       map[string]any
	FileOutputPath   *string
}

// NewFormInstance builds a form instance with the default status applied
func NewFormInstance(newProductID uint, templateFilename, status string, data map[string]any, outputPath *string, now time.Time) (*FormInstance, error) {
	templateFilename = strings.TrimSpace(templateFilename)
	if templateFilename == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "template filename is required")
	}
	if strings.TrimSpace(status) == "" {
		status = DefaultFormStatus
	}
	return &FormInstance{
		NewProductID:     newProductID,
		TemplateFilename: templateFilename,
		GeneratedAt:      now.UTC(),
		Status:           status,
		FilledData:       data,
		FileOutputPath:   outputPath,
	}, nil
}
