package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ValidatePDF checks that the given bytes form a structurally valid PDF.
// Rendered artifacts must pass this check before they are uploaded.
func ValidatePDF(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty PDF document")
	}

	conf := model.NewDefaultConfiguration()
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return fmt.Errorf("pdf validation failed: %w", err)
	}

	return nil
}
