package interfaces

// PDFService renders report content to a PDF document.
type PDFService interface {
	// RenderReport converts report markdown plus an optional chart image to
	// PDF bytes. The returned bytes are validated before they are considered
	// an artifact.
	RenderReport(markdown string, chartPNG []byte, title string) ([]byte, error)
}
