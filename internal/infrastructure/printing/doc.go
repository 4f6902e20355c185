// Package printing renders the practice's documents.
//
// It contains:
//   - TemplateEngine, the embedded html/template set for the client report,
//     the advice document and the public signing page
//   - ChainRenderer, HTML to PDF through chromedp with wkhtmltopdf as fallback
//   - PDFKit, pdfcpu based merging, trimming, AcroForm filling and stamping
//
// Example usage:
//
//	engine, _ := printing.NewTemplateEngine()
//	html, _ := engine.RenderHTML(ctx, "client_report.html", view)
//
//	renderer, _ := printing.NewRenderer(&cfg.PDF, logger)
//	defer renderer.Close()
//	pdf, err := renderer.RenderPDF(ctx, html, "report")
package printing
