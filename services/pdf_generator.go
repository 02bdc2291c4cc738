package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"lexdesk/models"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// getChromePath returns the Chrome executable path from environment variable
func getChromePath() string {
	return os.Getenv("CHROME_PATH")
}

// PDFOptions contains options for PDF generation
type PDFOptions struct {
	PageOrientation string // portrait, landscape
	PageSize        string // letter, legal, A4
	MarginTop       int    // points (72 = 1 inch)
	MarginBottom    int
	MarginLeft      int
	MarginRight     int
}

// DefaultPDFOptions returns default options for billing documents
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PageOrientation: "portrait",
		PageSize:        "letter",
		MarginTop:       72,
		MarginBottom:    72,
		MarginLeft:      72,
		MarginRight:     72,
	}
}

// GeneratePDF renders HTML content to PDF using headless Chrome
func GeneratePDF(htmlContent string, options PDFOptions) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)

	// Check for custom Chrome path (for headless-shell in Docker)
	if chromePath := getChromePath(); chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	defer allocCancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	// Set up page dimensions based on options
	var paperWidth, paperHeight float64
	switch options.PageSize {
	case "legal":
		paperWidth = 8.5
		paperHeight = 14.0
	case "A4":
		paperWidth = 8.27
		paperHeight = 11.69
	default: // letter
		paperWidth = 8.5
		paperHeight = 11.0
	}

	// Swap dimensions for landscape
	if options.PageOrientation == "landscape" {
		paperWidth, paperHeight = paperHeight, paperWidth
	}

	// Convert points to inches for margins
	marginTop := float64(options.MarginTop) / 72.0
	marginBottom := float64(options.MarginBottom) / 72.0
	marginLeft := float64(options.MarginLeft) / 72.0
	marginRight := float64(options.MarginRight) / 72.0

	var pdfBuf []byte

	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		// Set the HTML content
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		// Wait for content to render
		chromedp.Sleep(100*time.Millisecond),
		// Generate PDF
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPaperWidth(paperWidth).
				WithPaperHeight(paperHeight).
				WithMarginTop(marginTop).
				WithMarginBottom(marginBottom).
				WithMarginLeft(marginLeft).
				WithMarginRight(marginRight).
				WithPrintBackground(true).
				WithDisplayHeaderFooter(false).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return pdfBuf, nil
}

var invoiceTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Georgia, serif; color: #1a1a1a; }
h1 { font-size: 22px; margin-bottom: 0; }
.meta { color: #555; margin-bottom: 24px; }
table { width: 100%; border-collapse: collapse; margin-top: 16px; }
th, td { text-align: left; padding: 8px 12px; border-bottom: 1px solid #ddd; }
th { background: #f4f4f4; }
td.num, th.num { text-align: right; }
.total { font-weight: bold; font-size: 16px; }
.status { text-transform: uppercase; letter-spacing: 1px; }
</style>
</head>
<body>
<h1>Invoice {{.Invoice.InvoiceNumber}}</h1>
<p class="meta">
{{.FirmName}}<br>
Billed to: {{.ClientName}}<br>
{{if .CaseNumber}}Case: {{.CaseNumber}}<br>{{end}}
Issued: {{.IssuedAt}} &middot; Due: {{.DueDate}} &middot; <span class="status">{{.Invoice.Status}}</span>
</p>
<table>
<tr><th>Description</th><th class="num">Hours</th><th class="num">Rate</th><th class="num">Amount</th></tr>
{{range .Invoice.LineItems}}
<tr><td>{{.Description}}</td><td class="num">{{printf "%.2f" .Hours}}</td><td class="num">{{printf "%.2f" .Rate}}</td><td class="num">{{printf "%.2f" .Amount}}</td></tr>
{{end}}
<tr><td colspan="3" class="total">Total</td><td class="num total">{{printf "%.2f" .Invoice.Amount}} {{.Invoice.Currency}}</td></tr>
</table>
</body>
</html>`))

// RenderInvoiceHTML builds the printable HTML for an invoice. Line items and
// client must be preloaded on the invoice.
func RenderInvoiceHTML(invoice *models.Invoice, firmName string) (string, error) {
	caseNumber := ""
	if invoice.Case != nil {
		caseNumber = invoice.Case.CaseNumber
	}

	data := struct {
		Invoice    *models.Invoice
		FirmName   string
		ClientName string
		CaseNumber string
		IssuedAt   string
		DueDate    string
	}{
		Invoice:    invoice,
		FirmName:   firmName,
		ClientName: invoice.Client.Name,
		CaseNumber: caseNumber,
		IssuedAt:   invoice.CreatedAt.Format("January 2, 2006"),
		DueDate:    invoice.DueDate.Format("January 2, 2006"),
	}

	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render invoice template: %w", err)
	}
	return buf.String(), nil
}

// GenerateInvoicePDF renders an invoice to PDF
func GenerateInvoicePDF(invoice *models.Invoice, firmName string) ([]byte, error) {
	html, err := RenderInvoiceHTML(invoice, firmName)
	if err != nil {
		return nil, err
	}
	return GeneratePDF(html, DefaultPDFOptions())
}
