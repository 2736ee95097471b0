package infra

// pdf.go — order summary PDFs using go-pdf/fpdf.
// One A5 page per pedido: store header, order id and date, fiscal identity,
// delivery address, item table (name, quantity, unit price, subtotal) and a
// bold grand total. The output file is saved to storagePath/pedido_{id}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"mulita/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerarResumenPDF writes the PDF summary for a committed Pedido and returns
// the absolute path to the generated file. storagePath is created if needed.
func GenerarResumenPDF(pedido *model.Pedido, nombreTienda, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("pedido_%s.pdf", pedido.ID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, nombreTienda, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Pedido %s", pedido.ID), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 5, pedido.CreatedAt.Format("02/01/2006 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	// ── Fiscal + delivery data ───────────────────────────────────────────────
	if pedido.DatosFiscales != nil {
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(contentW, 5, fmt.Sprintf("Razon social: %s", pedido.DatosFiscales.RazonSocial), "", 1, "L", false, 0, "")
		pdf.CellFormat(contentW, 5, fmt.Sprintf("CUIT/CUIL: %s", pedido.DatosFiscales.CuitCuil), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Direccion: %s", pedido.Ubicacion), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	// ── Item table ───────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW*0.45, 6, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(contentW*0.15, 6, "Cant.", "B", 0, "R", false, 0, "")
	pdf.CellFormat(contentW*0.20, 6, "Precio", "B", 0, "R", false, 0, "")
	pdf.CellFormat(contentW*0.20, 6, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range pedido.Items {
		subtotal := item.PrecioUnitario.Mul(decimal.NewFromInt(int64(item.Cantidad)))
		pdf.CellFormat(contentW*0.45, 6, item.Nombre, "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.15, 6, fmt.Sprintf("%d", item.Cantidad), "", 0, "R", false, 0, "")
		pdf.CellFormat(contentW*0.20, 6, "$"+item.PrecioUnitario.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(contentW*0.20, 6, "$"+subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	// ── Total ────────────────────────────────────────────────────────────────
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW, 8, fmt.Sprintf("TOTAL: $%s", pedido.Total.StringFixed(2)), "T", 1, "R", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
