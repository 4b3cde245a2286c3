// Package reportpdf renders report results as PDF documents.
package reportpdf

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/jrsteele09/go-tareas-client/reports"
	"github.com/pkg/errors"
)

const (
	margin      = 14.0
	tableTop    = 100.0
	rowHeight   = 7.0
	footerSpace = 20.0

	emptyMessage   = "No se encontraron registros para este reporte."
	confidentialLn = "Confidencial - Uso interno únicamente"
)

type rgb struct{ r, g, b int }

var (
	dark   = rgb{20, 21, 26}
	gold   = rgb{157, 131, 62}
	light  = rgb{222, 222, 224}
	muted  = rgb{100, 100, 100}
	footer = rgb{150, 150, 150}
	stripe = rgb{245, 245, 245}
)

var months = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio",
	"agosto", "septiembre", "octubre", "noviembre", "diciembre"}

// FileName is the download name: the report name with runs of whitespace
// turned into underscores, then the date.
func FileName(def reports.Definition, now time.Time) string {
	return strings.Join(strings.Fields(def.Name), "_") + "_" + now.Format("2006-01-02") + ".pdf"
}

func longDate(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), months[t.Month()-1], t.Year())
}

// Render writes the report as an A4 PDF. A nil or empty table renders the
// "no records" notice instead of a table.
func Render(w io.Writer, def reports.Definition, table *reports.Table, now time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()

	pdf.SetAutoPageBreak(false, footerSpace)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetFont("Helvetica", "", 8)
		setText(pdf, footer)
		pdf.SetXY(margin, pageH-12)
		pdf.CellFormat(0, 4, tr(confidentialLn), "", 0, "L", false, 0, "")
		pdf.SetXY(0, pageH-12)
		pdf.CellFormat(pageW, 4, tr("Página "+strconv.Itoa(pdf.PageNo())+" de {nb}"), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	// Title band.
	setFill(pdf, dark)
	pdf.Rect(0, 0, pageW, 40, "F")
	pdf.SetFont("Helvetica", "B", 24)
	setText(pdf, gold)
	pdf.SetXY(0, 12)
	pdf.CellFormat(pageW, 10, tr("Sistema de Gestión"), "", 0, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	setText(pdf, light)
	pdf.SetXY(0, 25)
	pdf.CellFormat(pageW, 6, tr("Centro de Reportes"), "", 0, "C", false, 0, "")

	// Report info.
	setText(pdf, dark)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(margin, 48)
	pdf.CellFormat(0, 9, tr(def.Name), "", 1, "L", false, 0, "")

	total := 0
	if table != nil {
		total = table.Total
	}
	pdf.SetFont("Helvetica", "", 10)
	setText(pdf, muted)
	for _, line := range []string{
		"Tipo: " + def.Type.Label(),
		"Fecha de generación: " + longDate(now),
		"Total de registros: " + strconv.Itoa(total),
	} {
		pdf.SetX(margin)
		pdf.CellFormat(0, 7, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetX(margin)
	pdf.MultiCell(pageW-2*margin, 4.5, tr(def.Description), "", "L", false)

	if table.Empty() {
		pdf.SetFont("Helvetica", "", 12)
		setText(pdf, dark)
		pdf.SetXY(margin, 106)
		pdf.CellFormat(0, 8, tr(emptyMessage), "", 1, "L", false, 0, "")
	} else {
		drawTable(pdf, tr, table, pageW-2*margin, pageH)
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "[reportpdf.Render] unable to write pdf")
	}
	return nil
}

func drawTable(pdf *fpdf.Fpdf, tr func(string) string, table *reports.Table, width, pageH float64) {
	colW := width / float64(len(table.Columns))

	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		setFill(pdf, gold)
		setText(pdf, dark)
		pdf.SetX(margin)
		for _, col := range table.Columns {
			pdf.CellFormat(colW, rowHeight+1, fit(pdf, tr(col), colW), "", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}

	pdf.SetY(tableTop)
	header()
	for i, row := range table.Rows {
		if pdf.GetY()+rowHeight > pageH-footerSpace {
			pdf.AddPage()
			pdf.SetY(margin)
			header()
		}
		setFill(pdf, stripe)
		setText(pdf, dark)
		pdf.SetX(margin)
		for _, cell := range row {
			pdf.CellFormat(colW, rowHeight, fit(pdf, tr(cell), colW), "", 0, "L", i%2 == 1, 0, "")
		}
		pdf.Ln(-1)
	}
}

// fit trims s with an ellipsis so it fits in a cell of width w.
func fit(pdf *fpdf.Fpdf, s string, w float64) string {
	limit := w - 2
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > limit {
		s = s[:len(s)-1]
	}
	return s + "..."
}

func setFill(pdf *fpdf.Fpdf, c rgb) {
	pdf.SetFillColor(c.r, c.g, c.b)
}

func setText(pdf *fpdf.Fpdf, c rgb) {
	pdf.SetTextColor(c.r, c.g, c.b)
}
