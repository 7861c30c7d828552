package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
)

// Columnas esperadas: sku, nombre, unidad, precisión. Las dos últimas son opcionales.
const (
	colSKU = iota
	colName
	colUnit
	colPrecision
)

// rowError fila que no se pudo interpretar; el resto del archivo se sigue leyendo.
type rowError struct {
	Row int
	Err error
}

func (e rowError) Error() string { return fmt.Sprintf("fila %d: %v", e.Row, e.Err) }

// readCSV lee un CSV separado por comas o punto y coma. latin1 decodifica ISO-8859-1,
// el formato en que suelen exportar las hojas de cálculo locales.
func readCSV(r io.Reader, latin1 bool) ([][]string, error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := strings.TrimPrefix(string(raw), "\ufeff")
	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if first, _, _ := strings.Cut(text, "\n"); strings.Count(first, ";") > strings.Count(first, ",") {
		cr.Comma = ';'
	}
	return cr.ReadAll()
}

// readXLSX lee la primera hoja del libro.
func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetRows(f.GetSheetName(0))
}

// readRows elige el lector por extensión.
func readRows(path string, r io.Reader, latin1 bool) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readXLSX(r)
	case ".csv", ".txt":
		return readCSV(r, latin1)
	}
	return nil, fmt.Errorf("extensión no soportada: %s", filepath.Ext(path))
}

// parseProducts convierte filas en solicitudes de alta. Omite la cabecera y las filas vacías.
func parseProducts(rows [][]string) ([]dto.CreateProductRequest, []rowError) {
	var (
		out  []dto.CreateProductRequest
		errs []rowError
	)
	for i, row := range rows {
		n := i + 1
		cell := func(c int) string {
			if c < len(row) {
				return strings.TrimSpace(row[c])
			}
			return ""
		}
		if cell(colSKU) == "" && cell(colName) == "" {
			continue
		}
		if i == 0 && strings.EqualFold(cell(colSKU), "sku") {
			continue
		}
		req := dto.CreateProductRequest{SKU: cell(colSKU), Name: cell(colName), UnitMeasure: cell(colUnit)}
		if req.SKU == "" || req.Name == "" {
			errs = append(errs, rowError{Row: n, Err: fmt.Errorf("sku y nombre son obligatorios")})
			continue
		}
		if p := cell(colPrecision); p != "" {
			v, err := strconv.Atoi(p)
			if err != nil {
				errs = append(errs, rowError{Row: n, Err: fmt.Errorf("precisión %q no es entera", p)})
				continue
			}
			req.Precision = int32(v)
		}
		out = append(out, req)
	}
	return out, errs
}
