package xlsxutil

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Workbook wraps an excelize file so pipeline code can append named sheets
// without caring about cell coordinates.
type Workbook struct {
	file   *excelize.File
	sheets int
}

func New() *Workbook {
	return &Workbook{file: excelize.NewFile()}
}

// AddSheet appends a sheet with a bolded header row followed by the data
// rows. Sheet order follows call order.
func (w *Workbook) AddSheet(name string, headers []string, rows [][]string) error {
	err := w.addSheet(name)
	if err != nil {
		return err
	}

	headerCells := make([]interface{}, len(headers))
	for i, h := range headers {
		headerCells[i] = h
	}
	err = w.file.SetSheetRow(name, "A1", &headerCells)
	if err != nil {
		return err
	}

	if len(headers) > 0 {
		style, err := w.file.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true},
		})
		if err != nil {
			return err
		}
		end, err := excelize.CoordinatesToCellName(len(headers), 1)
		if err != nil {
			return err
		}
		err = w.file.SetCellStyle(name, "A1", end, style)
		if err != nil {
			return err
		}
	}

	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		err = w.file.SetSheetRow(name, axis, &cells)
		if err != nil {
			return err
		}
	}

	return nil
}

// AddReadme writes one line per row in a single wide column, matching the
// Readme sheets the analysis team expects in every snapshot workbook.
func (w *Workbook) AddReadme(lines []string) error {
	const name = "Readme"

	err := w.addSheet(name)
	if err != nil {
		return err
	}
	err = w.file.SetColWidth(name, "A", "A", 120)
	if err != nil {
		return err
	}
	for i, line := range lines {
		err = w.file.SetCellValue(name, fmt.Sprintf("A%d", i+1), line)
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *Workbook) addSheet(name string) error {
	// reuse the default sheet for the first addition so the workbook does
	// not ship a stray empty "Sheet1"
	if w.sheets == 0 {
		err := w.file.SetSheetName("Sheet1", name)
		if err != nil {
			return err
		}
	} else {
		_, err := w.file.NewSheet(name)
		if err != nil {
			return err
		}
	}
	w.sheets++
	return nil
}

// Save overwrites path wholesale, there is no versioning of prior snapshots.
func (w *Workbook) Save(path string) error {
	return w.file.SaveAs(path)
}

func (w *Workbook) Close() error {
	return w.file.Close()
}
