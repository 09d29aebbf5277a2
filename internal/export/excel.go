package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/costdesk/internal/schedule"
	"github.com/Simplici0/costdesk/internal/vendors"
)

const (
	scheduleSheet = "Schedule"
	rankingSheet  = "Ranking"
	tradeSheet    = "Buy-Sell"
)

// workbook wraps an excelize file with the styles shared by every export.
type workbook struct {
	f      *excelize.File
	title  int
	header int
	text   int
	number int
	bold   int
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	wb := &workbook{f: f}

	var err error
	defer func() {
		if err != nil {
			f.Close()
		}
	}()
	if wb.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}); err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}
	if wb.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1F3A60"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	}); err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	if wb.text, err = f.NewStyle(&excelize.Style{Border: thinBorders()}); err != nil {
		return nil, fmt.Errorf("create text style: %w", err)
	}
	if wb.number, err = f.NewStyle(&excelize.Style{Border: thinBorders(), NumFmt: 4}); err != nil {
		return nil, fmt.Errorf("create number style: %w", err)
	}
	if wb.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: 4}); err != nil {
		return nil, fmt.Errorf("create bold style: %w", err)
	}
	return wb, nil
}

// sheet renames the default sheet on first use and adds new ones after that.
func (wb *workbook) sheet(name string, first bool) error {
	if first {
		if err := wb.f.SetSheetName(wb.f.GetSheetName(0), name); err != nil {
			return fmt.Errorf("set sheet name: %w", err)
		}
		return nil
	}
	if _, err := wb.f.NewSheet(name); err != nil {
		return fmt.Errorf("add sheet %s: %w", name, err)
	}
	return nil
}

// table writes headers on row headerRow and returns the first data row.
func (wb *workbook) table(sheet string, headerRow int, headers []string, widths []float64) (int, error) {
	for i, h := range headers {
		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return 0, err
		}
		if err := wb.f.SetColWidth(sheet, colName, colName, widths[i]); err != nil {
			return 0, fmt.Errorf("set col width %s: %w", colName, err)
		}
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		if err := wb.f.SetCellValue(sheet, cell, h); err != nil {
			return 0, fmt.Errorf("write header %s: %w", h, err)
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, headerRow)
	last, _ := excelize.CoordinatesToCellName(len(headers), headerRow)
	if err := wb.f.SetCellStyle(sheet, first, last, wb.header); err != nil {
		return 0, fmt.Errorf("style header: %w", err)
	}
	return headerRow + 1, nil
}

// row writes values starting at column A. Strings get the text style, numbers the number style.
func (wb *workbook) row(sheet string, r int, values ...any) error {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, r)
		style := wb.number
		if s, ok := v.(string); ok {
			v = cellText(s)
			style = wb.text
		}
		if err := wb.cell(sheet, cell, v); err != nil {
			return err
		}
		if err := wb.style(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

// cell writes one unstyled value.
func (wb *workbook) cell(sheet, ref string, v any) error {
	if err := wb.f.SetCellValue(sheet, ref, v); err != nil {
		return fmt.Errorf("write %s: %w", ref, err)
	}
	return nil
}

func (wb *workbook) style(sheet, from, to string, style int) error {
	if err := wb.f.SetCellStyle(sheet, from, to, style); err != nil {
		return fmt.Errorf("style %s:%s: %w", from, to, err)
	}
	return nil
}

func (wb *workbook) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := wb.f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

// ScheduleExcel renders the supply schedule as a single-sheet workbook.
func ScheduleExcel(s schedule.State, generated time.Time) ([]byte, error) {
	wb, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	defer wb.f.Close()
	if err := wb.sheet(scheduleSheet, true); err != nil {
		return nil, err
	}

	if err := wb.cell(scheduleSheet, "A1", "Supply Schedule"); err != nil {
		return nil, err
	}
	if err := wb.style(scheduleSheet, "A1", "A1", wb.title); err != nil {
		return nil, err
	}
	meta := [][2]string{
		{"Company", s.PO.CompanyName},
		{"PO Number", s.PO.PONumber},
		{"PO Date", s.PO.PODate},
		{"Product", s.PO.Product},
		{"Delivery Location", s.PO.DeliveryLocation},
		{"Generated", generated.Format("2006-01-02 15:04")},
	}
	for i, kv := range meta {
		r := i + 2
		if err := wb.cell(scheduleSheet, fmt.Sprintf("A%d", r), kv[0]); err != nil {
			return nil, err
		}
		if err := wb.cell(scheduleSheet, fmt.Sprintf("B%d", r), cellText(kv[1])); err != nil {
			return nil, err
		}
	}
	if err := wb.cell(scheduleSheet, "D2", "Total Quantity"); err != nil {
		return nil, err
	}
	if err := wb.cell(scheduleSheet, "E2", s.PO.TotalQuantity); err != nil {
		return nil, err
	}

	next, err := wb.table(scheduleSheet, len(meta)+3,
		[]string{"Week", "Date", "Vendor", "Planned Qty", "Received Qty", "Status"},
		[]float64{22, 14, 24, 14, 14, 14},
	)
	if err != nil {
		return nil, err
	}
	for _, r := range s.Rows {
		if err := wb.row(scheduleSheet, next, r.Week, r.Date, r.Vendor, r.PlannedQty, r.Received(), string(r.Status)); err != nil {
			return nil, err
		}
		next++
	}

	sum := schedule.Summarize(s)
	next++
	for _, line := range []struct {
		label string
		value float64
	}{
		{"Planned", sum.PlannedTotal},
		{"Received", sum.ReceivedTotal},
		{"Unscheduled", sum.Unscheduled},
	} {
		label, _ := excelize.CoordinatesToCellName(3, next)
		value, _ := excelize.CoordinatesToCellName(4, next)
		if err := wb.cell(scheduleSheet, label, line.label); err != nil {
			return nil, err
		}
		if err := wb.cell(scheduleSheet, value, line.value); err != nil {
			return nil, err
		}
		if err := wb.style(scheduleSheet, label, value, wb.bold); err != nil {
			return nil, err
		}
		next++
	}

	return wb.bytes()
}

// VendorComparisonExcel renders the vendor ranking and the buy/sell evaluation on two sheets.
func VendorComparisonExcel(cmp vendors.Comparison, trades vendors.TradeSummary) ([]byte, error) {
	wb, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	defer wb.f.Close()
	if err := wb.sheet(rankingSheet, true); err != nil {
		return nil, err
	}

	next, err := wb.table(rankingSheet, 1,
		[]string{"Rank", "Vendor", "Base Price", "Freight", "Credit Days", "Interest %", "Credit Savings", "Landed Cost", "Gap to L1", "Score"},
		[]float64{8, 24, 12, 10, 12, 11, 15, 13, 11, 9},
	)
	if err != nil {
		return nil, err
	}
	for _, r := range cmp.Vendors {
		var score any = "n/a"
		if r.Scored {
			score = r.Score.Total
		}
		if err := wb.row(rankingSheet, next,
			r.Label, r.Vendor.Name, r.Vendor.BasePrice, r.Vendor.Freight, r.Vendor.CreditDays,
			r.Vendor.InterestRatePercent, r.CreditSavings, r.LandedCost, r.GapToL1, score,
		); err != nil {
			return nil, err
		}
		next++
	}

	if err := wb.sheet(tradeSheet, false); err != nil {
		return nil, err
	}
	next, err = wb.table(tradeSheet, 1,
		[]string{"Vendor", "Landed Cost", "Selling Price", "Quantity", "Cash Gap Days", "Gap Financing", "Gross Margin", "Realized Margin", "Realized / Unit"},
		[]float64{24, 13, 13, 11, 14, 14, 14, 16, 15},
	)
	if err != nil {
		return nil, err
	}
	for _, t := range trades.Trades {
		if err := wb.row(tradeSheet, next,
			t.Vendor.Name, t.LandedCost, t.Vendor.SellingPrice, t.Vendor.Quantity, t.CashGapDays,
			t.GapFinancingCost, t.GrossMargin, t.RealizedMargin, t.RealizedMarginUnit,
		); err != nil {
			return nil, err
		}
		next++
	}

	next++
	for _, p := range []struct {
		label string
		pick  vendors.Pick
	}{
		{"Best profit", trades.BestProfit},
		{"Lowest cost", trades.LowestCost},
	} {
		if err := wb.cell(tradeSheet, fmt.Sprintf("A%d", next), p.label); err != nil {
			return nil, err
		}
		if err := wb.cell(tradeSheet, fmt.Sprintf("B%d", next), cellText(p.pick.Name)); err != nil {
			return nil, err
		}
		if p.pick.Found {
			if err := wb.cell(tradeSheet, fmt.Sprintf("C%d", next), p.pick.Value); err != nil {
				return nil, err
			}
		}
		if err := wb.style(tradeSheet, fmt.Sprintf("A%d", next), fmt.Sprintf("C%d", next), wb.bold); err != nil {
			return nil, err
		}
		next++
	}

	return wb.bytes()
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#9AA5B1", Style: 1}
	}
	return borders
}
