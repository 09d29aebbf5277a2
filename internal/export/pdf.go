package export

import (
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/Simplici0/costdesk/internal/schedule"
)

var (
	grey       = &props.Color{Red: 90, Green: 90, Blue: 90}
	headerFill = &props.Color{Red: 31, Green: 58, Blue: 96}
	stripeFill = &props.Color{Red: 243, Green: 245, Blue: 248}
	white      = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// scheduleColumns are the table columns and their grid widths.
var scheduleColumns = []struct {
	title string
	width int
}{
	{"Week", 3},
	{"Date", 2},
	{"Vendor", 3},
	{"Planned Qty", 2},
	{"Status", 2},
}

// SchedulePDF renders the supply schedule as an A4 document.
func SchedulePDF(s schedule.State, generated time.Time) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   grey,
		}).
		Build()

	m := maroto.New(cfg)

	addScheduleHeader(m, s.PO)
	addScheduleTable(m, s.Rows)
	addScheduleSummary(m, schedule.Summarize(s))

	m.AddRows(row.New(6))
	m.AddRows(row.New(6).Add(col.New(12).Add(
		text.New("Generated on "+generated.Format("02 Jan 2006 15:04"), props.Text{Size: 7, Color: grey}),
	)))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate schedule pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func addScheduleHeader(m core.Maroto, po schedule.PODetails) {
	m.AddRows(row.New(12).Add(col.New(12).Add(
		text.New("Supply Schedule", props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Center}),
	)))
	m.AddRows(row.New(4))

	left := [][2]string{
		{"Company", po.CompanyName},
		{"PO Number", po.PONumber},
		{"PO Date", displayDate(po.PODate)},
		{"Product", po.Product},
	}
	right := [][2]string{
		{"Total Quantity", FormatQty(po.TotalQuantity)},
		{"Delivery Location", po.DeliveryLocation},
	}

	label := props.Text{Size: 8, Style: fontstyle.Bold, Color: grey}
	value := props.Text{Size: 9}
	for i := 0; i < len(left); i++ {
		r := row.New(6).Add(
			col.New(2).Add(text.New(left[i][0], label)),
			col.New(4).Add(text.New(left[i][1], value)),
		)
		if i < len(right) {
			r.Add(
				col.New(2).Add(text.New(right[i][0], label)),
				col.New(4).Add(text.New(right[i][1], value)),
			)
		} else {
			r.Add(col.New(6))
		}
		m.AddRows(r)
	}

	if po.Notes != "" {
		m.AddRows(row.New(6).Add(
			col.New(2).Add(text.New("Notes", label)),
			col.New(10).Add(text.New(po.Notes, value)),
		))
	}
	m.AddRows(row.New(6))
}

func addScheduleTable(m core.Maroto, rows []schedule.Row) {
	head := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Center, Color: white}
	headCell := &props.Cell{BackgroundColor: headerFill}

	header := row.New(8)
	for _, c := range scheduleColumns {
		header.Add(col.New(c.width).Add(text.New(c.title, head)).WithStyle(headCell))
	}
	m.AddRows(header)

	if len(rows) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("No deliveries scheduled", props.Text{Size: 8, Align: align.Center, Color: grey}),
		)))
		return
	}

	body := props.Text{Size: 8, Align: align.Center}
	bodyLeft := body
	bodyLeft.Align = align.Left
	bodyRight := body
	bodyRight.Align = align.Right

	for i, r := range rows {
		cells := []core.Col{
			col.New(3).Add(text.New(r.Week, bodyLeft)),
			col.New(2).Add(text.New(displayDate(r.Date), body)),
			col.New(3).Add(text.New(r.Vendor, bodyLeft)),
			col.New(2).Add(text.New(FormatQty(r.PlannedQty), bodyRight)),
			col.New(2).Add(text.New(string(r.Status), body)),
		}
		if i%2 == 1 {
			for j := range cells {
				cells[j] = cells[j].WithStyle(&props.Cell{BackgroundColor: stripeFill})
			}
		}
		m.AddRows(row.New(7).Add(cells...))
	}
}

func addScheduleSummary(m core.Maroto, sum schedule.Summary) {
	m.AddRows(row.New(6))

	label := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	value := props.Text{Size: 9, Align: align.Right}
	cell := &props.Cell{BackgroundColor: stripeFill}

	for _, line := range [][2]string{
		{"Planned", FormatQty(sum.PlannedTotal)},
		{"Received", FormatQty(sum.ReceivedTotal)},
		{"Unscheduled", FormatQty(sum.Unscheduled)},
	} {
		m.AddRows(row.New(7).Add(
			col.New(9).Add(text.New(line[0], label)).WithStyle(cell),
			col.New(3).Add(text.New(line[1], value)).WithStyle(cell),
		))
	}
}
