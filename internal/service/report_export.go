package service

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	reportSheetSummary    = "Summary"
	reportSheetProperties = "Properties"
	reportSheetBookings   = "Bookings"
)

var (
	reportPropertyHeader = []string{"Property ID", "Name", "City", "Category", "Active", "Rooms", "Beds", "Occupied Beds"}
	reportBookingHeader  = []string{"Booking ID", "Property", "Room ID", "Bed ID", "Customer ID", "Status", "Start Date", "End Date", "Monthly Rent", "Deposit"}
)

// buildOwnerReport 生成业主报表 xlsx
func buildOwnerReport(snap *ownerSnapshot) ([]byte, error) {
	f := excelize.NewFile()
	// WriteTo 需要文件保持打开，出错路径单独 Close

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// Summary 复用默认 Sheet1
	if err := f.SetSheetName("Sheet1", reportSheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	st := snap.stats()
	summary := [][]any{
		{"Metric", "Value"},
		{"Total Properties", st.TotalProperties},
		{"Total Rooms", st.TotalRooms},
		{"Total Beds", st.TotalBeds},
		{"Occupied Beds", st.OccupiedBeds},
		{"Monthly Revenue", st.MonthlyRevenue},
		{"Pending Bookings", st.PendingBookings},
	}
	if err := writeRows(f, reportSheetSummary, summary, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	// Properties
	roomsByProperty := map[string]int{}
	propertyOfRoom := map[string]string{}
	for _, r := range snap.rooms {
		propertyOfRoom[r.RoomID] = r.PropertyID
		if r.IsActive {
			roomsByProperty[r.PropertyID]++
		}
	}
	bedsByProperty := map[string]int{}
	occupiedByProperty := map[string]int{}
	for _, b := range snap.beds {
		pid := propertyOfRoom[b.RoomID]
		bedsByProperty[pid]++
		if b.IsOccupied {
			occupiedByProperty[pid]++
		}
	}
	propertyNames := map[string]string{}
	propRows := [][]any{toAny(reportPropertyHeader)}
	for _, p := range snap.properties {
		propertyNames[p.PropertyID] = p.Name
		propRows = append(propRows, []any{
			p.PropertyID, p.Name, p.City, string(p.Category), yesNo(p.IsActive),
			roomsByProperty[p.PropertyID], bedsByProperty[p.PropertyID], occupiedByProperty[p.PropertyID],
		})
	}
	if _, err := f.NewSheet(reportSheetProperties); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := writeRows(f, reportSheetProperties, propRows, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	// Bookings
	bookingRows := [][]any{toAny(reportBookingHeader)}
	for _, b := range snap.bookings {
		end := ""
		if b.EndDate != nil {
			end = b.EndDate.Format("2006-01-02")
		}
		bookingRows = append(bookingRows, []any{
			b.BookingID, propertyNames[b.PropertyID], b.RoomID, b.BedIDValue(), b.CustomerID, string(b.Status),
			b.StartDate.Format("2006-01-02"), end, b.MonthlyRent, b.Deposit,
		})
	}
	if _, err := f.NewSheet(reportSheetBookings); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := writeRows(f, reportSheetBookings, bookingRows, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

// writeRows writes rows from A1, styles the first row and freezes it.
func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 20); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
