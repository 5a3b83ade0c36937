package documents

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"tourbooking/internal/models"
)

const inquiriesSheet = "Inquiries"

var inquiryHeaders = []string{
	"ID", "Submitted", "Status", "Name", "Email", "Phone", "People", "Contact via",
	"Package", "Dates", "Message", "Travel experience", "Special requirements", "Heard about us",
}

// WriteInquiriesWorkbook renders inquiries as an XLSX document to w.
func WriteInquiriesWorkbook(w io.Writer, inquiries []models.InquiryRecord) error {
	f, err := InquiriesWorkbook(inquiries)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

// InquiriesWorkbook builds a workbook with one row per inquiry under a header row.
func InquiriesWorkbook(inquiries []models.InquiryRecord) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(inquiriesSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, h := range inquiryHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(inquiriesSheet, cell, h)
		_ = f.SetCellStyle(inquiriesSheet, cell, cell, headerStyle)
	}

	for i, inq := range inquiries {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(inquiriesSheet, cell, &[]interface{}{
			inq.ID,
			inq.Inquiry.SubmittedAt,
			inq.Inquiry.Status,
			inq.Customer.FullName,
			inq.Customer.Email,
			inq.Customer.Phone,
			peopleValue(inq.Travel.NumberOfPeople),
			inq.Travel.PreferredContactMethod,
			inq.Package.Name,
			inq.Package.Dates,
			inq.Inquiry.Message,
			inq.Travel.TravelExperience,
			inq.Travel.SpecialRequirements,
			inq.Inquiry.HearAboutUs,
		}); err != nil {
			f.Close()
			return nil, fmt.Errorf("error writing row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(inquiriesSheet, "A", "A", 30)
	_ = f.SetColWidth(inquiriesSheet, "B", "J", 20)
	_ = f.SetColWidth(inquiriesSheet, "K", "K", 60)
	_ = f.SetPanes(inquiriesSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	return f, nil
}

func peopleValue(raw string) interface{} {
	if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
		return n
	}
	return raw
}
