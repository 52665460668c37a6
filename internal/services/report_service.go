package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/sjperalta/techlog-api/internal/models"
	"github.com/sjperalta/techlog-api/internal/repository"
	"github.com/sjperalta/techlog-api/internal/storage"
	"github.com/xuri/excelize/v2"
)

// SignatureFiles opens stored signature images
type SignatureFiles interface {
	Download(relativePath string) (*os.File, error)
}

// ReportService renders log pages and the deferral register for download
type ReportService struct {
	logRepo      repository.LogRepository
	fluidsRepo   repository.FluidsRepository
	deferralRepo repository.DeferralRepository
	signatures   SignatureFiles
	now          func() time.Time
}

func NewReportService(
	logRepo repository.LogRepository,
	fluidsRepo repository.FluidsRepository,
	deferralRepo repository.DeferralRepository,
	signatures SignatureFiles,
) *ReportService {
	return &ReportService{
		logRepo:      logRepo,
		fluidsRepo:   fluidsRepo,
		deferralRepo: deferralRepo,
		signatures:   signatures,
		now:          time.Now,
	}
}

// Signature opens a signature image referenced by an authorization
func (s *ReportService) Signature(ctx context.Context, path string) (*os.File, error) {
	path = strings.TrimPrefix(path, "/")
	if s.signatures == nil || !strings.HasPrefix(path, "signatures/") {
		return nil, ErrNotFound
	}
	f, err := s.signatures.Download(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, storage.ErrInvalidContent) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

const reportTimeFormat = "2006-01-02 15:04"

// LogPagePDF renders one log page with its entries, checks and de-icing authorization
func (s *ReportService) LogPagePDF(ctx context.Context, logID uint) ([]byte, string, error) {
	log, err := s.logRepo.FindByIDWithDetails(ctx, logID)
	if err != nil {
		return nil, "", err
	}
	fluids, err := s.fluidsRepo.FindByLog(ctx, logID)
	if err != nil {
		return nil, "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Technical Log - Page %d", log.LogPageNumber))
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	registration := "-"
	if log.Flight.Aircraft != nil {
		registration = log.Flight.Aircraft.Registration
	}
	pdf.Cell(60, 6, "Flight: "+log.Flight.FlightNumber)
	pdf.Cell(60, 6, "Aircraft: "+registration)
	pdf.Cell(0, 6, fmt.Sprintf("Leg: %d", log.Flight.FlightLeg))
	pdf.Ln(6)
	pdf.Cell(60, 6, tr(fmt.Sprintf("Route: %s - %s", log.Flight.Origin, log.Flight.Destination)))
	pdf.Cell(0, 6, "Opened: "+log.CreatedAt.Format(reportTimeFormat))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Entries")
	pdf.Ln(8)

	if len(log.Entries) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 6, "No entries recorded")
		pdf.Ln(6)
	}
	for i := range log.Entries {
		writeEntry(pdf, tr, &log.Entries[i])
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Checks")
	pdf.Ln(8)

	checks := models.NewCheckSet(log.Checks)
	pdf.SetFont("Arial", "B", 9)
	for _, h := range []struct {
		label string
		width float64
	}{{"Check", 35}, {"Auth ID", 35}, {"Name", 60}, {"Date", 40}, {"Opt", 20}} {
		pdf.CellFormat(h.width, 7, h.label, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, t := range append(append([]models.CheckType{}, models.GatingChecks...), models.CheckAcceptance) {
		auth, ok := checks[t]
		authID, name, date, opt := "", "", "", ""
		if ok {
			authID, name, date = auth.AuthID, auth.AuthName, auth.AuthDate.Format(reportTimeFormat)
			if auth.SvcOption != nil {
				opt = *auth.SvcOption
			}
		}
		pdf.CellFormat(35, 7, string(t), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, tr(authID), "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 7, tr(name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, date, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, opt, "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	if fluids != nil {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Fluids / De-icing")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, tr(fluids.Description), "", "L", false)
		if fluids.IsAuthorized() {
			at := ""
			if fluids.AuthDate != nil {
				at = fluids.AuthDate.Format(reportTimeFormat)
			}
			pdf.Cell(0, 6, tr(fmt.Sprintf("Authorized by %s (%s) %s", derefString(fluids.AuthName), *fluids.AuthID, at)))
			pdf.Ln(6)
		}
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("techlog_page_%d.pdf", log.LogPageNumber)
	return buf.Bytes(), filename, nil
}

func writeEntry(pdf *gofpdf.Fpdf, tr func(string) string, e *models.LogEntry) {
	pdf.SetFont("Arial", "B", 10)
	header := fmt.Sprintf("Entry %d  [%s]  %s", e.Seq, e.Classification, e.State())
	if e.ATACode != "" {
		header += "  ATA " + e.ATACode
	}
	pdf.Cell(0, 6, tr(header))
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 9)
	pdf.MultiCell(0, 5, tr("Defect: "+e.DefectDetails), "", "L", false)
	pdf.MultiCell(0, 5, tr("Action: "+e.ActionDetails), "", "L", false)
	if e.DeferralChecked {
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("Deferral %s %s  Cat %s  MEL/CDL %s", e.DeferralAction, e.DeferralNumber, e.Category, e.MELCDLRef)), "", "L", false)
	}
	for _, c := range e.Components {
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("  On %s s/n %s  Off %s s/n %s  GRN %s", c.PartNo, c.SerialOn, c.PartOff, c.SerialOff, c.GRN)), "", "L", false)
	}
	if s := e.ShortSign(); s != nil {
		pdf.Cell(0, 5, tr(fmt.Sprintf("Short signed: %s (%s) %s", s.AuthName, s.AuthID, formatTime(e.ShortSignedAt))))
		pdf.Ln(5)
	}
	if a := e.ActionAuth(); a != nil {
		pdf.Cell(0, 5, tr(fmt.Sprintf("Action authorized: %s (%s) %s", a.AuthName, a.AuthID, formatTime(e.ActionAuthAt))))
		pdf.Ln(5)
	}
	if e.IndependentInspection {
		for _, st := range models.IndependentInspectionStatements {
			pdf.MultiCell(0, 4, tr(st), "", "L", false)
		}
	}
	pdf.Ln(2)
}

// DeferralsXLSX exports the deferral register
func (s *ReportService) DeferralsXLSX(ctx context.Context, query *repository.DeferralQuery) ([]byte, string, error) {
	deferrals, err := s.deferralRepo.List(ctx, query)
	if err != nil {
		return nil, "", err
	}
	sort.SliceStable(deferrals, func(i, j int) bool { return deferrals[i].Number < deferrals[j].Number })

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Deferrals"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	headers := []string{"Number", "Status", "Type", "Category", "MEL/CDL", "Description", "Entered By", "Entered At", "Cleared By", "Cleared At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheet, "A1", lastHeader, headerStyle)

	for r, d := range deferrals {
		row := []interface{}{
			d.Number,
			d.Status(),
			d.Type,
			d.Category,
			d.MELCDLRef,
			d.Description,
			derefString(d.EnteredAuthName),
			formatTime(d.EnteredAt),
			derefString(d.ClearedAuthName),
			formatTime(d.ClearedAt),
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, "", err
		}
	}
	_ = f.SetColWidth(sheet, "A", "A", 14)
	_ = f.SetColWidth(sheet, "F", "F", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("deferrals_%s.xlsx", s.now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(reportTimeFormat)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
