package services

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/sjperalta/techlog-api/internal/models"
	"github.com/sjperalta/techlog-api/internal/repository"
	"github.com/sjperalta/techlog-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type mockLogRepo struct {
	repository.LogRepository
	log *models.Log
}

func (m *mockLogRepo) FindByIDWithDetails(ctx context.Context, id uint) (*models.Log, error) {
	return m.log, nil
}

type mockFluidsRepo struct {
	repository.FluidsRepository
	record *models.FluidsRecord
}

func (m *mockFluidsRepo) FindByLog(ctx context.Context, logID uint) (*models.FluidsRecord, error) {
	return m.record, nil
}

type mockDeferralRepo struct {
	repository.DeferralRepository
	deferrals []models.Deferral
}

func (m *mockDeferralRepo) List(ctx context.Context, query *repository.DeferralQuery) ([]models.Deferral, error) {
	return m.deferrals, nil
}

func TestReportService_LogPagePDF(t *testing.T) {
	entry := models.LogEntry{
		Seq:                   1,
		Classification:        models.ClassificationLine,
		DefectDetails:         "Löwenbräu galley chiller noisy",
		ActionDetails:         "Fan replaced",
		IndependentInspection: true,
		Components:            []models.ComponentRow{{Position: 1, PartNo: "F-100", SerialOn: "S1"}},
	}
	entry.SetShortSign(models.Signoff{AuthID: "B1-77", AuthName: "K. Ito"}, fixedNow)

	log := &models.Log{
		ID:            7,
		LogPageNumber: 3,
		CreatedAt:     fixedNow,
		Flight:        models.Flight{FlightNumber: "FL-00001", Aircraft: &models.Aircraft{Registration: "REGN-00001"}},
		Entries:       []models.LogEntry{entry},
		Checks:        []models.CheckAuthorization{{CheckType: models.CheckLetter, AuthID: "B1-77", AuthName: "K. Ito", AuthDate: fixedNow, SvcOption: strPtr("C")}},
	}
	fluids := &models.FluidsRecord{LogID: 7, Description: "Type I, wings", AuthID: strPtr("B1-77"), AuthName: strPtr("K. Ito"), AuthDate: &fixedNow}

	svc := NewReportService(&mockLogRepo{log: log}, &mockFluidsRepo{record: fluids}, nil, nil)
	data, filename, err := svc.LogPagePDF(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, "techlog_page_3.pdf", filename)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestReportService_DeferralsXLSX(t *testing.T) {
	deferrals := []models.Deferral{
		{Number: "DEF-00002", Category: models.CategoryC, Description: "Lav smoke detector"},
		{Number: "DEF-00001", Category: models.CategoryB, Description: "APU bleed valve"},
	}
	deferrals[1].MarkEntered(models.Signoff{AuthID: "B1-77", AuthName: "K. Ito"}, fixedNow)

	svc := NewReportService(nil, nil, &mockDeferralRepo{deferrals: deferrals}, nil)
	svc.now = func() time.Time { return fixedNow }
	data, filename, err := svc.DeferralsXLSX(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "deferrals_2026-05-04.xlsx", filename)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	number, err := f.GetCellValue("Deferrals", "A2")
	require.NoError(t, err)
	assert.Equal(t, "DEF-00001", number)

	status, err := f.GetCellValue("Deferrals", "B2")
	require.NoError(t, err)
	assert.Equal(t, "entered", status)

	enteredBy, err := f.GetCellValue("Deferrals", "G2")
	require.NoError(t, err)
	assert.Equal(t, "K. Ito", enteredBy)
}

func TestReportService_Signature(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	path, err := store.SaveSignature(ctx, png, "acceptance")
	require.NoError(t, err)

	svc := NewReportService(nil, nil, nil, store)
	f, err := svc.Signature(ctx, "/"+path)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, png, data)

	_, err = svc.Signature(ctx, "signatures/acceptance/missing.png")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Signature(ctx, "misc/note.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}
