package analytics

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"bda_portal_backend/internal/adapters/storage"
	leadevents "bda_portal_backend/internal/events"
	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/platform/apperr"
	"bda_portal_backend/platform/cache"
	"bda_portal_backend/platform/events"
	"bda_portal_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeStore struct {
	counts []StatusCountRow
	paid   []PaidRow
	calls  atomic.Int32
	err    error
}

func (f *fakeStore) StatusCounts(context.Context, Range) ([]StatusCountRow, error) {
	f.calls.Add(1)
	return f.counts, f.err
}

func (f *fakeStore) PaidPlans(context.Context, Range) ([]PaidRow, error) {
	return f.paid, f.err
}

type staticConfigs map[domain.PlanName]domain.PlanConfig

func (s staticConfigs) Lookup(context.Context) (map[domain.PlanName]domain.PlanConfig, error) {
	return s, nil
}

var testConfigs = staticConfigs{
	domain.PlanPrime: {PlanName: domain.PlanPrime, BasePriceUSD: 1000, Currency: domain.CurrencyUSD, IncentivePerLeadINR: 5000},
}

func sampleStore() *fakeStore {
	return &fakeStore{
		counts: []StatusCountRow{
			{Email: "asha@example.com", Name: "Asha", Status: domain.StatusPaid, Count: 2},
			{Email: "asha@example.com", Name: "Asha", Status: domain.StatusCompleted, Count: 2},
			{Email: "ravi@example.com", Name: "Ravi", Status: domain.StatusScheduled, Count: 3},
			{Email: UnclaimedKey, Status: domain.StatusScheduled, Count: 5},
		},
		paid: []PaidRow{
			{Email: "asha@example.com", Plan: domain.PaymentPlan{Name: domain.PlanPrime, Price: 1000, Currency: domain.CurrencyUSD}},
			{Email: "asha@example.com", Plan: domain.PaymentPlan{Name: domain.PlanPrime, Price: 500, Currency: domain.CurrencyCAD}},
		},
	}
}

func newRedisCache(t *testing.T) cache.Cache {
	mr := miniredis.RunT(t)
	return cache.NewWithRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "t:")
}

func TestBuildReportAggregatesPerBDA(t *testing.T) {
	store := sampleStore()
	report := buildReport(store.counts, store.paid, testConfigs)

	require.Len(t, report.BDAs, 2)
	asha := report.BDAs[0]
	assert.Equal(t, "asha@example.com", asha.Email)
	assert.Equal(t, "Asha", asha.Name)
	assert.Equal(t, 4, asha.Claimed)
	assert.Equal(t, 2, asha.PaidCount)
	assert.Equal(t, 2, asha.StatusCounts["completed"])
	assert.Equal(t, 1000.0, asha.RevenueByCurrency["USD"])
	assert.Equal(t, 500.0, asha.RevenueByCurrency["CAD"])
	assert.Equal(t, 5000.0, asha.IncentiveINR)
	assert.Equal(t, 1, asha.ExcludedNonUSD)
	assert.Equal(t, 50.0, asha.ConversionRate)

	ravi := report.BDAs[1]
	assert.Equal(t, 0, ravi.PaidCount)
	assert.Equal(t, 0.0, ravi.ConversionRate)

	assert.Equal(t, 12, report.Totals.Leads)
	assert.Equal(t, 7, report.Totals.Claimed)
	assert.Equal(t, 5, report.Totals.Unclaimed)
	assert.Equal(t, 2, report.Totals.PaidCount)
	assert.Equal(t, 8, report.Totals.StatusCounts["scheduled"])
	assert.Equal(t, 5000.0, report.Totals.IncentiveINR)
}

func TestBuildReportEmpty(t *testing.T) {
	report := buildReport(nil, nil, nil)
	assert.Empty(t, report.BDAs)
	assert.Equal(t, 0, report.Totals.Leads)
	assert.Equal(t, 0.0, report.Totals.ConversionRate)
}

func TestReportCachesOnlyBaseRange(t *testing.T) {
	store := sampleStore()
	svc := NewService(store, testConfigs, newRedisCache(t), time.Minute, nil, logger.Nop())
	ctx := context.Background()

	first, err := svc.Report(ctx, Range{}, false)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.Report(ctx, Range{}, false)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, int32(1), store.calls.Load())

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	filtered, err := svc.Report(ctx, Range{From: &from}, false)
	require.NoError(t, err)
	assert.False(t, filtered.Cached)
	assert.Equal(t, &from, filtered.From)
	assert.Equal(t, int32(2), store.calls.Load())

	refreshed, err := svc.Report(ctx, Range{}, true)
	require.NoError(t, err)
	assert.False(t, refreshed.Cached)
	assert.Equal(t, int32(3), store.calls.Load())
}

func TestReportWrapsStoreErrors(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	svc := NewService(store, testConfigs, nil, time.Minute, nil, logger.Nop())

	_, err := svc.Report(context.Background(), Range{}, false)
	assert.True(t, apperr.Is(err, apperr.KindInternal))
}

func TestLeadEventsInvalidateCache(t *testing.T) {
	store := sampleStore()
	svc := NewService(store, testConfigs, newRedisCache(t), time.Minute, nil, logger.Nop())
	bus := events.NewInMemoryBus(logger.Nop())
	svc.SubscribeInvalidation(bus)
	ctx := context.Background()

	_, err := svc.Report(ctx, Range{}, false)
	require.NoError(t, err)

	require.NoError(t, bus.PublishSync(ctx, leadevents.LeadClaimed{BookingID: "b1", ClaimedBy: "asha@example.com"}))

	report, err := svc.Report(ctx, Range{}, false)
	require.NoError(t, err)
	assert.False(t, report.Cached)
	assert.Equal(t, int32(2), store.calls.Load())
}

func TestWarmFillsCache(t *testing.T) {
	store := sampleStore()
	svc := NewService(store, testConfigs, newRedisCache(t), time.Minute, nil, logger.Nop())
	ctx := context.Background()

	require.NoError(t, svc.Warm(ctx))
	report, err := svc.Report(ctx, Range{}, false)
	require.NoError(t, err)
	assert.True(t, report.Cached)
}

type fakeObjects struct {
	folder   string
	uploaded []byte
}

func (f *fakeObjects) UploadFile(_ context.Context, folder, fileName, _ string, r io.Reader, _ int64) (string, error) {
	f.folder = folder
	data, err := io.ReadAll(r)
	f.uploaded = data
	return folder + "/" + fileName, err
}

func (f *fakeObjects) GenerateDownloadURL(_ context.Context, key string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://objects.local/" + key, FileKey: key, ExpiresAt: time.Now().Add(time.Minute)}, nil
}

func (f *fakeObjects) EnsureBucketExists(context.Context) error { return nil }

func TestBuildWorkbookSheets(t *testing.T) {
	store := sampleStore()
	report := buildReport(store.counts, store.paid, testConfigs)
	report.GeneratedAt = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	out, err := BuildWorkbook(report)
	require.NoError(t, err)
	assert.Equal(t, "bda-analysis-20260304-050607.xlsx", out.FileName)

	f, err := excelize.OpenReader(bytes.NewReader(out.Data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{sheetBDAs, sheetTotals}, f.GetSheetList())

	name, err := f.GetCellValue(sheetBDAs, "B2")
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", name)

	leads, err := f.GetCellValue(sheetTotals, "B2")
	require.NoError(t, err)
	assert.Equal(t, "12", leads)
}

func TestExporterArchivesWhenStorageConfigured(t *testing.T) {
	svc := NewService(sampleStore(), testConfigs, nil, time.Minute, nil, logger.Nop())
	objects := &fakeObjects{}
	exporter := NewExporter(svc, objects)
	ctx := context.Background()

	out, err := exporter.Render(ctx, Range{})
	require.NoError(t, err)
	archived, err := exporter.Archive(ctx, out)
	require.NoError(t, err)

	assert.Equal(t, exportFolder, objects.folder)
	assert.Equal(t, out.Data, objects.uploaded)
	assert.Contains(t, archived.Download.URL, out.FileName)
}

func TestExporterWithoutStorage(t *testing.T) {
	exporter := NewExporter(NewService(sampleStore(), testConfigs, nil, time.Minute, nil, logger.Nop()), nil)
	assert.False(t, exporter.Archives())

	_, err := exporter.Archive(context.Background(), &Export{FileName: "x.xlsx"})
	assert.True(t, apperr.Is(err, apperr.KindUnsupported))
}
