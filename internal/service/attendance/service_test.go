package attendance

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/activity"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/geo"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
	activityservice "github.com/cmlabs-hris/attendance-backend-go/internal/service/activity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRepository enforces the (user, date) uniqueness and the per-kind
// update preconditions the way the Postgres store does.
type memoryRepository struct {
	mu        sync.Mutex
	records   map[string]attendance.Record
	seq       int
	updateErr error
	// findHook runs after FindByUserAndDate releases the lock; tests use it to
	// widen the read-then-write window.
	findHook func()
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{records: make(map[string]attendance.Record)}
}

func (m *memoryRepository) FindByUserAndDate(ctx context.Context, userID string, date time.Time) (*attendance.Record, error) {
	m.mu.Lock()
	var found *attendance.Record
	for _, r := range m.records {
		if r.UserID == userID && r.Date.Equal(date) {
			r := r
			found = &r
			break
		}
	}
	m.mu.Unlock()

	if m.findHook != nil {
		m.findHook()
	}
	return found, nil
}

func (m *memoryRepository) Create(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.records {
		if r.UserID == record.UserID && r.Date.Equal(record.Date) {
			return attendance.Record{}, attendance.ErrDuplicateRecord
		}
	}
	m.seq++
	record.ID = "rec-" + strconv.Itoa(m.seq)
	m.records[record.ID] = record
	return record, nil
}

func (m *memoryRepository) Update(ctx context.Context, changes attendance.Record, kind attendance.UpdateKind) (attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return attendance.Record{}, m.updateErr
	}
	current, ok := m.records[changes.ID]
	if !ok {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	if !kind.Allows(current) {
		return attendance.Record{}, attendance.ErrStaleRecord
	}
	kind.Apply(&current, changes)
	m.records[changes.ID] = current
	return current, nil
}

func (m *memoryRepository) FindMany(ctx context.Context, filter attendance.RecordFilter) ([]attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []attendance.Record
	for _, r := range m.records {
		if r.Date.Before(filter.Start) || r.Date.After(filter.End) {
			continue
		}
		if filter.UserID != nil && r.UserID != *filter.UserID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memoryRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type recordingSink struct {
	mu      sync.Mutex
	entries []activity.Entry
	err     error
}

func (s *recordingSink) Record(ctx context.Context, entry activity.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return s.err
}

func location(lat, lng, accuracy float64) attendance.LocationInput {
	return attendance.LocationInput{
		Latitude:  validator.NewNumber(lat),
		Longitude: validator.NewNumber(lng),
		Accuracy:  validator.NewNumber(accuracy),
	}
}

var (
	morning = time.Date(2025, 1, 8, 8, 0, 0, 0, time.UTC)
	evening = time.Date(2025, 1, 8, 17, 30, 0, 0, time.UTC)
	office  = location(-6.2, 106.8, 10)
)

func newTestService(repo attendance.RecordRepository, sink activity.Sink) attendance.AttendanceService {
	return NewAttendanceService(repo, sink, DefaultPolicy())
}

func TestCheckIn_Success(t *testing.T) {
	repo := newMemoryRepository()
	sink := &recordingSink{}
	svc := newTestService(repo, sink)

	resp, err := svc.CheckIn(context.Background(), attendance.CheckInRequest{UserID: "u1", LocationInput: office}, morning)
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "2025-01-08", resp.Date)
	assert.Equal(t, "2025-01-08T08:00:00Z", resp.CheckInTime)
	assert.Equal(t, attendance.StatusPresent, resp.Status)

	require.Len(t, sink.entries, 1)
	assert.Equal(t, activity.ActionCheckIn, sink.entries[0].Action)
	assert.Equal(t, resp.ID, sink.entries[0].ResourceID)
	assert.Equal(t, "present", sink.entries[0].Details["status"])
}

func TestCheckIn_Twice(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo, nil)
	req := attendance.CheckInRequest{UserID: "u1", LocationInput: office}

	_, err := svc.CheckIn(context.Background(), req, morning)
	require.NoError(t, err)

	_, err = svc.CheckIn(context.Background(), req, morning.Add(time.Hour))
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
	assert.Equal(t, 1, repo.count())
}

func TestCheckIn_ConcurrentRace(t *testing.T) {
	repo := newMemoryRepository()

	// Hold every caller after its read until all have read, so every one of
	// them sees "no record" and tries to insert.
	const callers = 8
	var ready sync.WaitGroup
	ready.Add(callers)
	repo.findHook = func() {
		ready.Done()
		ready.Wait()
	}
	svc := newTestService(repo, nil)

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CheckIn(context.Background(), attendance.CheckInRequest{UserID: "u1", LocationInput: office}, morning)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, repo.count())
}

func TestCheckIn_PromotesRecordWithoutCheckIn(t *testing.T) {
	repo := newMemoryRepository()
	absent, err := repo.Create(context.Background(), attendance.Record{
		UserID: "u1",
		Date:   time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
		Status: attendance.StatusAbsent,
	})
	require.NoError(t, err)

	svc := newTestService(repo, nil)
	resp, err := svc.CheckIn(context.Background(), attendance.CheckInRequest{UserID: "u1", LocationInput: office}, morning)
	require.NoError(t, err)

	assert.Equal(t, absent.ID, resp.ID)
	assert.Equal(t, attendance.StatusPresent, resp.Status)
	assert.Equal(t, 1, repo.count())
}

func TestCheckIn_LocationValidation(t *testing.T) {
	svc := newTestService(newMemoryRepository(), nil)

	cases := []struct {
		name  string
		input attendance.LocationInput
		want  error
	}{
		{"missing latitude", attendance.LocationInput{Longitude: validator.NewNumber(1), Accuracy: validator.NewNumber(1)}, attendance.ErrInvalidLocation},
		{"non numeric longitude", attendance.LocationInput{Latitude: validator.NewNumber(1), Longitude: validator.Number{Present: true}, Accuracy: validator.NewNumber(1)}, attendance.ErrInvalidLocation},
		{"missing accuracy", attendance.LocationInput{Latitude: validator.NewNumber(1), Longitude: validator.NewNumber(1)}, attendance.ErrInvalidLocation},
		{"latitude out of range", location(91, 0, 1), attendance.ErrInvalidLocation},
		{"accuracy over threshold", location(0, 0, 5001), attendance.ErrLocationInaccurate},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := svc.CheckIn(context.Background(), attendance.CheckInRequest{UserID: "u1", LocationInput: c.input}, morning)
			assert.ErrorIs(t, err, c.want)
		})
	}

	_, err := svc.CheckIn(context.Background(), attendance.CheckInRequest{UserID: "u1", LocationInput: location(0, 0, 5000)}, morning)
	assert.NoError(t, err, "accuracy at the threshold is accepted")
}

func TestCheckIn_Unauthorized(t *testing.T) {
	svc := newTestService(newMemoryRepository(), nil)
	_, err := svc.CheckIn(context.Background(), attendance.CheckInRequest{LocationInput: office}, morning)
	assert.ErrorIs(t, err, user.ErrUnauthorized)
}

func TestCheckIn_Geofence(t *testing.T) {
	policy := DefaultPolicy()
	policy.Geofence = &geo.Fence{
		Center:                  geo.Point{Latitude: -6.2, Longitude: 106.8},
		RadiusMeters:            100,
		AccuracyToleranceMeters: 50,
	}
	svc := NewAttendanceService(newMemoryRepository(), nil, policy)

	_, err := svc.CheckIn(context.Background(), attendance.CheckInRequest{UserID: "u1", LocationInput: location(-6.21, 106.8, 10)}, morning)
	assert.ErrorIs(t, err, attendance.ErrOutsideGeofence)

	_, err = svc.CheckIn(context.Background(), attendance.CheckInRequest{UserID: "u1", LocationInput: location(-6.2, 106.8, 80)}, morning)
	assert.ErrorIs(t, err, attendance.ErrOutsideGeofence)

	_, err = svc.CheckIn(context.Background(), attendance.CheckInRequest{UserID: "u1", LocationInput: location(-6.2, 106.8, 10)}, morning)
	assert.NoError(t, err)
}

func TestCheckIn_UsesPolicyTimezoneForToday(t *testing.T) {
	policy := DefaultPolicy()
	policy.Location = time.FixedZone("WIB", 7*60*60)
	svc := NewAttendanceService(newMemoryRepository(), nil, policy)

	// 20:00 UTC on the 7th is already the 8th in UTC+7.
	resp, err := svc.CheckIn(context.Background(), attendance.CheckInRequest{UserID: "u1", LocationInput: office},
		time.Date(2025, 1, 7, 20, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-08", resp.Date)
}

func TestCheckOut_WorkHours(t *testing.T) {
	repo := newMemoryRepository()
	sink := &recordingSink{}
	svc := newTestService(repo, sink)

	_, err := svc.CheckIn(context.Background(), attendance.CheckInRequest{UserID: "u1", LocationInput: office}, morning)
	require.NoError(t, err)

	resp, err := svc.CheckOut(context.Background(), attendance.CheckOutRequest{UserID: "u1", LocationInput: office}, evening)
	require.NoError(t, err)

	assert.InDelta(t, 9.5, resp.WorkHours, 1e-9)
	assert.Equal(t, 0.0, resp.OvertimeHours)
	assert.Equal(t, attendance.StatusPresent, resp.Status)
	assert.Equal(t, "2025-01-08T17:30:00Z", resp.CheckOutTime)

	require.Len(t, sink.entries, 2)
	assert.Equal(t, activity.ActionCheckOut, sink.entries[1].Action)
}

func TestCheckOut_Overtime(t *testing.T) {
	policy := DefaultPolicy()
	policy.StandardWorkHours = 8
	repo := newMemoryRepository()
	svc := NewAttendanceService(repo, nil, policy)

	_, err := svc.CheckIn(context.Background(), attendance.CheckInRequest{UserID: "u1", LocationInput: office}, morning)
	require.NoError(t, err)

	resp, err := svc.CheckOut(context.Background(), attendance.CheckOutRequest{UserID: "u1", LocationInput: office}, evening)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, resp.OvertimeHours, 1e-9)
}

func TestCheckOut_BeforeCheckIn(t *testing.T) {
	svc := newTestService(newMemoryRepository(), nil)

	_, err := svc.CheckOut(context.Background(), attendance.CheckOutRequest{UserID: "u1", LocationInput: office}, evening)
	assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)
}

func TestCheckOut_Twice(t *testing.T) {
	svc := newTestService(newMemoryRepository(), nil)
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, attendance.CheckInRequest{UserID: "u1", LocationInput: office}, morning)
	require.NoError(t, err)

	_, err = svc.CheckOut(ctx, attendance.CheckOutRequest{UserID: "u1", LocationInput: office}, evening)
	require.NoError(t, err)

	_, err = svc.CheckOut(ctx, attendance.CheckOutRequest{UserID: "u1", LocationInput: office}, evening.Add(time.Minute))
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
}

func TestCheckOut_MissingCheckIn(t *testing.T) {
	repo := newMemoryRepository()
	_, err := repo.Create(context.Background(), attendance.Record{
		UserID: "u1",
		Date:   time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
		Status: attendance.StatusAbsent,
	})
	require.NoError(t, err)

	svc := newTestService(repo, nil)
	_, err = svc.CheckOut(context.Background(), attendance.CheckOutRequest{UserID: "u1", LocationInput: office}, evening)
	assert.ErrorIs(t, err, attendance.ErrMissingCheckIn)
}

func TestCheckOut_NotAfterCheckIn(t *testing.T) {
	svc := newTestService(newMemoryRepository(), nil)
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, attendance.CheckInRequest{UserID: "u1", LocationInput: office}, morning)
	require.NoError(t, err)

	_, err = svc.CheckOut(ctx, attendance.CheckOutRequest{UserID: "u1", LocationInput: office}, morning)
	assert.ErrorIs(t, err, attendance.ErrCheckOutBeforeCheckIn)
}

func TestCheckOut_PersistenceFailure(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, attendance.CheckInRequest{UserID: "u1", LocationInput: office}, morning)
	require.NoError(t, err)

	dbErr := errors.New("connection reset")
	repo.updateErr = dbErr

	_, err = svc.CheckOut(ctx, attendance.CheckOutRequest{UserID: "u1", LocationInput: office}, evening)
	assert.ErrorIs(t, err, attendance.ErrCheckoutPersistenceFailed)
	assert.ErrorIs(t, err, dbErr)

	// Nothing was written, so the caller can retry.
	repo.updateErr = nil
	_, err = svc.CheckOut(ctx, attendance.CheckOutRequest{UserID: "u1", LocationInput: office}, evening)
	assert.NoError(t, err)
}

func TestActivityLogFailure(t *testing.T) {
	ctx := context.Background()
	failing := &recordingSink{err: errors.New("log store down")}

	t.Run("best effort keeps the check-in", func(t *testing.T) {
		svc := newTestService(newMemoryRepository(), activityservice.NewBestEffortSink(failing))
		_, err := svc.CheckIn(ctx, attendance.CheckInRequest{UserID: "u1", LocationInput: office}, morning)
		assert.NoError(t, err)
	})

	t.Run("strict sink aborts", func(t *testing.T) {
		svc := newTestService(newMemoryRepository(), failing)
		_, err := svc.CheckIn(ctx, attendance.CheckInRequest{UserID: "u1", LocationInput: office}, morning)
		assert.Error(t, err)
	})
}

func TestAdjustLocation(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	sink := &recordingSink{}
	svc := newTestService(repo, sink)

	_, err := svc.AdjustLocation(ctx, attendance.AdjustLocationRequest{UserID: "u1", LocationInput: office}, morning)
	assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)

	_, err = svc.CheckIn(ctx, attendance.CheckInRequest{UserID: "u1", LocationInput: office}, morning)
	require.NoError(t, err)

	_, err = svc.AdjustLocation(ctx, attendance.AdjustLocationRequest{UserID: "u1", Event: attendance.EventCheckOut, LocationInput: office}, morning)
	assert.ErrorIs(t, err, attendance.ErrNotCheckedOut)

	// About 111 m north.
	far := attendance.LocationInput{Latitude: validator.NewNumber(-6.199), Longitude: validator.NewNumber(106.8)}
	_, err = svc.AdjustLocation(ctx, attendance.AdjustLocationRequest{UserID: "u1", LocationInput: far}, morning)
	assert.ErrorIs(t, err, attendance.ErrLocationAdjustmentTooFar)

	// About 55 m north, accuracy omitted.
	near := attendance.LocationInput{Latitude: validator.NewNumber(-6.1995), Longitude: validator.NewNumber(106.8)}
	resp, err := svc.AdjustLocation(ctx, attendance.AdjustLocationRequest{UserID: "u1", LocationInput: near}, morning)
	require.NoError(t, err)

	require.NotNil(t, resp.CheckInLatitude)
	assert.Equal(t, -6.1995, *resp.CheckInLatitude)
	require.NotNil(t, resp.CheckInAccuracy)
	assert.Equal(t, 10.0, *resp.CheckInAccuracy)

	last := sink.entries[len(sink.entries)-1]
	assert.Equal(t, activity.ActionAdjustLocation, last.Action)
	assert.InDelta(t, 55.6, last.Details["distance_meters"].(float64), 1)
}

func TestAdjustLocation_KeepsConcurrentCheckOut(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	svc := newTestService(repo, nil)

	_, err := svc.CheckIn(ctx, attendance.CheckInRequest{UserID: "u1", LocationInput: office}, morning)
	require.NoError(t, err)

	// The check-out lands after the adjustment has read the record.
	var checkOutErr error
	repo.findHook = func() {
		repo.findHook = nil
		_, checkOutErr = svc.CheckOut(ctx, attendance.CheckOutRequest{UserID: "u1", LocationInput: office}, evening)
	}

	near := attendance.LocationInput{Latitude: validator.NewNumber(-6.1995), Longitude: validator.NewNumber(106.8)}
	resp, err := svc.AdjustLocation(ctx, attendance.AdjustLocationRequest{UserID: "u1", LocationInput: near}, evening)
	require.NoError(t, err)
	require.NoError(t, checkOutErr)
	assert.Equal(t, attendance.StateCheckedOut, resp.State)

	today, err := svc.GetToday(ctx, "u1", evening)
	require.NoError(t, err)
	assert.Equal(t, attendance.StateCheckedOut, today.State)
	require.NotNil(t, today.Record.WorkHours)
	assert.InDelta(t, 9.5, *today.Record.WorkHours, 1e-9)
	require.NotNil(t, today.Record.CheckInLatitude)
	assert.Equal(t, -6.1995, *today.Record.CheckInLatitude)
}

func TestCheckOut_KeepsConcurrentPinAdjustment(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	svc := newTestService(repo, nil)

	_, err := svc.CheckIn(ctx, attendance.CheckInRequest{UserID: "u1", LocationInput: office}, morning)
	require.NoError(t, err)

	near := attendance.LocationInput{Latitude: validator.NewNumber(-6.1995), Longitude: validator.NewNumber(106.8)}
	var adjustErr error
	repo.findHook = func() {
		repo.findHook = nil
		_, adjustErr = svc.AdjustLocation(ctx, attendance.AdjustLocationRequest{UserID: "u1", LocationInput: near}, evening)
	}

	_, err = svc.CheckOut(ctx, attendance.CheckOutRequest{UserID: "u1", LocationInput: office}, evening)
	require.NoError(t, err)
	require.NoError(t, adjustErr)

	today, err := svc.GetToday(ctx, "u1", evening)
	require.NoError(t, err)
	assert.Equal(t, attendance.StateCheckedOut, today.State)
	require.NotNil(t, today.Record.CheckInLatitude)
	assert.Equal(t, -6.1995, *today.Record.CheckInLatitude)
}

func TestAdjustLocation_CheckOutPinWithoutCheckOut(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	svc := newTestService(repo, nil)

	_, err := svc.CheckIn(ctx, attendance.CheckInRequest{UserID: "u1", LocationInput: office}, morning)
	require.NoError(t, err)
	_, err = svc.CheckOut(ctx, attendance.CheckOutRequest{UserID: "u1", LocationInput: office}, evening)
	require.NoError(t, err)

	// The row loses its check-out between the read and the write.
	repo.findHook = func() {
		repo.findHook = nil
		repo.mu.Lock()
		defer repo.mu.Unlock()
		for id, r := range repo.records {
			r.CheckOutTime = nil
			repo.records[id] = r
		}
	}

	_, err = svc.AdjustLocation(ctx, attendance.AdjustLocationRequest{UserID: "u1", Event: attendance.EventCheckOut, LocationInput: office}, evening)
	assert.ErrorIs(t, err, attendance.ErrNotCheckedOut)
}

func TestGetToday(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryRepository(), nil)

	resp, err := svc.GetToday(ctx, "u1", morning)
	require.NoError(t, err)
	assert.Equal(t, attendance.StateNoRecord, resp.State)
	assert.Nil(t, resp.Record)

	_, err = svc.CheckIn(ctx, attendance.CheckInRequest{UserID: "u1", LocationInput: office}, morning)
	require.NoError(t, err)
	resp, err = svc.GetToday(ctx, "u1", morning.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, attendance.StateCheckedIn, resp.State)

	_, err = svc.CheckOut(ctx, attendance.CheckOutRequest{UserID: "u1", LocationInput: office}, evening)
	require.NoError(t, err)
	resp, err = svc.GetToday(ctx, "u1", evening)
	require.NoError(t, err)
	assert.Equal(t, attendance.StateCheckedOut, resp.State)
	require.NotNil(t, resp.Record)
	require.NotNil(t, resp.Record.WorkHours)
	assert.InDelta(t, 9.5, *resp.Record.WorkHours, 1e-9)
}

func TestListHistory(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryRepository(), nil)

	for _, day := range []int{2, 6, 8} {
		_, err := svc.CheckIn(ctx, attendance.CheckInRequest{UserID: "u1", LocationInput: office},
			time.Date(2025, 1, day, 8, 0, 0, 0, time.UTC))
		require.NoError(t, err)
	}
	_, err := svc.CheckIn(ctx, attendance.CheckInRequest{UserID: "u2", LocationInput: office}, morning)
	require.NoError(t, err)

	resp, err := svc.ListHistory(ctx, attendance.HistoryFilter{UserID: "u1"}, evening)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", resp.StartDate)
	assert.Equal(t, "2025-01-08", resp.EndDate)
	assert.Equal(t, 3, resp.Total)

	start, end := "2025-01-05", "2025-01-07"
	resp, err = svc.ListHistory(ctx, attendance.HistoryFilter{UserID: "u1", StartDate: &start, EndDate: &end}, evening)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)

	inverted := "2025-01-04"
	_, err = svc.ListHistory(ctx, attendance.HistoryFilter{UserID: "u1", StartDate: &start, EndDate: &inverted}, evening)
	assert.Error(t, err)
}

func TestPolicy_OvertimeHours(t *testing.T) {
	assert.Equal(t, 0.0, Policy{}.OvertimeHours(12))
	assert.Equal(t, 0.0, Policy{StandardWorkHours: 8}.OvertimeHours(7.5))
	assert.Equal(t, 2.0, Policy{StandardWorkHours: 8}.OvertimeHours(10))
}
