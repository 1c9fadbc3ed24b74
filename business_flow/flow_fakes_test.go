package businessflow

import (
	"context"
	"sort"
	"time"

	"github.com/socialbucket/socialbucket/models"
)

// In-memory repository fakes. They implement just enough of the repository
// interfaces for the flow tests; ordering and filtering follow the real
// implementations.

type fakeScheduleRepo struct {
	schedules []*models.BucketSchedule
	nextID    uint
}

func newFakeScheduleRepo(schedules ...*models.BucketSchedule) *fakeScheduleRepo {
	r := &fakeScheduleRepo{nextID: 1}
	for _, s := range schedules {
		_ = r.Save(context.Background(), s)
	}
	return r
}

func (r *fakeScheduleRepo) ByID(_ context.Context, id uint) (*models.BucketSchedule, error) {
	for _, s := range r.schedules {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeScheduleRepo) ByFilter(_ context.Context, filter models.BucketScheduleFilter, _ string, limit, offset int) ([]*models.BucketSchedule, error) {
	var out []*models.BucketSchedule
	for _, s := range r.schedules {
		if filter.BucketID != nil && s.BucketID != *filter.BucketID {
			continue
		}
		if filter.ScheduleType != nil && s.ScheduleType != *filter.ScheduleType {
			continue
		}
		if filter.ID != nil && s.ID != *filter.ID {
			continue
		}
		out = append(out, s)
	}
	if offset > 0 && offset < len(out) {
		out = out[offset:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeScheduleRepo) Save(_ context.Context, s *models.BucketSchedule) error {
	if s.ID == 0 {
		s.ID = r.nextID
		r.nextID++
	} else if s.ID >= r.nextID {
		r.nextID = s.ID + 1
	}
	r.schedules = append(r.schedules, s)
	return nil
}

func (r *fakeScheduleRepo) SaveBatch(ctx context.Context, entities []*models.BucketSchedule) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeScheduleRepo) Count(ctx context.Context, filter models.BucketScheduleFilter) (int64, error) {
	out, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(out)), nil
}

func (r *fakeScheduleRepo) Exists(ctx context.Context, filter models.BucketScheduleFilter) (bool, error) {
	n, _ := r.Count(ctx, filter)
	return n > 0, nil
}

func (r *fakeScheduleRepo) ByUUID(_ context.Context, uuid string) (*models.BucketSchedule, error) {
	for _, s := range r.schedules {
		if s.UUID.String() == uuid {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeScheduleRepo) ListByBucket(_ context.Context, bucketID uint) ([]*models.BucketSchedule, error) {
	var out []*models.BucketSchedule
	for _, s := range r.schedules {
		if s.BucketID == bucketID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeScheduleRepo) ListEnabled(_ context.Context) ([]*models.BucketSchedule, error) {
	var out []*models.BucketSchedule
	for _, s := range r.schedules {
		if !s.IsDisabled() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeScheduleRepo) ListByIDsForUser(_ context.Context, ids []uint, userID uint) ([]*models.BucketSchedule, error) {
	wanted := map[uint]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	var out []*models.BucketSchedule
	for _, s := range r.schedules {
		if wanted[s.ID] && s.Bucket != nil && s.Bucket.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeScheduleRepo) Update(_ context.Context, schedule models.BucketSchedule) error {
	for i, s := range r.schedules {
		if s.ID == schedule.ID {
			r.schedules[i] = &schedule
			return nil
		}
	}
	return nil
}

func (r *fakeScheduleRepo) IncrementTimesSent(ctx context.Context, id uint) error {
	if s, _ := r.ByID(ctx, id); s != nil {
		s.TimesSent++
	}
	return nil
}

func (r *fakeScheduleRepo) IncrementSkipImage(ctx context.Context, id uint) error {
	if s, _ := r.ByID(ctx, id); s != nil {
		s.SkipImage++
	}
	return nil
}

func (r *fakeScheduleRepo) SetSkipImage(ctx context.Context, id uint, value int) error {
	if s, _ := r.ByID(ctx, id); s != nil {
		s.SkipImage = value
	}
	return nil
}

func (r *fakeScheduleRepo) DeleteByID(_ context.Context, id uint) error {
	for i, s := range r.schedules {
		if s.ID == id {
			r.schedules = append(r.schedules[:i], r.schedules[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeBucketRepo struct {
	buckets []*models.Bucket
	nextID  uint
}

func newFakeBucketRepo(buckets ...*models.Bucket) *fakeBucketRepo {
	r := &fakeBucketRepo{nextID: 1}
	for _, b := range buckets {
		_ = r.Save(context.Background(), b)
	}
	return r
}

func (r *fakeBucketRepo) ByID(_ context.Context, id uint) (*models.Bucket, error) {
	for _, b := range r.buckets {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, nil
}

func (r *fakeBucketRepo) ByFilter(_ context.Context, filter models.BucketFilter, _ string, limit, offset int) ([]*models.Bucket, error) {
	var out []*models.Bucket
	for _, b := range r.buckets {
		if filter.UserID != nil && b.UserID != *filter.UserID {
			continue
		}
		if filter.Name != nil && b.Name != *filter.Name {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *fakeBucketRepo) Save(_ context.Context, b *models.Bucket) error {
	if b.ID == 0 {
		b.ID = r.nextID
		r.nextID++
	} else if b.ID >= r.nextID {
		r.nextID = b.ID + 1
	}
	r.buckets = append(r.buckets, b)
	return nil
}

func (r *fakeBucketRepo) SaveBatch(ctx context.Context, entities []*models.Bucket) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeBucketRepo) Count(ctx context.Context, filter models.BucketFilter) (int64, error) {
	out, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(out)), nil
}

func (r *fakeBucketRepo) Exists(ctx context.Context, filter models.BucketFilter) (bool, error) {
	n, _ := r.Count(ctx, filter)
	return n > 0, nil
}

func (r *fakeBucketRepo) ByUUID(_ context.Context, uuid string) (*models.Bucket, error) {
	for _, b := range r.buckets {
		if b.UUID.String() == uuid {
			return b, nil
		}
	}
	return nil, nil
}

func (r *fakeBucketRepo) ByIDWithSchedules(ctx context.Context, id uint) (*models.Bucket, error) {
	return r.ByID(ctx, id)
}

func (r *fakeBucketRepo) ListByUser(_ context.Context, userID uint) ([]*models.Bucket, error) {
	var out []*models.Bucket
	for _, b := range r.buckets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeImageRepo struct {
	images []*models.BucketImage
	nextID uint
}

func newFakeImageRepo(images ...*models.BucketImage) *fakeImageRepo {
	r := &fakeImageRepo{nextID: 1}
	for _, img := range images {
		_ = r.Save(context.Background(), img)
	}
	return r
}

func (r *fakeImageRepo) ByID(_ context.Context, id uint) (*models.BucketImage, error) {
	for _, img := range r.images {
		if img.ID == id {
			return img, nil
		}
	}
	return nil, nil
}

func (r *fakeImageRepo) ByFilter(_ context.Context, filter models.BucketImageFilter, _ string, limit, offset int) ([]*models.BucketImage, error) {
	var out []*models.BucketImage
	for _, img := range r.images {
		if filter.BucketID != nil && img.BucketID != *filter.BucketID {
			continue
		}
		if filter.FriendlyName != nil && img.FriendlyName != *filter.FriendlyName {
			continue
		}
		out = append(out, img)
	}
	return out, nil
}

func (r *fakeImageRepo) Save(_ context.Context, img *models.BucketImage) error {
	if img.ID == 0 {
		img.ID = r.nextID
		r.nextID++
	} else if img.ID >= r.nextID {
		r.nextID = img.ID + 1
	}
	r.images = append(r.images, img)
	return nil
}

func (r *fakeImageRepo) SaveBatch(ctx context.Context, entities []*models.BucketImage) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeImageRepo) Count(ctx context.Context, filter models.BucketImageFilter) (int64, error) {
	out, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(out)), nil
}

func (r *fakeImageRepo) Exists(ctx context.Context, filter models.BucketImageFilter) (bool, error) {
	n, _ := r.Count(ctx, filter)
	return n > 0, nil
}

func (r *fakeImageRepo) ByUUID(_ context.Context, uuid string) (*models.BucketImage, error) {
	for _, img := range r.images {
		if img.UUID.String() == uuid {
			return img, nil
		}
	}
	return nil, nil
}

func (r *fakeImageRepo) ListByBucketOrdered(_ context.Context, bucketID uint) ([]*models.BucketImage, error) {
	var out []*models.BucketImage
	for _, img := range r.images {
		if img.BucketID == bucketID {
			out = append(out, img)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FriendlyName < out[j].FriendlyName })
	return out, nil
}

func (r *fakeImageRepo) IncrementTimesSent(ctx context.Context, id uint) error {
	if img, _ := r.ByID(ctx, id); img != nil {
		img.TimesSent++
	}
	return nil
}

func (r *fakeImageRepo) DeleteByID(_ context.Context, id uint) error {
	for i, img := range r.images {
		if img.ID == id {
			r.images = append(r.images[:i], r.images[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeHistoryRepo struct {
	records []*models.BucketSendHistory
	nextID  uint
}

func newFakeHistoryRepo(records ...*models.BucketSendHistory) *fakeHistoryRepo {
	r := &fakeHistoryRepo{nextID: 1}
	for _, rec := range records {
		_ = r.Save(context.Background(), rec)
	}
	return r
}

func (r *fakeHistoryRepo) ByID(_ context.Context, id uint) (*models.BucketSendHistory, error) {
	for _, rec := range r.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, nil
}

func (r *fakeHistoryRepo) ByFilter(_ context.Context, filter models.BucketSendHistoryFilter, _ string, limit, offset int) ([]*models.BucketSendHistory, error) {
	var out []*models.BucketSendHistory
	for _, rec := range r.records {
		if filter.BucketScheduleID != nil && rec.BucketScheduleID != *filter.BucketScheduleID {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *fakeHistoryRepo) Save(_ context.Context, rec *models.BucketSendHistory) error {
	if rec.ID == 0 {
		rec.ID = r.nextID
		r.nextID++
	} else if rec.ID >= r.nextID {
		r.nextID = rec.ID + 1
	}
	r.records = append(r.records, rec)
	return nil
}

func (r *fakeHistoryRepo) SaveBatch(ctx context.Context, entities []*models.BucketSendHistory) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeHistoryRepo) Count(ctx context.Context, filter models.BucketSendHistoryFilter) (int64, error) {
	out, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(out)), nil
}

func (r *fakeHistoryRepo) Exists(ctx context.Context, filter models.BucketSendHistoryFilter) (bool, error) {
	n, _ := r.Count(ctx, filter)
	return n > 0, nil
}

func (r *fakeHistoryRepo) LatestByScheduleIDs(_ context.Context, scheduleIDs []uint) (*models.BucketSendHistory, error) {
	wanted := map[uint]bool{}
	for _, id := range scheduleIDs {
		wanted[id] = true
	}
	var latest *models.BucketSendHistory
	for _, rec := range r.records {
		if !wanted[rec.BucketScheduleID] {
			continue
		}
		if latest == nil || rec.SentAt.After(latest.SentAt) ||
			(rec.SentAt.Equal(latest.SentAt) && rec.ID > latest.ID) {
			latest = rec
		}
	}
	return latest, nil
}

func (r *fakeHistoryRepo) LatestByScheduleID(ctx context.Context, scheduleID uint) (*models.BucketSendHistory, error) {
	return r.LatestByScheduleIDs(ctx, []uint{scheduleID})
}

func (r *fakeHistoryRepo) ListBySchedule(_ context.Context, scheduleID uint, limit, offset int) ([]*models.BucketSendHistory, error) {
	var out []*models.BucketSendHistory
	for _, rec := range r.records {
		if rec.BucketScheduleID == scheduleID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeHistoryRepo) CountSentOn(_ context.Context, scheduleID uint, dayStart, dayEnd time.Time) (int64, error) {
	var n int64
	for _, rec := range r.records {
		if rec.BucketScheduleID == scheduleID && !rec.SentAt.Before(dayStart) && rec.SentAt.Before(dayEnd) {
			n++
		}
	}
	return n, nil
}
