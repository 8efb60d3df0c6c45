// Package telemetry ingests typed data points for tags and answers time window queries over them.
package telemetry

import (
	"context"
	"sort"
	"time"

	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/domain"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/domain/ownership"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/domain/values"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/logging"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/repositories/database"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/repositories/models"
)

//IngestRequest carries one raw reading for a tag. A nil Timestamp is replaced by the
//time of ingestion.
type IngestRequest struct {
	Tag       string
	Value     string
	Timestamp *time.Time
}

//Service implements ingestion and retrieval of data points
type Service struct {
	db       database.Datastore
	registry *values.Registry
	log      logging.Logger
	now      func() time.Time
}

//NewService creates a telemetry service on top of the given datastore
func NewService(db database.Datastore, log logging.Logger) *Service {
	return &Service{
		db:       db,
		registry: values.NewRegistry(db),
		log:      log,
		now:      time.Now,
	}
}

//Ingest validates the raw value against the tag's value type and stores it as a new data point
func (s *Service) Ingest(ctx context.Context, p domain.Principal, req IngestRequest) (*models.DataPoint, error) {
	if req.Tag == "" {
		return nil, domain.NewValidationError("tag", "This field is required.")
	}

	tag, err := s.ownedTag(ctx, p, req.Tag)
	if err != nil {
		return nil, err
	}

	vt, err := s.registry.Resolve(ctx, tag.ValueTypeID)
	if err != nil {
		return nil, err
	}

	v, err := values.Coerce(req.Value, vt)
	if err != nil {
		return nil, err
	}

	timestamp := s.now()
	if req.Timestamp != nil {
		timestamp = *req.Timestamp
	}

	point := &models.DataPoint{
		TagID:     tag.TagID,
		Timestamp: timestamp.UTC().Truncate(time.Microsecond),
	}
	store(point, v)

	if err = s.db.CreateDataPoint(ctx, point); err != nil {
		s.log.Errorf("Failed to store data point for tag %s: %s", tag.TagID, err.Error())
		return nil, err
	}

	point.Tag = *tag

	return point, nil
}

//Query returns the principal's data points within the filter window in ascending time order
func (s *Service) Query(ctx context.Context, p domain.Principal, filter Filter) ([]models.DataPoint, error) {
	if filter.Tag != "" {
		if _, err := s.ownedTag(ctx, p, filter.Tag); err != nil {
			return nil, err
		}
	}

	return s.db.QueryDataPoints(ctx, database.DataPointQuery{
		Owner:  p.Username,
		TagID:  filter.Tag,
		Begin:  filter.Begin,
		After:  filter.After,
		End:    filter.End,
		Before: filter.Before,
		Limit:  filter.Max,
	})
}

//Current returns the most recent data point of a tag, or of every owned tag that has
//data when tagID is empty, ordered by tag id
func (s *Service) Current(ctx context.Context, p domain.Principal, tagID string) ([]models.DataPoint, error) {
	if tagID != "" {
		if _, err := s.ownedTag(ctx, p, tagID); err != nil {
			return nil, err
		}
		return s.latest(ctx, p, tagID)
	}

	tags, err := s.db.GetTags(ctx, p.Username)
	if err != nil {
		return nil, err
	}

	sort.Slice(tags, func(i, j int) bool { return tags[i].TagID < tags[j].TagID })

	points := []models.DataPoint{}
	for _, tag := range tags {
		latest, err := s.latest(ctx, p, tag.TagID)
		if err != nil {
			return nil, err
		}
		points = append(points, latest...)
	}

	return points, nil
}

func (s *Service) latest(ctx context.Context, p domain.Principal, tagID string) ([]models.DataPoint, error) {
	return s.db.QueryDataPoints(ctx, database.DataPointQuery{
		Owner:      p.Username,
		TagID:      tagID,
		Limit:      1,
		Descending: true,
	})
}

func (s *Service) ownedTag(ctx context.Context, p domain.Principal, tagID string) (*models.Tag, error) {
	tag, err := s.db.GetTagFromID(ctx, tagID)
	if err != nil {
		return nil, err
	}

	if !ownership.IsTagOwner(p, tag) {
		return nil, domain.NotFoundf("tag %s", tagID)
	}

	return tag, nil
}
