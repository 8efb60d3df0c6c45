package telemetry

import (
	"time"

	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/domain/values"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/repositories/models"
)

//DataPoint is the client facing representation of a stored data point
type DataPoint struct {
	ID        uint64      `json:"id"`
	Tag       string      `json:"tag"`
	Owner     string      `json:"owner"`
	Type      string      `json:"type"`
	Value     interface{} `json:"value"`
	Timestamp time.Time   `json:"timestamp"`
}

//NewDataPoint converts a stored data point with its tag, device and value type loaded
func NewDataPoint(point *models.DataPoint) (DataPoint, error) {
	vt := values.TypeOf(&point.Tag.ValueType)

	v, err := load(point, vt.Kind)
	if err != nil {
		return DataPoint{}, err
	}

	return DataPoint{
		ID:        point.ID,
		Tag:       point.TagID,
		Owner:     point.Tag.Device.Owner,
		Type:      point.Tag.ValueTypeID,
		Value:     jsonValue(v),
		Timestamp: point.Timestamp.UTC(),
	}, nil
}

//NewDataPoints converts a list of stored data points, keeping their order
func NewDataPoints(points []models.DataPoint) ([]DataPoint, error) {
	result := make([]DataPoint, 0, len(points))

	for i := range points {
		dp, err := NewDataPoint(&points[i])
		if err != nil {
			return nil, err
		}
		result = append(result, dp)
	}

	return result, nil
}

// decimals are rendered as fixed point strings
func jsonValue(v values.Value) interface{} {
	switch tv := v.(type) {
	case values.StringValue:
		return string(tv)
	case values.IntegerValue:
		return int64(tv)
	case values.BooleanValue:
		return bool(tv)
	default:
		return v.String()
	}
}
