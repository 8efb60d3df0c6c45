// Package ownership decides whether a principal owns devices, tags and data points.
// A tag is owned through its device and a data point through its tag, so callers
// must load those associations before asking.
package ownership

import (
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/domain"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/repositories/models"
)

//IsDeviceOwner reports whether p is the recorded owner of device
func IsDeviceOwner(p domain.Principal, device *models.Device) bool {
	if device == nil || p.IsAnonymous() {
		return false
	}
	return device.Owner == p.Username
}

//IsTagOwner reports whether p owns the device that tag belongs to
func IsTagOwner(p domain.Principal, tag *models.Tag) bool {
	if tag == nil || tag.Device.DeviceID != tag.DeviceID {
		return false
	}
	return IsDeviceOwner(p, &tag.Device)
}

//IsDataPointOwner reports whether p owns the tag that point was recorded for
func IsDataPointOwner(p domain.Principal, point *models.DataPoint) bool {
	if point == nil || point.Tag.TagID != point.TagID {
		return false
	}
	return IsTagOwner(p, &point.Tag)
}
