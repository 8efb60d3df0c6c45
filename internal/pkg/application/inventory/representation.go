package inventory

import "github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/repositories/models"

//Device is the client facing representation of a device
type Device struct {
	DeviceID    string `json:"device_id"`
	Owner       string `json:"owner"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

//DeviceWithTags is a device together with its tags
type DeviceWithTags struct {
	Device
	Tags []DeviceTag `json:"device_tags"`
}

//DeviceTag is a tag nested inside its device
type DeviceTag struct {
	TagID       string `json:"tag_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ValueType   string `json:"value_type"`
}

//Tag is the client facing representation of a tag
type Tag struct {
	TagID       string `json:"tag_id"`
	Owner       string `json:"owner"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Device      string `json:"device"`
	ValueType   string `json:"value_type"`
}

//ValueType is the client facing representation of a value type
type ValueType struct {
	ValueTypeID string `json:"value_type_id"`
	Name        string `json:"name"`
	Kind        string `json:"kind"`
}

//NewDevice converts a device
func NewDevice(device *models.Device) Device {
	return Device{
		DeviceID:    device.DeviceID,
		Owner:       device.Owner,
		Name:        device.Name,
		Description: device.Description,
		Type:        device.Type,
	}
}

//NewDevices converts a list of devices
func NewDevices(devices []models.Device) []Device {
	result := make([]Device, 0, len(devices))
	for i := range devices {
		result = append(result, NewDevice(&devices[i]))
	}
	return result
}

//NewDeviceWithTags converts a device with its tags loaded
func NewDeviceWithTags(device *models.Device) DeviceWithTags {
	d := DeviceWithTags{Device: NewDevice(device), Tags: make([]DeviceTag, 0, len(device.Tags))}

	for _, t := range device.Tags {
		d.Tags = append(d.Tags, DeviceTag{TagID: t.TagID, Name: t.Name, Description: t.Description, ValueType: t.ValueTypeID})
	}

	return d
}

//NewDevicesWithTags converts a list of devices with their tags loaded
func NewDevicesWithTags(devices []models.Device) []DeviceWithTags {
	result := make([]DeviceWithTags, 0, len(devices))
	for i := range devices {
		result = append(result, NewDeviceWithTags(&devices[i]))
	}
	return result
}

//NewTag converts a tag with its device loaded
func NewTag(tag *models.Tag) Tag {
	return Tag{
		TagID:       tag.TagID,
		Owner:       tag.Device.Owner,
		Name:        tag.Name,
		Description: tag.Description,
		Device:      tag.DeviceID,
		ValueType:   tag.ValueTypeID,
	}
}

//NewTags converts a list of tags
func NewTags(tags []models.Tag) []Tag {
	result := make([]Tag, 0, len(tags))
	for i := range tags {
		result = append(result, NewTag(&tags[i]))
	}
	return result
}

//NewValueType converts a value type
func NewValueType(vt *models.ValueType) ValueType {
	return ValueType{ValueTypeID: vt.ValueTypeID, Name: vt.Name, Kind: vt.Kind}
}

//NewValueTypes converts a list of value types
func NewValueTypes(vts []models.ValueType) []ValueType {
	result := make([]ValueType, 0, len(vts))
	for i := range vts {
		result = append(result, NewValueType(&vts[i]))
	}
	return result
}
