// Package inventory manages the devices, tags and value types that data points are recorded against.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/domain"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/domain/ownership"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/domain/values"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/logging"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/repositories/database"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/repositories/models"
)

//DeviceInput is the writable part of a device. Nil fields are left unchanged on partial updates.
type DeviceInput struct {
	DeviceID    *string `json:"device_id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Type        *string `json:"type"`
}

//TagInput is the writable part of a tag
type TagInput struct {
	TagID       *string `json:"tag_id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Device      *string `json:"device"`
	ValueType   *string `json:"value_type"`
}

//ValueTypeInput is the writable part of a value type
type ValueTypeInput struct {
	ValueTypeID *string `json:"value_type_id"`
	Name        *string `json:"name"`
	Kind        *string `json:"kind"`
}

//Service implements the inventory operations on behalf of a principal
type Service struct {
	db  database.Datastore
	log logging.Logger
}

//NewService creates an inventory service on top of the given datastore
func NewService(db database.Datastore, log logging.Logger) *Service {
	return &Service{db: db, log: log}
}

//ListDevices returns the devices owned by p, optionally with their tags
func (s *Service) ListDevices(ctx context.Context, p domain.Principal, withTags bool) ([]models.Device, error) {
	return s.db.GetDevices(ctx, p.Username, withTags)
}

//GetDevice returns an owned device with its tags
func (s *Service) GetDevice(ctx context.Context, p domain.Principal, deviceID string) (*models.Device, error) {
	device, err := s.db.GetDeviceFromID(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	if !ownership.IsDeviceOwner(p, device) {
		return nil, domain.NotFoundf("device %s", deviceID)
	}

	return device, nil
}

//CreateDevice registers a new device owned by p
func (s *Service) CreateDevice(ctx context.Context, p domain.Principal, in DeviceInput) (*models.Device, error) {
	err := check(
		field{name: "device_id", value: in.DeviceID, required: true, max: 25},
		field{name: "name", value: in.Name, required: true, max: 50},
		field{name: "description", value: in.Description, blank: true, max: 255},
		field{name: "type", value: in.Type, blank: true, max: 50},
	)
	if err != nil {
		return nil, err
	}

	device := &models.Device{
		DeviceID:    *in.DeviceID,
		Name:        *in.Name,
		Description: valueOr(in.Description, ""),
		Type:        valueOr(in.Type, ""),
		Owner:       p.Username,
	}

	if err = s.db.CreateDevice(ctx, device); err != nil {
		return nil, err
	}

	s.log.Infof("Device %s created by %s", device.DeviceID, p.Username)

	return device, nil
}

//UpdateDevice replaces (partial == false) or patches the writable fields of an owned device.
//The owner never changes.
func (s *Service) UpdateDevice(ctx context.Context, p domain.Principal, deviceID string, in DeviceInput, partial bool) (*models.Device, error) {
	device, err := s.GetDevice(ctx, p, deviceID)
	if err != nil {
		return nil, err
	}

	err = checkPathID("device_id", in.DeviceID, deviceID)
	if err == nil {
		err = check(
			field{name: "name", value: in.Name, required: !partial, max: 50},
			field{name: "description", value: in.Description, blank: true, max: 255},
			field{name: "type", value: in.Type, blank: true, max: 50},
		)
	}
	if err != nil {
		return nil, err
	}

	device.Name = valueOr(in.Name, device.Name)
	if partial {
		device.Description = valueOr(in.Description, device.Description)
		device.Type = valueOr(in.Type, device.Type)
	} else {
		device.Description = valueOr(in.Description, "")
		device.Type = valueOr(in.Type, "")
	}

	if err = s.db.UpdateDevice(ctx, device); err != nil {
		return nil, err
	}

	return device, nil
}

//DeleteDevice removes an owned device that has no tags
func (s *Service) DeleteDevice(ctx context.Context, p domain.Principal, deviceID string) error {
	if _, err := s.GetDevice(ctx, p, deviceID); err != nil {
		return err
	}

	return s.db.DeleteDevice(ctx, deviceID)
}

//ListTags returns every tag on the devices owned by p
func (s *Service) ListTags(ctx context.Context, p domain.Principal) ([]models.Tag, error) {
	return s.db.GetTags(ctx, p.Username)
}

//GetTag returns an owned tag
func (s *Service) GetTag(ctx context.Context, p domain.Principal, tagID string) (*models.Tag, error) {
	tag, err := s.db.GetTagFromID(ctx, tagID)
	if err != nil {
		return nil, err
	}

	if !ownership.IsTagOwner(p, tag) {
		return nil, domain.NotFoundf("tag %s", tagID)
	}

	return tag, nil
}

//CreateTag adds a tag to one of p's devices
func (s *Service) CreateTag(ctx context.Context, p domain.Principal, in TagInput) (*models.Tag, error) {
	err := check(
		field{name: "tag_id", value: in.TagID, required: true, min: 3, max: 25},
		field{name: "name", value: in.Name, required: true, max: 50},
		field{name: "description", value: in.Description, blank: true, max: 255},
		field{name: "device", value: in.Device, required: true},
		field{name: "value_type", value: in.ValueType, required: true},
	)
	if err != nil {
		return nil, err
	}

	tag := &models.Tag{
		TagID:       *in.TagID,
		Name:        *in.Name,
		Description: valueOr(in.Description, ""),
	}

	if err = s.assign(ctx, p, tag, *in.Device, *in.ValueType); err != nil {
		return nil, err
	}

	if err = s.db.CreateTag(ctx, tag); err != nil {
		return nil, err
	}

	s.log.Infof("Tag %s created on device %s by %s", tag.TagID, tag.DeviceID, p.Username)

	return tag, nil
}

//UpdateTag replaces or patches an owned tag. A tag can only be moved to another device owned by p.
func (s *Service) UpdateTag(ctx context.Context, p domain.Principal, tagID string, in TagInput, partial bool) (*models.Tag, error) {
	tag, err := s.GetTag(ctx, p, tagID)
	if err != nil {
		return nil, err
	}

	err = checkPathID("tag_id", in.TagID, tagID)
	if err == nil {
		err = check(
			field{name: "name", value: in.Name, required: !partial, max: 50},
			field{name: "description", value: in.Description, blank: true, max: 255},
			field{name: "device", value: in.Device, required: !partial},
			field{name: "value_type", value: in.ValueType, required: !partial},
		)
	}
	if err != nil {
		return nil, err
	}

	tag.Name = valueOr(in.Name, tag.Name)
	if partial {
		tag.Description = valueOr(in.Description, tag.Description)
	} else {
		tag.Description = valueOr(in.Description, "")
	}

	err = s.assign(ctx, p, tag, valueOr(in.Device, tag.DeviceID), valueOr(in.ValueType, tag.ValueTypeID))
	if err != nil {
		return nil, err
	}

	if err = s.db.UpdateTag(ctx, tag); err != nil {
		return nil, err
	}

	return tag, nil
}

//assign points tag at an owned device and an existing value type
func (s *Service) assign(ctx context.Context, p domain.Principal, tag *models.Tag, deviceID, valueTypeID string) error {
	device, err := s.db.GetDeviceFromID(ctx, deviceID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if err != nil || !ownership.IsDeviceOwner(p, device) {
		return domain.NewValidationError("device", "invalid device")
	}

	valueType, err := s.db.GetValueTypeFromID(ctx, valueTypeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError("value_type", "invalid value type")
		}
		return err
	}

	device.Tags = nil
	tag.DeviceID = device.DeviceID
	tag.Device = *device
	tag.ValueTypeID = valueType.ValueTypeID
	tag.ValueType = *valueType

	return nil
}

//DeleteTag removes an owned tag that has no data points
func (s *Service) DeleteTag(ctx context.Context, p domain.Principal, tagID string) error {
	if _, err := s.GetTag(ctx, p, tagID); err != nil {
		return err
	}

	return s.db.DeleteTag(ctx, tagID)
}

//ListValueTypes returns all value types. Value types are shared by all principals.
func (s *Service) ListValueTypes(ctx context.Context, p domain.Principal) ([]models.ValueType, error) {
	return s.db.GetValueTypes(ctx)
}

//GetValueType returns a single value type
func (s *Service) GetValueType(ctx context.Context, p domain.Principal, valueTypeID string) (*models.ValueType, error) {
	return s.db.GetValueTypeFromID(ctx, valueTypeID)
}

//CreateValueType defines a new value type. Only superusers may do this.
func (s *Service) CreateValueType(ctx context.Context, p domain.Principal, in ValueTypeInput) (*models.ValueType, error) {
	if !p.Superuser {
		return nil, fmt.Errorf("create value type: %w", domain.ErrForbidden)
	}

	err := check(
		field{name: "value_type_id", value: in.ValueTypeID, required: true, max: 8},
		field{name: "name", value: in.Name, required: true, max: 50},
		field{name: "kind", value: in.Kind, required: true},
	)
	if err != nil {
		return nil, err
	}

	kind, err := parseKind(*in.Kind)
	if err != nil {
		return nil, err
	}

	valueType := &models.ValueType{
		ValueTypeID: *in.ValueTypeID,
		Name:        *in.Name,
		Kind:        kind,
	}

	if err = s.db.CreateValueType(ctx, valueType); err != nil {
		return nil, err
	}

	s.log.Infof("Value type %s (%s) created by %s", valueType.ValueTypeID, kind, p.Username)

	return valueType, nil
}

//UpdateValueType replaces or patches a value type. Only superusers may do this.
func (s *Service) UpdateValueType(ctx context.Context, p domain.Principal, valueTypeID string, in ValueTypeInput, partial bool) (*models.ValueType, error) {
	if !p.Superuser {
		return nil, fmt.Errorf("update value type: %w", domain.ErrForbidden)
	}

	valueType, err := s.db.GetValueTypeFromID(ctx, valueTypeID)
	if err != nil {
		return nil, err
	}

	err = checkPathID("value_type_id", in.ValueTypeID, valueTypeID)
	if err == nil {
		err = check(
			field{name: "name", value: in.Name, required: !partial, max: 50},
			field{name: "kind", value: in.Kind, required: !partial},
		)
	}
	if err != nil {
		return nil, err
	}

	valueType.Name = valueOr(in.Name, valueType.Name)
	if in.Kind != nil {
		if valueType.Kind, err = parseKind(*in.Kind); err != nil {
			return nil, err
		}
	}

	if err = s.db.UpdateValueType(ctx, valueType); err != nil {
		return nil, err
	}

	return valueType, nil
}

//DeleteValueType removes a value type that no tag uses. Only superusers may do this.
func (s *Service) DeleteValueType(ctx context.Context, p domain.Principal, valueTypeID string) error {
	if !p.Superuser {
		return fmt.Errorf("delete value type: %w", domain.ErrForbidden)
	}

	return s.db.DeleteValueType(ctx, valueTypeID)
}

func parseKind(name string) (string, error) {
	kind, err := values.ParseKind(name)
	if err != nil {
		return "", domain.NewValidationError("kind", fmt.Sprintf("%q is not a valid choice (string, integer, decimal, boolean).", name))
	}
	return kind.String(), nil
}
