package ownership

import (
	"testing"

	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/domain"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/repositories/models"
)

func newPoint(owner string) *models.DataPoint {
	device := models.Device{DeviceID: "dev1", Owner: owner}
	tag := models.Tag{TagID: "tag1", DeviceID: device.DeviceID, Device: device}
	return &models.DataPoint{ID: 1, TagID: tag.TagID, Tag: tag}
}

func TestThatOwnerOwnsTheWholeChain(t *testing.T) {
	alice := domain.Principal{Username: "alice"}
	point := newPoint("alice")

	if !IsDeviceOwner(alice, &point.Tag.Device) {
		t.Error("alice should own her device")
	}
	if !IsTagOwner(alice, &point.Tag) {
		t.Error("alice should own the tag on her device")
	}
	if !IsDataPointOwner(alice, point) {
		t.Error("alice should own the data point on her tag")
	}
}

func TestThatOtherPrincipalsOwnNothing(t *testing.T) {
	bob := domain.Principal{Username: "bob", Superuser: true}
	point := newPoint("alice")

	if IsDeviceOwner(bob, &point.Tag.Device) || IsTagOwner(bob, &point.Tag) || IsDataPointOwner(bob, point) {
		t.Error("bob must not own anything of alice's, superuser or not")
	}
}

func TestThatAnonymousPrincipalOwnsNothing(t *testing.T) {
	if IsDeviceOwner(domain.Principal{}, &models.Device{DeviceID: "dev1"}) {
		t.Error("an anonymous principal must not own a device without owner")
	}
}

func TestThatUnloadedAssociationsAreNotOwned(t *testing.T) {
	alice := domain.Principal{Username: "alice"}

	tag := &models.Tag{TagID: "tag1", DeviceID: "dev1"}
	if IsTagOwner(alice, tag) {
		t.Error("a tag without its device loaded must not be reported as owned")
	}

	point := &models.DataPoint{TagID: "tag1"}
	if IsDataPointOwner(alice, point) {
		t.Error("a data point without its tag loaded must not be reported as owned")
	}

	if IsDeviceOwner(alice, nil) || IsTagOwner(alice, nil) || IsDataPointOwner(alice, nil) {
		t.Error("nil entities must not be owned")
	}
}
