package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/domain"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/config"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/logging"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/repositories/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

//Datastore is an interface that is used to inject the database into different handlers to improve testability
type Datastore interface {
	CreateDevice(ctx context.Context, device *models.Device) error
	GetDeviceFromID(ctx context.Context, deviceID string) (*models.Device, error)
	GetDevices(ctx context.Context, owner string, withTags bool) ([]models.Device, error)
	UpdateDevice(ctx context.Context, device *models.Device) error
	DeleteDevice(ctx context.Context, deviceID string) error

	CreateValueType(ctx context.Context, valueType *models.ValueType) error
	GetValueTypeFromID(ctx context.Context, valueTypeID string) (*models.ValueType, error)
	GetValueTypes(ctx context.Context) ([]models.ValueType, error)
	UpdateValueType(ctx context.Context, valueType *models.ValueType) error
	DeleteValueType(ctx context.Context, valueTypeID string) error

	CreateTag(ctx context.Context, tag *models.Tag) error
	GetTagFromID(ctx context.Context, tagID string) (*models.Tag, error)
	GetTags(ctx context.Context, owner string) ([]models.Tag, error)
	UpdateTag(ctx context.Context, tag *models.Tag) error
	DeleteTag(ctx context.Context, tagID string) error

	CreateDataPoint(ctx context.Context, point *models.DataPoint) error
	QueryDataPoints(ctx context.Context, query DataPointQuery) ([]models.DataPoint, error)
}

//DataPointQuery selects data points owned by Owner, optionally restricted to a single tag
//and a time window. An inclusive bound takes precedence over the exclusive bound on the
//same side of the window.
type DataPointQuery struct {
	Owner      string
	TagID      string
	Begin      *time.Time
	After      *time.Time
	End        *time.Time
	Before     *time.Time
	Limit      int
	Descending bool
}

type myDB struct {
	impl *gorm.DB
	log  logging.Logger
}

//ConnectorFunc is used to inject a database connection method into NewDatabaseConnection
type ConnectorFunc func() (*gorm.DB, error)

const connectAttempts = 10

//NewPostgreSQLConnector opens a connection to a postgresql database
func NewPostgreSQLConnector(log logging.Logger, cfg config.DatabaseConfig) ConnectorFunc {
	dbURI := fmt.Sprintf("host=%s user=%s dbname=%s sslmode=%s password=%s", cfg.Host, cfg.User, cfg.Name, cfg.SSLMode, cfg.Password)

	return func() (*gorm.DB, error) {
		var err error

		for attempt := 1; attempt <= connectAttempts; attempt++ {
			log.Infof("Connecting to database host %s ...", cfg.Host)

			var db *gorm.DB
			db, err = gorm.Open(postgres.Open(dbURI), &gorm.Config{
				Logger:         logger.Default.LogMode(logger.Warn),
				TranslateError: true,
			})
			if err == nil {
				return db, configurePool(db, cfg)
			}

			log.Errorf("Failed to connect to database (attempt %d/%d): %s", attempt, connectAttempts, err.Error())
			time.Sleep(3 * time.Second)
		}

		return nil, fmt.Errorf("failed to connect to database host %s: %w", cfg.Host, err)
	}
}

//NewSQLiteConnector opens a connection to a sqlite database. An empty path opens a
//private in-memory database, which is limited to a single connection.
func NewSQLiteConnector(path string) ConnectorFunc {
	return func() (*gorm.DB, error) {
		dsn := path
		if dsn == "" {
			dsn = "file::memory:"
		}

		if strings.Contains(dsn, "?") {
			dsn += "&_foreign_keys=1"
		} else {
			dsn += "?_foreign_keys=1"
		}

		db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		if err != nil {
			return nil, err
		}

		if path == "" {
			sqlDB, err := db.DB()
			if err != nil {
				return nil, err
			}
			sqlDB.SetMaxOpenConns(1)
		}

		if err = db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, err
		}

		return db, nil
	}
}

func configurePool(db *gorm.DB, cfg config.DatabaseConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return nil
}

//NewDatabaseConnection initializes a new connection to the database and wraps it in a Datastore
func NewDatabaseConnection(connect ConnectorFunc, log logging.Logger) (Datastore, error) {
	impl, err := connect()
	if err != nil {
		return nil, err
	}

	db := &myDB{
		impl: impl,
		log:  log,
	}

	err = db.impl.AutoMigrate(&models.Device{}, &models.ValueType{}, &models.Tag{}, &models.DataPoint{})
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}

	// Make sure that the value types table is properly seeded
	defaultValueTypes := []models.ValueType{
		{ValueTypeID: "string", Name: "Alphanumeric text", Kind: "string"},
		{ValueTypeID: "dec", Name: "Decimal number", Kind: "decimal"},
		{ValueTypeID: "int", Name: "Integer", Kind: "integer"},
		{ValueTypeID: "bool", Name: "Boolean", Kind: "boolean"},
	}

	for _, vt := range defaultValueTypes {
		existing := models.ValueType{}

		result := db.impl.Where("value_type_id = ?", vt.ValueTypeID).Limit(1).Find(&existing)
		if result.Error != nil {
			return nil, result.Error
		}

		if result.RowsAffected == 0 {
			log.Infof("ValueType %s not found in database. Creating ...", vt.ValueTypeID)

			seed := vt
			result = db.impl.Create(&seed)
			if result.Error != nil {
				log.Errorf("Failed to seed ValueType into database %s", result.Error.Error())
				return nil, result.Error
			}
		}
	}

	return db, nil
}

func (db *myDB) CreateDevice(ctx context.Context, device *models.Device) error {
	return db.impl.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureAbsent(tx, &models.Device{}, "device_id", device.DeviceID); err != nil {
			return err
		}
		return translate(tx.Omit(clause.Associations).Create(device).Error, "device_id")
	})
}

func (db *myDB) GetDeviceFromID(ctx context.Context, deviceID string) (*models.Device, error) {
	device := &models.Device{}

	err := db.impl.WithContext(ctx).Preload("Tags", orderTags).First(device, "device_id = ?", deviceID).Error
	if err != nil {
		return nil, notFound(err, "device %s", deviceID)
	}

	return device, nil
}

func (db *myDB) GetDevices(ctx context.Context, owner string, withTags bool) ([]models.Device, error) {
	devices := []models.Device{}

	query := db.impl.WithContext(ctx).Where("owner = ?", owner).Order("device_id")
	if withTags {
		query = query.Preload("Tags", orderTags)
	}

	err := query.Find(&devices).Error
	return devices, err
}

func (db *myDB) UpdateDevice(ctx context.Context, device *models.Device) error {
	result := db.impl.WithContext(ctx).Model(&models.Device{DeviceID: device.DeviceID}).
		Omit(clause.Associations).
		Select("name", "description", "type", "updated_at").
		Updates(device)
	if result.Error != nil {
		return translate(result.Error, "device_id")
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundf("device %s", device.DeviceID)
	}
	return nil
}

func (db *myDB) DeleteDevice(ctx context.Context, deviceID string) error {
	return db.impl.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNoDependents(tx, &models.Tag{}, "device_id", deviceID, "device %s has tags", deviceID); err != nil {
			db.log.Warnf("Refusing to delete device %s: %s", deviceID, err.Error())
			return err
		}
		return deleteByID(tx, &models.Device{}, "device_id", deviceID, "device %s", deviceID)
	})
}

func (db *myDB) CreateValueType(ctx context.Context, valueType *models.ValueType) error {
	return db.impl.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureAbsent(tx, &models.ValueType{}, "value_type_id", valueType.ValueTypeID); err != nil {
			return err
		}
		return translate(tx.Create(valueType).Error, "value_type_id")
	})
}

func (db *myDB) GetValueTypeFromID(ctx context.Context, valueTypeID string) (*models.ValueType, error) {
	valueType := &models.ValueType{}

	err := db.impl.WithContext(ctx).First(valueType, "value_type_id = ?", valueTypeID).Error
	if err != nil {
		return nil, notFound(err, "value type %s", valueTypeID)
	}

	return valueType, nil
}

func (db *myDB) GetValueTypes(ctx context.Context) ([]models.ValueType, error) {
	valueTypes := []models.ValueType{}
	err := db.impl.WithContext(ctx).Order("value_type_id").Find(&valueTypes).Error
	return valueTypes, err
}

func (db *myDB) UpdateValueType(ctx context.Context, valueType *models.ValueType) error {
	return db.impl.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing := &models.ValueType{}
		if err := tx.First(existing, "value_type_id = ?", valueType.ValueTypeID).Error; err != nil {
			return notFound(err, "value type %s", valueType.ValueTypeID)
		}

		if existing.Kind != valueType.Kind {
			err := ensureNoDependents(tx, &models.Tag{}, "value_type_id", valueType.ValueTypeID, "value type %s is used by tags and cannot change kind", valueType.ValueTypeID)
			if err != nil {
				return err
			}
		}

		result := tx.Model(existing).Select("name", "kind", "updated_at").Updates(valueType)
		return translate(result.Error, "value_type_id")
	})
}

func (db *myDB) DeleteValueType(ctx context.Context, valueTypeID string) error {
	return db.impl.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNoDependents(tx, &models.Tag{}, "value_type_id", valueTypeID, "value type %s is used by tags", valueTypeID); err != nil {
			return err
		}
		return deleteByID(tx, &models.ValueType{}, "value_type_id", valueTypeID, "value type %s", valueTypeID)
	})
}

func (db *myDB) CreateTag(ctx context.Context, tag *models.Tag) error {
	return db.impl.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureAbsent(tx, &models.Tag{}, "tag_id", tag.TagID); err != nil {
			return err
		}
		return translate(tx.Omit(clause.Associations).Create(tag).Error, "tag_id")
	})
}

func (db *myDB) GetTagFromID(ctx context.Context, tagID string) (*models.Tag, error) {
	tag := &models.Tag{}

	err := db.impl.WithContext(ctx).Preload("Device").Preload("ValueType").First(tag, "tag_id = ?", tagID).Error
	if err != nil {
		return nil, notFound(err, "tag %s", tagID)
	}

	return tag, nil
}

func (db *myDB) GetTags(ctx context.Context, owner string) ([]models.Tag, error) {
	tags := []models.Tag{}

	err := db.impl.WithContext(ctx).
		Joins("JOIN devices ON devices.device_id = tags.device_id").
		Where("devices.owner = ?", owner).
		Preload("Device").Preload("ValueType").
		Order("tags.device_id").Order("tags.tag_id").
		Find(&tags).Error

	return tags, err
}

func (db *myDB) UpdateTag(ctx context.Context, tag *models.Tag) error {
	return db.impl.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing := &models.Tag{}
		if err := tx.First(existing, "tag_id = ?", tag.TagID).Error; err != nil {
			return notFound(err, "tag %s", tag.TagID)
		}

		if existing.ValueTypeID != tag.ValueTypeID {
			err := ensureNoDependents(tx, &models.DataPoint{}, "tag_id", tag.TagID, "tag %s has data points and cannot change value type", tag.TagID)
			if err != nil {
				return err
			}
		}

		result := tx.Model(existing).
			Omit(clause.Associations).
			Select("device_id", "value_type_id", "name", "description", "updated_at").
			Updates(tag)
		return translate(result.Error, "tag_id")
	})
}

func (db *myDB) DeleteTag(ctx context.Context, tagID string) error {
	return db.impl.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNoDependents(tx, &models.DataPoint{}, "tag_id", tagID, "tag %s has data points", tagID); err != nil {
			return err
		}
		return deleteByID(tx, &models.Tag{}, "tag_id", tagID, "tag %s", tagID)
	})
}

func (db *myDB) CreateDataPoint(ctx context.Context, point *models.DataPoint) error {
	return translate(db.impl.WithContext(ctx).Omit(clause.Associations).Create(point).Error, "id")
}

func (db *myDB) QueryDataPoints(ctx context.Context, q DataPointQuery) ([]models.DataPoint, error) {
	points := []models.DataPoint{}

	if q.Limit <= 0 {
		return points, nil
	}

	query := db.impl.WithContext(ctx).
		Joins("JOIN tags ON tags.tag_id = data_points.tag_id").
		Joins("JOIN devices ON devices.device_id = tags.device_id").
		Where("devices.owner = ?", q.Owner)

	if q.TagID != "" {
		query = query.Where("data_points.tag_id = ?", q.TagID)
	}

	if q.Begin != nil {
		query = query.Where("data_points.timestamp >= ?", q.Begin.UTC())
	} else if q.After != nil {
		query = query.Where("data_points.timestamp > ?", q.After.UTC())
	}

	if q.End != nil {
		query = query.Where("data_points.timestamp <= ?", q.End.UTC())
	} else if q.Before != nil {
		query = query.Where("data_points.timestamp < ?", q.Before.UTC())
	}

	if q.Descending {
		query = query.Order("data_points.timestamp DESC").Order("data_points.id DESC")
	} else {
		query = query.Order("data_points.timestamp ASC").Order("data_points.id ASC")
	}

	err := query.Preload("Tag.Device").Preload("Tag.ValueType").Limit(q.Limit).Find(&points).Error
	if err != nil {
		db.log.Errorf("Failed to query data points for %s: %s", q.Owner, err.Error())
		return nil, err
	}

	return points, nil
}

func orderTags(db *gorm.DB) *gorm.DB {
	return db.Order("tags.tag_id")
}

func ensureAbsent(tx *gorm.DB, model interface{}, column, id string) error {
	var count int64

	if err := tx.Model(model).Where(column+" = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return domain.NewValidationError(column, fmt.Sprintf("%s already exists.", id))
	}

	return nil
}

func ensureNoDependents(tx *gorm.DB, dependent interface{}, column, id, format string, args ...interface{}) error {
	var count int64

	if err := tx.Model(dependent).Where(column+" = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return domain.IntegrityViolationf(format, args...)
	}

	return nil
}

func deleteByID(tx *gorm.DB, model interface{}, column, id, format string, args ...interface{}) error {
	result := tx.Where(column+" = ?", id).Delete(model)
	if result.Error != nil {
		return translate(result.Error, column)
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundf(format, args...)
	}
	return nil
}

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFoundf(format, args...)
	}
	return err
}

//translate maps constraint errors reported by the database onto domain errors,
//attributing duplicated keys to idColumn
func translate(err error, idColumn string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s: %w", err.Error(), domain.ErrIntegrityViolation)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.NewValidationError(idColumn, "already exists.")
	default:
		return err
	}
}
