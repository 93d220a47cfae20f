package services

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/lchelper/hints_api/model"
)

type SqliteService struct {
	context.DefaultService
	db *gorm.DB

	database string
}

const SQLITE_SVC = "sqlite_svc"

// Id returns Service ID
func (ds SqliteService) Id() string {
	return SQLITE_SVC
}

// Db Access to raw SqliteService db
func (ds SqliteService) Db() *gorm.DB {
	return ds.db
}

// Configure the service
func (ds *SqliteService) Configure(ctx *context.Context) error {
	ds.database = os.Getenv("DB_DATABASE")
	if ds.database == "" {
		ds.database = "data/lchelper.db"
	}

	return ds.DefaultService.Configure(ctx)
}

// Start the service and open connection to the database
// Migrate any tables that have changed since last runtime
func (ds *SqliteService) Start() (err error) {
	dsn := ds.database
	if !strings.Contains(dsn, "?") {
		// WAL keeps concurrent readers off the writer's back. Write
		// transactions take the lock at BEGIN, so concurrent counter
		// increments queue on the busy handler instead of failing on a
		// mid-transaction snapshot upgrade.
		dsn += "?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"
	}

	ds.db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return err
	}

	models := []interface{}{
		&model.User{},
		&model.Subscription{},
		&model.RateLimitWindow{},
		&model.HintsCacheEntry{},
		&model.UsageRecord{},
		&model.Favorite{},
	}

	err = ds.db.AutoMigrate(models...)
	if err != nil {
		log.Printf("Failed to migrate database: %v", err)
		return err
	}

	log.Println("Database connected and migrated successfully")
	return nil
}

func (ds *SqliteService) Shutdown() {
}

func (ds *SqliteService) HandleError(err error) error {
	if err == nil {
		return nil
	}

	var statusCode int
	var errorType string

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		statusCode = http.StatusNotFound
		errorType = "NOT_FOUND"
	case errors.Is(err, gorm.ErrDuplicatedKey):
		statusCode = http.StatusConflict
		errorType = "CONFLICT"
	case errors.Is(err, gorm.ErrInvalidTransaction):
		statusCode = http.StatusInternalServerError
		errorType = "TRANSACTION_ERROR"
	default:
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			statusCode = http.StatusConflict
			errorType = "UNIQUE_CONSTRAINT"
		} else if strings.Contains(err.Error(), "no such table") {
			statusCode = http.StatusInternalServerError
			errorType = "SCHEMA_ERROR"
		} else {
			statusCode = http.StatusInternalServerError
			errorType = "INTERNAL_ERROR"
		}
	}

	logEntry := log.WithFields(log.Fields{
		"status_code": statusCode,
		"error_type":  errorType,
		"error":       err.Error(),
	})

	if statusCode >= 500 {
		logEntry.Error("Database error occurred")
	} else {
		logEntry.Warn("Database operation failed")
	}

	return fmt.Errorf("%s: %w", errorType, err)
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func newRowID() string {
	id, _ := uuid.NewV7()
	return id.String()
}

// ==================== USERS ====================

func (ds *SqliteService) CreateUser(user *model.User) (*model.User, error) {
	if user.ID == "" {
		user.ID = newRowID()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if err := ds.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (ds *SqliteService) GetUserByEmail(email string) (*model.User, error) {
	var user model.User
	err := ds.db.Where("email = ?", strings.ToLower(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (ds *SqliteService) GetUser(id string) (*model.User, error) {
	var user model.User
	err := ds.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (ds *SqliteService) TouchLastLogin(userID string) error {
	now := time.Now()
	return ds.db.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"last_login": now,
		"updated_at": now,
	}).Error
}

// ==================== SUBSCRIPTIONS ====================

func (ds *SqliteService) GetLatestSubscription(userID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := ds.db.Where("user_id = ?", userID).Order("created_at DESC").First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (ds *SqliteService) SaveSubscription(sub *model.Subscription) error {
	if sub.ID == "" {
		sub.ID = newRowID()
	}
	now := time.Now()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	return ds.db.Save(sub).Error
}

// ==================== RATE LIMIT COUNTER STORE ====================

// windowStartFor rounds down to the top of the hour so that concurrent
// first requests in the same hour collapse onto a single row.
func windowStartFor(now time.Time) time.Time {
	return now.Truncate(time.Hour)
}

// IncrementRequestCount atomically bumps the active window counter for
// (identifier, endpoint) and returns the post-increment value. Increments
// serialize through the transaction, so no two callers ever observe the
// same pre-increment count. Any storage error propagates to the caller,
// which must treat it as a denial.
func (ds *SqliteService) IncrementRequestCount(identifier, endpoint string, window time.Duration) (int, error) {
	var newCount int

	err := ds.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		var existing model.RateLimitWindow
		err := tx.Where("identifier = ? AND endpoint = ? AND window_end > ?", identifier, endpoint, now).
			Order("window_start DESC").
			First(&existing).Error
		if err == nil {
			newCount, err = incrementWindowRow(tx, existing.ID, now)
			return err
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		fresh := model.RateLimitWindow{
			ID:           newRowID(),
			Identifier:   identifier,
			Endpoint:     endpoint,
			RequestCount: 1,
			WindowStart:  windowStartFor(now),
			WindowEnd:    now.Add(window),
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		insertErr := tx.Create(&fresh).Error
		if insertErr == nil {
			newCount = 1
			return nil
		}
		if !isUniqueViolation(insertErr) {
			return insertErr
		}

		// A concurrent inserter won the uniqueness race on the rounded
		// window_start. Retry once against the winning row, but only a
		// row whose window is still open counts as a winner.
		var winner model.RateLimitWindow
		err = tx.Where("identifier = ? AND endpoint = ? AND window_start = ? AND window_end > ?",
			identifier, endpoint, fresh.WindowStart, now).First(&winner).Error
		if err == nil {
			newCount, err = incrementWindowRow(tx, winner.ID, now)
			return err
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// The colliding row is an expired window still parked on the same
		// rounded window_start. Reuse it as the fresh window rather than
		// counting against its dead total.
		reset := tx.Model(&model.RateLimitWindow{}).
			Where("identifier = ? AND endpoint = ? AND window_start = ? AND window_end <= ?",
				identifier, endpoint, fresh.WindowStart, now).
			Updates(map[string]interface{}{
				"request_count": 1,
				"window_end":    fresh.WindowEnd,
				"created_at":    now,
				"updated_at":    now,
			})
		if reset.Error != nil {
			return reset.Error
		}
		if reset.RowsAffected == 0 {
			return insertErr
		}
		newCount = 1
		return nil
	})

	return newCount, err
}

func incrementWindowRow(tx *gorm.DB, rowID string, now time.Time) (int, error) {
	err := tx.Model(&model.RateLimitWindow{}).Where("id = ?", rowID).Updates(map[string]interface{}{
		"request_count": gorm.Expr("request_count + 1"),
		"updated_at":    now,
	}).Error
	if err != nil {
		return 0, err
	}

	var count int
	err = tx.Model(&model.RateLimitWindow{}).Where("id = ?", rowID).
		Select("request_count").
		Scan(&count).Error
	return count, err
}

// CurrentRequestCount sums all active windows for the pair. Rounded
// window_start values can leave more than one live row near a rollover;
// summing keeps the count honest across them.
func (ds *SqliteService) CurrentRequestCount(identifier, endpoint string) (int, error) {
	var total *int
	err := ds.db.Model(&model.RateLimitWindow{}).
		Where("identifier = ? AND endpoint = ? AND window_end > ?", identifier, endpoint, time.Now()).
		Select("SUM(request_count)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// RollbackRequestCount undoes one increment on the newest active window.
// Best effort only: the caller has already denied the request.
func (ds *SqliteService) RollbackRequestCount(identifier, endpoint string) error {
	var latest model.RateLimitWindow
	err := ds.db.Where("identifier = ? AND endpoint = ? AND window_end > ?", identifier, endpoint, time.Now()).
		Order("window_start DESC").
		First(&latest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	return ds.db.Model(&model.RateLimitWindow{}).
		Where("id = ? AND request_count > 0", latest.ID).
		Update("request_count", gorm.Expr("request_count - 1")).Error
}

// CleanupExpiredWindows drops rows whose window fully ended more than a
// day ago, keeping them clear of any still-active increment.
func (ds *SqliteService) CleanupExpiredWindows() (int64, error) {
	cutoff := time.Now().Add(-24 * time.Hour)
	result := ds.db.Where("window_end < ?", cutoff).Delete(&model.RateLimitWindow{})
	return result.RowsAffected, result.Error
}

func (ds *SqliteService) CountActiveWindows() (int64, error) {
	var count int64
	err := ds.db.Model(&model.RateLimitWindow{}).
		Where("window_end > ?", time.Now()).
		Count(&count).Error
	return count, err
}

func (ds *SqliteService) DeleteRateLimit(identifier, endpoint string) error {
	return ds.db.Where("identifier = ? AND endpoint = ?", identifier, endpoint).
		Delete(&model.RateLimitWindow{}).Error
}

// ==================== HINTS CACHE ====================

func (ds *SqliteService) GetHintsCacheEntry(cacheKey string) (*model.HintsCacheEntry, error) {
	var entry model.HintsCacheEntry
	err := ds.db.Where("cache_key = ?", cacheKey).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// UpsertHintsCacheEntry replaces an existing entry for the key in place.
func (ds *SqliteService) UpsertHintsCacheEntry(cacheKey, data string) error {
	entry := model.HintsCacheEntry{
		CacheKey:  cacheKey,
		HintsData: data,
		CreatedAt: time.Now(),
	}

	return ds.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"hints_data", "created_at"}),
	}).Create(&entry).Error
}

func (ds *SqliteService) CleanupStaleHints(olderThan time.Time) (int64, error) {
	result := ds.db.Where("created_at < ?", olderThan).Delete(&model.HintsCacheEntry{})
	return result.RowsAffected, result.Error
}

func (ds *SqliteService) HintsCacheStats() (count int64, bytes int64, err error) {
	if err = ds.db.Model(&model.HintsCacheEntry{}).Count(&count).Error; err != nil {
		return 0, 0, err
	}

	var size *int64
	err = ds.db.Model(&model.HintsCacheEntry{}).
		Select("SUM(LENGTH(hints_data))").
		Scan(&size).Error
	if err != nil {
		return 0, 0, err
	}
	if size != nil {
		bytes = *size
	}
	return count, bytes, nil
}

// ==================== USAGE TRACKING ====================

func (ds *SqliteService) RecordUsage(record *model.UsageRecord) error {
	if record.ID == "" {
		record.ID = newRowID()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	return ds.db.Create(record).Error
}

func (ds *SqliteService) DailyUsageByEndpoint(userID string, day time.Time) (map[string]int64, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	type row struct {
		Endpoint string
		Count    int64
	}
	var rows []row
	err := ds.db.Model(&model.UsageRecord{}).
		Select("endpoint, COUNT(*) as count").
		Where("user_id = ? AND timestamp >= ? AND timestamp < ?", userID, start, end).
		Group("endpoint").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	usage := make(map[string]int64, len(rows))
	for _, r := range rows {
		usage[r.Endpoint] = r.Count
	}
	return usage, nil
}

func (ds *SqliteService) MonthlyUsageByDay(userID string, year int, month time.Month) ([]struct {
	Date  string
	Count int64
}, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var rows []struct {
		Date  string
		Count int64
	}
	err := ds.db.Model(&model.UsageRecord{}).
		Select("DATE(timestamp) as date, COUNT(*) as count").
		Where("user_id = ? AND timestamp >= ? AND timestamp < ?", userID, start, end).
		Group("DATE(timestamp)").
		Order("date").
		Scan(&rows).Error
	return rows, err
}

func (ds *SqliteService) CountUsageSince(since time.Time) (int64, error) {
	var count int64
	err := ds.db.Model(&model.UsageRecord{}).
		Where("timestamp >= ?", since).
		Count(&count).Error
	return count, err
}

// ==================== FAVORITES ====================

func (ds *SqliteService) ListFavorites(userID string) ([]model.Favorite, error) {
	var favorites []model.Favorite
	err := ds.db.Where("user_id = ?", userID).Order("added_at DESC").Find(&favorites).Error
	return favorites, err
}

func (ds *SqliteService) SaveFavorite(favorite *model.Favorite) error {
	if favorite.ID == "" {
		favorite.ID = newRowID()
	}
	now := time.Now()
	if favorite.AddedAt.IsZero() {
		favorite.AddedAt = now
	}
	favorite.UpdatedAt = now

	return ds.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "problem_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"url", "title", "platform", "difficulty", "updated_at"}),
	}).Create(favorite).Error
}

func (ds *SqliteService) DeleteFavorite(userID, problemID string) error {
	return ds.db.Where("user_id = ? AND problem_id = ?", userID, problemID).
		Delete(&model.Favorite{}).Error
}

func (ds *SqliteService) CountFavorites(userID string) (int64, error) {
	var count int64
	err := ds.db.Model(&model.Favorite{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (ds *SqliteService) HasFavorite(userID, problemID string) (bool, error) {
	var count int64
	err := ds.db.Model(&model.Favorite{}).
		Where("user_id = ? AND problem_id = ?", userID, problemID).
		Count(&count).Error
	return count > 0, err
}

// ==================== ADMIN METRICS ====================

func (ds *SqliteService) CountUsers() (int64, error) {
	var count int64
	err := ds.db.Model(&model.User{}).Count(&count).Error
	return count, err
}

func (ds *SqliteService) CountSubscriptionsByTier() (map[string]int64, error) {
	type row struct {
		Tier  string
		Count int64
	}
	var rows []row
	err := ds.db.Model(&model.Subscription{}).
		Select("tier, COUNT(*) as count").
		Where("status = ?", "active").
		Group("tier").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Tier] = r.Count
	}
	return counts, nil
}
