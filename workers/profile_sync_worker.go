// workers/profile_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"plated-rewards/models"
	"plated-rewards/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RemoteProfile matches one entry of the profile service's change feed.
type RemoteProfile struct {
	ExternalID        string    `json:"external_id"`
	Username          string    `json:"username"`
	FirstName         *string   `json:"first_name,omitempty"`
	LastName          *string   `json:"last_name,omitempty"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProfileChangesResponse is the top-level structure of the feed response.
type ProfileChangesResponse struct {
	Users []RemoteProfile `json:"users"`
}

// SyncStats is the outcome of one feed poll.
type SyncStats struct {
	Received int
	Upserted int
	Failed   int
}

// ProfileSyncWorker mirrors usernames and avatars from the profile service into
// user_profiles so the cooked-it chain can be rendered locally.
type ProfileSyncWorker struct {
	db           *gorm.DB
	log          *zap.SugaredLogger
	interval     time.Duration
	baseURL      string // e.g. "http://localhost:8500"
	endpointPath string // e.g. "/api/v1/public/profiles"
	serviceToken string
	httpClient   *http.Client
}

func NewProfileSyncWorker(db *gorm.DB, log *zap.SugaredLogger, baseURL, endpointPath, serviceToken string) *ProfileSyncWorker {
	return &ProfileSyncWorker{
		db:           db,
		log:          utils.OrNop(log),
		interval:     1 * time.Minute,
		baseURL:      baseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient:   utils.HTTPClient,
	}
}

// WithInterval overrides the polling interval.
func (w *ProfileSyncWorker) WithInterval(d time.Duration) *ProfileSyncWorker {
	w.interval = d
	return w
}

// Start polls in a goroutine until ctx is cancelled.
func (w *ProfileSyncWorker) Start(ctx context.Context) {
	w.log.Infow("starting profile sync worker", "base_url", w.baseURL, "interval", w.interval)
	go w.run(ctx)
}

func (w *ProfileSyncWorker) run(ctx context.Context) {
	// Initial sync backfills from the beginning of time
	if _, err := w.SyncOnce(ctx, time.Time{}); err != nil {
		w.log.Warnw("initial profile sync failed", "error", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.SyncOnce(ctx, w.lastSyncTime(ctx)); err != nil {
				w.log.Errorw("profile sync batch failed", "error", err)
			}
		case <-ctx.Done():
			w.log.Info("profile sync worker stopped")
			return
		}
	}
}

// lastSyncTime is the newest updated_at in the local snapshot.
func (w *ProfileSyncWorker) lastSyncTime(ctx context.Context) time.Time {
	var latest models.UserProfile
	err := w.db.WithContext(ctx).Order("updated_at DESC").Limit(1).Find(&latest).Error
	if err != nil || latest.UpdatedAt.IsZero() {
		return time.Unix(0, 0)
	}
	return latest.UpdatedAt
}

func (w *ProfileSyncWorker) feedURL(since time.Time) (string, error) {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid sync service URL %q: %w", w.baseURL, err)
	}
	endpoint := base.JoinPath(w.endpointPath)
	q := endpoint.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpoint.RawQuery = q.Encode()
	return endpoint.String(), nil
}

// SyncOnce fetches profile changes since the given time and upserts them on
// external_user_id. Individual row failures are counted, not returned.
func (w *ProfileSyncWorker) SyncOnce(ctx context.Context, since time.Time) (SyncStats, error) {
	var stats SyncStats
	finalURL, err := w.feedURL(since)
	if err != nil {
		return stats, err
	}
	w.log.Debugw("fetching profile changes", "url", finalURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return stats, fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return stats, fmt.Errorf("HTTP request to sync service failed: %w", err)
	}
	defer func() {
		// drain & close to prevent connection leaks
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return stats, fmt.Errorf("sync service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var response ProfileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return stats, fmt.Errorf("failed to decode sync service response: %w", err)
	}
	stats.Received = len(response.Users)
	if stats.Received == 0 {
		return stats, nil
	}

	db := w.db.WithContext(ctx)
	for _, remote := range response.Users {
		if remote.ExternalID == "" {
			stats.Failed++
			continue
		}
		local := models.UserProfile{
			ExternalUserID:    remote.ExternalID,
			Username:          remote.Username,
			ProfilePictureURL: remote.ProfilePictureURL,
			FirstName:         remote.FirstName,
			LastName:          remote.LastName,
		}
		local.CreatedAt = remote.CreatedAt
		local.UpdatedAt = remote.UpdatedAt

		err := db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"username", "profile_picture_url", "first_name", "last_name", "updated_at",
			}),
		}).Create(&local).Error
		if err != nil {
			stats.Failed++
			w.log.Warnw("failed to upsert profile", "external_id", remote.ExternalID, "error", err)
			continue
		}
		stats.Upserted++
	}

	w.log.Infow("profiles synced", "received", stats.Received, "upserted", stats.Upserted, "failed", stats.Failed)
	return stats, nil
}
