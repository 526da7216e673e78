package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ignite/adlens/internal/pkg/httputil"
	"github.com/redis/go-redis/v9"
)

const (
	statusUp       = "up"
	statusDown     = "down"
	statusDegraded = "degraded"

	notConfigured = "not configured"

	// backlogDegraded is the overdue-connection count at which the sync
	// check reports degraded.
	backlogDegraded = 100
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status string                    `json:"status"` // healthy, degraded, unhealthy
	Uptime string                    `json:"uptime"`
	Checks map[string]ComponentCheck `json:"checks"`
}

// ComponentCheck is the result of probing one dependency.
type ComponentCheck struct {
	Status  string `json:"status"` // up, down, degraded
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// BucketHeader is the S3 call used to probe the report archive bucket.
type BucketHeader interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// HealthChecker probes PostgreSQL, Redis, the report bucket and the sync
// backlog. Nil dependencies are reported as not configured.
type HealthChecker struct {
	db           *sql.DB
	redisClient  *redis.Client
	bucket       BucketHeader
	bucketName   string
	syncInterval time.Duration
	startTime    time.Time
}

// NewHealthChecker creates a HealthChecker. syncInterval is the scheduler
// period; connections not synced for twice that long count as overdue.
func NewHealthChecker(db *sql.DB, redisClient *redis.Client, bucket BucketHeader, bucketName string, syncInterval time.Duration) *HealthChecker {
	if syncInterval <= 0 {
		syncInterval = time.Hour
	}
	return &HealthChecker{
		db:           db,
		redisClient:  redisClient,
		bucket:       bucket,
		bucketName:   bucketName,
		syncInterval: syncInterval,
		startTime:    time.Now(),
	}
}

// HandleHealth always answers 200; the body carries the aggregate status.
//
//	GET /health
func (hc *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := hc.runAllChecks(r.Context())
	httputil.OK(w, HealthStatus{
		Status: determineOverallStatus(checks),
		Uptime: formatUptime(time.Since(hc.startTime)),
		Checks: checks,
	})
}

// HandleLiveness answers 200 while the process is serving.
//
//	GET /health/live
func (hc *HealthChecker) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{
		"status": "alive",
		"uptime": formatUptime(time.Since(hc.startTime)),
	})
}

// HandleReadiness answers 503 when the database is unreachable.
//
//	GET /health/ready
func (hc *HealthChecker) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	checks := hc.runAllChecks(r.Context())
	overall := determineOverallStatus(checks)

	code := http.StatusOK
	if overall == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	httputil.JSON(w, code, map[string]interface{}{
		"ready":  overall != "unhealthy",
		"status": overall,
		"checks": checks,
	})
}

type namedCheck struct {
	name  string
	check ComponentCheck
}

func (hc *HealthChecker) runAllChecks(ctx context.Context) map[string]ComponentCheck {
	probes := map[string]func(context.Context) ComponentCheck{
		"database": hc.checkDatabase,
		"redis":    hc.checkRedis,
		"s3":       hc.checkBucket,
		"sync":     hc.checkSyncBacklog,
	}

	ch := make(chan namedCheck, len(probes))
	for name, fn := range probes {
		go func(name string, fn func(context.Context) ComponentCheck) {
			ch <- namedCheck{name, fn(ctx)}
		}(name, fn)
	}

	checks := make(map[string]ComponentCheck, len(probes))
	for range probes {
		c := <-ch
		checks[c.name] = c.check
	}
	return checks
}

// probe runs fn under timeout. A call slower than slow is degraded.
func probe(ctx context.Context, timeout, slow time.Duration, fn func(context.Context) (string, error)) ComponentCheck {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	msg, err := fn(ctx)
	latency := time.Since(start)

	if err != nil {
		return ComponentCheck{Status: statusDown, Latency: latency.String(), Message: err.Error()}
	}
	if slow > 0 && latency > slow {
		return ComponentCheck{Status: statusDegraded, Latency: latency.String(), Message: fmt.Sprintf("slow response (%s)", latency)}
	}
	return ComponentCheck{Status: statusUp, Latency: latency.String(), Message: msg}
}

func (hc *HealthChecker) checkDatabase(ctx context.Context) ComponentCheck {
	if hc.db == nil {
		return ComponentCheck{Status: statusDown, Message: notConfigured}
	}
	return probe(ctx, 3*time.Second, time.Second, func(ctx context.Context) (string, error) {
		if err := hc.db.PingContext(ctx); err != nil {
			return "", fmt.Errorf("ping failed: %w", err)
		}
		return "connected", nil
	})
}

func (hc *HealthChecker) checkRedis(ctx context.Context) ComponentCheck {
	if hc.redisClient == nil {
		return ComponentCheck{Status: statusDown, Message: notConfigured}
	}
	return probe(ctx, 2*time.Second, 500*time.Millisecond, func(ctx context.Context) (string, error) {
		if err := hc.redisClient.Ping(ctx).Err(); err != nil {
			return "", fmt.Errorf("ping failed: %w", err)
		}
		return "connected", nil
	})
}

// checkBucket reports up without a bucket because reports then live in
// the report_blobs table.
func (hc *HealthChecker) checkBucket(ctx context.Context) ComponentCheck {
	if hc.bucket == nil || hc.bucketName == "" {
		return ComponentCheck{Status: statusUp, Message: "not configured; reports stored in database"}
	}
	return probe(ctx, 3*time.Second, 0, func(ctx context.Context) (string, error) {
		if _, err := hc.bucket.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &hc.bucketName}); err != nil {
			return "", fmt.Errorf("HeadBucket failed: %w", err)
		}
		return fmt.Sprintf("bucket %q accessible", hc.bucketName), nil
	})
}

// checkSyncBacklog counts connected platforms whose last sync is older
// than twice the sync interval.
func (hc *HealthChecker) checkSyncBacklog(ctx context.Context) ComponentCheck {
	if hc.db == nil {
		return ComponentCheck{Status: statusDown, Message: notConfigured}
	}
	var overdue int
	c := probe(ctx, 3*time.Second, 0, func(ctx context.Context) (string, error) {
		err := hc.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM platform_connections
			 WHERE status = 'connected'
			   AND (last_synced_at IS NULL OR last_synced_at < $1)`,
			time.Now().UTC().Add(-2*hc.syncInterval),
		).Scan(&overdue)
		if err != nil {
			return "", fmt.Errorf("backlog query failed: %w", err)
		}
		return fmt.Sprintf("%d connections overdue", overdue), nil
	})
	switch {
	case c.Status == statusDown:
		// the database check already reports outages
		c.Status = statusDegraded
	case overdue > backlogDegraded:
		c.Status = statusDegraded
		c.Message = fmt.Sprintf("high sync backlog: %d connections overdue", overdue)
	}
	return c
}

// determineOverallStatus is unhealthy when a configured database is down,
// degraded when anything else is degraded or down, healthy otherwise.
func determineOverallStatus(checks map[string]ComponentCheck) string {
	if db, ok := checks["database"]; ok && db.Status == statusDown && db.Message != notConfigured {
		return "unhealthy"
	}
	for _, c := range checks {
		if c.Status == statusDegraded {
			return "degraded"
		}
		if c.Status == statusDown && c.Message != notConfigured {
			return "degraded"
		}
	}
	return "healthy"
}

func formatUptime(d time.Duration) string {
	d = d.Truncate(time.Second)
	if days := int(d.Hours()) / 24; days > 0 {
		return fmt.Sprintf("%dd%s", days, (d - time.Duration(days)*24*time.Hour).String())
	}
	return d.String()
}
