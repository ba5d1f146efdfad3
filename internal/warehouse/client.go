// Package warehouse provides read-only connectivity to the MS SQL Server
// asset catalog. It resolves part numbers to catalog type/model data used to
// enrich equipment extracted from delivery note documents.
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb" // MS SQL Server driver
	"github.com/rackwise/receiving-api/internal/config"
	"go.uber.org/zap"
)

const (
	// Retry configuration for connection attempts
	defaultMaxRetries     = 3
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 10 * time.Second
	defaultBackoffFactor  = 2.0

	defaultHealthCheckTimeout = 5 * time.Second
)

// ErrPartNotFound is returned when a part number has no catalog entry
var ErrPartNotFound = errors.New("part not found in catalog")

// Part is a catalog entry for a hardware part number
type Part struct {
	PartNumber   string `json:"partNumber"`
	Type         string `json:"type"`
	Model        string `json:"model"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Description  string `json:"description,omitempty"`
}

// Client provides read-only access to the MS SQL Server part catalog.
// A nil client is valid and reports itself as disabled.
type Client struct {
	db           *sql.DB
	config       *config.WarehouseConfig
	logger       *zap.Logger
	queryTimeout time.Duration
}

// HealthStatus represents the health check result for the catalog connection
type HealthStatus struct {
	Status     string        `json:"status"`
	Latency    time.Duration `json:"latency_ms"`
	Error      string        `json:"error,omitempty"`
	MaxOpen    int           `json:"max_open_connections"`
	Open       int           `json:"open_connections"`
	InUse      int           `json:"in_use"`
	Idle       int           `json:"idle"`
	WaitCount  int64         `json:"wait_count"`
	WaitTimeMs int64         `json:"wait_time_ms"`
}

// NewClient creates a new part catalog client with the given configuration.
// Returns nil if the catalog is not enabled or not configured. The client
// establishes a connection pool with retry logic for transient failures.
func NewClient(cfg *config.WarehouseConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("Part catalog connection disabled")
		return nil, nil
	}

	if cfg.URL == "" || cfg.User == "" || cfg.Password == "" {
		logger.Warn("Part catalog enabled but missing credentials, skipping connection",
			zap.Bool("url_present", cfg.URL != ""),
			zap.Bool("user_present", cfg.User != ""),
			zap.Bool("password_present", cfg.Password != ""),
		)
		return nil, nil
	}

	logger.Info("Initializing part catalog connection",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
		zap.Int("conn_max_lifetime_seconds", cfg.ConnMaxLifetime),
		zap.Int("query_timeout_seconds", cfg.QueryTimeout),
	)

	connStr, err := buildConnectionString(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	var db *sql.DB
	backoff := defaultInitialBackoff

	for attempt := 1; attempt <= defaultMaxRetries; attempt++ {
		logger.Info("Attempting part catalog connection",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", defaultMaxRetries),
		)

		db, err = sql.Open("sqlserver", connStr)
		if err != nil {
			logger.Warn("Failed to open part catalog connection",
				zap.Error(err),
				zap.Int("attempt", attempt),
			)
			if attempt < defaultMaxRetries {
				time.Sleep(backoff)
				backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
			}
			continue
		}

		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

		ctx, cancel := context.WithTimeout(context.Background(), defaultHealthCheckTimeout)
		err = db.PingContext(ctx)
		cancel()

		if err != nil {
			logger.Warn("Part catalog ping failed",
				zap.Error(err),
				zap.Int("attempt", attempt),
			)
			_ = db.Close()
			if attempt < defaultMaxRetries {
				time.Sleep(backoff)
				backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
			}
			continue
		}

		logger.Info("Part catalog connection established successfully",
			zap.Int("attempts_taken", attempt),
		)

		return &Client{
			db:           db,
			config:       cfg,
			logger:       logger,
			queryTimeout: cfg.QueryTimeoutDuration(),
		}, nil
	}

	return nil, fmt.Errorf("failed to connect to part catalog after %d attempts: %w", defaultMaxRetries, err)
}

// buildConnectionString constructs a SQL Server connection string from the
// config. URL format expected: host:port/database or host:port.
func buildConnectionString(cfg *config.WarehouseConfig) (string, error) {
	urlParts := strings.SplitN(cfg.URL, "/", 2)
	hostPort := urlParts[0]
	database := ""
	if len(urlParts) > 1 {
		database = urlParts[1]
	}

	hostParts := strings.SplitN(hostPort, ":", 2)
	host := hostParts[0]
	port := "1433" // Default SQL Server port
	if len(hostParts) > 1 {
		port = hostParts[1]
	}

	query := url.Values{}
	query.Add("encrypt", "true")
	query.Add("TrustServerCertificate", "false")
	query.Add("connection timeout", "30")
	if database != "" {
		query.Add("database", database)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%s", host, port),
		RawQuery: query.Encode(),
	}

	return u.String(), nil
}

// Close gracefully closes the catalog connection.
// Should be called during application shutdown.
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}

	c.logger.Info("Closing part catalog connection")

	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close part catalog connection", zap.Error(err))
		return fmt.Errorf("failed to close part catalog connection: %w", err)
	}

	c.logger.Info("Part catalog connection closed successfully")
	return nil
}

// IsEnabled returns true if the client is initialized and ready for queries.
func (c *Client) IsEnabled() bool {
	return c != nil && c.db != nil
}

// HealthCheck performs a health check on the catalog connection.
// Returns detailed status including connection pool statistics.
func (c *Client) HealthCheck(ctx context.Context) *HealthStatus {
	if c == nil || c.db == nil {
		return &HealthStatus{
			Status: "disabled",
		}
	}

	start := time.Now()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultHealthCheckTimeout)
		defer cancel()
	}

	err := c.db.PingContext(ctx)
	latency := time.Since(start)

	stats := c.db.Stats()
	status := &HealthStatus{
		Latency:    latency,
		MaxOpen:    stats.MaxOpenConnections,
		Open:       stats.OpenConnections,
		InUse:      stats.InUse,
		Idle:       stats.Idle,
		WaitCount:  stats.WaitCount,
		WaitTimeMs: stats.WaitDuration.Milliseconds(),
	}

	if err != nil {
		c.logger.Warn("Part catalog health check failed",
			zap.Error(err),
			zap.Duration("latency", latency),
		)
		status.Status = "unhealthy"
		status.Error = err.Error()
	} else {
		status.Status = "healthy"
	}

	return status
}

// LookupPart resolves a single part number to its catalog entry.
// Returns ErrPartNotFound when the part number is unknown.
func (c *Client) LookupPart(ctx context.Context, partNumber string) (*Part, error) {
	if c == nil || c.db == nil {
		return nil, fmt.Errorf("part catalog client not initialized")
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	start := time.Now()

	const query = `SELECT part_number, device_type, model, manufacturer, description
		FROM dbo.asset_part_catalog WHERE part_number = @p1`

	var part Part
	var manufacturer, description sql.NullString
	err := c.db.QueryRowContext(ctx, query, partNumber).Scan(
		&part.PartNumber, &part.Type, &part.Model, &manufacturer, &description,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPartNotFound
		}
		c.logger.Error("Part catalog lookup failed",
			zap.Error(err),
			zap.String("part_number", partNumber),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, fmt.Errorf("part lookup failed: %w", err)
	}
	part.Manufacturer = manufacturer.String
	part.Description = description.String

	c.logger.Debug("Part catalog lookup completed",
		zap.String("part_number", partNumber),
		zap.Duration("duration", time.Since(start)),
	)

	return &part, nil
}

// LookupParts resolves a batch of part numbers in one round trip. Unknown
// part numbers are simply absent from the result map.
func (c *Client) LookupParts(ctx context.Context, partNumbers []string) (map[string]Part, error) {
	if c == nil || c.db == nil {
		return nil, fmt.Errorf("part catalog client not initialized")
	}
	if len(partNumbers) == 0 {
		return map[string]Part{}, nil
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	placeholders := make([]string, len(partNumbers))
	args := make([]interface{}, len(partNumbers))
	for i, pn := range partNumbers {
		placeholders[i] = fmt.Sprintf("@p%d", i+1)
		args[i] = pn
	}

	query := fmt.Sprintf(`SELECT part_number, device_type, model, manufacturer, description
		FROM dbo.asset_part_catalog WHERE part_number IN (%s)`, strings.Join(placeholders, ", "))

	start := time.Now()

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		c.logger.Error("Part catalog batch lookup failed",
			zap.Error(err),
			zap.Int("part_count", len(partNumbers)),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, fmt.Errorf("part batch lookup failed: %w", err)
	}
	defer rows.Close()

	results := make(map[string]Part, len(partNumbers))
	for rows.Next() {
		var part Part
		var manufacturer, description sql.NullString
		if err := rows.Scan(&part.PartNumber, &part.Type, &part.Model, &manufacturer, &description); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		part.Manufacturer = manufacturer.String
		part.Description = description.String
		results[part.PartNumber] = part
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog rows: %w", err)
	}

	c.logger.Debug("Part catalog batch lookup completed",
		zap.Int("requested", len(partNumbers)),
		zap.Int("found", len(results)),
		zap.Duration("duration", time.Since(start)),
	)

	return results, nil
}
