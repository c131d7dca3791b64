package scylla

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/gocql/gocql"

	"ratepilot/internal/infra/config"
)

var keyspacePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// NewSession ensures the keyspace and sync log table exist and returns a
// session bound to the keyspace.
func NewSession(cfg config.Config, logger *slog.Logger) (*gocql.Session, error) {
	if err := validateKeyspace(cfg.ScyllaKeyspace); err != nil {
		return nil, err
	}

	baseCluster := gocql.NewCluster(cfg.ScyllaHosts...)
	baseCluster.Timeout = cfg.ScyllaTimeout
	baseCluster.ConnectTimeout = cfg.ScyllaTimeout
	baseCluster.Consistency = cfg.ScyllaConsistency
	baseSession, err := baseCluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connect to scylla: %w", err)
	}
	defer baseSession.Close()

	if err := ensureKeyspace(context.Background(), baseSession, cfg.ScyllaKeyspace); err != nil {
		return nil, err
	}

	cluster := gocql.NewCluster(cfg.ScyllaHosts...)
	cluster.Timeout = cfg.ScyllaTimeout
	cluster.ConnectTimeout = cfg.ScyllaTimeout
	cluster.Keyspace = cfg.ScyllaKeyspace
	cluster.Consistency = cfg.ScyllaConsistency
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connect to keyspace %s: %w", cfg.ScyllaKeyspace, err)
	}
	if err := ensureTables(context.Background(), session, cfg.ScyllaKeyspace); err != nil {
		session.Close()
		return nil, err
	}
	if logger != nil {
		logger.Info("scylla connected", "hosts", cfg.ScyllaHosts, "keyspace", cfg.ScyllaKeyspace)
	}
	return session, nil
}

func validateKeyspace(name string) error {
	if !keyspacePattern.MatchString(name) {
		return fmt.Errorf("invalid keyspace name: %q", name)
	}
	return nil
}

func ensureKeyspace(ctx context.Context, session *gocql.Session, keyspace string) error {
	cql := fmt.Sprintf(
		"CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}",
		keyspace,
	)
	if err := session.Query(cql).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("create keyspace: %w", err)
	}
	return nil
}

func ensureTables(ctx context.Context, session *gocql.Session, keyspace string) error {
	syncLog := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s.calendar_sync_log (
	property_id text,
	run_id timeuuid,
	platform text,
	status text,
	conflicts_resolved int,
	error text,
	synced_at timestamp,
	PRIMARY KEY (property_id, run_id, platform)
) WITH CLUSTERING ORDER BY (run_id DESC, platform ASC);`, keyspace)
	if err := session.Query(syncLog).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("create calendar_sync_log table: %w", err)
	}
	return nil
}
