// Package ledger records confirmed cracks in a shared Cassandra-backed
// ledger, so a cluster of lookup nodes working the same hash list can
// skip hashes another node already solved.
package ledger

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/apache/cassandra-gocql-driver/v2"
)

// Config holds Cassandra connection settings for the crack ledger.
type Config struct {
	Hosts       []string
	Keyspace    string
	Consistency string
	LocalDC     string
	Username    string
	Password    string
}

// Ledger wraps the Cassandra session backing the cluster crack table.
type Ledger struct {
	session *gocql.Session
}

// New connects to the keyspace described by cfg.
func New(cfg Config) (*Ledger, error) {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = parseConsistency(cfg.Consistency)
	cluster.Timeout = 10 * time.Second
	cluster.ConnectTimeout = 10 * time.Second

	if cfg.LocalDC != "" {
		cluster.PoolConfig.HostSelectionPolicy = gocql.DCAwareRoundRobinPolicy(cfg.LocalDC)
	}
	if cfg.Username != "" && cfg.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("ledger: connecting to Cassandra: %w", err)
	}
	return &Ledger{session: session}, nil
}

// Close closes the underlying session.
func (l *Ledger) Close() {
	if l.session != nil {
		l.session.Close()
	}
}

// Migrate creates the cracked_hashes table if it does not already exist.
func (l *Ledger) Migrate() error {
	const stmt = `CREATE TABLE IF NOT EXISTS cracked_hashes (
		hash_kind text,
		hash_hex text,
		plaintext text,
		cracked_by text,
		cracked_at timestamp,
		PRIMARY KEY (hash_kind, hash_hex)
	)`
	if err := l.session.Query(stmt).Exec(); err != nil {
		return fmt.Errorf("ledger: migration failed: %w", err)
	}
	return nil
}

// IsCracked reports whether hash is already recorded as cracked, and its
// plaintext if so. A run can use this to skip a hash before spending any
// precompute or search effort on it.
func (l *Ledger) IsCracked(hashKind string, hash [16]byte) (plaintext string, cracked bool, err error) {
	hashHex := hex.EncodeToString(hash[:])
	q := l.session.Query(
		`SELECT plaintext FROM cracked_hashes WHERE hash_kind = ? AND hash_hex = ?`,
		hashKind, hashHex,
	)
	if err := q.Scan(&plaintext); err != nil {
		if err == gocql.ErrNotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("ledger: querying %s: %w", hashHex, err)
	}
	return plaintext, true, nil
}

// RecordCrack records a newly confirmed crack, tagged with the node name
// that found it.
func (l *Ledger) RecordCrack(hashKind string, hash [16]byte, plaintext, crackedBy string) error {
	hashHex := hex.EncodeToString(hash[:])
	q := l.session.Query(
		`INSERT INTO cracked_hashes (hash_kind, hash_hex, plaintext, cracked_by, cracked_at) VALUES (?, ?, ?, ?, ?)`,
		hashKind, hashHex, plaintext, crackedBy, time.Now(),
	)
	if err := q.Exec(); err != nil {
		return fmt.Errorf("ledger: recording %s: %w", hashHex, err)
	}
	return nil
}

func parseConsistency(s string) gocql.Consistency {
	switch s {
	case "ONE":
		return gocql.One
	case "QUORUM":
		return gocql.Quorum
	case "LOCAL_QUORUM":
		return gocql.LocalQuorum
	default:
		return gocql.Quorum
	}
}
