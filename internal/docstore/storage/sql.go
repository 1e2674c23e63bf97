package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// SQL stores documents as JSON text in a relational database.
type SQL struct {
	db       *sql.DB
	provider string
	seq      atomic.Int64
}

// OpenSQL connects to dsn with the driver for provider and creates the tables
// if they do not exist.
func OpenSQL(ctx context.Context, provider, dsn string) (*SQL, error) {
	provider = normalizeProvider(provider)
	driverName := getDriverName(provider)
	if driverName == "" {
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", provider, err)
	}
	if provider == "sqlite" {
		// one writer avoids "database is locked"
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s storage: %w", provider, err)
	}

	s := &SQL{db: db, provider: provider}
	s.seq.Store(time.Now().UnixNano())
	if err := s.initTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQL wraps an open connection. The tables must already exist or be created
// with InitTables.
func NewSQL(db *sql.DB, provider string) *SQL {
	s := &SQL{db: db, provider: normalizeProvider(provider)}
	s.seq.Store(time.Now().UnixNano())
	return s
}

// InitTables creates the storage tables if they do not exist.
func (s *SQL) InitTables(ctx context.Context) error {
	return s.initTables(ctx)
}

func normalizeProvider(provider string) string {
	switch strings.ToLower(provider) {
	case "postgresql", "postgres":
		return "postgres"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return strings.ToLower(provider)
	}
}

func getDriverName(provider string) string {
	switch provider {
	case "postgres":
		return "postgres"
	case "mysql":
		return "mysql"
	case "sqlite":
		return "sqlite3"
	default:
		return ""
	}
}

func (s *SQL) initTables(ctx context.Context) error {
	for _, stmt := range s.getTableSQL() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create storage table: %w", err)
		}
	}
	return nil
}

// getTableSQL returns the DDL for the current provider.
func (s *SQL) getTableSQL() []string {
	idType, bodyType := "TEXT", "TEXT"
	if s.provider == "mysql" {
		idType, bodyType = "VARCHAR(255)", "LONGTEXT"
	}
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS docdb_databases (
			id %[1]s NOT NULL PRIMARY KEY,
			rid %[1]s NOT NULL,
			self %[1]s NOT NULL,
			etag %[1]s NOT NULL,
			seq BIGINT NOT NULL
		)`, idType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS docdb_collections (
			db_id %[1]s NOT NULL,
			id %[1]s NOT NULL,
			rid %[1]s NOT NULL,
			self %[1]s NOT NULL,
			etag %[1]s NOT NULL,
			seq BIGINT NOT NULL,
			PRIMARY KEY (db_id, id)
		)`, idType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS docdb_documents (
			db_id %[1]s NOT NULL,
			coll_id %[1]s NOT NULL,
			id %[1]s NOT NULL,
			body %[2]s NOT NULL,
			seq BIGINT NOT NULL,
			PRIMARY KEY (db_id, coll_id, id)
		)`, idType, bodyType),
	}
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQL) rebind(query string) string {
	if s.provider != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (s *SQL) exec(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) (sql.Result, error) {
	return tx.ExecContext(ctx, s.rebind(query), args...)
}

func (s *SQL) exists(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, s.rebind(query), args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// withTx runs fn in a transaction, committing on success.
func (s *SQL) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQL) queryResources(ctx context.Context, query string, args ...interface{}) ([]Resource, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	defer rows.Close()

	var out []Resource
	for rows.Next() {
		var r Resource
		if err := rows.Scan(&r.ID, &r.RID, &r.Self, &r.ETag); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQL) Databases(ctx context.Context) ([]Resource, error) {
	return s.queryResources(ctx, `SELECT id, rid, self, etag FROM docdb_databases ORDER BY seq`)
}

func (s *SQL) InsertDatabase(ctx context.Context, db Resource) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		found, err := s.exists(ctx, tx, `SELECT 1 FROM docdb_databases WHERE id = ?`, db.ID)
		if err != nil {
			return err
		}
		if found {
			return ErrExists
		}
		_, err = s.exec(ctx, tx, `INSERT INTO docdb_databases (id, rid, self, etag, seq) VALUES (?, ?, ?, ?, ?)`,
			db.ID, db.RID, db.Self, db.ETag, s.seq.Add(1))
		return err
	})
}

func (s *SQL) databaseExists(ctx context.Context, tx *sql.Tx, dbID string) error {
	found, err := s.exists(ctx, tx, `SELECT 1 FROM docdb_databases WHERE id = ?`, dbID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (s *SQL) Collections(ctx context.Context, dbID string) ([]Resource, error) {
	var out []Resource
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.databaseExists(ctx, tx, dbID); err != nil {
			return err
		}
		rows, err := tx.QueryContext(ctx, s.rebind(`SELECT id, rid, self, etag FROM docdb_collections WHERE db_id = ? ORDER BY seq`), dbID)
		if err != nil {
			return fmt.Errorf("failed to query collections: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r Resource
			if err := rows.Scan(&r.ID, &r.RID, &r.Self, &r.ETag); err != nil {
				return fmt.Errorf("failed to scan collection: %w", err)
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	return out, err
}

func (s *SQL) InsertCollection(ctx context.Context, dbID string, coll Resource) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.databaseExists(ctx, tx, dbID); err != nil {
			return err
		}
		found, err := s.exists(ctx, tx, `SELECT 1 FROM docdb_collections WHERE db_id = ? AND id = ?`, dbID, coll.ID)
		if err != nil {
			return err
		}
		if found {
			return ErrExists
		}
		_, err = s.exec(ctx, tx, `INSERT INTO docdb_collections (db_id, id, rid, self, etag, seq) VALUES (?, ?, ?, ?, ?, ?)`,
			dbID, coll.ID, coll.RID, coll.Self, coll.ETag, s.seq.Add(1))
		return err
	})
}

func (s *SQL) collectionExists(ctx context.Context, tx *sql.Tx, dbID, collID string) error {
	found, err := s.exists(ctx, tx, `SELECT 1 FROM docdb_collections WHERE db_id = ? AND id = ?`, dbID, collID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (s *SQL) Documents(ctx context.Context, dbID, collID string) ([]Document, error) {
	var out []Document
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.collectionExists(ctx, tx, dbID, collID); err != nil {
			return err
		}
		rows, err := tx.QueryContext(ctx, s.rebind(`SELECT id, body FROM docdb_documents WHERE db_id = ? AND coll_id = ? ORDER BY seq`), dbID, collID)
		if err != nil {
			return fmt.Errorf("failed to query documents: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var d Document
			var body string
			if err := rows.Scan(&d.ID, &body); err != nil {
				return fmt.Errorf("failed to scan document: %w", err)
			}
			d.Body = []byte(body)
			out = append(out, d)
		}
		return rows.Err()
	})
	return out, err
}

func (s *SQL) GetDocument(ctx context.Context, dbID, collID, id string) ([]byte, error) {
	var body string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.collectionExists(ctx, tx, dbID, collID); err != nil {
			return err
		}
		err := tx.QueryRowContext(ctx, s.rebind(`SELECT body FROM docdb_documents WHERE db_id = ? AND coll_id = ? AND id = ?`),
			dbID, collID, id).Scan(&body)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return []byte(body), nil
}

func (s *SQL) InsertDocument(ctx context.Context, dbID, collID string, doc Document) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.collectionExists(ctx, tx, dbID, collID); err != nil {
			return err
		}
		found, err := s.exists(ctx, tx, `SELECT 1 FROM docdb_documents WHERE db_id = ? AND coll_id = ? AND id = ?`, dbID, collID, doc.ID)
		if err != nil {
			return err
		}
		if found {
			return ErrExists
		}
		_, err = s.exec(ctx, tx, `INSERT INTO docdb_documents (db_id, coll_id, id, body, seq) VALUES (?, ?, ?, ?, ?)`,
			dbID, collID, doc.ID, string(doc.Body), s.seq.Add(1))
		return err
	})
}

func (s *SQL) UpdateDocument(ctx context.Context, dbID, collID string, doc Document) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.collectionExists(ctx, tx, dbID, collID); err != nil {
			return err
		}
		// mysql reports zero affected rows for an unchanged body
		found, err := s.exists(ctx, tx, `SELECT 1 FROM docdb_documents WHERE db_id = ? AND coll_id = ? AND id = ?`, dbID, collID, doc.ID)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}
		_, err = s.exec(ctx, tx, `UPDATE docdb_documents SET body = ? WHERE db_id = ? AND coll_id = ? AND id = ?`,
			string(doc.Body), dbID, collID, doc.ID)
		return err
	})
}

func (s *SQL) DeleteDocument(ctx context.Context, dbID, collID, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.collectionExists(ctx, tx, dbID, collID); err != nil {
			return err
		}
		res, err := s.exec(ctx, tx, `DELETE FROM docdb_documents WHERE db_id = ? AND coll_id = ? AND id = ?`, dbID, collID, id)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the connection.
func (s *SQL) Close() error {
	return s.db.Close()
}
