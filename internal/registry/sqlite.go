package registry

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"voipbits/internal/errors"
	"voipbits/internal/models"
	"voipbits/internal/privacy"
	"voipbits/internal/security"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS push_tokens (
	did TEXT NOT NULL,
	record TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (did, record)
);
CREATE INDEX IF NOT EXISTS idx_push_tokens_did ON push_tokens(did);
`

type sqliteRegistry struct {
	db     *sql.DB
	enc    *encryptor
	logger *logrus.Logger
}

// NewSQLite opens (or creates) the token database at the configured
// path. The (did, record) primary key is what makes Add an idempotent
// set insertion.
func NewSQLite(cfg models.SQLiteConfig, encryptionEnabled bool, logger *logrus.Logger) (Registry, error) {
	if err := security.ValidateFilePath(cfg.Path); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidConfig, "invalid registry database path")
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, errors.NewStorageError("open", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.NewStorageError("ping", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.NewStorageError("init schema", err)
	}

	enc, err := newEncryptor(encryptionEnabled)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrCodeInvalidConfig, "failed to initialize registry encryption")
	}

	return &sqliteRegistry{db: db, enc: enc, logger: logger}, nil
}

func (r *sqliteRegistry) Add(ctx context.Context, did string, reg models.PushRegistration) error {
	if err := validateRegistration(reg); err != nil {
		return err
	}

	stored, err := r.enc.EncryptForLookup(encodeRegistration(reg))
	if err != nil {
		return errors.NewStorageError("encrypt", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO push_tokens (did, record) VALUES (?, ?)`, did, stored)
	if err != nil {
		return errors.NewStorageError("add", err)
	}

	r.logger.WithFields(logrus.Fields{
		"did":   privacy.MaskPhoneNumber(did),
		"token": privacy.MaskPushToken(reg.PushToken),
	}).Debug("Stored push registration")

	return nil
}

func (r *sqliteRegistry) List(ctx context.Context, did string) ([]models.PushRegistration, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT record FROM push_tokens WHERE did = ?`, did)
	if err != nil {
		return nil, errors.NewStorageError("list", err)
	}
	defer rows.Close()

	var records []string
	for rows.Next() {
		var stored string
		if err := rows.Scan(&stored); err != nil {
			return nil, errors.NewStorageError("scan", err)
		}

		record, err := r.enc.Decrypt(stored)
		if err != nil {
			return nil, errors.NewStorageCorruptionError(
				fmt.Sprintf("undecryptable token record: %v", err))
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("list", err)
	}

	if len(records) == 0 {
		return nil, errors.NewNoPushTokenError(privacy.MaskPhoneNumber(did))
	}

	return decodeRegistrations(records)
}

func (r *sqliteRegistry) Remove(ctx context.Context, did string, regs []models.PushRegistration) error {
	// An empty removal set must not reach the store.
	if len(regs) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(regs))
	args := make([]interface{}, 0, len(regs)+1)
	args = append(args, did)
	for _, reg := range regs {
		stored, err := r.enc.EncryptForLookup(encodeRegistration(reg))
		if err != nil {
			return errors.NewStorageError("encrypt", err)
		}
		placeholders = append(placeholders, "?")
		args = append(args, stored)
	}

	query := fmt.Sprintf(
		`DELETE FROM push_tokens WHERE did = ? AND record IN (%s)`,
		strings.Join(placeholders, ", "))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.NewStorageError("remove", err)
	}

	if removed, err := result.RowsAffected(); err == nil {
		r.logger.WithFields(logrus.Fields{
			"did":     privacy.MaskPhoneNumber(did),
			"removed": removed,
		}).Debug("Removed push registrations")
	}

	return nil
}

func (r *sqliteRegistry) Close() error {
	return r.db.Close()
}
