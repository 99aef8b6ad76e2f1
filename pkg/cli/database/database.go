/* Copyright 2025 Vitalog Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package database provides access to the local embedded datastore
package database

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// DB is a handle to the local database. It dispatches queries to an open
// transaction if one was started through Begin, and to the underlying
// connection otherwise, so that the same model functions can run inside
// and outside transactions.
type DB struct {
	conn *sql.DB
	tx   *sql.Tx
}

// Open opens the database connection at the given path
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening database connection")
	}

	// sync transactions are serialized by the orchestrator; a single
	// connection avoids SQLITE_BUSY between the UI writes and sync.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return nil, errors.Wrap(err, "enabling foreign keys")
	}

	return &DB{conn: conn}, nil
}

// Begin starts a transaction and returns a handle scoped to it
func (d *DB) Begin() (*DB, error) {
	if d.tx != nil {
		return nil, errors.New("transaction already in progress")
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "beginning a transaction")
	}

	return &DB{conn: d.conn, tx: tx}, nil
}

// Commit commits the transaction of this handle
func (d *DB) Commit() error {
	if d.tx == nil {
		return errors.New("no transaction in progress")
	}

	return d.tx.Commit()
}

// Rollback aborts the transaction of this handle
func (d *DB) Rollback() error {
	if d.tx == nil {
		return errors.New("no transaction in progress")
	}

	return d.tx.Rollback()
}

// Close closes the underlying database connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Exec executes the given query
func (d *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	if d.tx != nil {
		return d.tx.Exec(query, args...)
	}

	return d.conn.Exec(query, args...)
}

// Query runs the given query and returns the matching rows
func (d *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	if d.tx != nil {
		return d.tx.Query(query, args...)
	}

	return d.conn.Query(query, args...)
}

// QueryRow runs the given query and returns at most one row
func (d *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	if d.tx != nil {
		return d.tx.QueryRow(query, args...)
	}

	return d.conn.QueryRow(query, args...)
}

// GetSystem scans the system configuration value with the given key into the destination
func GetSystem(db *DB, key string, dest interface{}) error {
	if err := db.QueryRow("SELECT value FROM system WHERE key = ?", key).Scan(dest); err != nil {
		return errors.Wrapf(err, "querying system value %s", key)
	}

	return nil
}

// InsertSystem inserts a system configuration value with the given key
func InsertSystem(db *DB, key string, val interface{}) error {
	if _, err := db.Exec("INSERT INTO system (key, value) VALUES (?, ?)", key, val); err != nil {
		return errors.Wrapf(err, "inserting system value %s", key)
	}

	return nil
}

// UpsertSystem inserts or updates a system configuration value with the given key
func UpsertSystem(db *DB, key string, val interface{}) error {
	var count int
	if err := db.QueryRow("SELECT count(*) FROM system WHERE key = ?", key).Scan(&count); err != nil {
		return errors.Wrapf(err, "counting system value %s", key)
	}

	if count == 0 {
		return InsertSystem(db, key, val)
	}

	return UpdateSystem(db, key, val)
}

// UpdateSystem updates a system configuration value with the given key
func UpdateSystem(db *DB, key string, val interface{}) error {
	if _, err := db.Exec("UPDATE system SET value = ? WHERE key = ?", val, key); err != nil {
		return errors.Wrapf(err, "updating system value %s", key)
	}

	return nil
}

// DeleteSystem removes the system configuration value with the given key
func DeleteSystem(db *DB, key string) error {
	if _, err := db.Exec("DELETE FROM system WHERE key = ?", key); err != nil {
		return errors.Wrapf(err, "deleting system value %s", key)
	}

	return nil
}
