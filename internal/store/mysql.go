// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // mysql driver
	"github.com/rs/zerolog"

	"github.com/roomradar/roomradar/internal/config"
	"github.com/roomradar/roomradar/internal/logging"
	"github.com/roomradar/roomradar/internal/metrics"
	"github.com/roomradar/roomradar/internal/models"
)

// MySQLCatalog reads rooms from the MySQL room table.
type MySQLCatalog struct {
	db     *sql.DB
	logger zerolog.Logger
}

// roomColumns is the shared select list for room scans.
const roomColumns = "id, name, description, price, star, equipment, category, status, updated_at"

// NewMySQLCatalog opens a pooled connection to the room catalog and
// verifies connectivity.
func NewMySQLCatalog(ctx context.Context, cfg config.DatabaseConfig) (*MySQLCatalog, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}

	return &MySQLCatalog{
		db:     db,
		logger: logging.WithComponent("catalog"),
	}, nil
}

// NewMySQLCatalogFromDB wraps an existing connection. Used in tests.
func NewMySQLCatalogFromDB(db *sql.DB) *MySQLCatalog {
	return &MySQLCatalog{
		db:     db,
		logger: logging.WithComponent("catalog"),
	}
}

// Close releases the connection pool.
func (c *MySQLCatalog) Close() error {
	return c.db.Close()
}

// GetRoom fetches one room by id.
func (c *MySQLCatalog) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	start := time.Now()
	query := "SELECT " + roomColumns + " FROM room WHERE id = ?"

	room, err := scanRoom(c.db.QueryRowContext(ctx, query, id))
	metrics.RecordDBQuery("get_room", time.Since(start), err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room %s: %w", id, err)
	}
	return room, nil
}

// ListActiveRooms fetches all bookable rooms.
func (c *MySQLCatalog) ListActiveRooms(ctx context.Context) ([]*models.Room, error) {
	start := time.Now()
	query := "SELECT " + roomColumns + " FROM room WHERE status = ?"

	rows, err := c.db.QueryContext(ctx, query, models.RoomStatusActive)
	metrics.RecordDBQuery("list_active_rooms", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list active rooms: %w", err)
	}
	defer rows.Close()

	return collectRooms(rows)
}

// ListModifiedSince fetches rooms changed at or after the given time.
func (c *MySQLCatalog) ListModifiedSince(ctx context.Context, since time.Time) ([]*models.Room, error) {
	start := time.Now()
	query := "SELECT " + roomColumns + " FROM room WHERE updated_at >= ?"

	rows, err := c.db.QueryContext(ctx, query, since)
	metrics.RecordDBQuery("list_modified_since", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list modified rooms: %w", err)
	}
	defer rows.Close()

	return collectRooms(rows)
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanRoom converts one row into a Room. Equipment is stored as a
// comma-separated column.
func scanRoom(row rowScanner) (*models.Room, error) {
	var (
		room      models.Room
		price     sql.NullFloat64
		star      sql.NullString
		desc      sql.NullString
		equipment sql.NullString
		category  sql.NullString
	)

	err := row.Scan(&room.ID, &room.Name, &desc, &price, &star,
		&equipment, &category, &room.Status, &room.UpdatedAt)
	if err != nil {
		return nil, err
	}

	room.Description = desc.String
	room.StarText = star.String
	room.Category = category.String
	if price.Valid {
		p := price.Float64
		room.Price = &p
	}
	if equipment.Valid && equipment.String != "" {
		for _, item := range strings.Split(equipment.String, ",") {
			item = strings.TrimSpace(item)
			if item != "" {
				room.Equipment = append(room.Equipment, item)
			}
		}
	}

	return &room, nil
}

func collectRooms(rows *sql.Rows) ([]*models.Room, error) {
	var rooms []*models.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}
	return rooms, nil
}
