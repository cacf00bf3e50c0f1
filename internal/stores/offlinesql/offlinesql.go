/*
 * This file is part of the Hopsworks Feature Store Metadata Server
 * Copyright (c) 2023 Hopsworks AB
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, version 3.
 *
 * This program is distributed in the hope that it will be useful, but
 * WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
 * General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program. If not, see <http://www.gnu.org/licenses/>.
 */

// Package offlinesql drives the Hive-compatible offline store through
// a database/sql driver speaking the offline SQL dialect. The driver
// name comes from configuration so deployments can pick the gateway
// they front the metastore with.
package offlinesql

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"hopsworks.ai/fsms/internal/config"
	"hopsworks.ai/fsms/internal/log"
	"hopsworks.ai/fsms/internal/stores"
)

type Client struct {
	db           *sql.DB
	warehouseDir string
	// the dialect gateway exposes no metastore table ids, so we hand
	// out process-local ones
	nextTableID int64
}

var _ stores.OfflineStore = (*Client)(nil)

func Connect(conf config.OfflineStore) (*Client, error) {
	db, err := sql.Open(conf.DriverName, conf.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed opening offline store connection; error: %v", err)
	}
	log.Infof("Connected to offline feature store via driver %s", conf.DriverName)
	return &Client{db: db, warehouseDir: conf.WarehouseDir}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) CreateTable(ctx context.Context, dbName string, tableName string, schema stores.TableSchema, inputFormat string) (stores.OfflineTable, error) {
	ddl := stores.BuildOfflineDDL(dbName, tableName, schema, inputFormat)
	if log.IsDebug() {
		log.Debugf("Offline DDL: %s", ddl)
	}
	if _, err := c.db.ExecContext(ctx, ddl); err != nil {
		return stores.OfflineTable{}, err
	}
	return stores.OfflineTable{
		TableID:   atomic.AddInt64(&c.nextTableID, 1),
		TableType: "MANAGED_TABLE",
		Location:  fmt.Sprintf("%s/%s.db/%s", c.warehouseDir, dbName, tableName),
	}, nil
}

func (c *Client) DropTable(ctx context.Context, dbName string, tableName string) error {
	_, err := c.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS `%s`.`%s`", dbName, tableName))
	return err
}

func (c *Client) TruncateTable(ctx context.Context, dbName string, tableName string) error {
	_, err := c.db.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE `%s`.`%s`", dbName, tableName))
	return err
}

func (c *Client) Preview(ctx context.Context, dbName string, tableName string, limit int) ([]map[string]interface{}, error) {
	rows, err := c.db.QueryContext(ctx,
		fmt.Sprintf("SELECT * FROM `%s`.`%s` LIMIT %d", dbName, tableName, limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	result := []map[string]interface{}{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (c *Client) DescribeTable(ctx context.Context, dbName string, tableName string) (string, error) {
	var name, ddl string
	err := c.db.QueryRowContext(ctx,
		fmt.Sprintf("SHOW CREATE TABLE `%s`.`%s`", dbName, tableName)).Scan(&name, &ddl)
	if err != nil {
		return "", err
	}
	return ddl, nil
}
