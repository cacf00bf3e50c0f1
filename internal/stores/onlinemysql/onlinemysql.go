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

// Package onlinemysql talks to the MySQL server fronting the online
// feature store. It owns the serving databases, the serving tables and
// the JDBC credentials handed out through the implicit online
// featurestore connector.
package onlinemysql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"hopsworks.ai/fsms/internal/config"
	"hopsworks.ai/fsms/internal/log"
	"hopsworks.ai/fsms/internal/stores"
)

type Client struct {
	db   *sql.DB
	conf config.MySQLServer
}

var _ stores.OnlineStore = (*Client)(nil)

func Connect(conf config.OnlineStore) (*Client, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/",
		conf.MySQL.User, conf.MySQL.Password, conf.MySQL.IP, conf.MySQL.Port)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed opening online feature store connection; error: %v", err)
	}
	log.Infof("Connected to online feature store at %s:%d", conf.MySQL.IP, conf.MySQL.Port)
	return &Client{db: db, conf: conf.MySQL}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) EnsureDatabase(ctx context.Context, dbName string) error {
	_, err := c.db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", dbName))
	return err
}

func (c *Client) CreateTable(ctx context.Context, dbName string, tableName string, schema stores.TableSchema) error {
	ddl := stores.BuildOnlineDDL(dbName, tableName, schema)
	if log.IsDebug() {
		log.Debugf("Online DDL: %s", ddl)
	}
	_, err := c.db.ExecContext(ctx, ddl)
	return err
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

func (c *Client) Credentials(ctx context.Context, dbName string) (stores.Credentials, error) {
	return stores.Credentials{
		User:     c.conf.User,
		Password: c.conf.Password,
		ConnectionString: fmt.Sprintf("jdbc:mysql://%s:%d/%s",
			c.conf.IP, c.conf.Port, dbName),
	}, nil
}
