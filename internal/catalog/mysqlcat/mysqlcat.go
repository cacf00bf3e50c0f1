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

// Package mysqlcat is the MySQL backed catalog store. Uniqueness is
// enforced by unique keys so racing creates resolve inside the
// database, and the connector reference check runs in the same
// transaction as the connector delete.
package mysqlcat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"hopsworks.ai/fsms/internal/catalog"
	"hopsworks.ai/fsms/internal/config"
	"hopsworks.ai/fsms/internal/log"
)

const mysqlDuplicateEntry = 1062

type Store struct {
	db *sql.DB
}

var _ catalog.Store = (*Store)(nil)

func Connect(conf config.Catalog) (*Store, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		conf.MySQL.User, conf.MySQL.Password, conf.MySQL.IP, conf.MySQL.Port, conf.DBName)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed opening catalog database; error: %v", err)
	}
	db.SetConnMaxIdleTime(2 * time.Minute)
	log.Infof("Connected to catalog database at %s:%d/%s", conf.MySQL.IP, conf.MySQL.Port, conf.DBName)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// InitSchema creates the catalog tables if they are missing.
func (s *Store) InitSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS feature_store (
			id INT NOT NULL AUTO_INCREMENT,
			project_id INT NOT NULL,
			project_name VARCHAR(100) NOT NULL,
			name VARCHAR(100) NOT NULL,
			created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY project_idx (project_id)
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS feature_store_connector (
			id INT NOT NULL AUTO_INCREMENT,
			feature_store_id INT NOT NULL,
			name VARCHAR(150) NOT NULL,
			description VARCHAR(1000) NOT NULL DEFAULT '',
			type VARCHAR(32) NOT NULL,
			dataset_name VARCHAR(255) NOT NULL DEFAULT '',
			hopsfs_path VARCHAR(1000) NOT NULL DEFAULT '',
			bucket VARCHAR(500) NOT NULL DEFAULT '',
			access_key VARCHAR(1000) NOT NULL DEFAULT '',
			secret_key VARCHAR(1000) NOT NULL DEFAULT '',
			connection_string VARCHAR(5000) NOT NULL DEFAULT '',
			arguments VARCHAR(2000) NOT NULL DEFAULT '',
			PRIMARY KEY (id),
			UNIQUE KEY name_idx (feature_store_id, name)
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS feature_group (
			id INT NOT NULL AUTO_INCREMENT,
			feature_store_id INT NOT NULL,
			name VARCHAR(63) NOT NULL,
			version INT NOT NULL,
			type VARCHAR(32) NOT NULL,
			description VARCHAR(1000) NOT NULL DEFAULT '',
			features JSON NOT NULL,
			created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			creator VARCHAR(150) NOT NULL DEFAULT '',
			offline_table_id BIGINT NOT NULL DEFAULT 0,
			offline_table_type VARCHAR(32) NOT NULL DEFAULT '',
			input_format VARCHAR(128) NOT NULL DEFAULT '',
			inode_id BIGINT NOT NULL DEFAULT 0,
			online_enabled TINYINT(1) NOT NULL DEFAULT 0,
			avro_schema TEXT,
			query TEXT,
			jdbc_connector_id INT NOT NULL DEFAULT 0,
			PRIMARY KEY (id),
			UNIQUE KEY name_version_idx (feature_store_id, name, version)
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS training_dataset (
			id INT NOT NULL AUTO_INCREMENT,
			feature_store_id INT NOT NULL,
			name VARCHAR(63) NOT NULL,
			version INT NOT NULL,
			type VARCHAR(32) NOT NULL,
			description VARCHAR(1000) NOT NULL DEFAULT '',
			creator VARCHAR(150) NOT NULL DEFAULT '',
			location VARCHAR(1000) NOT NULL DEFAULT '',
			data_format VARCHAR(32) NOT NULL,
			created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			connector_id INT NOT NULL DEFAULT 0,
			hdfs_store_path VARCHAR(1000) NOT NULL DEFAULT '',
			inode_id BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (id),
			UNIQUE KEY name_version_idx (feature_store_id, name, version)
		) ENGINE=InnoDB`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed initializing catalog schema; error: %v", err)
		}
	}
	return nil
}

func translateError(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return catalog.ErrDuplicateEntry
	}
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.ErrNotFound
	}
	return err
}

func (s *Store) CreateFeaturestore(ctx context.Context, fs *catalog.Featurestore) error {
	if fs.Created.IsZero() {
		fs.Created = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO feature_store (project_id, project_name, name, created) VALUES (?, ?, ?, ?)`,
		fs.ProjectID, fs.ProjectName, fs.Name, fs.Created)
	if err != nil {
		return translateError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	fs.ID = int(id)
	return nil
}

func (s *Store) FeaturestoresByProject(ctx context.Context, projectID int) ([]catalog.Featurestore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, project_name, name, created FROM feature_store WHERE project_id = ?`,
		projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []catalog.Featurestore{}
	for rows.Next() {
		var fs catalog.Featurestore
		if err := rows.Scan(&fs.ID, &fs.ProjectID, &fs.ProjectName, &fs.Name, &fs.Created); err != nil {
			return nil, err
		}
		result = append(result, fs)
	}
	return result, rows.Err()
}

func (s *Store) GetFeaturestore(ctx context.Context, projectID int, featurestoreID int) (catalog.Featurestore, error) {
	var fs catalog.Featurestore
	err := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, project_name, name, created FROM feature_store WHERE project_id = ? AND id = ?`,
		projectID, featurestoreID).
		Scan(&fs.ID, &fs.ProjectID, &fs.ProjectName, &fs.Name, &fs.Created)
	if err != nil {
		return catalog.Featurestore{}, translateError(err)
	}
	return fs, nil
}

const connectorColumns = `id, feature_store_id, name, description, type, dataset_name, hopsfs_path,
	bucket, access_key, secret_key, connection_string, arguments`

func scanConnector(row interface{ Scan(...interface{}) error }) (catalog.StorageConnector, error) {
	var conn catalog.StorageConnector
	err := row.Scan(&conn.ID, &conn.FeaturestoreID, &conn.Name, &conn.Description, &conn.Type,
		&conn.DatasetName, &conn.HopsfsPath, &conn.Bucket, &conn.AccessKey, &conn.SecretKey,
		&conn.ConnectionString, &conn.Arguments)
	return conn, err
}

func (s *Store) CreateConnector(ctx context.Context, conn *catalog.StorageConnector) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO feature_store_connector
		 (feature_store_id, name, description, type, dataset_name, hopsfs_path,
		  bucket, access_key, secret_key, connection_string, arguments)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		conn.FeaturestoreID, conn.Name, conn.Description, conn.Type, conn.DatasetName,
		conn.HopsfsPath, conn.Bucket, conn.AccessKey, conn.SecretKey,
		conn.ConnectionString, conn.Arguments)
	if err != nil {
		return translateError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	conn.ID = int(id)
	return nil
}

func (s *Store) GetConnector(ctx context.Context, featurestoreID int, connectorID int) (catalog.StorageConnector, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+connectorColumns+` FROM feature_store_connector WHERE feature_store_id = ? AND id = ?`,
		featurestoreID, connectorID)
	conn, err := scanConnector(row)
	if err != nil {
		return catalog.StorageConnector{}, translateError(err)
	}
	return conn, nil
}

func (s *Store) ListConnectors(ctx context.Context, featurestoreID int) ([]catalog.StorageConnector, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+connectorColumns+` FROM feature_store_connector WHERE feature_store_id = ?`,
		featurestoreID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []catalog.StorageConnector{}
	for rows.Next() {
		conn, err := scanConnector(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, conn)
	}
	return result, rows.Err()
}

func (s *Store) UpdateConnector(ctx context.Context, conn *catalog.StorageConnector) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE feature_store_connector
		 SET name = ?, description = ?, dataset_name = ?, hopsfs_path = ?,
		     bucket = ?, access_key = ?, secret_key = ?, connection_string = ?, arguments = ?
		 WHERE feature_store_id = ? AND id = ?`,
		conn.Name, conn.Description, conn.DatasetName, conn.HopsfsPath,
		conn.Bucket, conn.AccessKey, conn.SecretKey, conn.ConnectionString, conn.Arguments,
		conn.FeaturestoreID, conn.ID)
	if err != nil {
		return translateError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Distinguish a missing row from an update writing back
		// identical values.
		if _, getErr := s.GetConnector(ctx, conn.FeaturestoreID, conn.ID); getErr != nil {
			return getErr
		}
	}
	return nil
}

func (s *Store) DeleteConnector(ctx context.Context, featurestoreID int, connectorID int) (catalog.StorageConnector, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return catalog.StorageConnector{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+connectorColumns+` FROM feature_store_connector
		 WHERE feature_store_id = ? AND id = ? FOR UPDATE`,
		featurestoreID, connectorID)
	conn, err := scanConnector(row)
	if err != nil {
		return catalog.StorageConnector{}, translateError(err)
	}

	var references int
	err = tx.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM feature_group WHERE jdbc_connector_id = ?) +
		        (SELECT COUNT(*) FROM training_dataset WHERE connector_id = ?)`,
		connectorID, connectorID).Scan(&references)
	if err != nil {
		return catalog.StorageConnector{}, err
	}
	if references > 0 {
		return catalog.StorageConnector{}, catalog.ErrInUse
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM feature_store_connector WHERE id = ?`, connectorID); err != nil {
		return catalog.StorageConnector{}, err
	}
	if err := tx.Commit(); err != nil {
		return catalog.StorageConnector{}, err
	}
	return conn, nil
}

const featuregroupColumns = `id, feature_store_id, name, version, type, description, features,
	created, creator, offline_table_id, offline_table_type, input_format, inode_id,
	online_enabled, avro_schema, query, jdbc_connector_id`

func scanFeaturegroup(row interface{ Scan(...interface{}) error }) (catalog.Featuregroup, error) {
	var fg catalog.Featuregroup
	var features []byte
	var avroSchema, query sql.NullString
	err := row.Scan(&fg.ID, &fg.FeaturestoreID, &fg.Name, &fg.Version, &fg.Type, &fg.Description,
		&features, &fg.Created, &fg.Creator, &fg.OfflineTableID, &fg.OfflineTableType,
		&fg.InputFormat, &fg.InodeID, &fg.OnlineEnabled, &avroSchema, &query, &fg.JDBCConnectorID)
	if err != nil {
		return catalog.Featuregroup{}, err
	}
	fg.AvroSchema = avroSchema.String
	fg.Query = query.String
	if err := json.Unmarshal(features, &fg.Features); err != nil {
		return catalog.Featuregroup{}, fmt.Errorf("failed unmarshaling features; error: %v", err)
	}
	return fg, nil
}

func (s *Store) CreateFeaturegroup(ctx context.Context, fg *catalog.Featuregroup) error {
	features, err := json.Marshal(fg.Features)
	if err != nil {
		return err
	}
	if fg.Created.IsZero() {
		fg.Created = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if fg.JDBCConnectorID != 0 {
		// Lock the connector row so a racing connector delete either
		// sees this feature group or wins before the insert.
		var id int
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM feature_store_connector WHERE feature_store_id = ? AND id = ? FOR SHARE`,
			fg.FeaturestoreID, fg.JDBCConnectorID).Scan(&id)
		if err != nil {
			return translateError(err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO feature_group
		 (feature_store_id, name, version, type, description, features, created, creator,
		  offline_table_id, offline_table_type, input_format, inode_id, online_enabled,
		  avro_schema, query, jdbc_connector_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fg.FeaturestoreID, fg.Name, fg.Version, fg.Type, fg.Description, features, fg.Created,
		fg.Creator, fg.OfflineTableID, fg.OfflineTableType, fg.InputFormat, fg.InodeID,
		fg.OnlineEnabled, fg.AvroSchema, fg.Query, fg.JDBCConnectorID)
	if err != nil {
		return translateError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return translateError(err)
	}
	fg.ID = int(id)
	return nil
}

func (s *Store) GetFeaturegroup(ctx context.Context, featurestoreID int, featuregroupID int) (catalog.Featuregroup, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+featuregroupColumns+` FROM feature_group WHERE feature_store_id = ? AND id = ?`,
		featurestoreID, featuregroupID)
	fg, err := scanFeaturegroup(row)
	if err != nil {
		return catalog.Featuregroup{}, translateError(err)
	}
	return fg, nil
}

func (s *Store) ListFeaturegroups(ctx context.Context, featurestoreID int) ([]catalog.Featuregroup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+featuregroupColumns+` FROM feature_group WHERE feature_store_id = ?`,
		featurestoreID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []catalog.Featuregroup{}
	for rows.Next() {
		fg, err := scanFeaturegroup(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, fg)
	}
	return result, rows.Err()
}

func (s *Store) FeaturegroupExists(ctx context.Context, featurestoreID int, name string, version int) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM feature_group WHERE feature_store_id = ? AND name = ? AND version = ?`,
		featurestoreID, name, version).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) UpdateFeaturegroup(ctx context.Context, fg *catalog.Featuregroup) error {
	features, err := json.Marshal(fg.Features)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE feature_group
		 SET name = ?, description = ?, features = ?, online_enabled = ?, avro_schema = ?, query = ?
		 WHERE feature_store_id = ? AND id = ?`,
		fg.Name, fg.Description, features, fg.OnlineEnabled, fg.AvroSchema, fg.Query,
		fg.FeaturestoreID, fg.ID)
	if err != nil {
		return translateError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, getErr := s.GetFeaturegroup(ctx, fg.FeaturestoreID, fg.ID); getErr != nil {
			return getErr
		}
	}
	return nil
}

func (s *Store) DeleteFeaturegroup(ctx context.Context, featurestoreID int, featuregroupID int) (catalog.Featuregroup, error) {
	fg, err := s.GetFeaturegroup(ctx, featurestoreID, featuregroupID)
	if err != nil {
		return catalog.Featuregroup{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM feature_group WHERE feature_store_id = ? AND id = ?`,
		featurestoreID, featuregroupID)
	if err != nil {
		return catalog.Featuregroup{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return catalog.Featuregroup{}, err
	}
	if affected == 0 {
		return catalog.Featuregroup{}, catalog.ErrNotFound
	}
	return fg, nil
}

const trainingDatasetColumns = `id, feature_store_id, name, version, type, description, creator,
	location, data_format, created, connector_id, hdfs_store_path, inode_id`

func scanTrainingDataset(row interface{ Scan(...interface{}) error }) (catalog.TrainingDataset, error) {
	var td catalog.TrainingDataset
	err := row.Scan(&td.ID, &td.FeaturestoreID, &td.Name, &td.Version, &td.Type, &td.Description,
		&td.Creator, &td.Location, &td.DataFormat, &td.Created, &td.ConnectorID,
		&td.HdfsStorePath, &td.InodeID)
	return td, err
}

func (s *Store) CreateTrainingDataset(ctx context.Context, td *catalog.TrainingDataset) error {
	if td.Created.IsZero() {
		td.Created = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if td.ConnectorID != 0 {
		var id int
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM feature_store_connector WHERE feature_store_id = ? AND id = ? FOR SHARE`,
			td.FeaturestoreID, td.ConnectorID).Scan(&id)
		if err != nil {
			return translateError(err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO training_dataset
		 (feature_store_id, name, version, type, description, creator, location, data_format,
		  created, connector_id, hdfs_store_path, inode_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		td.FeaturestoreID, td.Name, td.Version, td.Type, td.Description, td.Creator, td.Location,
		td.DataFormat, td.Created, td.ConnectorID, td.HdfsStorePath, td.InodeID)
	if err != nil {
		return translateError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return translateError(err)
	}
	td.ID = int(id)
	return nil
}

func (s *Store) GetTrainingDataset(ctx context.Context, featurestoreID int, trainingDatasetID int) (catalog.TrainingDataset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+trainingDatasetColumns+` FROM training_dataset WHERE feature_store_id = ? AND id = ?`,
		featurestoreID, trainingDatasetID)
	td, err := scanTrainingDataset(row)
	if err != nil {
		return catalog.TrainingDataset{}, translateError(err)
	}
	return td, nil
}

func (s *Store) ListTrainingDatasets(ctx context.Context, featurestoreID int) ([]catalog.TrainingDataset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+trainingDatasetColumns+` FROM training_dataset WHERE feature_store_id = ?`,
		featurestoreID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []catalog.TrainingDataset{}
	for rows.Next() {
		td, err := scanTrainingDataset(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, td)
	}
	return result, rows.Err()
}

func (s *Store) TrainingDatasetExists(ctx context.Context, featurestoreID int, name string, version int) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM training_dataset WHERE feature_store_id = ? AND name = ? AND version = ?`,
		featurestoreID, name, version).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) UpdateTrainingDataset(ctx context.Context, td *catalog.TrainingDataset) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE training_dataset
		 SET name = ?, description = ?, data_format = ?, connector_id = ?
		 WHERE feature_store_id = ? AND id = ?`,
		td.Name, td.Description, td.DataFormat, td.ConnectorID, td.FeaturestoreID, td.ID)
	if err != nil {
		return translateError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, getErr := s.GetTrainingDataset(ctx, td.FeaturestoreID, td.ID); getErr != nil {
			return getErr
		}
	}
	return nil
}

func (s *Store) DeleteTrainingDataset(ctx context.Context, featurestoreID int, trainingDatasetID int) (catalog.TrainingDataset, error) {
	td, err := s.GetTrainingDataset(ctx, featurestoreID, trainingDatasetID)
	if err != nil {
		return catalog.TrainingDataset{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM training_dataset WHERE feature_store_id = ? AND id = ?`,
		featurestoreID, trainingDatasetID)
	if err != nil {
		return catalog.TrainingDataset{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return catalog.TrainingDataset{}, err
	}
	if affected == 0 {
		return catalog.TrainingDataset{}, catalog.ErrNotFound
	}
	return td, nil
}
