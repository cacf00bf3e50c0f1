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

package catalog

import (
	"strconv"
	"time"
)

type ConnectorType string

const (
	ConnectorHopsFS ConnectorType = "HOPSFS"
	ConnectorS3     ConnectorType = "S3"
	ConnectorJDBC   ConnectorType = "JDBC"
)

type FeaturegroupType string

const (
	FeaturegroupCached   FeaturegroupType = "CACHED_FEATURE_GROUP"
	FeaturegroupOnDemand FeaturegroupType = "ON_DEMAND_FEATURE_GROUP"
)

type TrainingDatasetType string

const (
	TrainingDatasetHopsFS   TrainingDatasetType = "HOPSFS_TRAINING_DATASET"
	TrainingDatasetExternal TrainingDatasetType = "EXTERNAL_TRAINING_DATASET"
)

// Featurestore is the per-project metadata namespace. There is exactly
// one per project, created when the project is provisioned, and its
// name binding to the project never changes.
type Featurestore struct {
	ID          int
	ProjectID   int
	ProjectName string
	Name        string
	Created     time.Time
}

// StorageConnector is a named handle to an external physical store.
// The variant tag is immutable after creation; only the fields of the
// variant plus name/description are mutable.
type StorageConnector struct {
	ID             int
	FeaturestoreID int
	Name           string
	Description    string
	Type           ConnectorType

	// HOPSFS
	DatasetName string
	HopsfsPath  string

	// S3
	Bucket    string
	AccessKey string
	SecretKey string

	// JDBC
	ConnectionString string
	Arguments        string
}

type Feature struct {
	Name        string
	Type        string
	Description string
	Primary     bool
	Partition   bool
	OnlineType  string
}

// Featuregroup is a named, versioned set of features. Cached groups
// are backed by an offline table and optionally an online table;
// on-demand groups are backed by a stored SQL query.
type Featuregroup struct {
	ID             int
	FeaturestoreID int
	Name           string
	Version        int
	Type           FeaturegroupType
	Description    string
	Features       []Feature
	Created        time.Time
	Creator        string

	// CACHED_FEATURE_GROUP
	OfflineTableID   int64
	OfflineTableType string
	InputFormat      string
	InodeID          int64
	OnlineEnabled    bool
	AvroSchema       string

	// ON_DEMAND_FEATURE_GROUP
	Query           string
	JDBCConnectorID int
}

// TrainingDataset is a named, versioned dataset derived from feature
// groups. The connector reference is fixed at creation.
type TrainingDataset struct {
	ID             int
	FeaturestoreID int
	Name           string
	Version        int
	Type           TrainingDatasetType
	Description    string
	Creator        string
	Location       string
	DataFormat     string
	Created        time.Time

	ConnectorID   int
	HdfsStorePath string
	InodeID       int64
}

func (fg *Featuregroup) OfflineTableName() string {
	return tableName(fg.Name, fg.Version)
}

func (td *TrainingDataset) DirName() string {
	return tableName(td.Name, td.Version)
}

func tableName(name string, version int) string {
	return name + "_" + strconv.Itoa(version)
}
