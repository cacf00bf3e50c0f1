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
package api

import (
	"encoding/json"
	"fmt"
)

type FeaturestoreDTO struct {
	FeaturestoreID   int    `json:"featurestoreId"`
	FeaturestoreName string `json:"featurestoreName"`
	ProjectID        int    `json:"projectId"`
	ProjectName      string `json:"projectName"`
	Created          string `json:"created"`
}

func (r FeaturestoreDTO) String() string {
	strBytes, err := json.MarshalIndent(r, "", "\t")
	if err != nil {
		return fmt.Sprintf("Failed to marshal FeaturestoreDTO. Error: %v", err)
	} else {
		return string(strBytes)
	}
}

// StorageConnectorDTO is the flattened polymorphic connector
// representation; only the fields of the connector's variant are set.
type StorageConnectorDTO struct {
	ID                   int    `json:"id"`
	FeaturestoreID       int    `json:"featurestoreId"`
	Name                 string `json:"name"`
	Description          string `json:"description"`
	StorageConnectorType string `json:"storageConnectorType"`

	DatasetName string `json:"datasetName,omitempty"`
	HopsfsPath  string `json:"hopsfsPath,omitempty"`

	Bucket    string `json:"bucket,omitempty"`
	AccessKey string `json:"accessKey,omitempty"`
	SecretKey string `json:"secretKey,omitempty"`

	ConnectionString string `json:"connectionString,omitempty"`
	Arguments        string `json:"arguments,omitempty"`
}

func (r StorageConnectorDTO) String() string {
	strBytes, err := json.MarshalIndent(r, "", "\t")
	if err != nil {
		return fmt.Sprintf("Failed to marshal StorageConnectorDTO. Error: %v", err)
	} else {
		return string(strBytes)
	}
}

type StorageConnectorRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`

	DatasetName      string `json:"datasetName"`
	Bucket           string `json:"bucket"`
	AccessKey        string `json:"accessKey"`
	SecretKey        string `json:"secretKey"`
	ConnectionString string `json:"connectionString"`
	Arguments        string `json:"arguments"`
}

func (freq StorageConnectorRequest) String() string {
	strBytes, err := json.MarshalIndent(freq, "", "\t")
	if err != nil {
		return fmt.Sprintf("Failed to marshal StorageConnectorRequest. Error: %v", err)
	} else {
		return string(strBytes)
	}
}

type FeatureDTO struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Primary     bool   `json:"primary"`
	Partition   bool   `json:"partition"`
	OnlineType  string `json:"onlineType,omitempty"`
}

// OnlineFeaturegroupDTO describes the online serving table of an
// online enabled feature group.
type OnlineFeaturegroupDTO struct {
	DBName    string `json:"dbName"`
	TableName string `json:"tableName"`
}

type FeaturegroupDTO struct {
	ID               int          `json:"id"`
	FeaturestoreID   int          `json:"featurestoreId"`
	FeaturestoreName string       `json:"featurestoreName"`
	Name             string       `json:"name"`
	Version          int          `json:"version"`
	FeaturegroupType string       `json:"featuregroupType"`
	Description      string       `json:"description"`
	Features         []FeatureDTO `json:"features"`
	Created          string       `json:"created"`
	Creator          string       `json:"creator"`

	HiveTableID               int64                  `json:"hiveTableId,omitempty"`
	HiveTableType             string                 `json:"hiveTableType,omitempty"`
	InputFormat               string                 `json:"inputFormat,omitempty"`
	InodeID                   int64                  `json:"inodeId,omitempty"`
	OnlineFeaturegroupEnabled bool                   `json:"onlineFeaturegroupEnabled"`
	OnlineFeaturegroupDTO     *OnlineFeaturegroupDTO `json:"onlineFeaturegroupDTO,omitempty"`

	Query             string `json:"query,omitempty"`
	JDBCConnectorID   int    `json:"jdbcConnectorId,omitempty"`
	JDBCConnectorName string `json:"jdbcConnectorName,omitempty"`
}

func (r FeaturegroupDTO) String() string {
	strBytes, err := json.MarshalIndent(r, "", "\t")
	if err != nil {
		return fmt.Sprintf("Failed to marshal FeaturegroupDTO. Error: %v", err)
	} else {
		return string(strBytes)
	}
}

type FeaturegroupRequest struct {
	Name             string       `json:"name" binding:"required"`
	Version          int          `json:"version"`
	FeaturegroupType string       `json:"featuregroupType" binding:"required"`
	Description      string       `json:"description"`
	Features         []FeatureDTO `json:"features"`

	InputFormat               string `json:"inputFormat"`
	OnlineFeaturegroupEnabled bool   `json:"onlineFeaturegroupEnabled"`

	Query           string `json:"query"`
	JDBCConnectorID int    `json:"jdbcConnectorId"`
}

func (freq FeaturegroupRequest) String() string {
	strBytes, err := json.MarshalIndent(freq, "", "\t")
	if err != nil {
		return fmt.Sprintf("Failed to marshal FeaturegroupRequest. Error: %v", err)
	} else {
		return string(strBytes)
	}
}

type FeaturegroupUpdateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Query       string `json:"query"`
}

type FeaturegroupPreviewDTO struct {
	OfflinePreview []map[string]interface{} `json:"offlineFeaturegroupPreview"`
	OnlinePreview  []map[string]interface{} `json:"onlineFeaturegroupPreview,omitempty"`
}

// FeaturegroupSchemaDTO carries the DDL of the physical tables,
// offline first and online second when the group is online enabled.
type FeaturegroupSchemaDTO struct {
	Columns []string `json:"columns"`
}

type TrainingDatasetDTO struct {
	ID                  int    `json:"id"`
	FeaturestoreID      int    `json:"featurestoreId"`
	Name                string `json:"name"`
	Version             int    `json:"version"`
	TrainingDatasetType string `json:"trainingDatasetType"`
	Description         string `json:"description"`
	DataFormat          string `json:"dataFormat"`
	Location            string `json:"location"`
	Created             string `json:"created"`
	Creator             string `json:"creator"`

	HdfsStorePath       string `json:"hdfsStorePath,omitempty"`
	InodeID             int64  `json:"inodeId,omitempty"`
	HopsfsConnectorID   int    `json:"hopsfsConnectorId,omitempty"`
	HopsfsConnectorName string `json:"hopsfsConnectorName,omitempty"`
	S3ConnectorID       int    `json:"s3ConnectorId,omitempty"`
	S3ConnectorName     string `json:"s3ConnectorName,omitempty"`
}

func (r TrainingDatasetDTO) String() string {
	strBytes, err := json.MarshalIndent(r, "", "\t")
	if err != nil {
		return fmt.Sprintf("Failed to marshal TrainingDatasetDTO. Error: %v", err)
	} else {
		return string(strBytes)
	}
}

type TrainingDatasetRequest struct {
	Name                string `json:"name" binding:"required"`
	Version             int    `json:"version"`
	TrainingDatasetType string `json:"trainingDatasetType" binding:"required"`
	Description         string `json:"description"`
	DataFormat          string `json:"dataFormat"`

	HopsfsConnectorID int `json:"hopsfsConnectorId"`
	S3ConnectorID     int `json:"s3ConnectorId"`
}

func (freq TrainingDatasetRequest) String() string {
	strBytes, err := json.MarshalIndent(freq, "", "\t")
	if err != nil {
		return fmt.Sprintf("Failed to marshal TrainingDatasetRequest. Error: %v", err)
	} else {
		return string(strBytes)
	}
}

type TrainingDatasetUpdateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	DataFormat  string `json:"dataFormat"`
}
