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
	"time"

	"hopsworks.ai/fsms/internal/catalog"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func FeaturestoreToDTO(fs catalog.Featurestore) FeaturestoreDTO {
	return FeaturestoreDTO{
		FeaturestoreID:   fs.ID,
		FeaturestoreName: fs.Name,
		ProjectID:        fs.ProjectID,
		ProjectName:      fs.ProjectName,
		Created:          formatTime(fs.Created),
	}
}

func ConnectorToDTO(conn catalog.StorageConnector) StorageConnectorDTO {
	return StorageConnectorDTO{
		ID:                   conn.ID,
		FeaturestoreID:       conn.FeaturestoreID,
		Name:                 conn.Name,
		Description:          conn.Description,
		StorageConnectorType: string(conn.Type),
		DatasetName:          conn.DatasetName,
		HopsfsPath:           conn.HopsfsPath,
		Bucket:               conn.Bucket,
		AccessKey:            conn.AccessKey,
		SecretKey:            conn.SecretKey,
		ConnectionString:     conn.ConnectionString,
		Arguments:            conn.Arguments,
	}
}

func ConnectorFromRequest(connType catalog.ConnectorType, req StorageConnectorRequest) catalog.StorageConnector {
	return catalog.StorageConnector{
		Name:             req.Name,
		Description:      req.Description,
		Type:             connType,
		DatasetName:      req.DatasetName,
		Bucket:           req.Bucket,
		AccessKey:        req.AccessKey,
		SecretKey:        req.SecretKey,
		ConnectionString: req.ConnectionString,
		Arguments:        req.Arguments,
	}
}

func featuresToDTO(features []catalog.Feature) []FeatureDTO {
	dtos := make([]FeatureDTO, 0, len(features))
	for _, feature := range features {
		dtos = append(dtos, FeatureDTO{
			Name:        feature.Name,
			Type:        feature.Type,
			Description: feature.Description,
			Primary:     feature.Primary,
			Partition:   feature.Partition,
			OnlineType:  feature.OnlineType,
		})
	}
	return dtos
}

func FeaturesFromDTO(dtos []FeatureDTO) []catalog.Feature {
	features := make([]catalog.Feature, 0, len(dtos))
	for _, dto := range dtos {
		features = append(features, catalog.Feature{
			Name:        dto.Name,
			Type:        dto.Type,
			Description: dto.Description,
			Primary:     dto.Primary,
			Partition:   dto.Partition,
			OnlineType:  dto.OnlineType,
		})
	}
	return features
}

// FeaturegroupToDTO renders a feature group. The JDBC connector name
// of an on-demand group is resolved by the caller since it needs a
// catalog lookup.
func FeaturegroupToDTO(fs catalog.Featurestore, fg catalog.Featuregroup, jdbcConnectorName string) FeaturegroupDTO {
	dto := FeaturegroupDTO{
		ID:               fg.ID,
		FeaturestoreID:   fg.FeaturestoreID,
		FeaturestoreName: fs.Name,
		Name:             fg.Name,
		Version:          fg.Version,
		FeaturegroupType: string(fg.Type),
		Description:      fg.Description,
		Features:         featuresToDTO(fg.Features),
		Created:          formatTime(fg.Created),
		Creator:          fg.Creator,
	}
	switch fg.Type {
	case catalog.FeaturegroupCached:
		dto.HiveTableID = fg.OfflineTableID
		dto.HiveTableType = fg.OfflineTableType
		dto.InputFormat = fg.InputFormat
		dto.InodeID = fg.InodeID
		dto.OnlineFeaturegroupEnabled = fg.OnlineEnabled
		if fg.OnlineEnabled {
			dto.OnlineFeaturegroupDTO = &OnlineFeaturegroupDTO{
				DBName:    fs.Name,
				TableName: fg.OfflineTableName(),
			}
		}
	case catalog.FeaturegroupOnDemand:
		dto.Query = fg.Query
		dto.JDBCConnectorID = fg.JDBCConnectorID
		dto.JDBCConnectorName = jdbcConnectorName
	}
	return dto
}

func FeaturegroupFromRequest(req FeaturegroupRequest) catalog.Featuregroup {
	return catalog.Featuregroup{
		Name:            req.Name,
		Version:         req.Version,
		Type:            catalog.FeaturegroupType(req.FeaturegroupType),
		Description:     req.Description,
		Features:        FeaturesFromDTO(req.Features),
		InputFormat:     req.InputFormat,
		OnlineEnabled:   req.OnlineFeaturegroupEnabled,
		Query:           req.Query,
		JDBCConnectorID: req.JDBCConnectorID,
	}
}

// TrainingDatasetToDTO renders a training dataset; the connector name
// is resolved by the caller.
func TrainingDatasetToDTO(td catalog.TrainingDataset, connectorName string) TrainingDatasetDTO {
	dto := TrainingDatasetDTO{
		ID:                  td.ID,
		FeaturestoreID:      td.FeaturestoreID,
		Name:                td.Name,
		Version:             td.Version,
		TrainingDatasetType: string(td.Type),
		Description:         td.Description,
		DataFormat:          td.DataFormat,
		Location:            td.Location,
		Created:             formatTime(td.Created),
		Creator:             td.Creator,
	}
	switch td.Type {
	case catalog.TrainingDatasetHopsFS:
		dto.HdfsStorePath = td.HdfsStorePath
		dto.InodeID = td.InodeID
		dto.HopsfsConnectorID = td.ConnectorID
		dto.HopsfsConnectorName = connectorName
	case catalog.TrainingDatasetExternal:
		dto.S3ConnectorID = td.ConnectorID
		dto.S3ConnectorName = connectorName
	}
	return dto
}

func TrainingDatasetFromRequest(req TrainingDatasetRequest) catalog.TrainingDataset {
	td := catalog.TrainingDataset{
		Name:        req.Name,
		Version:     req.Version,
		Type:        catalog.TrainingDatasetType(req.TrainingDatasetType),
		Description: req.Description,
		DataFormat:  req.DataFormat,
	}
	switch td.Type {
	case catalog.TrainingDatasetHopsFS:
		td.ConnectorID = req.HopsfsConnectorID
	case catalog.TrainingDatasetExternal:
		td.ConnectorID = req.S3ConnectorID
	}
	return td
}
