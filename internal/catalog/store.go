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
	"context"
	"errors"
)

var (
	ErrNotFound       = errors.New("catalog: entry not found")
	ErrDuplicateEntry = errors.New("catalog: duplicate entry")
	ErrInUse          = errors.New("catalog: entry is referenced")
)

// Store is the relational metadata catalog. Implementations must make
// every Create* call atomic with respect to its uniqueness check, and
// DeleteConnector atomic with respect to its reference check: of two
// racing creates with the same key exactly one wins, and a connector
// can never be deleted while a racing create commits a reference to it.
type Store interface {
	CreateFeaturestore(ctx context.Context, fs *Featurestore) error
	FeaturestoresByProject(ctx context.Context, projectID int) ([]Featurestore, error)
	GetFeaturestore(ctx context.Context, projectID int, featurestoreID int) (Featurestore, error)

	// CreateConnector assigns the id. The (featurestore, name) pair is
	// unique; violating it returns ErrDuplicateEntry.
	CreateConnector(ctx context.Context, conn *StorageConnector) error
	GetConnector(ctx context.Context, featurestoreID int, connectorID int) (StorageConnector, error)
	ListConnectors(ctx context.Context, featurestoreID int) ([]StorageConnector, error)
	UpdateConnector(ctx context.Context, conn *StorageConnector) error
	// DeleteConnector returns ErrInUse while any feature group or
	// training dataset references the connector.
	DeleteConnector(ctx context.Context, featurestoreID int, connectorID int) (StorageConnector, error)

	// CreateFeaturegroup assigns the id. The (featurestore, name,
	// version) triple is unique; violating it returns
	// ErrDuplicateEntry. A non-zero JDBCConnectorID is re-resolved
	// inside the same atomic boundary and yields ErrNotFound if the
	// connector vanished.
	CreateFeaturegroup(ctx context.Context, fg *Featuregroup) error
	GetFeaturegroup(ctx context.Context, featurestoreID int, featuregroupID int) (Featuregroup, error)
	ListFeaturegroups(ctx context.Context, featurestoreID int) ([]Featuregroup, error)
	FeaturegroupExists(ctx context.Context, featurestoreID int, name string, version int) (bool, error)
	UpdateFeaturegroup(ctx context.Context, fg *Featuregroup) error
	DeleteFeaturegroup(ctx context.Context, featurestoreID int, featuregroupID int) (Featuregroup, error)

	CreateTrainingDataset(ctx context.Context, td *TrainingDataset) error
	GetTrainingDataset(ctx context.Context, featurestoreID int, trainingDatasetID int) (TrainingDataset, error)
	ListTrainingDatasets(ctx context.Context, featurestoreID int) ([]TrainingDataset, error)
	TrainingDatasetExists(ctx context.Context, featurestoreID int, name string, version int) (bool, error)
	UpdateTrainingDataset(ctx context.Context, td *TrainingDataset) error
	DeleteTrainingDataset(ctx context.Context, featurestoreID int, trainingDatasetID int) (TrainingDataset, error)
}
