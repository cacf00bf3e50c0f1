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

// Package trainingdataset manages training datasets. HopsFS backed
// datasets get a directory under the training datasets connector path;
// external datasets only reference data the system does not own and
// are never touched physically.
package trainingdataset

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"

	"hopsworks.ai/fsms/internal/catalog"
	"hopsworks.ai/fsms/internal/connector"
	"hopsworks.ai/fsms/internal/fserror"
	"hopsworks.ai/fsms/internal/log"
	"hopsworks.ai/fsms/internal/naming"
	"hopsworks.ai/fsms/internal/stores"
)

type Manager struct {
	store    catalog.Store
	fs       stores.FileSystem
	registry *connector.Registry

	rollbackRetries uint
	rollbackDelay   time.Duration
	opTimeout       time.Duration
}

func NewManager(store catalog.Store, fs stores.FileSystem, registry *connector.Registry,
	rollbackRetries uint, rollbackDelay time.Duration, opTimeout time.Duration) *Manager {
	return &Manager{
		store:           store,
		fs:              fs,
		registry:        registry,
		rollbackRetries: rollbackRetries,
		rollbackDelay:   rollbackDelay,
		opTimeout:       opTimeout,
	}
}

func (m *Manager) compensate(step string, op func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.opTimeout)
	defer cancel()
	err := retry.Do(
		func() error { return op(ctx) },
		retry.Context(ctx),
		retry.Attempts(m.rollbackRetries),
		retry.Delay(m.rollbackDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		log.Errorf("Rollback step %s failed after %d attempts; error: %v", step, m.rollbackRetries, err)
	}
}

// Create registers a training dataset. The connector reference is
// resolved and validated against the variant; HopsFS backed datasets
// get their directory provisioned before the catalog commit.
func (m *Manager) Create(ctx context.Context, fs catalog.Featurestore, td catalog.TrainingDataset) (catalog.TrainingDataset, *fserror.RestErrorCode) {
	if fsErr := naming.ValidateTrainingDatasetName(td.Name); fsErr != nil {
		return catalog.TrainingDataset{}, fsErr
	}
	if td.Version == 0 {
		td.Version = 1
	}
	if fsErr := naming.ValidateVersion(td.Version); fsErr != nil {
		return catalog.TrainingDataset{}, fsErr
	}
	if td.DataFormat == "" {
		return catalog.TrainingDataset{}, fserror.TRAINING_DATASET_DATA_FORMAT_NOT_PROVIDED.NewMessagef(
			"name: %s", td.Name)
	}
	td.FeaturestoreID = fs.ID
	if td.Created.IsZero() {
		td.Created = time.Now().UTC()
	}

	exists, err := m.store.TrainingDatasetExists(ctx, fs.ID, td.Name, td.Version)
	if err != nil {
		return catalog.TrainingDataset{}, fserror.AsRestErrorCode(err)
	}
	if exists {
		return catalog.TrainingDataset{}, fserror.TRAINING_DATASET_EXISTS.NewMessagef(
			"name: %s, version: %d", td.Name, td.Version)
	}

	var provisionedPath string
	switch td.Type {
	case catalog.TrainingDatasetHopsFS:
		if td.ConnectorID == 0 {
			return catalog.TrainingDataset{}, fserror.HOPSFS_CONNECTOR_NOT_PROVIDED.NewMessagef(
				"name: %s", td.Name)
		}
		conn, fsErr := m.registry.Get(ctx, fs.ID, td.ConnectorID)
		if fsErr != nil {
			return catalog.TrainingDataset{}, fsErr
		}
		if conn.Type != catalog.ConnectorHopsFS {
			return catalog.TrainingDataset{}, fserror.HOPSFS_CONNECTOR_NOT_PROVIDED.NewMessagef(
				"connector %s is of type %s", conn.Name, conn.Type)
		}
		td.HdfsStorePath = conn.HopsfsPath + "/" + td.DirName()
		path, err := m.fs.MkDirs(ctx, td.HdfsStorePath)
		if err != nil {
			return catalog.TrainingDataset{}, fserror.FILESYSTEM_OP_FAILED.NewMessagef(
				"failed creating directory %s; error: %v", td.HdfsStorePath, err)
		}
		td.InodeID = path.InodeID
		td.Location = td.HdfsStorePath
		provisionedPath = td.HdfsStorePath
	case catalog.TrainingDatasetExternal:
		if td.ConnectorID == 0 {
			return catalog.TrainingDataset{}, fserror.S3_CONNECTOR_NOT_PROVIDED.NewMessagef(
				"name: %s", td.Name)
		}
		conn, fsErr := m.registry.Get(ctx, fs.ID, td.ConnectorID)
		if fsErr != nil {
			return catalog.TrainingDataset{}, fsErr
		}
		if conn.Type != catalog.ConnectorS3 {
			return catalog.TrainingDataset{}, fserror.S3_CONNECTOR_NOT_PROVIDED.NewMessagef(
				"connector %s is of type %s", conn.Name, conn.Type)
		}
		td.Location = "s3://" + conn.Bucket + "/" + td.DirName()
	default:
		return catalog.TrainingDataset{}, fserror.TRAINING_DATASET_DATA_FORMAT_NOT_PROVIDED.NewMessagef(
			"unknown training dataset type: %s", td.Type)
	}

	if err := m.store.CreateTrainingDataset(ctx, &td); err != nil {
		if provisionedPath != "" {
			m.compensate("remove training dataset directory", func(ctx context.Context) error {
				return m.fs.Remove(ctx, provisionedPath)
			})
		}
		if errors.Is(err, catalog.ErrDuplicateEntry) {
			return catalog.TrainingDataset{}, fserror.TRAINING_DATASET_EXISTS.NewMessagef(
				"name: %s, version: %d", td.Name, td.Version)
		}
		if errors.Is(err, catalog.ErrNotFound) {
			// the connector vanished between the check and the commit
			return catalog.TrainingDataset{}, fserror.STORAGE_CONNECTOR_NOT_FOUND.NewMessagef(
				"connectorId: %d", td.ConnectorID)
		}
		log.Errorf("Failed committing training dataset %s; error: %v", td.Name, err)
		return catalog.TrainingDataset{}, fserror.AsRestErrorCode(err)
	}
	log.Infof("Created training dataset %s (id %d) in feature store %s", td.DirName(), td.ID, fs.Name)
	return td, nil
}

func (m *Manager) Get(ctx context.Context, featurestoreID int, trainingDatasetID int) (catalog.TrainingDataset, *fserror.RestErrorCode) {
	td, err := m.store.GetTrainingDataset(ctx, featurestoreID, trainingDatasetID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.TrainingDataset{}, fserror.TRAINING_DATASET_NOT_FOUND.NewMessagef(
				"trainingDatasetId: %d", trainingDatasetID)
		}
		return catalog.TrainingDataset{}, fserror.AsRestErrorCode(err)
	}
	return td, nil
}

func (m *Manager) List(ctx context.Context, featurestoreID int) ([]catalog.TrainingDataset, *fserror.RestErrorCode) {
	all, err := m.store.ListTrainingDatasets(ctx, featurestoreID)
	if err != nil {
		return nil, fserror.AsRestErrorCode(err)
	}
	return all, nil
}

// MetadataUpdate carries the mutable fields of a training dataset.
// Zero valued fields keep their current value. The connector reference
// and the version are fixed at creation.
type MetadataUpdate struct {
	Name        string
	Description string
	DataFormat  string
}

// Update changes the catalog row only; the provisioned directory keeps
// the creation name, its stored path stays authoritative.
func (m *Manager) Update(ctx context.Context, fs catalog.Featurestore, trainingDatasetID int, update MetadataUpdate) (catalog.TrainingDataset, *fserror.RestErrorCode) {
	td, fsErr := m.Get(ctx, fs.ID, trainingDatasetID)
	if fsErr != nil {
		return catalog.TrainingDataset{}, fsErr
	}
	if update.Name != "" && update.Name != td.Name {
		if fsErr := naming.ValidateTrainingDatasetName(update.Name); fsErr != nil {
			return catalog.TrainingDataset{}, fsErr
		}
		exists, err := m.store.TrainingDatasetExists(ctx, fs.ID, update.Name, td.Version)
		if err != nil {
			return catalog.TrainingDataset{}, fserror.AsRestErrorCode(err)
		}
		if exists {
			return catalog.TrainingDataset{}, fserror.TRAINING_DATASET_EXISTS.NewMessagef(
				"name: %s, version: %d", update.Name, td.Version)
		}
		td.Name = update.Name
	}
	td.Description = update.Description
	if update.DataFormat != "" {
		td.DataFormat = update.DataFormat
	}
	if err := m.store.UpdateTrainingDataset(ctx, &td); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.TrainingDataset{}, fserror.TRAINING_DATASET_NOT_FOUND.NewMessagef(
				"trainingDatasetId: %d", trainingDatasetID)
		}
		if errors.Is(err, catalog.ErrDuplicateEntry) {
			return catalog.TrainingDataset{}, fserror.TRAINING_DATASET_EXISTS.NewMessagef(
				"name: %s, version: %d", td.Name, td.Version)
		}
		return catalog.TrainingDataset{}, fserror.AsRestErrorCode(err)
	}
	return td, nil
}

// Delete removes the catalog row, and the backing directory for HopsFS
// backed datasets only.
func (m *Manager) Delete(ctx context.Context, fs catalog.Featurestore, trainingDatasetID int) (catalog.TrainingDataset, *fserror.RestErrorCode) {
	td, fsErr := m.Get(ctx, fs.ID, trainingDatasetID)
	if fsErr != nil {
		return catalog.TrainingDataset{}, fsErr
	}
	if td.Type == catalog.TrainingDatasetHopsFS && td.HdfsStorePath != "" {
		if err := m.fs.Remove(ctx, td.HdfsStorePath); err != nil {
			return catalog.TrainingDataset{}, fserror.FILESYSTEM_OP_FAILED.NewMessagef(
				"failed removing directory %s; error: %v", td.HdfsStorePath, err)
		}
	}
	deleted, err := m.store.DeleteTrainingDataset(ctx, fs.ID, trainingDatasetID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.TrainingDataset{}, fserror.TRAINING_DATASET_NOT_FOUND.NewMessagef(
				"trainingDatasetId: %d", trainingDatasetID)
		}
		return catalog.TrainingDataset{}, fserror.AsRestErrorCode(err)
	}
	log.Infof("Deleted training dataset %s (id %d) from feature store %s", td.Name, td.ID, fs.Name)
	return deleted, nil
}
