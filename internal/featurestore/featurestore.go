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

// Package featurestore resolves project scoped feature stores. Each
// project owns exactly one feature store, provisioned together with
// the project and named after it. Resolved entries are cached since
// the binding never changes after provisioning.
package featurestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"hopsworks.ai/fsms/internal/catalog"
	"hopsworks.ai/fsms/internal/config"
	"hopsworks.ai/fsms/internal/fserror"
	"hopsworks.ai/fsms/internal/log"
	"hopsworks.ai/fsms/internal/stores"
)

// TrainingDatasetsSuffix is the suffix of the per-project dataset that
// holds training dataset directories.
const TrainingDatasetsSuffix = "_Training_Datasets"

// Name returns the feature store name of a project. One feature store
// per project; the name is the lowercased project name with a fixed
// suffix.
func Name(projectName string) string {
	return strings.ToLower(projectName) + "_featurestore"
}

// TrainingDatasetsName returns the project dataset holding training
// dataset directories.
func TrainingDatasetsName(projectName string) string {
	return projectName + TrainingDatasetsSuffix
}

type Resolver struct {
	store catalog.Store
	fs    stores.FileSystem
	cache *gocache.Cache
}

func NewResolver(store catalog.Store, fs stores.FileSystem, cacheValidity time.Duration) *Resolver {
	return &Resolver{
		store: store,
		fs:    fs,
		cache: gocache.New(cacheValidity, 2*cacheValidity),
	}
}

// Provision creates the feature store of a project together with its
// implicit training datasets connector. Provisioning is idempotent; a
// second call returns the existing feature store.
func (r *Resolver) Provision(ctx context.Context, projectID int, projectName string) (catalog.Featurestore, *fserror.RestErrorCode) {
	existing, err := r.store.FeaturestoresByProject(ctx, projectID)
	if err != nil {
		log.Errorf("Failed listing feature stores for project %d; error: %v", projectID, err)
		return catalog.Featurestore{}, fserror.AsRestErrorCode(err)
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	fs := catalog.Featurestore{
		ProjectID:   projectID,
		ProjectName: projectName,
		Name:        Name(projectName),
		Created:     time.Now().UTC(),
	}
	if err := r.store.CreateFeaturestore(ctx, &fs); err != nil {
		if errors.Is(err, catalog.ErrDuplicateEntry) {
			// lost a provisioning race; the winner's row is the truth
			return r.firstByProject(ctx, projectID)
		}
		log.Errorf("Failed creating feature store for project %s; error: %v", projectName, err)
		return catalog.Featurestore{}, fserror.AsRestErrorCode(err)
	}

	datasetName := TrainingDatasetsName(projectName)
	path, err := r.fs.DatasetPath(ctx, projectName, datasetName)
	if err != nil {
		if !errors.Is(err, stores.ErrPathNotFound) {
			return catalog.Featurestore{}, fserror.FILESYSTEM_OP_FAILED.NewMessagef(
				"failed resolving dataset %s; error: %v", datasetName, err)
		}
		rootDir := config.GetAll().FileSystem.RootDir
		path, err = r.fs.MkDirs(ctx, fmt.Sprintf("%s/%s/%s", rootDir, projectName, datasetName))
		if err != nil {
			return catalog.Featurestore{}, fserror.FILESYSTEM_OP_FAILED.NewMessagef(
				"failed creating dataset %s; error: %v", datasetName, err)
		}
	}
	conn := catalog.StorageConnector{
		FeaturestoreID: fs.ID,
		Name:           datasetName,
		Description:    "HOPSFS backend for storing Training Datasets of the project " + projectName,
		Type:           catalog.ConnectorHopsFS,
		DatasetName:    datasetName,
		HopsfsPath:     path.Path,
	}
	if err := r.store.CreateConnector(ctx, &conn); err != nil && !errors.Is(err, catalog.ErrDuplicateEntry) {
		log.Errorf("Failed creating training datasets connector for project %s; error: %v", projectName, err)
		return catalog.Featurestore{}, fserror.AsRestErrorCode(err)
	}
	log.Infof("Provisioned feature store %s (id %d) for project %s", fs.Name, fs.ID, projectName)
	return fs, nil
}

func (r *Resolver) firstByProject(ctx context.Context, projectID int) (catalog.Featurestore, *fserror.RestErrorCode) {
	all, err := r.store.FeaturestoresByProject(ctx, projectID)
	if err != nil || len(all) == 0 {
		return catalog.Featurestore{}, fserror.FEATURESTORE_NOT_FOUND.NewMessagef("project: %d", projectID)
	}
	return all[0], nil
}

// List returns the feature stores visible to a project.
func (r *Resolver) List(ctx context.Context, projectID int) ([]catalog.Featurestore, *fserror.RestErrorCode) {
	all, err := r.store.FeaturestoresByProject(ctx, projectID)
	if err != nil {
		return nil, fserror.AsRestErrorCode(err)
	}
	return all, nil
}

// Get resolves a feature store by id within a project scope.
func (r *Resolver) Get(ctx context.Context, projectID int, featurestoreID int) (catalog.Featurestore, *fserror.RestErrorCode) {
	key := fmt.Sprintf("%d/%d", projectID, featurestoreID)
	if cached, ok := r.cache.Get(key); ok {
		return cached.(catalog.Featurestore), nil
	}
	fs, err := r.store.GetFeaturestore(ctx, projectID, featurestoreID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.Featurestore{}, fserror.FEATURESTORE_NOT_FOUND.NewMessagef(
				"featurestoreId: %d", featurestoreID)
		}
		return catalog.Featurestore{}, fserror.AsRestErrorCode(err)
	}
	r.cache.Set(key, fs, gocache.DefaultExpiration)
	return fs, nil
}
