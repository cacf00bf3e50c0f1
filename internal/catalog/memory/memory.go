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

// Package memory is the embedded catalog store. It backs single node
// deployments and the test suites; the mysql store is its production
// counterpart. One mutex guards all tables, which makes every store
// call a single atomic boundary.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"hopsworks.ai/fsms/internal/catalog"
)

type Store struct {
	mu               sync.RWMutex
	nextID           int
	featurestores    map[int]catalog.Featurestore
	connectors       map[int]catalog.StorageConnector
	featuregroups    map[int]catalog.Featuregroup
	trainingDatasets map[int]catalog.TrainingDataset
}

var _ catalog.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		nextID:           1,
		featurestores:    make(map[int]catalog.Featurestore),
		connectors:       make(map[int]catalog.StorageConnector),
		featuregroups:    make(map[int]catalog.Featuregroup),
		trainingDatasets: make(map[int]catalog.TrainingDataset),
	}
}

func (s *Store) allocateID() int {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Store) CreateFeaturestore(ctx context.Context, fs *catalog.Featurestore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.featurestores {
		if existing.ProjectID == fs.ProjectID {
			return catalog.ErrDuplicateEntry
		}
	}
	fs.ID = s.allocateID()
	if fs.Created.IsZero() {
		fs.Created = time.Now().UTC()
	}
	s.featurestores[fs.ID] = *fs
	return nil
}

func (s *Store) FeaturestoresByProject(ctx context.Context, projectID int) ([]catalog.Featurestore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []catalog.Featurestore{}
	for _, fs := range s.featurestores {
		if fs.ProjectID == projectID {
			result = append(result, fs)
		}
	}
	return result, nil
}

func (s *Store) GetFeaturestore(ctx context.Context, projectID int, featurestoreID int) (catalog.Featurestore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fs, ok := s.featurestores[featurestoreID]
	if !ok || fs.ProjectID != projectID {
		return catalog.Featurestore{}, catalog.ErrNotFound
	}
	return fs, nil
}

func (s *Store) CreateConnector(ctx context.Context, conn *catalog.StorageConnector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.connectors {
		if existing.FeaturestoreID == conn.FeaturestoreID &&
			strings.EqualFold(existing.Name, conn.Name) {
			return catalog.ErrDuplicateEntry
		}
	}
	conn.ID = s.allocateID()
	s.connectors[conn.ID] = *conn
	return nil
}

func (s *Store) GetConnector(ctx context.Context, featurestoreID int, connectorID int) (catalog.StorageConnector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getConnectorLocked(featurestoreID, connectorID)
}

func (s *Store) getConnectorLocked(featurestoreID int, connectorID int) (catalog.StorageConnector, error) {
	conn, ok := s.connectors[connectorID]
	if !ok || conn.FeaturestoreID != featurestoreID {
		return catalog.StorageConnector{}, catalog.ErrNotFound
	}
	return conn, nil
}

func (s *Store) ListConnectors(ctx context.Context, featurestoreID int) ([]catalog.StorageConnector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []catalog.StorageConnector{}
	for _, conn := range s.connectors {
		if conn.FeaturestoreID == featurestoreID {
			result = append(result, conn)
		}
	}
	return result, nil
}

func (s *Store) UpdateConnector(ctx context.Context, conn *catalog.StorageConnector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.connectors[conn.ID]
	if !ok || existing.FeaturestoreID != conn.FeaturestoreID {
		return catalog.ErrNotFound
	}
	for _, other := range s.connectors {
		if other.ID != conn.ID && other.FeaturestoreID == conn.FeaturestoreID &&
			strings.EqualFold(other.Name, conn.Name) {
			return catalog.ErrDuplicateEntry
		}
	}
	s.connectors[conn.ID] = *conn
	return nil
}

func (s *Store) DeleteConnector(ctx context.Context, featurestoreID int, connectorID int) (catalog.StorageConnector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := s.getConnectorLocked(featurestoreID, connectorID)
	if err != nil {
		return catalog.StorageConnector{}, err
	}
	// The reference check and the delete share this lock, so a racing
	// create cannot commit a reference to a connector we remove here.
	for _, fg := range s.featuregroups {
		if fg.JDBCConnectorID == connectorID {
			return catalog.StorageConnector{}, catalog.ErrInUse
		}
	}
	for _, td := range s.trainingDatasets {
		if td.ConnectorID == connectorID {
			return catalog.StorageConnector{}, catalog.ErrInUse
		}
	}
	delete(s.connectors, connectorID)
	return conn, nil
}

func (s *Store) CreateFeaturegroup(ctx context.Context, fg *catalog.Featuregroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.featuregroups {
		if existing.FeaturestoreID == fg.FeaturestoreID &&
			strings.EqualFold(existing.Name, fg.Name) && existing.Version == fg.Version {
			return catalog.ErrDuplicateEntry
		}
	}
	if fg.JDBCConnectorID != 0 {
		if _, err := s.getConnectorLocked(fg.FeaturestoreID, fg.JDBCConnectorID); err != nil {
			return err
		}
	}
	fg.ID = s.allocateID()
	if fg.Created.IsZero() {
		fg.Created = time.Now().UTC()
	}
	s.featuregroups[fg.ID] = copyFeaturegroup(*fg)
	return nil
}

func (s *Store) GetFeaturegroup(ctx context.Context, featurestoreID int, featuregroupID int) (catalog.Featuregroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fg, ok := s.featuregroups[featuregroupID]
	if !ok || fg.FeaturestoreID != featurestoreID {
		return catalog.Featuregroup{}, catalog.ErrNotFound
	}
	return copyFeaturegroup(fg), nil
}

func (s *Store) ListFeaturegroups(ctx context.Context, featurestoreID int) ([]catalog.Featuregroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []catalog.Featuregroup{}
	for _, fg := range s.featuregroups {
		if fg.FeaturestoreID == featurestoreID {
			result = append(result, copyFeaturegroup(fg))
		}
	}
	return result, nil
}

func (s *Store) FeaturegroupExists(ctx context.Context, featurestoreID int, name string, version int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, fg := range s.featuregroups {
		if fg.FeaturestoreID == featurestoreID &&
			strings.EqualFold(fg.Name, name) && fg.Version == version {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) UpdateFeaturegroup(ctx context.Context, fg *catalog.Featuregroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.featuregroups[fg.ID]
	if !ok || existing.FeaturestoreID != fg.FeaturestoreID {
		return catalog.ErrNotFound
	}
	for _, other := range s.featuregroups {
		if other.ID != fg.ID && other.FeaturestoreID == fg.FeaturestoreID &&
			strings.EqualFold(other.Name, fg.Name) && other.Version == fg.Version {
			return catalog.ErrDuplicateEntry
		}
	}
	s.featuregroups[fg.ID] = copyFeaturegroup(*fg)
	return nil
}

func (s *Store) DeleteFeaturegroup(ctx context.Context, featurestoreID int, featuregroupID int) (catalog.Featuregroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fg, ok := s.featuregroups[featuregroupID]
	if !ok || fg.FeaturestoreID != featurestoreID {
		return catalog.Featuregroup{}, catalog.ErrNotFound
	}
	delete(s.featuregroups, featuregroupID)
	return copyFeaturegroup(fg), nil
}

func (s *Store) CreateTrainingDataset(ctx context.Context, td *catalog.TrainingDataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.trainingDatasets {
		if existing.FeaturestoreID == td.FeaturestoreID &&
			strings.EqualFold(existing.Name, td.Name) && existing.Version == td.Version {
			return catalog.ErrDuplicateEntry
		}
	}
	if td.ConnectorID != 0 {
		if _, err := s.getConnectorLocked(td.FeaturestoreID, td.ConnectorID); err != nil {
			return err
		}
	}
	td.ID = s.allocateID()
	if td.Created.IsZero() {
		td.Created = time.Now().UTC()
	}
	s.trainingDatasets[td.ID] = *td
	return nil
}

func (s *Store) GetTrainingDataset(ctx context.Context, featurestoreID int, trainingDatasetID int) (catalog.TrainingDataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	td, ok := s.trainingDatasets[trainingDatasetID]
	if !ok || td.FeaturestoreID != featurestoreID {
		return catalog.TrainingDataset{}, catalog.ErrNotFound
	}
	return td, nil
}

func (s *Store) ListTrainingDatasets(ctx context.Context, featurestoreID int) ([]catalog.TrainingDataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []catalog.TrainingDataset{}
	for _, td := range s.trainingDatasets {
		if td.FeaturestoreID == featurestoreID {
			result = append(result, td)
		}
	}
	return result, nil
}

func (s *Store) TrainingDatasetExists(ctx context.Context, featurestoreID int, name string, version int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, td := range s.trainingDatasets {
		if td.FeaturestoreID == featurestoreID &&
			strings.EqualFold(td.Name, name) && td.Version == version {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) UpdateTrainingDataset(ctx context.Context, td *catalog.TrainingDataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.trainingDatasets[td.ID]
	if !ok || existing.FeaturestoreID != td.FeaturestoreID {
		return catalog.ErrNotFound
	}
	for _, other := range s.trainingDatasets {
		if other.ID != td.ID && other.FeaturestoreID == td.FeaturestoreID &&
			strings.EqualFold(other.Name, td.Name) && other.Version == td.Version {
			return catalog.ErrDuplicateEntry
		}
	}
	s.trainingDatasets[td.ID] = *td
	return nil
}

func (s *Store) DeleteTrainingDataset(ctx context.Context, featurestoreID int, trainingDatasetID int) (catalog.TrainingDataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	td, ok := s.trainingDatasets[trainingDatasetID]
	if !ok || td.FeaturestoreID != featurestoreID {
		return catalog.TrainingDataset{}, catalog.ErrNotFound
	}
	delete(s.trainingDatasets, trainingDatasetID)
	return td, nil
}

func copyFeaturegroup(fg catalog.Featuregroup) catalog.Featuregroup {
	features := make([]catalog.Feature, len(fg.Features))
	copy(features, fg.Features)
	fg.Features = features
	return fg
}
