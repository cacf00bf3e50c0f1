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

package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hopsworks.ai/fsms/internal/catalog"
	"hopsworks.ai/fsms/internal/config"
	"hopsworks.ai/fsms/internal/fserror"
	"hopsworks.ai/fsms/internal/trainingdataset"
	"hopsworks.ai/fsms/pkg/api"
)

func (h *RouteHandler) trainingDatasetToDTO(c *gin.Context, fs catalog.Featurestore, td catalog.TrainingDataset) api.TrainingDatasetDTO {
	connectorName := ""
	if td.ConnectorID != 0 {
		if conn, fsErr := h.registry.Get(c.Request.Context(), fs.ID, td.ConnectorID); fsErr == nil {
			connectorName = conn.Name
		}
	}
	return api.TrainingDatasetToDTO(td, connectorName)
}

func (h *RouteHandler) ListTrainingDatasets(c *gin.Context) {
	fs, fsErr := h.resolveFeaturestore(c)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	trainingDatasets, fsErr := h.trainingdatasets.List(c.Request.Context(), fs.ID)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	dtos := make([]api.TrainingDatasetDTO, 0, len(trainingDatasets))
	for _, td := range trainingDatasets {
		dtos = append(dtos, h.trainingDatasetToDTO(c, fs, td))
	}
	c.JSON(http.StatusOK, dtos)
}

func (h *RouteHandler) CreateTrainingDataset(c *gin.Context) {
	fs, fsErr := h.resolveFeaturestore(c)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	request := api.TrainingDatasetRequest{}
	if err := c.BindJSON(&request); err != nil {
		abortWithError(c, fserror.MALFORMED_REQUEST.NewMessagef("error: %v", err))
		return
	}
	td := api.TrainingDatasetFromRequest(request)
	td.Creator = c.GetString("user")
	created, fsErr := h.trainingdatasets.Create(c.Request.Context(), fs, td)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	c.JSON(http.StatusCreated, h.trainingDatasetToDTO(c, fs, created))
}

func (h *RouteHandler) resolveTrainingDataset(c *gin.Context) (catalog.Featurestore, catalog.TrainingDataset, *fserror.RestErrorCode) {
	fs, fsErr := h.resolveFeaturestore(c)
	if fsErr != nil {
		return catalog.Featurestore{}, catalog.TrainingDataset{}, fsErr
	}
	trainingDatasetID, fsErr := pathParamInt(c, config.TRAINING_DATASET_PP)
	if fsErr != nil {
		return catalog.Featurestore{}, catalog.TrainingDataset{}, fsErr
	}
	td, fsErr := h.trainingdatasets.Get(c.Request.Context(), fs.ID, trainingDatasetID)
	if fsErr != nil {
		return catalog.Featurestore{}, catalog.TrainingDataset{}, fsErr
	}
	return fs, td, nil
}

func (h *RouteHandler) GetTrainingDataset(c *gin.Context) {
	fs, td, fsErr := h.resolveTrainingDataset(c)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	c.JSON(http.StatusOK, h.trainingDatasetToDTO(c, fs, td))
}

func (h *RouteHandler) UpdateTrainingDataset(c *gin.Context) {
	fs, td, fsErr := h.resolveTrainingDataset(c)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	request := api.TrainingDatasetUpdateRequest{}
	if err := c.BindJSON(&request); err != nil {
		abortWithError(c, fserror.MALFORMED_REQUEST.NewMessagef("error: %v", err))
		return
	}
	updated, fsErr := h.trainingdatasets.Update(c.Request.Context(), fs, td.ID, trainingdataset.MetadataUpdate{
		Name:        request.Name,
		Description: request.Description,
		DataFormat:  request.DataFormat,
	})
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	c.JSON(http.StatusOK, h.trainingDatasetToDTO(c, fs, updated))
}

func (h *RouteHandler) DeleteTrainingDataset(c *gin.Context) {
	fs, td, fsErr := h.resolveTrainingDataset(c)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	deleted, fsErr := h.trainingdatasets.Delete(c.Request.Context(), fs, td.ID)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	c.JSON(http.StatusOK, h.trainingDatasetToDTO(c, fs, deleted))
}
