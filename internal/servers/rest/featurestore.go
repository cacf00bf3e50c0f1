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
	"strconv"

	"github.com/gin-gonic/gin"

	"hopsworks.ai/fsms/internal/catalog"
	"hopsworks.ai/fsms/internal/config"
	"hopsworks.ai/fsms/internal/fserror"
	"hopsworks.ai/fsms/pkg/api"
)

func pathParamInt(c *gin.Context, name string) (int, *fserror.RestErrorCode) {
	value, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, fserror.MALFORMED_REQUEST.NewMessagef("path parameter %s is not a number", name)
	}
	return value, nil
}

// resolveFeaturestore parses the project and feature store path
// parameters and resolves the feature store within the project scope.
func (h *RouteHandler) resolveFeaturestore(c *gin.Context) (catalog.Featurestore, *fserror.RestErrorCode) {
	projectID, fsErr := pathParamInt(c, config.PROJECT_PP)
	if fsErr != nil {
		return catalog.Featurestore{}, fsErr
	}
	featurestoreID, fsErr := pathParamInt(c, config.FEATURESTORE_PP)
	if fsErr != nil {
		return catalog.Featurestore{}, fsErr
	}
	return h.resolver.Get(c.Request.Context(), projectID, featurestoreID)
}

func (h *RouteHandler) ListFeaturestores(c *gin.Context) {
	projectID, fsErr := pathParamInt(c, config.PROJECT_PP)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	featurestores, fsErr := h.resolver.List(c.Request.Context(), projectID)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	dtos := make([]api.FeaturestoreDTO, 0, len(featurestores))
	for _, fs := range featurestores {
		dtos = append(dtos, api.FeaturestoreToDTO(fs))
	}
	c.JSON(http.StatusOK, dtos)
}

func (h *RouteHandler) GetFeaturestore(c *gin.Context) {
	fs, fsErr := h.resolveFeaturestore(c)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	c.JSON(http.StatusOK, api.FeaturestoreToDTO(fs))
}
