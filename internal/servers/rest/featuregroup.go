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
	"hopsworks.ai/fsms/internal/featuregroup"
	"hopsworks.ai/fsms/internal/fserror"
	"hopsworks.ai/fsms/pkg/api"
)

// featuregroupToDTO resolves the JDBC connector name of on-demand
// groups before rendering.
func (h *RouteHandler) featuregroupToDTO(c *gin.Context, fs catalog.Featurestore, fg catalog.Featuregroup) api.FeaturegroupDTO {
	jdbcConnectorName := ""
	if fg.Type == catalog.FeaturegroupOnDemand && fg.JDBCConnectorID != 0 {
		if conn, fsErr := h.registry.Get(c.Request.Context(), fs.ID, fg.JDBCConnectorID); fsErr == nil {
			jdbcConnectorName = conn.Name
		}
	}
	return api.FeaturegroupToDTO(fs, fg, jdbcConnectorName)
}

func (h *RouteHandler) ListFeaturegroups(c *gin.Context) {
	fs, fsErr := h.resolveFeaturestore(c)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	featuregroups, fsErr := h.featuregroups.List(c.Request.Context(), fs.ID)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	dtos := make([]api.FeaturegroupDTO, 0, len(featuregroups))
	for _, fg := range featuregroups {
		dtos = append(dtos, h.featuregroupToDTO(c, fs, fg))
	}
	c.JSON(http.StatusOK, dtos)
}

func (h *RouteHandler) CreateFeaturegroup(c *gin.Context) {
	fs, fsErr := h.resolveFeaturestore(c)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	request := api.FeaturegroupRequest{}
	if err := c.BindJSON(&request); err != nil {
		abortWithError(c, fserror.MALFORMED_REQUEST.NewMessagef("error: %v", err))
		return
	}
	fg := api.FeaturegroupFromRequest(request)
	fg.Creator = c.GetString("user")
	created, fsErr := h.featuregroups.Create(c.Request.Context(), fs, fg)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	c.JSON(http.StatusCreated, h.featuregroupToDTO(c, fs, created))
}

func (h *RouteHandler) GetFeaturegroup(c *gin.Context) {
	fs, fg, fsErr := h.resolveFeaturegroup(c)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	c.JSON(http.StatusOK, h.featuregroupToDTO(c, fs, fg))
}

func (h *RouteHandler) resolveFeaturegroup(c *gin.Context) (catalog.Featurestore, catalog.Featuregroup, *fserror.RestErrorCode) {
	fs, fsErr := h.resolveFeaturestore(c)
	if fsErr != nil {
		return catalog.Featurestore{}, catalog.Featuregroup{}, fsErr
	}
	featuregroupID, fsErr := pathParamInt(c, config.FEATUREGROUP_PP)
	if fsErr != nil {
		return catalog.Featurestore{}, catalog.Featuregroup{}, fsErr
	}
	fg, fsErr := h.featuregroups.Get(c.Request.Context(), fs.ID, featuregroupID)
	if fsErr != nil {
		return catalog.Featurestore{}, catalog.Featuregroup{}, fsErr
	}
	return fs, fg, nil
}

func (h *RouteHandler) UpdateFeaturegroup(c *gin.Context) {
	fs, fg, fsErr := h.resolveFeaturegroup(c)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	request := api.FeaturegroupUpdateRequest{}
	if err := c.BindJSON(&request); err != nil {
		abortWithError(c, fserror.MALFORMED_REQUEST.NewMessagef("error: %v", err))
		return
	}
	updated, fsErr := h.featuregroups.UpdateMetadata(c.Request.Context(), fs, fg.ID, featuregroup.MetadataUpdate{
		Name:        request.Name,
		Description: request.Description,
		Query:       request.Query,
	})
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	c.JSON(http.StatusOK, h.featuregroupToDTO(c, fs, updated))
}

func (h *RouteHandler) DeleteFeaturegroup(c *gin.Context) {
	fs, fg, fsErr := h.resolveFeaturegroup(c)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	deleted, fsErr := h.featuregroups.Delete(c.Request.Context(), fs, fg.ID)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	c.JSON(http.StatusOK, h.featuregroupToDTO(c, fs, deleted))
}

func (h *RouteHandler) PreviewFeaturegroup(c *gin.Context) {
	fs, fg, fsErr := h.resolveFeaturegroup(c)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			abortWithError(c, fserror.MALFORMED_REQUEST.NewMessage("query parameter limit is not a number"))
			return
		}
		limit = parsed
	}
	preview, fsErr := h.featuregroups.Preview(c.Request.Context(), fs, fg.ID, limit)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	c.JSON(http.StatusOK, api.FeaturegroupPreviewDTO{
		OfflinePreview: preview.Offline,
		OnlinePreview:  preview.Online,
	})
}

func (h *RouteHandler) FeaturegroupSchema(c *gin.Context) {
	fs, fg, fsErr := h.resolveFeaturegroup(c)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	columns, fsErr := h.featuregroups.TableSchemas(c.Request.Context(), fs, fg.ID)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	c.JSON(http.StatusOK, api.FeaturegroupSchemaDTO{Columns: columns})
}

func (h *RouteHandler) ClearFeaturegroup(c *gin.Context) {
	fs, fg, fsErr := h.resolveFeaturegroup(c)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	cleared, fsErr := h.featuregroups.ClearContents(c.Request.Context(), fs, fg.ID)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	c.JSON(http.StatusOK, h.featuregroupToDTO(c, fs, cleared))
}

func (h *RouteHandler) EnableOnlineFeaturegroup(c *gin.Context) {
	fs, fg, fsErr := h.resolveFeaturegroup(c)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	enabled, fsErr := h.featuregroups.EnableOnline(c.Request.Context(), fs, fg.ID)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	c.JSON(http.StatusOK, h.featuregroupToDTO(c, fs, enabled))
}

func (h *RouteHandler) DisableOnlineFeaturegroup(c *gin.Context) {
	fs, fg, fsErr := h.resolveFeaturegroup(c)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	disabled, fsErr := h.featuregroups.DisableOnline(c.Request.Context(), fs, fg.ID)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	c.JSON(http.StatusOK, h.featuregroupToDTO(c, fs, disabled))
}
