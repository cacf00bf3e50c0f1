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
	"strings"

	"github.com/gin-gonic/gin"

	"hopsworks.ai/fsms/internal/catalog"
	"hopsworks.ai/fsms/internal/config"
	"hopsworks.ai/fsms/internal/fserror"
	"hopsworks.ai/fsms/pkg/api"
)

func connectorTypeParam(c *gin.Context) (catalog.ConnectorType, *fserror.RestErrorCode) {
	connType := catalog.ConnectorType(strings.ToUpper(c.Param(config.CONNECTOR_TYPE_PP)))
	switch connType {
	case catalog.ConnectorHopsFS, catalog.ConnectorS3, catalog.ConnectorJDBC:
		return connType, nil
	}
	return "", fserror.ILLEGAL_CONNECTOR_TYPE.NewMessagef("type: %s", c.Param(config.CONNECTOR_TYPE_PP))
}

func (h *RouteHandler) ListStorageConnectors(c *gin.Context) {
	fs, fsErr := h.resolveFeaturestore(c)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	connectors, fsErr := h.registry.List(c.Request.Context(), fs.ID)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	dtos := make([]api.StorageConnectorDTO, 0, len(connectors))
	for _, conn := range connectors {
		dtos = append(dtos, api.ConnectorToDTO(conn))
	}
	c.JSON(http.StatusOK, dtos)
}

func (h *RouteHandler) GetOnlineFeaturestoreConnector(c *gin.Context) {
	fs, fsErr := h.resolveFeaturestore(c)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	conn, fsErr := h.registry.OnlineConnector(c.Request.Context(), fs)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	c.JSON(http.StatusOK, api.ConnectorToDTO(conn))
}

func (h *RouteHandler) CreateStorageConnector(c *gin.Context) {
	fs, fsErr := h.resolveFeaturestore(c)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	connType, fsErr := connectorTypeParam(c)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	request := api.StorageConnectorRequest{}
	if err := c.BindJSON(&request); err != nil {
		abortWithError(c, fserror.MALFORMED_REQUEST.NewMessagef("error: %v", err))
		return
	}
	conn, fsErr := h.registry.Create(c.Request.Context(), fs, api.ConnectorFromRequest(connType, request))
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	c.JSON(http.StatusCreated, api.ConnectorToDTO(conn))
}

// getTypedConnector fetches a connector by id and checks that the path
// variant matches the stored one.
func (h *RouteHandler) getTypedConnector(c *gin.Context, fs catalog.Featurestore) (catalog.StorageConnector, *fserror.RestErrorCode) {
	connType, fsErr := connectorTypeParam(c)
	if fsErr != nil {
		return catalog.StorageConnector{}, fsErr
	}
	connectorID, fsErr := pathParamInt(c, config.CONNECTOR_PP)
	if fsErr != nil {
		return catalog.StorageConnector{}, fsErr
	}
	conn, fsErr := h.registry.Get(c.Request.Context(), fs.ID, connectorID)
	if fsErr != nil {
		return catalog.StorageConnector{}, fsErr
	}
	if conn.Type != connType {
		return catalog.StorageConnector{}, fserror.STORAGE_CONNECTOR_NOT_FOUND.NewMessagef(
			"connectorId: %d, type: %s", connectorID, connType)
	}
	return conn, nil
}

func (h *RouteHandler) GetStorageConnector(c *gin.Context) {
	fs, fsErr := h.resolveFeaturestore(c)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	conn, fsErr := h.getTypedConnector(c, fs)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	c.JSON(http.StatusOK, api.ConnectorToDTO(conn))
}

func (h *RouteHandler) UpdateStorageConnector(c *gin.Context) {
	fs, fsErr := h.resolveFeaturestore(c)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	existing, fsErr := h.getTypedConnector(c, fs)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	request := api.StorageConnectorRequest{}
	if err := c.BindJSON(&request); err != nil {
		abortWithError(c, fserror.MALFORMED_REQUEST.NewMessagef("error: %v", err))
		return
	}
	conn := api.ConnectorFromRequest(existing.Type, request)
	conn.ID = existing.ID
	updated, fsErr := h.registry.Update(c.Request.Context(), fs, conn)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	c.JSON(http.StatusOK, api.ConnectorToDTO(updated))
}

func (h *RouteHandler) DeleteStorageConnector(c *gin.Context) {
	fs, fsErr := h.resolveFeaturestore(c)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	conn, fsErr := h.getTypedConnector(c, fs)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	deleted, fsErr := h.registry.Delete(c.Request.Context(), fs.ID, conn.ID)
	if fsErr != nil {
		abortWithError(c, fsErr)
		return
	}
	c.JSON(http.StatusOK, api.ConnectorToDTO(deleted))
}
