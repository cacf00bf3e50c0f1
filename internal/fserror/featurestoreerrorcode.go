/* Copyright (c) 2023 Hopsworks AB
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

package fserror

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// RestErrorCode is a stable, numbered feature store error. The code is
// part of the API contract and must never be renumbered.
type RestErrorCode struct {
	code    int
	reason  string
	status  int
	message string
}

// ResponseBody is the JSON error body returned to clients.
type ResponseBody struct {
	ErrorCode int    `json:"errorCode"`
	ErrorMsg  string `json:"errorMsg"`
	UsrMsg    string `json:"usrMsg"`
}

func (err *RestErrorCode) NewMessage(msg string) *RestErrorCode {
	var errCopy = *err
	errCopy.message = msg
	return &errCopy
}

func (err *RestErrorCode) NewMessagef(format string, v ...interface{}) *RestErrorCode {
	return err.NewMessage(fmt.Sprintf(format, v...))
}

func (err *RestErrorCode) GetCode() int {
	return err.code
}

func (err *RestErrorCode) GetReason() string {
	return err.reason
}

func (err *RestErrorCode) GetStatus() int {
	return err.status
}

func (err *RestErrorCode) GetMessage() string {
	return err.message
}

func (err *RestErrorCode) GetResponseBody() ResponseBody {
	return ResponseBody{
		ErrorCode: err.code,
		ErrorMsg:  err.reason,
		UsrMsg:    err.message,
	}
}

func (err *RestErrorCode) String() string {
	strBytes, jsonErr := json.MarshalIndent(err.GetResponseBody(), "", "\t")
	if jsonErr != nil {
		return fmt.Sprintf("Failed to marshal error response. Error: %s", jsonErr)
	}
	return string(strBytes)
}

func (err *RestErrorCode) Error() string {
	return err.String()
}

// AsRestErrorCode unwraps err into a RestErrorCode, or wraps it into
// a generic internal error so that backing store detail never leaks
// to clients.
func AsRestErrorCode(err error) *RestErrorCode {
	if fsErr, ok := err.(*RestErrorCode); ok {
		return fsErr
	}
	return INTERNAL_FEATURESTORE_OP_FAILED
}

var FEATURESTORE_NOT_FOUND = &RestErrorCode{270000, "Feature store does not exist.", http.StatusNotFound, ""}
var FEATUREGROUP_NOT_FOUND = &RestErrorCode{270001, "Feature group does not exist.", http.StatusNotFound, ""}
var TRAINING_DATASET_NOT_FOUND = &RestErrorCode{270002, "Training dataset does not exist.", http.StatusNotFound, ""}
var STORAGE_CONNECTOR_NOT_FOUND = &RestErrorCode{270003, "Storage connector does not exist.", http.StatusNotFound, ""}

var FEATUREGROUP_EXISTS = &RestErrorCode{270010, "A feature group with the same name and version already exists.", http.StatusBadRequest, ""}
var TRAINING_DATASET_EXISTS = &RestErrorCode{270011, "A training dataset with the same name and version already exists.", http.StatusBadRequest, ""}
var STORAGE_CONNECTOR_EXISTS = &RestErrorCode{270012, "A storage connector with the same name already exists.", http.StatusBadRequest, ""}
var STORAGE_CONNECTOR_IN_USE = &RestErrorCode{270013, "The storage connector is referenced by a feature group or training dataset.", http.StatusBadRequest, ""}
var ILLEGAL_CONNECTOR_TYPE = &RestErrorCode{270014, "Illegal storage connector type.", http.StatusBadRequest, ""}
var ILLEGAL_STORAGE_CONNECTOR_NAME = &RestErrorCode{270031, "Illegal storage connector name.", http.StatusBadRequest, ""}
var JDBC_CONNECTION_STRING_NOT_PROVIDED = &RestErrorCode{270032, "JDBC connection string was not provided.", http.StatusBadRequest, ""}
var S3_BUCKET_NOT_PROVIDED = &RestErrorCode{270034, "S3 bucket was not provided.", http.StatusBadRequest, ""}
var HOPSFS_DATASET_NOT_FOUND = &RestErrorCode{270037, "HopsFS dataset does not exist or is not accessible.", http.StatusBadRequest, ""}
var ILLEGAL_OFFLINE_TABLE_NAME = &RestErrorCode{270038, "Illegal feature group name for the offline feature store.", http.StatusBadRequest, ""}
var ILLEGAL_OFFLINE_SCHEMA = &RestErrorCode{270040, "Illegal feature schema for the offline feature store.", http.StatusBadRequest, ""}
var ILLEGAL_ONLINE_SCHEMA = &RestErrorCode{270041, "The feature schema cannot be mapped to the online feature store.", http.StatusBadRequest, ""}
var ON_DEMAND_QUERY_NOT_PROVIDED = &RestErrorCode{270044, "SQL query was not provided for the on-demand feature group.", http.StatusBadRequest, ""}
var JDBC_CONNECTOR_NOT_PROVIDED = &RestErrorCode{270045, "JDBC connector was not provided.", http.StatusUnprocessableEntity, ""}
var TRAINING_DATASET_DATA_FORMAT_NOT_PROVIDED = &RestErrorCode{270057, "Data format was not provided for the training dataset.", http.StatusBadRequest, ""}
var HOPSFS_CONNECTOR_NOT_PROVIDED = &RestErrorCode{270058, "HopsFS connector was not provided.", http.StatusUnprocessableEntity, ""}
var S3_CONNECTOR_NOT_PROVIDED = &RestErrorCode{270059, "S3 connector was not provided.", http.StatusUnprocessableEntity, ""}

var ONLINE_FEATURESTORE_NOT_ENABLED = &RestErrorCode{270079, "The online feature store is not enabled.", http.StatusBadRequest, ""}
var OFFLINE_FEATURESTORE_OP_FAILED = &RestErrorCode{270080, "Offline feature store operation failed.", http.StatusInternalServerError, ""}
var ONLINE_FEATURESTORE_OP_FAILED = &RestErrorCode{270081, "Online feature store operation failed.", http.StatusInternalServerError, ""}
var FILESYSTEM_OP_FAILED = &RestErrorCode{270082, "File system operation failed.", http.StatusInternalServerError, ""}
var INTERNAL_FEATURESTORE_OP_FAILED = &RestErrorCode{270083, "Feature store operation failed.", http.StatusInternalServerError, ""}
var OPERATION_ABORTED = &RestErrorCode{270084, "The operation was aborted before completion.", http.StatusInternalServerError, ""}
var ON_DEMAND_FEATUREGROUP_NOT_SUPPORTED = &RestErrorCode{270085, "The operation is not supported for on-demand feature groups.", http.StatusBadRequest, ""}
var MALFORMED_REQUEST = &RestErrorCode{270086, "The request is malformed.", http.StatusBadRequest, ""}
