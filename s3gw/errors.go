// Copyright 2024 Versity Software
// This file is licensed under the Apache License, Version 2.0
// (the "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package s3gw

import (
	"context"
	"errors"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"
	"github.com/versity/s3check/check"
	"github.com/versity/s3check/s3err"
)

// toGatewayError normalizes any sdk failure into the one error shape
// probes interpret. The api error code and message come from the
// smithy error chain, the HTTP status from the raw response when
// present, falling back to the well known code catalog.
func toGatewayError(op, reqID string, err error) *check.GatewayError {
	gerr := &check.GatewayError{
		Code:      "InternalError",
		Message:   err.Error(),
		RequestID: reqID,
		RawDetails: map[string]any{
			"operation": op,
		},
	}

	if errors.Is(err, context.DeadlineExceeded) {
		gerr.Code = "RequestTimeout"
		gerr.HTTPStatus = 408
		gerr.Message = "operation timed out"
		return gerr
	}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		gerr.Code = ae.ErrorCode()
		gerr.Message = ae.ErrorMessage()
	}

	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		gerr.HTTPStatus = re.HTTPStatusCode()
		if id := re.ServiceRequestID(); id != "" {
			gerr.RawDetails["service_request_id"] = id
		}
	}

	if gerr.HTTPStatus == 0 {
		gerr.HTTPStatus = s3err.StatusForCode(gerr.Code)
	}

	return gerr
}
