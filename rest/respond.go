/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tomoncle/easycrud/database"
	"github.com/tomoncle/easycrud/repository"
)

// RespondJSON writes v as the JSON response body with the given status code.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RespondError writes a JSON error body {"error": msg} with the given status.
func RespondError(w http.ResponseWriter, status int, msg string) {
	RespondJSON(w, status, map[string]string{"error": msg})
}

// respondRepositoryError maps repository and driver errors to HTTP statuses:
// missing rows to 404, bad column or key input to 400, integrity violations
// (duplicate key, not null, foreign key, check constraint) to 409 carrying
// the driver message, anything else to 500.
func respondRepositoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrUnknownColumn), errors.Is(err, repository.ErrMissingKey):
		RespondError(w, http.StatusBadRequest, err.Error())
	case database.IsIntegrityError(err):
		RespondError(w, http.StatusConflict, err.Error())
	default:
		RespondError(w, http.StatusInternalServerError, err.Error())
	}
}
