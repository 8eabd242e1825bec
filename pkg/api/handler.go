// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/TFMV/InstitutionMatchPro/internal/matcher"
	"github.com/TFMV/InstitutionMatchPro/internal/registry"
	"github.com/TFMV/InstitutionMatchPro/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// Registry is the service behind the HTTP handlers.
type Registry interface {
	MatchRegion(ctx context.Context, q registry.RegionQuery) (matcher.MatchReport, error)
	GroupRegion(ctx context.Context, q registry.RegionQuery, threshold float64) (registry.RegionGroups, error)
	GroupProvinces(ctx context.Context, year int, provinces []string, threshold float64) ([]registry.RegionGroups, error)
	ConfirmMatch(ctx context.Context, c registry.Confirmation) error
}

// thresholdParam reads the optional threshold query parameter.
func thresholdParam(c *gin.Context, defaultThreshold float64) (float64, error) {
	raw := c.Query("threshold")
	if raw == "" {
		return defaultThreshold, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Wrapf(matcher.ErrInvalidThreshold, "parse %q", raw)
	}
	return v, nil
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, registry.ErrInvalidRequest),
		errors.Is(err, matcher.ErrInvalidThreshold),
		errors.Is(err, matcher.ErrNilInstitutions),
		errors.Is(err, matcher.ErrNilTargets):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// MatchesHandler ranks equipment candidates for every target of a region
func MatchesHandler(reg Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q registry.RegionQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			utils.SendError(c, http.StatusBadRequest, errors.Wrap(err, "invalid query"))
			return
		}

		report, err := reg.MatchRegion(c.Request.Context(), q)
		if err != nil {
			utils.SendError(c, statusFor(err), err)
			return
		}
		utils.SendJSON(c, http.StatusOK, "Matches found successfully", report)
	}
}

// GroupsHandler finds duplicate targets within a region
func GroupsHandler(reg Registry, defaultThreshold float64) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q registry.RegionQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			utils.SendError(c, http.StatusBadRequest, errors.Wrap(err, "invalid query"))
			return
		}

		threshold, err := thresholdParam(c, defaultThreshold)
		if err != nil {
			utils.SendError(c, http.StatusBadRequest, err)
			return
		}

		groups, err := reg.GroupRegion(c.Request.Context(), q, threshold)
		if err != nil {
			utils.SendError(c, statusFor(err), err)
			return
		}
		utils.SendJSON(c, http.StatusOK, "Groups found successfully", groups)
	}
}

// provincesQuery selects the provinces of a year to group. No province means
// every province with targets that year.
type provincesQuery struct {
	Year      int      `form:"year"`
	Provinces []string `form:"province"`
}

// ProvinceGroupsHandler finds duplicate targets in each province of a year
func ProvinceGroupsHandler(reg Registry, defaultThreshold float64) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q provincesQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			utils.SendError(c, http.StatusBadRequest, errors.Wrap(err, "invalid query"))
			return
		}
		threshold, err := thresholdParam(c, defaultThreshold)
		if err != nil {
			utils.SendError(c, http.StatusBadRequest, err)
			return
		}

		groups, err := reg.GroupProvinces(c.Request.Context(), q.Year, q.Provinces, threshold)
		if err != nil {
			utils.SendError(c, statusFor(err), err)
			return
		}
		utils.SendJSON(c, http.StatusOK, "Groups found successfully", groups)
	}
}

// ConfirmHandler records a reviewer's match confirmation
func ConfirmHandler(reg Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var conf registry.Confirmation
		if err := c.ShouldBindJSON(&conf); err != nil {
			utils.SendError(c, http.StatusBadRequest, errors.Wrap(err, "invalid confirmation"))
			return
		}
		conf.Reviewer = c.GetString(ReviewerKey)

		if err := reg.ConfirmMatch(c.Request.Context(), conf); err != nil {
			utils.SendError(c, statusFor(err), err)
			return
		}
		utils.SendJSON(c, http.StatusCreated, "Match confirmed", conf)
	}
}

// HealthCheckHandler handles health check requests
func HealthCheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		zuluTime := time.Now().UTC().Format(time.RFC3339)
		c.JSON(http.StatusOK, gin.H{
			"status":   "OK",
			"zuluTime": zuluTime,
		})
	}
}
