// Package controllers holds the gin handlers. Region and analysis endpoints answer with
// {status, message, data, duplicates}; building, floor and room endpoints with
// {error, message}.
package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"campus_map/internal/apperr"
	"campus_map/internal/logger"
)

const genericFailure = "internal server error"

type statusEnvelope struct {
	Status        string      `json:"status"`
	Message       string      `json:"message,omitempty"`
	Data          interface{} `json:"data,omitempty"`
	Duplicates    []string    `json:"duplicates,omitempty"`
	MissingFields []string    `json:"missingFields,omitempty"`
}

type flagEnvelope struct {
	Error      bool        `json:"error"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Duplicates []string    `json:"duplicates,omitempty"`
}

func respondStatus(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, statusEnvelope{Status: "success", Message: message, Data: data})
}

// respondStatusError formats err for the region and analysis endpoints.
func respondStatusError(c *gin.Context, op string, err error) {
	ae := apperr.As(err)
	body := statusEnvelope{Status: "error", Message: ae.Message}
	switch ae.Kind {
	case apperr.KindValidation:
		body.MissingFields = ae.Reasons
	case apperr.KindConflict:
		body.Duplicates = ae.Reasons
	case apperr.KindStore:
		logger.FromContext(c.Request.Context()).WithError(err).Error(op + ": store failure")
		body.Message = genericFailure
	}
	c.JSON(apperr.Status(ae.Kind), body)
}

func respondFlag(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, flagEnvelope{Error: false, Message: message, Data: data})
}

// respondFlagError formats err for the building, floor and room endpoints.
func respondFlagError(c *gin.Context, op string, err error) {
	ae := apperr.As(err)
	body := flagEnvelope{Error: true, Message: ae.Message}
	switch ae.Kind {
	case apperr.KindConflict:
		body.Duplicates = ae.Reasons
	case apperr.KindStore:
		logger.FromContext(c.Request.Context()).WithError(err).Error(op + ": store failure")
		body.Message = genericFailure
	}
	c.JSON(apperr.Status(ae.Kind), body)
}

// pathID parses the :id parameter. Non-numeric and zero ids are validation errors.
func pathID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid id", "id")
	}
	return uint(id), nil
}

func badJSON(err error) error {
	return apperr.Validation("invalid JSON body: " + err.Error())
}
