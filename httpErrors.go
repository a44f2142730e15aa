package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/motoworks/workshop_backend/models"
)

var errStatus = map[models.ErrorKind]int{
	models.ErrorKindInsufficientQuantity:   http.StatusBadRequest,
	models.ErrorKindInvalidInput:           http.StatusBadRequest,
	models.ErrorKindNotFound:               http.StatusNotFound,
	models.ErrorKindReadOnlyJobsheet:       http.StatusConflict,
	models.ErrorKindInvalidStateTransition: http.StatusConflict,
	models.ErrorKindTransactionFailure:     http.StatusInternalServerError,
}

// respondError writes the error body for err; store failures are logged and hidden.
func respondError(c *gin.Context, err error) {
	appErr, ok := models.AsAppError(err)
	if !ok {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	status, ok := errStatus[appErr.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": appErr.Message, "kind": appErr.Kind})
		return
	}

	body := gin.H{"error": appErr.Message, "kind": appErr.Kind}
	if appErr.Kind == models.ErrorKindReadOnlyJobsheet || appErr.Kind == models.ErrorKindInvalidStateTransition {
		body["state"] = appErr.State
	}
	c.JSON(status, body)
}

func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "kind": models.ErrorKindInvalidInput})
		return false
	}
	return true
}

func paramId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id", "kind": models.ErrorKindInvalidInput})
		return 0, false
	}
	return id, true
}

// queryIntPtr returns nil when the parameter is absent.
func queryIntPtr(c *gin.Context, name string) (*int, error) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, errors.New("invalid " + name)
	}
	return &n, nil
}
