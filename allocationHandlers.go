package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/motoworks/workshop_backend/models"
)

type allocateInventoryRequest struct {
	Allocations []*models.NewItemAllocation `json:"allocations"`
}

func allocateInventoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req allocateInventoryRequest
		if !bindJSON(c, &req) {
			return
		}
		results, err := models.AllocateInventory(c.Request.Context(), req.Allocations)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"allocations": results})
	}
}

func listAllocationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		allocations, err := models.GetAllocationsForJobsheet(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if allocations == nil {
			allocations = []*models.AllocationView{}
		}
		c.JSON(http.StatusOK, allocations)
	}
}
