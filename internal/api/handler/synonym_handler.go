package handler

import (
	"net/http"

	"github.com/cuongbtq/invoice-pipeline/internal/api/dto"
	"github.com/gin-gonic/gin"
)

// ListSynonyms handles GET /api/v1/synonyms
func (h *SynonymHandler) ListSynonyms(c *gin.Context) {
	syns, err := h.synonyms.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to list synonyms")
		return
	}

	c.JSON(http.StatusOK, gin.H{"synonyms": dto.NewSynonymDTOs(syns)})
}

// CreateSynonym handles POST /api/v1/synonyms
// Creates a mapping, or updates the existing one for the same term
func (h *SynonymHandler) CreateSynonym(c *gin.Context) {
	var req dto.SynonymRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	syn, created, err := h.synonyms.Create(c.Request.Context(), req.Term, req.Canonical)
	if err != nil {
		respondError(c, h.logger, err, "Failed to save synonym")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.CreateSynonymResponse{
		Synonym: dto.NewSynonymDTO(syn),
		Created: created,
	})
}

// UpdateSynonym handles PUT /api/v1/synonyms/:id
func (h *SynonymHandler) UpdateSynonym(c *gin.Context) {
	var req dto.SynonymRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	syn, err := h.synonyms.Update(c.Request.Context(), c.Param("id"), req.Term, req.Canonical)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update synonym")
		return
	}

	c.JSON(http.StatusOK, gin.H{"synonym": dto.NewSynonymDTO(syn)})
}

// DeleteSynonym handles DELETE /api/v1/synonyms/:id
func (h *SynonymHandler) DeleteSynonym(c *gin.Context) {
	if err := h.synonyms.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "Failed to delete synonym")
		return
	}

	c.Status(http.StatusNoContent)
}
