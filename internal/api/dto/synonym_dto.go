package dto

import (
	"time"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
)

type SynonymRequest struct {
	Term      string `json:"term"`
	Canonical string `json:"canonical"`
}

type SynonymDTO struct {
	ID        string `json:"id"`
	Term      string `json:"term"`
	Canonical string `json:"canonical"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type CreateSynonymResponse struct {
	Synonym SynonymDTO `json:"synonym"`
	Created bool       `json:"created"`
}

func NewSynonymDTO(s *domain.Synonym) SynonymDTO {
	return SynonymDTO{
		ID:        s.ID,
		Term:      s.Term,
		Canonical: s.Canonical,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt.Format(time.RFC3339),
	}
}

func NewSynonymDTOs(syns []domain.Synonym) []SynonymDTO {
	out := make([]SynonymDTO, len(syns))
	for i := range syns {
		out[i] = NewSynonymDTO(&syns[i])
	}
	return out
}
