package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/churnwatch/internal/customer/domain"
	"github.com/smallbiznis/churnwatch/internal/scoring/risk"
)

func (s *Server) GetPopulation(c *gin.Context) {
	stats, err := s.reporter.Stats(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}

func (s *Server) ListCustomers(c *gin.Context) {
	var status domain.Status
	switch strings.ToLower(strings.TrimSpace(c.Query("status"))) {
	case "", "all":
		status = domain.StatusAll
	case "active":
		status = domain.StatusActive
	case "churned":
		status = domain.StatusChurned
	default:
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	customers, err := s.repo.List(c.Request.Context(), s.db, domain.Filter{Status: status})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": customers})
}

type riskResponse struct {
	PassID    string         `json:"pass_id"`
	Total     int            `json:"total"`
	Predicted int            `json:"predicted"`
	Tiers     map[string]int `json:"tiers"`
	HighRisk  []highRiskItem `json:"high_risk"`
}

type highRiskItem struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Probability float64 `json:"churn_probability"`
	Decision    int     `json:"prediction"`
}

// ScorePopulation runs one scoring pass over the active population.
func (s *Server) ScorePopulation(c *gin.Context) {
	result, err := s.scorer.Pass(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := riskResponse{
		PassID:    result.PassID,
		Total:     result.Total,
		Predicted: result.Predicted,
		Tiers:     make(map[string]int, len(risk.Tiers)),
		HighRisk:  make([]highRiskItem, 0, len(result.HighRisk)),
	}
	for _, tier := range risk.Tiers {
		resp.Tiers[string(tier)] = result.Tiers[tier]
	}
	for _, scored := range result.HighRisk {
		resp.HighRisk = append(resp.HighRisk, highRiskItem{
			ID:          scored.Customer.ID,
			Name:        scored.Customer.Name,
			Probability: scored.Assessment.Probability,
			Decision:    scored.Assessment.Decision,
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCachedHighRisk(c *gin.Context) {
	if s.cache == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	limit := int64(50)
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		limit = parsed
	}

	ranked, err := s.cache.HighRisk(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": ranked})
}

func (s *Server) GetCachedAssessment(c *gin.Context) {
	if s.cache == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		AbortWithError(c, domain.ErrInvalidID)
		return
	}

	cached, ok, err := s.cache.Assessment(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !ok {
		AbortWithError(c, ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cached})
}
