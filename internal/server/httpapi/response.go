package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/ucredit/internal/common"
	"github.com/dmitrijs2005/ucredit/internal/server/services"
	"github.com/gin-gonic/gin"
)

type warningView struct {
	Step     string `json:"step"`
	CourseID string `json:"course_id"`
	TargetID string `json:"target_id"`
	Error    string `json:"error"`
}

func warnings(ws []*common.PropagationError) []warningView {
	out := make([]warningView, 0, len(ws))
	for _, w := range ws {
		out = append(out, warningView{Step: w.Step, CourseID: w.CourseID, TargetID: w.TargetID, Error: w.Err.Error()})
	}
	return out
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidReference),
		errors.Is(err, common.ErrInvalidArgument),
		errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (s *HTTPServer) fail(c *gin.Context, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		msg = common.ErrorInternal.Error()
	}
	c.JSON(code, gin.H{"message": msg})
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func mutated(c *gin.Context, res *services.MutationResult) {
	body := gin.H{"data": res.Course, "warnings": warnings(res.Warnings)}
	if res.CreditReconciliationRequired {
		body["credit_reconciliation_required"] = true
		body["affected_distribution_ids"] = res.AffectedDistributionIDs
	}
	c.JSON(http.StatusOK, body)
}

func badBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body: " + err.Error()})
}
